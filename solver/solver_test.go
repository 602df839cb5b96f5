package solver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"
)

// newTestSolver makes a solver over nbVars decidable variables and the
// given clauses, expressed as CNF literals.
func newTestSolver(opts Options, nbVars int, clauses [][]int) *Solver {
	s := NewSolver(opts)
	for i := 0; i < nbVars; i++ {
		s.NewVar(Undef, true)
	}
	for _, c := range clauses {
		s.AddClause(IntsToLits(c...))
	}
	return s
}

// random3SAT generates nbClauses random 3-clauses over nbVars variables,
// using its own generator so tests are reproducible.
func random3SAT(nbVars, nbClauses int, seed uint64) [][]int {
	state := seed
	next := func(n int) int {
		state = state*6364136223846793005 + 1442695040888963407
		return int((state >> 33) % uint64(n))
	}
	clauses := make([][]int, nbClauses)
	for i := range clauses {
		var vs [3]int
		vs[0] = next(nbVars) + 1
		for {
			vs[1] = next(nbVars) + 1
			if vs[1] != vs[0] {
				break
			}
		}
		for {
			vs[2] = next(nbVars) + 1
			if vs[2] != vs[0] && vs[2] != vs[1] {
				break
			}
		}
		clause := make([]int, 3)
		for j, v := range vs {
			if next(2) == 0 {
				clause[j] = -v
			} else {
				clause[j] = v
			}
		}
		clauses[i] = clause
	}
	return clauses
}

// pigeonhole returns the clauses stating that each of nbPigeons pigeons sits
// in one of nbHoles holes, no two pigeons sharing a hole.
func pigeonhole(nbPigeons, nbHoles int) (nbVars int, clauses [][]int) {
	lit := func(p, h int) int { return p*nbHoles + h + 1 }
	for p := 0; p < nbPigeons; p++ {
		clause := make([]int, nbHoles)
		for h := 0; h < nbHoles; h++ {
			clause[h] = lit(p, h)
		}
		clauses = append(clauses, clause)
	}
	for h := 0; h < nbHoles; h++ {
		for p1 := 0; p1 < nbPigeons; p1++ {
			for p2 := p1 + 1; p2 < nbPigeons; p2++ {
				clauses = append(clauses, []int{-lit(p1, h), -lit(p2, h)})
			}
		}
	}
	return nbPigeons * nbHoles, clauses
}

// checkInvariants verifies the solver's structural invariants: trail and
// level consistency, reason shapes, watcher registration and heap content.
func checkInvariants(t *testing.T, s *Solver) {
	t.Helper()
	for _, p := range s.trail {
		v := p.Var()
		if s.level(v) > s.DecisionLevel() {
			t.Errorf("var %d assigned at level %d > current level %d", v, s.level(v), s.DecisionLevel())
		}
		if r := s.reason(v); r != CRefUndef {
			if s.ca.lit(r, 0).Var() != v {
				t.Errorf("reason of var %d does not hold its literal first", v)
			}
			for i := 1; i < s.ca.size(r); i++ {
				l := s.ca.lit(r, i)
				if !s.isFalse(l) {
					t.Errorf("reason of var %d has non-false literal %v", v, l)
				}
				if s.level(l.Var()) > s.level(v) {
					t.Errorf("reason of var %d has literal above its level", v)
				}
			}
		}
	}
	for d := 1; d < len(s.trailLim); d++ {
		if s.trailLim[d-1] >= s.trailLim[d] {
			t.Errorf("trail_lim not strictly increasing at level %d", d)
		}
	}
	for _, lim := range s.trailLim {
		if s.reason(s.trail[lim].Var()) != CRefUndef {
			t.Errorf("decision literal %v has a reason", s.trail[lim])
		}
	}
	for _, lists := range [][]CRef{s.clauses, s.learnts} {
		for _, cr := range lists {
			if s.ca.deleted(cr) || s.ca.size(cr) < 2 {
				continue
			}
			for i := 0; i < 2; i++ {
				p := s.ca.lit(cr, i).Negation()
				found := false
				for _, w := range s.watches.occs[p] {
					if w.cref == cr {
						found = true
					}
				}
				if !found {
					t.Errorf("clause %v not watched on %v", s.ClauseLits(cr), s.ca.lit(cr, i))
				}
			}
		}
	}
	for _, v := range s.orderHeap.elems {
		if !s.decision[v] {
			t.Errorf("undecidable var %d in the order heap", v)
		}
	}
}

func TestUnitIntakeUnsat(t *testing.T) {
	s := NewSolver(DefaultOptions())
	s.NewVar(Undef, true)
	if !s.AddClause(IntsToLits(1)) {
		t.Fatalf("adding the first unit must succeed")
	}
	if s.AddClause(IntsToLits(-1)) {
		t.Fatalf("adding the opposite unit must fail")
	}
	if s.Okay() {
		t.Errorf("solver should not be okay anymore")
	}
	if status := s.Solve(nil, false); status != Unsat {
		t.Errorf("expected UNSAT, got %v", status)
	}
	if len(s.Conflict()) != 0 {
		t.Errorf("expected an empty conflict, got %v", s.Conflict())
	}
}

func TestChain(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 3, [][]int{{1, 2}, {-1, 3}, {-2, -3}, {-3}})
	if status := s.Solve(nil, false); status != Sat {
		t.Fatalf("expected SAT, got %v", status)
	}
	expected := []Value{False, True, False}
	if diff := cmp.Diff(expected, s.Model()); diff != "" {
		t.Errorf("invalid model (-expected +got):\n%s", diff)
	}
	checkInvariants(t, s)
}

func TestAssumptionUnsat(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 3, [][]int{{-1, 2}, {-2, 3}})
	if status := s.Solve(IntsToLits(1, -3), false); status != Unsat {
		t.Fatalf("expected UNSAT under assumptions, got %v", status)
	}
	conflict := s.Conflict()
	if len(conflict) == 0 {
		t.Fatalf("expected a non-empty conflict")
	}
	allowed := map[Lit]bool{IntToLit(-1): true, IntToLit(3): true}
	for _, l := range conflict {
		if !allowed[l] {
			t.Errorf("conflict literal %v not in {-1, 3}", l)
		}
	}
	if !s.Okay() {
		t.Errorf("assumption conflicts must not latch the okay flag")
	}

	// Re-solving under the guilty assumptions must fail again.
	replay := make([]Lit, len(conflict))
	for i, l := range conflict {
		replay[i] = l.Negation()
	}
	if status := s.Solve(replay, false); status != Unsat {
		t.Errorf("expected UNSAT when replaying the conflict, got %v", status)
	}
	for _, l := range s.Conflict() {
		if !allowed[l] {
			t.Errorf("replayed conflict literal %v not in {-1, 3}", l)
		}
	}
}

func TestConflictBudget(t *testing.T) {
	nbVars, clauses := pigeonhole(6, 5)
	opts := DefaultOptions()
	opts.ConflictBudget = 0
	s := newTestSolver(opts, nbVars, clauses)
	if status := s.Solve(nil, false); status != Indet {
		t.Errorf("expected INDETERMINATE with a zero conflict budget, got %v", status)
	}
	if !s.Okay() {
		t.Errorf("running out of budget must not latch the okay flag")
	}
	// Lifting the budget must let the search finish.
	s.SetConflictBudget(-1)
	if status := s.Solve(nil, false); status != Unsat {
		t.Errorf("expected UNSAT once the budget is lifted, got %v", status)
	}
}

func TestPropagationBudget(t *testing.T) {
	nbVars, clauses := pigeonhole(6, 5)
	opts := DefaultOptions()
	opts.PropBudget = 1
	s := newTestSolver(opts, nbVars, clauses)
	if status := s.Solve(nil, false); status != Indet {
		t.Errorf("expected INDETERMINATE with a tiny propagation budget, got %v", status)
	}
}

func TestGCRoundTrip(t *testing.T) {
	clauses := random3SAT(200, 10000, 1)
	s1 := newTestSolver(DefaultOptions(), 200, clauses)
	status1 := s1.Solve(nil, false)

	opts := DefaultOptions()
	opts.GarbageFrac = 0 // Collect on every sweep.
	s2 := newTestSolver(opts, 200, clauses)
	status2 := s2.Solve(nil, false)

	if status1 != status2 {
		t.Fatalf("garbage collection changed the outcome: %v vs %v", status1, status2)
	}
	if s1.Stats.Conflicts != s2.Stats.Conflicts {
		t.Errorf("garbage collection changed the search: %d vs %d conflicts", s1.Stats.Conflicts, s2.Stats.Conflicts)
	}
	if status1 == Sat {
		if diff := pretty.Diff(s1.Model(), s2.Model()); len(diff) != 0 {
			t.Errorf("garbage collection changed the model: %v", diff)
		}
	}
}

func TestAssumptionTrueShortCircuit(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 1, [][]int{{1}})
	if status := s.Solve(IntsToLits(1), false); status != Sat {
		t.Fatalf("expected SAT, got %v", status)
	}
	if s.Model()[0] != True {
		t.Errorf("expected 1 to be true, got %v", s.Model()[0])
	}
	if s.Stats.Conflicts != 0 {
		t.Errorf("expected no conflict, got %d", s.Stats.Conflicts)
	}
}

func TestDeterminism(t *testing.T) {
	clauses := random3SAT(60, 250, 42)
	s1 := newTestSolver(DefaultOptions(), 60, clauses)
	s2 := newTestSolver(DefaultOptions(), 60, clauses)
	status1 := s1.Solve(nil, false)
	status2 := s2.Solve(nil, false)
	if status1 != status2 {
		t.Fatalf("identical runs diverged: %v vs %v", status1, status2)
	}
	if s1.Stats.Conflicts != s2.Stats.Conflicts || s1.Stats.Decisions != s2.Stats.Decisions ||
		s1.Stats.Starts != s2.Stats.Starts {
		t.Errorf("identical runs have different statistics: %+v vs %+v", s1.Stats, s2.Stats)
	}
	if status1 == Sat {
		if diff := cmp.Diff(s1.Model(), s2.Model()); diff != "" {
			t.Errorf("identical runs found different models:\n%s", diff)
		}
	}
}

func TestSatModelSatisfiesClauses(t *testing.T) {
	clauses := random3SAT(100, 300, 7)
	s := newTestSolver(DefaultOptions(), 100, clauses)
	status := s.Solve(nil, false)
	if status == Indet {
		t.Fatalf("unbudgeted solve must not return INDETERMINATE")
	}
	if status != Sat {
		t.Skipf("instance turned out UNSAT, nothing to check")
	}
	model := s.Model()
	for _, clause := range clauses {
		ok := false
		for _, val := range clause {
			l := IntToLit(val)
			if bound := model[l.Var()]; bound != Undef && (bound == True) == l.IsPositive() {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("clause %v not satisfied by the model", clause)
		}
	}
	checkInvariants(t, s)
}

func TestSimplifyIdempotent(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 4, [][]int{{1}, {1, 2}, {-1, 3, 4}, {3, -4}})
	if !s.Simplify() {
		t.Fatalf("simplify failed on a consistent database")
	}
	nbClauses := s.NbClauses()
	assigns, props := s.simpDBAssigns, s.simpDBProps
	if !s.Simplify() {
		t.Fatalf("second simplify failed")
	}
	if s.NbClauses() != nbClauses {
		t.Errorf("second simplify changed the database: %d vs %d clauses", nbClauses, s.NbClauses())
	}
	if s.simpDBAssigns != assigns || s.simpDBProps != props {
		t.Errorf("second simplify did not short-circuit on the watermarks")
	}
}

func TestSaveResetState(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 3, [][]int{{1, 2}})
	s.SaveState()
	if !s.AddClause(IntsToLits(-1, 3)) || !s.AddClause(IntsToLits(-3, 2)) {
		t.Fatalf("intake failed")
	}
	if s.NbClauses() != 3 {
		t.Fatalf("expected 3 clauses before reset, got %d", s.NbClauses())
	}
	s.ResetState()
	if s.NbClauses() != 1 {
		t.Errorf("expected 1 clause after reset, got %d", s.NbClauses())
	}
	if s.NbLearnts() != 0 {
		t.Errorf("expected no learned clause after reset, got %d", s.NbLearnts())
	}
	if status := s.Solve(nil, false); status != Sat {
		t.Errorf("expected SAT after reset, got %v", status)
	}
}

func TestNoSearch(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 2, [][]int{{1, 2}})
	if status := s.Solve(nil, true); status != Sat {
		t.Errorf("expected SAT in nosearch mode, got %v", status)
	}
	if s.Stats.Decisions != 0 {
		t.Errorf("nosearch mode must not branch, got %d decisions", s.Stats.Decisions)
	}

	s = NewSolver(DefaultOptions())
	s.NewVar(Undef, true)
	s.AddClause(IntsToLits(1))
	s.AddClause(IntsToLits(-1))
	if status := s.Solve(nil, true); status != Unsat {
		t.Errorf("expected UNSAT in nosearch mode, got %v", status)
	}
}

func TestInterrupt(t *testing.T) {
	nbVars, clauses := pigeonhole(6, 5)
	s := newTestSolver(DefaultOptions(), nbVars, clauses)
	s.Interrupt()
	if status := s.Solve(nil, false); status != Indet {
		t.Errorf("expected INDETERMINATE after an interrupt, got %v", status)
	}
	s.ClearInterrupt()
	if status := s.Solve(nil, false); status != Unsat {
		t.Errorf("expected UNSAT after clearing the interrupt, got %v", status)
	}
}

func TestPigeonhole(t *testing.T) {
	nbVars, clauses := pigeonhole(4, 3)
	s := newTestSolver(DefaultOptions(), nbVars, clauses)
	if status := s.Solve(nil, false); status != Unsat {
		t.Errorf("expected UNSAT for the pigeonhole problem, got %v", status)
	}
	if len(s.Conflict()) != 0 {
		t.Errorf("expected an empty conflict without assumptions, got %v", s.Conflict())
	}
}

func TestCcminModes(t *testing.T) {
	clauses := random3SAT(80, 320, 3)
	var statuses []Status
	for mode := 0; mode <= 2; mode++ {
		opts := DefaultOptions()
		opts.CcminMode = mode
		s := newTestSolver(opts, 80, clauses)
		statuses = append(statuses, s.Solve(nil, false))
	}
	if statuses[0] != statuses[1] || statuses[1] != statuses[2] {
		t.Errorf("minimization modes disagree on the outcome: %v", statuses)
	}
}

func TestPhaseSavingModes(t *testing.T) {
	clauses := random3SAT(80, 320, 5)
	for mode := 0; mode <= 2; mode++ {
		opts := DefaultOptions()
		opts.PhaseSaving = mode
		s := newTestSolver(opts, 80, clauses)
		if status := s.Solve(nil, false); status == Indet {
			t.Errorf("phase saving mode %d: unexpected INDETERMINATE", mode)
		}
	}
}

func TestRandomizedHeuristics(t *testing.T) {
	clauses := random3SAT(60, 240, 11)
	opts := DefaultOptions()
	opts.RandomVarFreq = 0.2
	opts.RndPol = true
	opts.RndInitAct = true
	s := newTestSolver(opts, 60, clauses)
	if status := s.Solve(nil, false); status == Indet {
		t.Errorf("unexpected INDETERMINATE with randomized heuristics")
	}
	// Randomized or not, the run must stay reproducible.
	s2 := newTestSolver(opts, 60, clauses)
	s2.Solve(nil, false)
	if s.Stats.Conflicts != s2.Stats.Conflicts {
		t.Errorf("randomized heuristics broke determinism: %d vs %d conflicts", s.Stats.Conflicts, s2.Stats.Conflicts)
	}
}

func TestGeometricRestarts(t *testing.T) {
	nbVars, clauses := pigeonhole(5, 4)
	opts := DefaultOptions()
	opts.LubyRestart = false
	opts.RestartFirst = 10
	s := newTestSolver(opts, nbVars, clauses)
	if status := s.Solve(nil, false); status != Unsat {
		t.Errorf("expected UNSAT with geometric restarts, got %v", status)
	}
}

func TestAddLearnedClause(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 3, [][]int{{1, 2}})
	cr := s.AllocClause(IntsToLits(2, 3), true)
	s.AddLearnedClause(cr)
	if s.NbLearnts() != 1 {
		t.Fatalf("expected 1 learned clause, got %d", s.NbLearnts())
	}
	unit := s.AllocClause(IntsToLits(-1), true)
	s.AddLearnedClause(unit)
	if s.VarValue(IntToVar(1)) != False {
		t.Errorf("learned unit was not asserted at the root")
	}
	if status := s.Solve(nil, false); status != Sat {
		t.Errorf("expected SAT, got %v", status)
	}
	checkInvariants(t, s)
}

func TestUndecidableVarStaysUnassigned(t *testing.T) {
	s := NewSolver(DefaultOptions())
	s.NewVar(Undef, false)
	if status := s.Solve(nil, false); status != Sat {
		t.Fatalf("expected SAT on an empty problem, got %v", status)
	}
	if s.Model()[0] != Undef {
		t.Errorf("undecidable, unconstrained var should stay unbound, got %v", s.Model()[0])
	}
}

func TestUserPolarity(t *testing.T) {
	s := NewSolver(DefaultOptions())
	// A pinned polarity of False branches the variable positive first.
	v := s.NewVar(False, true)
	s.NewVar(True, true)
	if status := s.Solve(nil, false); status != Sat {
		t.Fatalf("expected SAT, got %v", status)
	}
	if s.Model()[v] != True {
		t.Errorf("expected var %d to be branched true, got %v", v, s.Model()[v])
	}
	if s.Model()[1] != False {
		t.Errorf("expected var 1 to be branched false, got %v", s.Model()[1])
	}
}

func TestAddBinaryOrLargerClause(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 3, [][]int{{1}})
	// Unlike AddClause, the raw intake keeps root-satisfied clauses.
	cr, ok := s.AddBinaryOrLargerClause(IntsToLits(1, 2))
	if !ok || cr == CRefUndef {
		t.Fatalf("raw intake failed")
	}
	if s.NbClauses() != 1 {
		t.Fatalf("expected the satisfied clause to be stored, got %d clauses", s.NbClauses())
	}
	if got := len(s.ClauseLits(cr)); got != 2 {
		t.Errorf("expected 2 literals, got %d", got)
	}
	if status := s.Solve(nil, false); status != Sat {
		t.Errorf("expected SAT, got %v", status)
	}
	checkInvariants(t, s)
}

func TestTotalModelFound(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 2, [][]int{{1, 2}})
	if s.TotalModelFound() {
		t.Errorf("no variable is assigned yet")
	}
	if status := s.Solve(nil, false); status != Sat {
		t.Fatalf("expected SAT, got %v", status)
	}
	if !s.TotalModelFound() {
		t.Errorf("every decidable variable should be assigned after SAT")
	}
	if !s.FullAssignmentFound() {
		t.Errorf("the search should have reached a full assignment")
	}
}

func TestGetDecisions(t *testing.T) {
	s := newTestSolver(DefaultOptions(), 3, nil)
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(1), CRefUndef)
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(-2), CRefUndef)
	if diff := cmp.Diff(IntsToLits(1, -2), s.GetDecisions()); diff != "" {
		t.Errorf("invalid decisions (-expected +got):\n%s", diff)
	}
	s.cancelUntil(0)
	if len(s.GetDecisions()) != 0 {
		t.Errorf("decisions should be empty after backtracking to the root")
	}
	checkInvariants(t, s)
}
