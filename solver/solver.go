package solver

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// varData associates, for each assigned variable, the clause that implied it
// (CRefUndef for decisions and assumptions) and the decision level it was
// assigned at.
type varData struct {
	reason CRef
	level  int
}

// A Solver holds a set of clauses over boolean variables and searches for an
// assignment satisfying all of them. It is the main data structure.
type Solver struct {
	opts Options
	log  logrus.FieldLogger
	host Host
	rand prng

	ok bool // False iff the clause set was proven contradictory at the root level.

	ca      *arena
	clauses []CRef // List of problem clauses.
	learnts []CRef // List of learned clauses.

	watches watcherList

	assigns  []Value   // Current binding of each variable.
	vardata  []varData // Reason and level for each variable.
	activity []float64 // How often each var is involved in conflicts.
	polarity []bool    // Saved phase for each var; true means branch negative.
	userPol  []Value   // User-pinned polarity for each var, if any.
	decision []bool    // Whether each var is eligible for branching.
	seen     []byte    // Scratch marks used by conflict analysis.

	trail    []Lit // Current assignment stack, in assignment order.
	trailLim []int // Index into trail of the first literal of each decision level.
	qhead    int   // Head of the propagation queue, as an index into trail.

	orderHeap orderHeap

	varInc float64 // On each var bump, how big the increment should be.
	claInc float64 // On each clause bump, how big the increment should be.

	assumptions []Lit
	model       []Value // Last model found, if any.
	conflict    []Lit   // Final conflict over the assumptions, if any.

	maxLearnts            float64
	learntsizeAdjustCnt   int
	learntsizeAdjustConfl float64

	simpDBAssigns int   // Nb of root assignments at the last simplification.
	simpDBProps   int64 // Remaining propagations before the next simplification is useful.

	fullAssignment bool // True while every decidable variable is assigned.
	customHeurFreq float64

	conflictBudget    int64 // -1 means no budget.
	propagationBudget int64 // -1 means no budget.
	terminate         bool  // Set externally; checked cooperatively.

	progressEst float64

	// Saved root state, for ResetState.
	savedOK          bool
	savedLevel       int
	savedClausesSize int
	savedQhead       int
	savedTrail       []Lit
	savedTrailLim    []int

	// Reusable buffers for conflict analysis.
	analyzeToClear []Lit
	analyzeStack   []Lit

	Stats Stats // Statistics about the solving process.
}

// NewSolver returns an empty solver with the given options.
// Variables and clauses are then added with NewVar and AddClause.
func NewSolver(opts Options) *Solver {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Solver{
		opts:              opts,
		log:               log,
		rand:              prng{seed: opts.RandomSeed},
		ok:                true,
		ca:                newArena(1024),
		varInc:            1,
		claInc:            1,
		simpDBAssigns:     -1,
		customHeurFreq:    opts.CustomHeurFreq,
		conflictBudget:    opts.ConflictBudget,
		propagationBudget: opts.PropBudget,
	}
}

// SetHost attaches the enclosing propagator framework. It must be called
// before any variable or clause is added.
func (s *Solver) SetHost(h Host) {
	s.host = h
}

// Okay is false iff the solver is in a permanently contradictory state.
// Once false, every further intake and solve fails immediately.
func (s *Solver) Okay() bool {
	return s.ok
}

// NbVars returns the current number of variables.
func (s *Solver) NbVars() int { return len(s.vardata) }

// NbClauses returns the current number of problem clauses.
func (s *Solver) NbClauses() int { return len(s.clauses) }

// NbLearnts returns the current number of learned clauses.
func (s *Solver) NbLearnts() int { return len(s.learnts) }

// nAssigns returns the number of currently assigned literals.
func (s *Solver) nAssigns() int { return len(s.trail) }

// VarValue returns the current binding of v.
func (s *Solver) VarValue(v Var) Value {
	return s.assigns[v]
}

// LitValue returns the current binding of l.
func (s *Solver) LitValue(l Lit) Value {
	val := s.assigns[l.Var()]
	if val == Undef {
		return Undef
	}
	if (val == True) == l.IsPositive() {
		return True
	}
	return False
}

func (s *Solver) isTrue(l Lit) bool  { return s.LitValue(l) == True }
func (s *Solver) isFalse(l Lit) bool { return s.LitValue(l) == False }

// level returns the decision level v was assigned at.
func (s *Solver) level(v Var) int { return s.vardata[v].level }

// reason returns the clause that implied v, or CRefUndef for decisions.
func (s *Solver) reason(v Var) CRef { return s.vardata[v].reason }

// DecisionLevel returns the current decision level.
func (s *Solver) DecisionLevel() int { return len(s.trailLim) }

// abstractLevel maps v's level onto a 32-bit set, used to abort
// minimization early.
func (s *Solver) abstractLevel(v Var) uint32 {
	return 1 << (uint32(s.level(v)) & 31)
}

// NewVar appends a fresh variable and returns its index. upol pins the
// polarity branching will use for it (Undef leaves the choice to phase
// saving), dvar states whether branching may pick it.
func (s *Solver) NewVar(upol Value, dvar bool) Var {
	v := Var(s.NbVars())
	s.watches.initVar()
	s.assigns = append(s.assigns, Undef)
	s.vardata = append(s.vardata, varData{reason: CRefUndef})
	act := 0.0
	if s.opts.RndInitAct {
		act = s.rand.float() * 0.00001
	}
	s.activity = append(s.activity, act)
	s.orderHeap.activity = s.activity
	s.seen = append(s.seen, 0)
	s.polarity = append(s.polarity, true)
	s.userPol = append(s.userPol, upol)
	s.decision = append(s.decision, false)
	if s.host != nil {
		s.host.VarAdded() // Must precede decidability so the host knows the var.
	}
	s.SetDecidable(v, dvar)
	return v
}

// SetDecidable sets whether branching may pick v. Idempotent; the host is
// notified on each false-to-true transition.
func (s *Solver) SetDecidable(v Var, decide bool) {
	newDecidable := decide && !s.decision[v]
	if newDecidable {
		s.Stats.DecVars++
	} else if !decide && s.decision[v] {
		s.Stats.DecVars--
	}
	s.decision[v] = decide
	s.insertVarOrder(v)
	if newDecidable && s.host != nil {
		s.host.BecameDecidable(v)
	}
}

// IsDecidable returns whether branching may pick v.
func (s *Solver) IsDecidable(v Var) bool {
	return s.decision[v]
}

// insertVarOrder inserts v into the order heap if it belongs there.
func (s *Solver) insertVarOrder(v Var) {
	if !s.orderHeap.contains(v) && s.decision[v] {
		s.orderHeap.insert(v)
	}
}

func (s *Solver) varDecayActivity() {
	s.varInc *= 1 / s.opts.VarDecay
}

func (s *Solver) varBumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > 1e100 { // Rescaling is needed to avoid overflowing
		for i := range s.activity {
			s.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	if s.orderHeap.contains(v) {
		s.orderHeap.decrease(v)
	}
}

func (s *Solver) claDecayActivity() {
	s.claInc *= 1 / s.opts.ClauseDecay
}

func (s *Solver) claBumpActivity(cr CRef) {
	act := s.ca.activity(cr) + float32(s.claInc)
	s.ca.setActivity(cr, act)
	if act > 1e20 { // Rescale to avoid overflow
		for _, lr := range s.learnts {
			s.ca.setActivity(lr, s.ca.activity(lr)*1e-20)
		}
		s.claInc *= 1e-20
	}
}

// permuteRandomly shuffles the literals of a clause being added, so that
// search does not depend on the order the caller introduced them in.
func (s *Solver) permuteRandomly(ps []Lit) {
	for i := len(ps) - 1; i > 0; i-- {
		j := s.rand.intn(i + 1)
		ps[i], ps[j] = ps[j], ps[i]
	}
}

// AddClause adds a clause to the problem. The clause is simplified against
// the root-level assignment: duplicate and root-false literals are removed,
// and the clause is dropped if already satisfied. An empty result makes the
// problem permanently unsatisfiable, a unit one is propagated right away.
// Returns false iff the solver is now in a contradictory state.
func (s *Solver) AddClause(lits []Lit) bool {
	if !s.ok {
		return false
	}
	ps := make([]Lit, len(lits))
	copy(ps, lits)

	if s.DecisionLevel() > 0 {
		nonFalse := 0
		for i := 0; i < len(ps) && nonFalse < 2; i++ {
			if !s.isFalse(ps[i]) {
				nonFalse++
			}
		}
		if nonFalse < 2 {
			s.cancelUntil(0)
			return s.AddClause(ps)
		}
	}

	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })

	if s.DecisionLevel() == 0 {
		// Check satisfaction and remove false or duplicate literals.
		j := 0
		p := LitUndef
		for i := 0; i < len(ps); i++ {
			if s.isTrue(ps[i]) || ps[i] == p.Negation() {
				return true
			}
			if !s.isFalse(ps[i]) && ps[i] != p {
				p = ps[i]
				ps[j] = p
				j++
			}
		}
		ps = ps[:j]
	}

	s.permuteRandomly(ps)

	switch {
	case len(ps) == 0:
		s.ok = false
		return false
	case len(ps) == 1:
		s.uncheckedEnqueue(ps[0], CRefUndef)
		s.ok = s.hostPropagate() == CRefUndef
		return s.ok
	default:
		if s.DecisionLevel() > 0 {
			// Make sure the second watch is not false.
			for i := 0; i < len(ps); i++ {
				if !s.isFalse(ps[i]) {
					ps[i], ps[1] = ps[1], ps[i]
					break
				}
			}
		}
		cr := s.ca.alloc(ps, false)
		s.addToClauses(cr, false)
		s.attachClause(cr)
	}
	return true
}

// AddBinaryOrLargerClause adds a clause of at least two literals without any
// root-level reduction, and returns its reference. Must be called at the
// root level.
func (s *Solver) AddBinaryOrLargerClause(lits []Lit) (CRef, bool) {
	if s.DecisionLevel() != 0 {
		panic("adding a raw clause above the root level")
	}
	if !s.ok {
		return CRefUndef, false
	}
	if len(lits) < 2 {
		panic("raw clause needs at least two literals")
	}
	ps := make([]Lit, len(lits))
	copy(ps, lits)
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	s.permuteRandomly(ps)

	cr := s.ca.alloc(ps, false)
	s.addToClauses(cr, false)
	s.attachClause(cr)
	return cr, true
}

// AddLearnedClause records a clause produced outside the solver as a learned
// clause. Units are re-added at the root level instead.
func (s *Solver) AddLearnedClause(cr CRef) {
	if s.ca.size(cr) > 1 {
		s.addToClauses(cr, true)
		s.attachClause(cr)
		s.claBumpActivity(cr)
		return
	}
	s.cancelUntil(0)
	s.AddClause([]Lit{s.ca.lit(cr, 0)})
}

// AllocClause stores a clause in the arena without attaching it, and returns
// its reference. This is how hosts materialize explanation and conflict
// clauses for the solver.
func (s *Solver) AllocClause(lits []Lit, learned bool) CRef {
	return s.ca.alloc(lits, learned)
}

// ClauseLits returns a copy of the literals of the given clause.
func (s *Solver) ClauseLits(cr CRef) []Lit {
	return s.ca.litSlice(cr)
}

// addToClauses registers a freshly allocated clause and notifies the host.
func (s *Solver) addToClauses(cr CRef, learned bool) {
	if s.host != nil {
		s.host.ClauseAdded(cr)
	}
	if learned {
		s.learnts = append(s.learnts, cr)
	} else {
		s.clauses = append(s.clauses, cr)
	}
}

// checkDecisionVars makes sure at least one non-false watch of the clause is
// a decidable variable, promoting one if needed. This guarantees that once
// every decidable variable is assigned, no clause can be left unsatisfied
// unnoticed.
func (s *Solver) checkDecisionVars(cr CRef) {
	c0 := s.ca.lit(cr, 0)
	c1 := s.ca.lit(cr, 1)
	if s.isFalse(c0) {
		s.SetDecidable(c1.Var(), true)
	} else if s.isFalse(c1) {
		s.SetDecidable(c0.Var(), true)
	} else if !s.decision[c0.Var()] && !s.decision[c1.Var()] {
		choice := s.rand.intn(2)
		s.SetDecidable(s.ca.lit(cr, choice).Var(), true)
	}
}

// attachClause registers the clause's two watches.
func (s *Solver) attachClause(cr CRef) {
	size := s.ca.size(cr)
	if size < 2 {
		panic("attaching a unit clause")
	}
	c0 := s.ca.lit(cr, 0)
	c1 := s.ca.lit(cr, 1)
	s.watches.watch(c0.Negation(), watcher{cref: cr, blocker: c1})
	s.watches.watch(c1.Negation(), watcher{cref: cr, blocker: c0})
	if s.ca.learned(cr) {
		s.Stats.LearntsLiterals += int64(size)
	} else {
		s.Stats.ClausesLiterals += int64(size)
	}
	if !s.ca.learned(cr) || !s.isFalse(c0) || !s.isFalse(c1) {
		s.checkDecisionVars(cr)
	}
}

// detachClause unregisters the clause's two watches. In non-strict mode the
// removal is lazy: the lists are only marked dirty and swept later.
func (s *Solver) detachClause(cr CRef, strict bool) {
	size := s.ca.size(cr)
	if size < 2 {
		panic("detaching a unit clause")
	}
	c0 := s.ca.lit(cr, 0)
	c1 := s.ca.lit(cr, 1)
	if strict {
		s.watches.remove(c0.Negation(), cr)
		s.watches.remove(c1.Negation(), cr)
	} else {
		// Lazy detaching. All watcher lists must be cleaned before this
		// clause can be garbage collected.
		s.watches.smudge(c0.Negation())
		s.watches.smudge(c1.Negation())
	}
	if s.ca.learned(cr) {
		s.Stats.LearntsLiterals -= int64(size)
	} else {
		s.Stats.ClausesLiterals -= int64(size)
	}
}

// removeClause detaches and frees the clause.
func (s *Solver) removeClause(cr CRef) {
	s.detachClause(cr, false)
	// Don't leave a reason pointing at freed memory.
	if s.locked(cr) {
		s.vardata[s.ca.lit(cr, 0).Var()].reason = CRefUndef
	}
	s.ca.free(cr)
}

// locked is true iff the clause is the reason of a currently assigned
// variable. Locked clauses must not be deleted.
func (s *Solver) locked(cr CRef) bool {
	c0 := s.ca.lit(cr, 0)
	return s.isTrue(c0) && s.reason(c0.Var()) == cr
}

// satisfied is true iff some literal of the clause is true.
func (s *Solver) satisfied(cr CRef) bool {
	for i := 0; i < s.ca.size(cr); i++ {
		if s.isTrue(s.ca.lit(cr, i)) {
			return true
		}
	}
	return false
}

// UncheckedEnqueue asserts p as true, with the given clause as its reason
// (CRefUndef for decisions and host-injected facts). p must be unbound.
func (s *Solver) UncheckedEnqueue(p Lit, from CRef) {
	s.uncheckedEnqueue(p, from)
}

func (s *Solver) uncheckedEnqueue(p Lit, from CRef) {
	if s.LitValue(p) != Undef {
		panic("enqueuing an already bound literal")
	}
	v := p.Var()
	if p.IsPositive() {
		s.assigns[v] = True
	} else {
		s.assigns[v] = False
	}
	s.vardata[v] = varData{reason: from, level: s.DecisionLevel()}
	s.trail = append(s.trail, p)
	if !s.decision[v] {
		// Undecidable vars may still be assigned by propagation; promote them
		// so the watcher invariants stay satisfiable.
		s.SetDecidable(v, true)
	}
	if s.host != nil {
		s.host.SetTrue(p)
	}
}

// newDecisionLevel opens a new decision level.
func (s *Solver) newDecisionLevel() {
	s.trailLim = append(s.trailLim, len(s.trail))
	if s.host != nil {
		s.host.NewDecisionLevel()
	}
}

// cancelUntil reverts to the state at the given level, keeping all
// assignments at 'level' but not beyond.
func (s *Solver) cancelUntil(level int) {
	if s.DecisionLevel() <= level {
		return
	}
	s.fullAssignment = false
	decision := s.trail[s.trailLim[level]]
	for c := len(s.trail) - 1; c >= s.trailLim[level]; c-- {
		p := s.trail[c]
		x := p.Var()
		s.assigns[x] = Undef
		if s.opts.PhaseSaving > 1 || (s.opts.PhaseSaving == 1 && c > s.trailLim[len(s.trailLim)-1]) {
			s.polarity[x] = !p.IsPositive()
		}
		s.insertVarOrder(x)
	}
	s.qhead = s.trailLim[level]
	s.trail = s.trail[:s.trailLim[level]]
	s.trailLim = s.trailLim[:level]
	if s.host != nil {
		s.host.BacktrackDecisionLevel(level, decision)
	}
}

// FullAssignmentFound reports whether the last search reached a state where
// every decidable variable was assigned. Backtracking clears it.
func (s *Solver) FullAssignmentFound() bool {
	return s.fullAssignment
}

// GetDecisions returns the decision literal of each open level, in order.
func (s *Solver) GetDecisions() []Lit {
	res := make([]Lit, 0, len(s.trailLim))
	for _, lim := range s.trailLim {
		res = append(res, s.trail[lim])
	}
	return res
}

// SaveState snapshots the root-level state so that clauses added afterwards
// can be rolled back with ResetState. Satisfied-clause removal is disabled
// from then on, so saved clause indices stay meaningful; ResetState does not
// turn it back on.
func (s *Solver) SaveState() {
	s.savedOK = s.ok
	s.savedLevel = s.DecisionLevel()
	s.savedClausesSize = len(s.clauses)
	s.opts.RemoveSatisfied = false
	s.savedQhead = s.qhead
	s.savedTrail = append(s.savedTrail[:0], s.trail...)
	s.savedTrailLim = append(s.savedTrailLim[:0], s.trailLim...)
}

// ResetState rolls back to the last saved state: problem clauses added since
// then are removed, and every learned clause is forgotten.
func (s *Solver) ResetState() {
	s.ok = s.savedOK
	s.cancelUntil(s.savedLevel)
	s.qhead = s.savedQhead
	s.trail = append(s.trail[:0], s.savedTrail...)
	s.trailLim = append(s.trailLim[:0], s.savedTrailLim...)

	for i := s.savedClausesSize; i < len(s.clauses); i++ {
		s.removeClause(s.clauses[i])
	}
	s.clauses = s.clauses[:s.savedClausesSize]
	for _, lr := range s.learnts {
		s.removeClause(lr)
	}
	s.learnts = s.learnts[:0]
}

// Interrupt asks the solver to stop searching as soon as possible. Search
// then returns Indet without breaking any internal invariant.
func (s *Solver) Interrupt() { s.terminate = true }

// ClearInterrupt resets the interrupt flag.
func (s *Solver) ClearInterrupt() { s.terminate = false }

func (s *Solver) terminateRequested() bool { return s.terminate }

// SetConflictBudget limits the total number of conflicts for subsequent
// searches; a negative value removes the limit.
func (s *Solver) SetConflictBudget(n int64) {
	if n < 0 {
		s.conflictBudget = -1
	} else {
		s.conflictBudget = int64(s.Stats.Conflicts) + n
	}
}

// SetPropagationBudget limits the total number of propagations for
// subsequent searches; a negative value removes the limit.
func (s *Solver) SetPropagationBudget(n int64) {
	if n < 0 {
		s.propagationBudget = -1
	} else {
		s.propagationBudget = int64(s.Stats.Propagations) + n
	}
}

func (s *Solver) withinBudget() bool {
	return (s.conflictBudget < 0 || int64(s.Stats.Conflicts) < s.conflictBudget) &&
		(s.propagationBudget < 0 || int64(s.Stats.Propagations) < s.propagationBudget)
}

// Model returns, for each variable, its binding in the last model found.
// It must only be called after Solve returned Sat.
func (s *Solver) Model() []Value {
	if s.model == nil {
		panic("cannot call Model() on a non-Sat solver")
	}
	res := make([]Value, len(s.model))
	copy(res, s.model)
	return res
}

// Conflict returns the final conflict over the assumptions of the last
// Solve call: a set of negated assumptions sufficient to derive the
// contradiction. It is empty if the problem is unconditionally
// unsatisfiable.
func (s *Solver) Conflict() []Lit {
	res := make([]Lit, len(s.conflict))
	copy(res, s.conflict)
	return res
}

// FinishParsing tells the solver the intake phase is over. It simplifies
// the database once and notifies the host.
func (s *Solver) FinishParsing() bool {
	res := s.Simplify()
	if s.host != nil {
		s.host.FinishParsing()
	}
	return res
}

// hostPropagate routes propagation through the host when one is attached.
func (s *Solver) hostPropagate() CRef {
	if s.host != nil {
		return s.host.Propagate()
	}
	return s.Propagate()
}

func (s *Solver) hostExplain(p Lit) CRef {
	if s.host == nil {
		panic("literal " + p.String() + " has no reason and no host can explain it")
	}
	return s.host.Explain(p)
}

func (s *Solver) hostCheckFullAssignment() CRef {
	if s.host == nil {
		return CRefUndef
	}
	return s.host.CheckFullAssignment()
}
