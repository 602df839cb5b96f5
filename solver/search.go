package solver

import (
	"math"
	"sort"
)

// pickBranchLit returns the next branching literal, or LitUndef when every
// decidable variable is already assigned.
func (s *Solver) pickBranchLit() Lit {
	next := VarUndef

	// Random decision:
	if s.rand.float() < s.opts.RandomVarFreq && !s.orderHeap.empty() {
		next = s.orderHeap.get(s.rand.intn(s.orderHeap.len()))
		if s.VarValue(next) == Undef && s.decision[next] {
			s.Stats.RndDecisions++
		}
	}

	// Activity based decision. Stale entries (assigned or no longer
	// decidable) are popped off the heap along the way.
	start := true
	for next == VarUndef || s.VarValue(next) != Undef || !s.decision[next] {
		if !start {
			s.orderHeap.removeMin()
		}
		start = false
		if s.orderHeap.empty() {
			next = VarUndef
			break
		}
		next = s.orderHeap.peek()
	}

	if s.opts.UseCustomHeur && next != VarUndef {
		if s.rand.float() < s.customHeurFreq {
			if s.customHeurFreq > 0.25 {
				s.customHeurFreq -= 0.01
			}
			if s.host != nil {
				next = s.host.ChangeBranchChoice(next)
			}
		}
	} else if !start && next != VarUndef {
		s.orderHeap.removeMin()
	}

	// Choose the polarity: user-pinned first, then random, then saved phase.
	switch {
	case next == VarUndef:
		return LitUndef
	case s.userPol[next] != Undef:
		return next.SignedLit(s.userPol[next] == True)
	case s.opts.RndPol:
		return next.SignedLit(s.rand.float() < 0.5)
	default:
		return next.SignedLit(s.polarity[next])
	}
}

// TotalModelFound reports whether every decidable variable is assigned,
// popping stale heap entries along the way.
func (s *Solver) TotalModelFound() bool {
	v := VarUndef
	for v == VarUndef || s.VarValue(v) != Undef || !s.decision[v] {
		if v != VarUndef {
			s.orderHeap.removeMin()
		}
		if s.orderHeap.empty() {
			v = VarUndef
			break
		}
		v = s.orderHeap.peek()
	}
	return v == VarUndef
}

// search looks for a model until the given number of conflicts is reached.
// A negative bound means no limit. It returns Sat if a satisfying assignment
// over the decidable variables was found, Unsat if the clause set is proven
// unsatisfiable, and Indet if the conflict bound was reached first.
func (s *Solver) search(nofConflicts int, nosearch bool) Status {
	conflictC := 0
	s.Stats.Starts++

	confl := CRefUndef
	fullAssignmentConflict := false

	for {
		if s.terminateRequested() {
			return Indet
		}
		if !s.ok {
			return Unsat
		}
		if !fullAssignmentConflict {
			confl = s.hostPropagate()
		}
		fullAssignmentConflict = false
		if !s.ok {
			return Unsat
		}

		if confl != CRefUndef {
			// CONFLICT
			s.Stats.Conflicts++
			conflictC++
			if s.DecisionLevel() == 0 {
				return Unsat
			}

			learnt, btLevel := s.analyze(confl)
			s.cancelUntil(btLevel)

			if len(learnt) == 1 {
				s.uncheckedEnqueue(learnt[0], CRefUndef)
			} else {
				cr := s.ca.alloc(learnt, true)
				s.addToClauses(cr, true)
				s.attachClause(cr)
				s.claBumpActivity(cr)
				s.uncheckedEnqueue(learnt[0], cr)
			}

			s.varDecayActivity()
			s.claDecayActivity()

			s.learntsizeAdjustCnt--
			if s.learntsizeAdjustCnt == 0 {
				s.learntsizeAdjustConfl *= learntsizeAdjustInc
				s.learntsizeAdjustCnt = int(s.learntsizeAdjustConfl)
				s.maxLearnts *= learntsizeInc
				if s.opts.Verbose {
					s.log.WithFields(map[string]interface{}{
						"conflicts":  s.Stats.Conflicts,
						"clauses":    len(s.clauses),
						"maxLearnts": int(s.maxLearnts),
						"learnts":    len(s.learnts),
						"progress":   s.progressEstimate() * 100,
					}).Info("search status")
				}
			}
		} else {
			// NO CONFLICT
			if (nofConflicts >= 0 && conflictC >= nofConflicts) || !s.withinBudget() {
				// Reached bound on number of conflicts:
				s.progressEst = s.progressEstimate()
				s.cancelUntil(0)
				return Indet
			}

			// Simplify the set of problem clauses:
			if s.DecisionLevel() == 0 && !s.Simplify() {
				return Unsat
			}

			if float64(len(s.learnts)-s.nAssigns()) >= s.maxLearnts {
				// Reduce the set of learned clauses:
				s.reduceDB()
			}

			next := LitUndef
			for s.DecisionLevel() < len(s.assumptions) {
				// Perform user provided assumption:
				p := s.assumptions[s.DecisionLevel()]
				if s.isTrue(p) {
					// Dummy decision level:
					s.newDecisionLevel()
				} else if s.isFalse(p) {
					s.analyzeFinal(p.Negation())
					return Unsat
				} else {
					next = p
					break
				}
			}

			if next == LitUndef {
				if nosearch {
					return Sat
				}

				// New variable decision:
				s.Stats.Decisions++
				next = s.pickBranchLit()

				if next == LitUndef {
					s.fullAssignment = true

					// The host can backtrack here like any propagator, in
					// which case the search must not stop yet.
					confl = s.hostCheckFullAssignment()
					if s.orderHeap.len() > 0 || s.qhead != len(s.trail) {
						continue
					}
					if confl == CRefUndef {
						// The assignment is a model.
						return Sat
					}
					fullAssignmentConflict = true
				}
			}

			// Increase the decision level and enqueue 'next'.
			if !fullAssignmentConflict {
				s.newDecisionLevel()
				s.uncheckedEnqueue(next, CRefUndef)
			}
		}
	}
}

// progressEstimate returns a rough indication of how much of the search
// space is covered by the current prefix of the trail.
func (s *Solver) progressEstimate() float64 {
	progress := 0.0
	f := 1.0 / float64(s.NbVars())

	for i := 0; i <= s.DecisionLevel(); i++ {
		beg := 0
		if i > 0 {
			beg = s.trailLim[i-1]
		}
		end := len(s.trail)
		if i < s.DecisionLevel() {
			end = s.trailLim[i]
		}
		progress += math.Pow(f, float64(i)) * float64(end-beg)
	}
	return progress / float64(s.NbVars())
}

// Solve searches for a model under the given assumptions, which become
// pseudo-decisions opening the first levels of the search. With nosearch
// set, it stops after initial propagation and root simplification.
//
// It returns Sat when a model was found (available through Model), Unsat
// when no model exists (Conflict then holds the set of negated assumptions
// responsible, empty if the problem is unconditionally unsatisfiable) and
// Indet when a budget ran out or an interrupt was requested.
func (s *Solver) Solve(assumptions []Lit, nosearch bool) Status {
	// The previous call may have left its last assignment on the trail.
	s.cancelUntil(0)
	s.model = nil
	s.conflict = s.conflict[:0]
	s.assumptions = append(s.assumptions[:0], assumptions...)
	if !s.ok {
		return Unsat
	}

	s.Stats.Solves++
	s.maxLearnts = float64(len(s.clauses)) * learntsizeFactor
	s.learntsizeAdjustConfl = learntsizeAdjustStartConf
	s.learntsizeAdjustCnt = learntsizeAdjustStartConf

	status := Indet
	currRestarts := 0
	for status == Indet {
		if s.terminateRequested() {
			return Indet
		}
		var restBase float64
		if s.opts.LubyRestart {
			restBase = luby(s.opts.RestartInc, currRestarts)
		} else {
			restBase = math.Pow(s.opts.RestartInc, float64(currRestarts))
		}
		status = s.search(int(restBase*float64(s.opts.RestartFirst)), nosearch)
		if s.terminateRequested() {
			return Indet
		}
		if nosearch {
			return status
		}
		if !s.withinBudget() {
			break
		}
		currRestarts++
		if status == Indet && s.opts.Verbose {
			s.log.WithFields(map[string]interface{}{
				"restarts":  currRestarts,
				"conflicts": s.Stats.Conflicts,
				"progress":  s.progressEst * 100,
			}).Info("restarting")
		}
	}

	if status == Sat {
		// Extend & copy the model:
		s.model = make([]Value, s.NbVars())
		for v := range s.model {
			s.model[v] = s.assigns[v]
		}
	} else if status == Unsat && len(s.conflict) == 0 {
		s.ok = false
	}
	return status
}

// Simplify simplifies the clause database according to the current
// root-level assignment: clauses satisfied at the root are removed and the
// order heap is rebuilt. Returns false iff the solver is now in a
// contradictory state. Must be called at the root level.
func (s *Solver) Simplify() bool {
	if s.DecisionLevel() != 0 {
		panic("simplifying above the root level")
	}
	if !s.ok || s.hostPropagate() != CRefUndef {
		s.ok = false
		return false
	}

	// Nothing relevant changed since the last pass:
	if s.nAssigns() == s.simpDBAssigns || s.simpDBProps > 0 {
		return true
	}

	s.learnts = s.removeSatisfied(s.learnts)
	if s.opts.RemoveSatisfied { // Can be turned off.
		s.clauses = s.removeSatisfied(s.clauses)
	}
	s.checkGarbage()
	s.rebuildOrderHeap()

	s.simpDBAssigns = s.nAssigns()
	s.simpDBProps = s.Stats.ClausesLiterals + s.Stats.LearntsLiterals

	return true
}

// removeSatisfied removes every clause of cs satisfied at the root level
// and returns the compacted list.
func (s *Solver) removeSatisfied(cs []CRef) []CRef {
	j := 0
	for _, cr := range cs {
		if s.satisfied(cr) {
			s.removeClause(cr)
		} else {
			cs[j] = cr
			j++
		}
	}
	return cs[:j]
}

// rebuildOrderHeap rebuilds the heap from the decidable, unbound variables.
func (s *Solver) rebuildOrderHeap() {
	vs := make([]Var, 0, s.NbVars())
	for v := Var(0); int(v) < s.NbVars(); v++ {
		if s.decision[v] && s.VarValue(v) == Undef {
			vs = append(vs, v)
		}
	}
	s.orderHeap.build(vs)
}

// reduceDB removes about half of the learned clauses, sparing binary
// clauses and clauses locked by the current assignment.
func (s *Solver) reduceDB() {
	extraLim := s.claInc / float64(len(s.learnts)) // Remove any clause below this activity.

	sort.SliceStable(s.learnts, func(x, y int) bool {
		crX, crY := s.learnts[x], s.learnts[y]
		return s.ca.size(crX) > 2 &&
			(s.ca.size(crY) == 2 || s.ca.activity(crX) < s.ca.activity(crY))
	})
	j := 0
	for i, cr := range s.learnts {
		if s.ca.size(cr) > 2 && !s.locked(cr) &&
			(i < len(s.learnts)/2 || float64(s.ca.activity(cr)) < extraLim) {
			s.removeClause(cr)
		} else {
			s.learnts[j] = cr
			j++
		}
	}
	if s.opts.Verbose {
		s.log.WithFields(map[string]interface{}{
			"deleted": len(s.learnts) - j,
			"kept":    j,
		}).Info("reduced learned clause database")
	}
	s.learnts = s.learnts[:j]
	s.checkGarbage()
}

// checkGarbage triggers a garbage collection when the arena's wasted share
// crosses the configured fraction.
func (s *Solver) checkGarbage() {
	if float64(s.ca.wasted) > s.opts.GarbageFrac*float64(s.ca.len()) {
		s.garbageCollect()
	}
}

// garbageCollect compacts the clause arena, rewriting every live reference.
func (s *Solver) garbageCollect() {
	// Size the next region to the estimated utilization, to avoid most
	// reallocations while it is filled.
	to := newArena(s.ca.len() - s.ca.wasted)
	s.relocAll(to)
	if s.opts.Verbose {
		s.log.WithFields(map[string]interface{}{
			"oldBytes": s.ca.len() * wordSize,
			"newBytes": to.len() * wordSize,
		}).Info("garbage collected clause arena")
	}
	s.ca = to
}

// relocAll moves every live clause into 'to' and rewrites all outstanding
// references: watchers, reasons of assigned variables, and the learned and
// problem clause lists.
func (s *Solver) relocAll(to *arena) {
	// Watchers. The lists must be clean: a watcher of a freed clause must
	// not resurrect it.
	s.watches.cleanAll(s.ca)
	for v := Var(0); int(v) < s.NbVars(); v++ {
		for _, p := range [2]Lit{v.Lit(), v.Lit().Negation()} {
			ws := s.watches.occs[p]
			for j := range ws {
				s.ca.reloc(&ws[j].cref, to)
			}
		}
	}

	// Reasons:
	for _, p := range s.trail {
		v := p.Var()
		if r := s.reason(v); r != CRefUndef && (s.ca.reloced(r) || s.locked(r)) {
			s.ca.reloc(&s.vardata[v].reason, to)
		}
	}

	// Learned clauses:
	for i := range s.learnts {
		s.ca.reloc(&s.learnts[i], to)
	}

	// Problem clauses:
	for i := range s.clauses {
		s.ca.reloc(&s.clauses[i], to)
	}
}
