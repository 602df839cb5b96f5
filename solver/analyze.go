package solver

// analyze derives a first-UIP learned clause from the given conflict and
// returns it along with the level to backjump to.
//
// Preconditions: the current decision level is greater than 0 and confl is
// a clause that is false under the current assignment.
//
// Postconditions: the first literal of the result is the asserting literal
// at the returned level; if the result has more than one literal, its
// second literal is one with the greatest decision level among the rest.
//
// The conflict may involve literals from levels below the current one; in
// that case the solver first backtracks to the highest level actually
// appearing in the conflict and resolves there.
func (s *Solver) analyze(confl CRef) (outLearnt []Lit, outBtLevel int) {
	pathC := 0
	p := LitUndef

	lvl := 0
	for i := 0; i < s.ca.size(confl); i++ {
		if litLevel := s.level(s.ca.lit(confl, i).Var()); litLevel > lvl {
			lvl = litLevel
		}
	}
	s.cancelUntil(lvl)
	if s.DecisionLevel() != lvl {
		panic("conflict level does not match the decision level")
	}

	// Generate the conflict clause:
	outLearnt = append(outLearnt, LitUndef) // Leave room for the asserting literal.
	index := len(s.trail) - 1
	deleteImplicit := false

	for {
		if confl == CRefUndef {
			panic("no reason clause during analysis") // Otherwise p should be UIP.
		}
		if s.ca.learned(confl) {
			s.claBumpActivity(confl)
		}

		start := 0
		if p != LitUndef {
			start = 1
		}
		for j := start; j < s.ca.size(confl); j++ {
			q := s.ca.lit(confl, j)
			if s.seen[q.Var()] == 0 && s.level(q.Var()) > 0 {
				s.varBumpActivity(q.Var())
				s.seen[q.Var()] = 1
				if s.level(q.Var()) >= s.DecisionLevel() {
					pathC++
				} else {
					outLearnt = append(outLearnt, q)
				}
			}
		}

		// An explanation clause requested from the host is only borrowed for
		// this one resolution step.
		if deleteImplicit {
			s.ca.free(confl)
			deleteImplicit = false
		}

		// Select the next literal to look at:
		for s.seen[s.trail[index].Var()] == 0 {
			index--
		}
		p = s.trail[index]
		index--
		confl = s.reason(p.Var())

		if confl == CRefUndef && pathC > 1 {
			confl = s.hostExplain(p)
			deleteImplicit = true
		}

		s.seen[p.Var()] = 0
		pathC--
		if pathC <= 0 {
			break
		}
	}
	outLearnt[0] = p.Negation()

	// Simplify the conflict clause:
	s.analyzeToClear = append(s.analyzeToClear[:0], outLearnt...)
	i, j := 0, 0
	switch s.opts.CcminMode {
	case 2:
		abstractLevels := uint32(0)
		for i = 1; i < len(outLearnt); i++ {
			abstractLevels |= s.abstractLevel(outLearnt[i].Var())
		}
		for i, j = 1, 1; i < len(outLearnt); i++ {
			if s.reason(outLearnt[i].Var()) == CRefUndef || !s.litRedundant(outLearnt[i], abstractLevels) {
				outLearnt[j] = outLearnt[i]
				j++
			}
		}
	case 1:
		for i, j = 1, 1; i < len(outLearnt); i++ {
			x := outLearnt[i].Var()
			if s.reason(x) == CRefUndef {
				outLearnt[j] = outLearnt[i]
				j++
			} else {
				cr := s.reason(x)
				keep := false
				for k := 1; k < s.ca.size(cr); k++ {
					if v := s.ca.lit(cr, k).Var(); s.seen[v] == 0 && s.level(v) > 0 {
						keep = true
						break
					}
				}
				if keep {
					outLearnt[j] = outLearnt[i]
					j++
				}
			}
		}
	default:
		i = len(outLearnt)
		j = i
	}
	s.Stats.MaxLiterals += uint64(len(outLearnt))
	outLearnt = outLearnt[:j]
	s.Stats.TotLiterals += uint64(len(outLearnt))

	// Find the correct backtrack level:
	if len(outLearnt) == 1 {
		outBtLevel = 0
	} else {
		maxI := 1
		// Find the first literal assigned at the next-highest level:
		for i := 2; i < len(outLearnt); i++ {
			if s.level(outLearnt[i].Var()) > s.level(outLearnt[maxI].Var()) {
				maxI = i
			}
		}
		// Swap-in this literal at index 1:
		outLearnt[maxI], outLearnt[1] = outLearnt[1], outLearnt[maxI]
		outBtLevel = s.level(outLearnt[1].Var())
	}

	for _, l := range s.analyzeToClear {
		s.seen[l.Var()] = 0 // seen is now cleared.
	}
	return outLearnt, outBtLevel
}

// litRedundant checks whether p is implied by other literals of the learned
// clause (and root facts), in which case it can be dropped. abstractLevels
// is used to abort early when the reasons visited reach levels that cannot
// possibly be subsumed.
func (s *Solver) litRedundant(p Lit, abstractLevels uint32) bool {
	s.analyzeStack = append(s.analyzeStack[:0], p)
	top := len(s.analyzeToClear)
	for len(s.analyzeStack) > 0 {
		last := s.analyzeStack[len(s.analyzeStack)-1].Var()
		if s.reason(last) == CRefUndef {
			panic("minimizing over a literal with no reason")
		}
		cr := s.reason(last)
		s.analyzeStack = s.analyzeStack[:len(s.analyzeStack)-1]

		for i := 1; i < s.ca.size(cr); i++ {
			q := s.ca.lit(cr, i)
			if s.seen[q.Var()] != 0 || s.level(q.Var()) == 0 {
				continue
			}
			if s.reason(q.Var()) != CRefUndef && s.abstractLevel(q.Var())&abstractLevels != 0 {
				s.seen[q.Var()] = 1
				s.analyzeStack = append(s.analyzeStack, q)
				s.analyzeToClear = append(s.analyzeToClear, q)
			} else {
				for j := top; j < len(s.analyzeToClear); j++ {
					s.seen[s.analyzeToClear[j].Var()] = 0
				}
				s.analyzeToClear = s.analyzeToClear[:top]
				return false
			}
		}
	}
	return true
}

// analyzeFinal expresses the final conflict in terms of assumptions: it
// computes the (possibly empty) set of assumptions that led to the
// assignment of p and stores the result in s.conflict.
func (s *Solver) analyzeFinal(p Lit) {
	s.conflict = s.conflict[:0]
	s.conflict = append(s.conflict, p)

	if s.DecisionLevel() == 0 {
		return
	}

	s.seen[p.Var()] = 1

	for i := len(s.trail) - 1; i >= s.trailLim[0]; i-- {
		x := s.trail[i].Var()
		if s.seen[x] == 0 {
			continue
		}
		if s.reason(x) == CRefUndef {
			if s.level(x) == 0 {
				panic("decision at the root level")
			}
			s.conflict = append(s.conflict, s.trail[i].Negation())
		} else {
			cr := s.reason(x)
			for j := 1; j < s.ca.size(cr); j++ {
				if s.level(s.ca.lit(cr, j).Var()) > 0 {
					s.seen[s.ca.lit(cr, j).Var()] = 1
				}
			}
		}
		s.seen[x] = 0
	}
	s.seen[p.Var()] = 0
}
