package solver

// Propagate propagates all enqueued facts through the two-watched-literal
// scheme. If a conflict arises the conflicting clause is returned, else
// CRefUndef. The propagation queue is empty afterwards, even on conflict.
//
// When a host is attached, it owns the propagation fixpoint and is expected
// to call this as part of its own Propagate.
func (s *Solver) Propagate() CRef {
	confl := CRefUndef
	numProps := uint64(0)
	s.watches.cleanAll(s.ca)

	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead] // 'p' is the enqueued fact to propagate.
		s.qhead++
		ws := s.watches.occs[p]
		numProps++

		i, j := 0, 0
		for i < len(ws) {
			// Try to avoid inspecting the clause:
			blocker := ws[i].blocker
			if s.isTrue(blocker) {
				s.SetDecidable(blocker.Var(), true)
				ws[j] = ws[i]
				i++
				j++
				continue
			}

			// Make sure the false literal is position 1:
			cr := ws[i].cref
			falseLit := p.Negation()
			if s.ca.lit(cr, 0) == falseLit {
				s.ca.setLit(cr, 0, s.ca.lit(cr, 1))
				s.ca.setLit(cr, 1, falseLit)
			}
			i++

			// If the first watch is true, the clause is already satisfied.
			first := s.ca.lit(cr, 0)
			w := watcher{cref: cr, blocker: first}
			if first != blocker && s.isTrue(first) {
				ws[j] = w
				j++
				s.checkDecisionVars(cr)
				continue
			}

			// Look for a new watch:
			size := s.ca.size(cr)
			found := false
			for k := 2; k < size; k++ {
				if !s.isFalse(s.ca.lit(cr, k)) {
					s.ca.setLit(cr, 1, s.ca.lit(cr, k))
					s.ca.setLit(cr, k, falseLit)
					s.watches.watch(s.ca.lit(cr, 1).Negation(), w)
					s.checkDecisionVars(cr)
					found = true
					break
				}
			}
			if found {
				continue
			}

			// No new watch: the clause is unit under the current assignment.
			ws[j] = w
			j++
			if s.isFalse(first) {
				// Conflict. Drain the queue and keep the remaining watchers.
				confl = cr
				s.qhead = len(s.trail)
				for i < len(ws) {
					ws[j] = ws[i]
					i++
					j++
				}
			} else {
				s.uncheckedEnqueue(first, cr)
				s.checkDecisionVars(cr)
			}
		}
		s.watches.occs[p] = ws[:j]
		if confl != CRefUndef {
			s.qhead = len(s.trail)
		}
	}
	s.Stats.Propagations += numProps
	s.simpDBProps -= int64(numProps)

	return confl
}
