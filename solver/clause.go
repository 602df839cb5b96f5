package solver

import "math"

// Accessors for clauses stored in the arena. A clause is an ordered list of
// literals; positions 0 and 1 are the two watched literals. Learned clauses
// additionally carry an activity used by reduceDB's ordering.

// size returns the number of literals of the clause.
func (a *arena) size(cr CRef) int {
	return int(a.data[cr] >> hdrSizeShift)
}

// learned is true iff the clause was learned during conflict analysis.
func (a *arena) learned(cr CRef) bool {
	return a.data[cr]&hdrLearned != 0
}

// deleted is true iff the clause was freed and awaits garbage collection.
func (a *arena) deleted(cr CRef) bool {
	return a.data[cr]&hdrDeleted != 0
}

// lit returns the i-th literal of the clause.
func (a *arena) lit(cr CRef, i int) Lit {
	return Lit(a.data[int(cr)+1+i])
}

// setLit sets the i-th literal of the clause.
func (a *arena) setLit(cr CRef, i int, l Lit) {
	a.data[int(cr)+1+i] = uint32(l)
}

// litSlice returns a copy of the clause's literals.
func (a *arena) litSlice(cr CRef) []Lit {
	lits := make([]Lit, a.size(cr))
	for i := range lits {
		lits[i] = a.lit(cr, i)
	}
	return lits
}

// activity returns the learned clause's activity.
func (a *arena) activity(cr CRef) float32 {
	return math.Float32frombits(a.data[int(cr)+1+a.size(cr)])
}

// setActivity sets the learned clause's activity.
func (a *arena) setActivity(cr CRef, act float32) {
	a.data[int(cr)+1+a.size(cr)] = math.Float32bits(act)
}
