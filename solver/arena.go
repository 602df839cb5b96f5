package solver

import "math"

// This file deals with the clause arena: all clauses live in a single
// contiguous word region and are designated by integer references.
// References stay valid until the next garbage collection, which copies
// every live clause into a fresh arena and rewrites all holders.

// A CRef is a reference to a clause in the arena.
// It is only stable until the next garbage collection.
type CRef uint32

// CRefUndef designates the absence of a clause.
const CRefUndef CRef = math.MaxUint32

// Header layout, one word per clause followed by its literals and,
// for learned clauses, one extra word holding the activity:
// bit 0: deleted mark.
// bit 1: relocated mark. The forwarding reference then sits in the first literal slot.
// bit 2: learned flag.
// bits 3..31: number of literals.
const (
	hdrDeleted   = uint32(1)
	hdrReloced   = uint32(1 << 1)
	hdrLearned   = uint32(1 << 2)
	hdrSizeShift = 3
	wordSize     = 4 // bytes per arena word, for reporting only
)

type arena struct {
	data   []uint32
	wasted int // Words lost to freed clauses, reclaimed by garbage collection.
}

func newArena(capa int) *arena {
	if capa < 0 {
		capa = 0
	}
	return &arena{data: make([]uint32, 0, capa)}
}

// clauseWords returns the number of arena words a clause occupies.
func clauseWords(size int, learned bool) int {
	if learned {
		return size + 2
	}
	return size + 1
}

// alloc stores a new clause and returns its reference.
func (a *arena) alloc(lits []Lit, learned bool) CRef {
	if len(lits) < 1 {
		panic("allocating an empty clause")
	}
	cr := CRef(len(a.data))
	hdr := uint32(len(lits)) << hdrSizeShift
	if learned {
		hdr |= hdrLearned
	}
	a.data = append(a.data, hdr)
	for _, l := range lits {
		a.data = append(a.data, uint32(l))
	}
	if learned {
		a.data = append(a.data, math.Float32bits(0))
	}
	return cr
}

// free marks the clause deleted and accounts for the wasted words.
// The memory is only reclaimed by the next garbage collection.
func (a *arena) free(cr CRef) {
	if a.deleted(cr) {
		panic("freeing an already freed clause")
	}
	a.wasted += clauseWords(a.size(cr), a.learned(cr))
	a.data[cr] |= hdrDeleted
}

// reloc rewrites *cr to the clause's location in the 'to' arena, copying
// the clause there first if this is the first holder to come by.
func (a *arena) reloc(cr *CRef, to *arena) {
	if a.reloced(*cr) {
		*cr = a.forward(*cr)
		return
	}
	old := *cr
	nr := to.alloc(a.litSlice(old), a.learned(old))
	if a.learned(old) {
		to.setActivity(nr, a.activity(old))
	}
	a.data[old] |= hdrReloced
	a.data[old+1] = uint32(nr)
	*cr = nr
}

func (a *arena) reloced(cr CRef) bool {
	return a.data[cr]&hdrReloced != 0
}

func (a *arena) forward(cr CRef) CRef {
	return CRef(a.data[cr+1])
}

// len returns the total number of words currently allocated.
func (a *arena) len() int {
	return len(a.data)
}
