package solver

// A watcher pairs a clause with a blocker, i.e another literal of that
// clause. When the blocker is already true the clause is satisfied and
// propagation does not need to load it at all.
type watcher struct {
	cref    CRef
	blocker Lit
}

// A watcherList maps each literal p to the watchers of clauses in which
// the negation of p is one of the two watched literals. Removal is mostly
// lazy: detaching a clause marks its two lists dirty, and cleanAll sweeps
// dirty lists, dropping watchers whose clause was deleted.
type watcherList struct {
	occs    [][]watcher // For each literal, its watchers.
	dirty   []bool      // For each literal, whether its list needs cleaning.
	dirties []Lit       // Literals whose list needs cleaning.
}

// initVar makes room for the two literals of a fresh variable.
func (wl *watcherList) initVar() {
	wl.occs = append(wl.occs, nil, nil)
	wl.dirty = append(wl.dirty, false, false)
}

func (wl *watcherList) watch(p Lit, w watcher) {
	wl.occs[p] = append(wl.occs[p], w)
}

// remove removes the clause's watcher from p's list. The match is on the
// clause alone: blockers are freely rewritten during propagation. The
// watcher must be present.
func (wl *watcherList) remove(p Lit, cr CRef) {
	ws := wl.occs[p]
	i := 0
	for ws[i].cref != cr {
		i++
	}
	copy(ws[i:], ws[i+1:])
	wl.occs[p] = ws[:len(ws)-1]
}

// smudge marks p's list as containing watchers of deleted clauses.
func (wl *watcherList) smudge(p Lit) {
	if !wl.dirty[p] {
		wl.dirty[p] = true
		wl.dirties = append(wl.dirties, p)
	}
}

// clean removes the watchers of deleted clauses from p's list.
func (wl *watcherList) clean(p Lit, ca *arena) {
	ws := wl.occs[p]
	j := 0
	for i := 0; i < len(ws); i++ {
		if !ca.deleted(ws[i].cref) {
			ws[j] = ws[i]
			j++
		}
	}
	wl.occs[p] = ws[:j]
	wl.dirty[p] = false
}

// cleanAll sweeps every dirty list.
func (wl *watcherList) cleanAll(ca *arena) {
	for _, p := range wl.dirties {
		// The list may have been cleaned eagerly in the meantime.
		if wl.dirty[p] {
			wl.clean(p, ca)
		}
	}
	wl.dirties = wl.dirties[:0]
}
