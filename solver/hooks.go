package solver

// A Host is the enclosing propagator framework the solver is embedded in.
// The solver notifies it of every relevant state change and consults it at
// a few well-defined points of the search. All clause references a host
// returns must designate non-empty clauses allocated through AllocClause
// and correctly reflect the current assignment.
type Host interface {
	// Propagate performs propagation for the whole framework. It is expected
	// to call the solver's own Propagate at some point and may inject further
	// propagations through UncheckedEnqueue. The returned reference is
	// treated exactly like the core's own propagation result.
	Propagate() CRef
	// Explain materializes a reason clause for a literal the host set true
	// without one. The literal itself must sit at position 0. The clause is
	// considered implicit: conflict analysis frees it right after use.
	Explain(p Lit) CRef
	// CheckFullAssignment is consulted once every decidable variable is
	// assigned. A returned clause is handled as a conflict, forcing further
	// search; CRefUndef accepts the assignment as a model.
	CheckFullAssignment() CRef
	// ChangeBranchChoice gives the host a chance to override the branching
	// heuristic. It must return an unassigned, decidable variable (possibly
	// v itself).
	ChangeBranchChoice(v Var) Var

	// Notifications, fired by the solver and not answered.
	VarAdded()
	ClauseAdded(cr CRef)
	SetTrue(p Lit)
	BecameDecidable(v Var)
	NewDecisionLevel()
	BacktrackDecisionLevel(level int, decision Lit)
	FinishParsing()
}

// BaseHost is a Host that ignores every notification and never interferes
// with the search. Custom hosts can embed it and override the methods they
// care about.
type BaseHost struct {
	Solver *Solver
}

// Propagate runs the solver's own propagation engine.
func (h *BaseHost) Propagate() CRef { return h.Solver.Propagate() }

// Explain panics: a host that sets literals without reasons must override it.
func (h *BaseHost) Explain(p Lit) CRef {
	panic("host has no explanation for " + p.String())
}

// CheckFullAssignment accepts every full assignment.
func (h *BaseHost) CheckFullAssignment() CRef { return CRefUndef }

// ChangeBranchChoice keeps the solver's own choice.
func (h *BaseHost) ChangeBranchChoice(v Var) Var { return v }

func (h *BaseHost) VarAdded()                                      {}
func (h *BaseHost) ClauseAdded(cr CRef)                            {}
func (h *BaseHost) SetTrue(p Lit)                                  {}
func (h *BaseHost) BecameDecidable(v Var)                          {}
func (h *BaseHost) NewDecisionLevel()                              {}
func (h *BaseHost) BacktrackDecisionLevel(level int, decision Lit) {}
func (h *BaseHost) FinishParsing()                                 {}
