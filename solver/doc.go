/*
Package solver implements a conflict-driven clause-learning (CDCL)
boolean satisfiability engine designed to live inside a larger
propagator framework.

Clauses are stored in a compact arena and indexed by integer references;
unit propagation uses two watched literals per clause, branching follows
activity scores with phase saving, conflicts are turned into first-UIP
learned clauses, and the search restarts on a Luby or geometric schedule
while the learned database is periodically reduced and the arena garbage
collected.

Standalone use

A solver is built empty, then fed variables and clauses:

	s := solver.NewSolver(solver.DefaultOptions())
	for i := 0; i < 3; i++ {
		s.NewVar(solver.Undef, true)
	}
	s.AddClause(solver.IntsToLits(1, 2))
	s.AddClause(solver.IntsToLits(-1, 3))

	switch s.Solve(nil, false) {
	case solver.Sat:
		model := s.Model() // model[v] is the binding of variable v
	case solver.Unsat:
		// no assignment satisfies the clauses
	case solver.Indet:
		// a budget ran out or the solver was interrupted
	}

Solving under assumptions reuses the same solver; when the result is
Unsat, Conflict reports which assumptions were to blame:

	if s.Solve(solver.IntsToLits(1, -3), false) == solver.Unsat {
		blame := s.Conflict() // negated assumptions implying the conflict
		_ = blame
	}

Embedded use

A Host implementation can be attached with SetHost. The solver then
routes propagation through the host, asks it to explain literals it set
without reasons, lets it veto full assignments and override branching
choices, and notifies it of every variable addition, assignment,
decision level and backtrack. BaseHost provides no-op defaults to embed.
*/
package solver
