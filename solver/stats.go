package solver

// Stats are statistics about the resolution of the problem.
// They are provided for information purpose only.
type Stats struct {
	Solves       uint64 // How many times Solve was called.
	Starts       uint64 // How many searches were started, the first one included.
	Decisions    uint64 // How many branching decisions were made.
	RndDecisions uint64 // How many of those were random.
	Propagations uint64 // How many literals were propagated.
	Conflicts    uint64 // How many conflicts arose.
	DecVars      int    // Current number of decidable variables.

	ClausesLiterals int64  // Total nb of literals in problem clauses.
	LearntsLiterals int64  // Total nb of literals in learned clauses.
	MaxLiterals     uint64 // Nb of literals in learned clauses before minimization.
	TotLiterals     uint64 // Nb of literals in learned clauses after minimization.
}
