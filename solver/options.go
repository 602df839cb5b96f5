package solver

import "github.com/sirupsen/logrus"

// Learned-clause-size governor constants.
const (
	learntsizeFactor          = 1.0 / 3.0 // Initial max nb of learned clauses, as a fraction of the nb of problem clauses.
	learntsizeInc             = 1.1       // By how much the max nb of learned clauses grows at each adjustment.
	learntsizeAdjustStartConf = 100       // Nb of conflicts before the first adjustment.
	learntsizeAdjustInc       = 1.5       // By how much the adjustment interval grows each time.
)

// Options holds the solver's tunables. Zero values are not meaningful;
// start from DefaultOptions and override fields as needed.
type Options struct {
	VarDecay       float64 // The variable activity decay factor.
	ClauseDecay    float64 // The clause activity decay factor.
	RandomVarFreq  float64 // The frequency with which the decision heuristic tries to choose a random variable.
	RandomSeed     float64 // Seed for the random variable selection and clause permutation.
	CcminMode      int     // Controls conflict clause minimization (0=none, 1=basic, 2=deep).
	PhaseSaving    int     // Controls the level of phase saving (0=none, 1=limited, 2=full).
	RndPol         bool    // Use random polarities for branching heuristics.
	RndInitAct     bool    // Randomize the initial activity.
	GarbageFrac    float64 // The fraction of wasted memory allowed before a garbage collection is triggered.
	LubyRestart    bool    // Use the Luby restart sequence.
	RestartFirst   int     // The base restart interval, in conflicts.
	RestartInc     float64 // Restart interval increase factor.
	ConflictBudget int64   // Max nb of conflicts before giving up; -1 means no limit.
	PropBudget     int64   // Max nb of propagations before giving up; -1 means no limit.

	UseCustomHeur  bool    // Ask the host to override branching choices.
	CustomHeurFreq float64 // Initial frequency of host branching overrides; diminishes over time.

	RemoveSatisfied bool // Remove problem clauses satisfied at the root level during simplification.

	Verbose bool               // Log solving progress.
	Logger  logrus.FieldLogger // Where progress is logged. Defaults to the standard logrus logger.
}

// DefaultOptions returns the default tunables.
func DefaultOptions() Options {
	return Options{
		VarDecay:        0.95,
		ClauseDecay:     0.999,
		RandomVarFreq:   0,
		RandomSeed:      91648253,
		CcminMode:       2,
		PhaseSaving:     2,
		RndPol:          false,
		RndInitAct:      false,
		GarbageFrac:     0.20,
		LubyRestart:     true,
		RestartFirst:    100,
		RestartInc:      2,
		ConflictBudget:  -1,
		PropBudget:      -1,
		UseCustomHeur:   false,
		CustomHeurFreq:  0.75,
		RemoveSatisfied: true,
	}
}
