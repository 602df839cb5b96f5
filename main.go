package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/broesdecat/minisat/solver"
)

var (
	verbose     bool
	dimacsOut   string
	varDecay    float64
	clauseDecay float64
	rndFreq     float64
	seed        float64
	ccminMode   int
	phaseSaving int
	noLuby      bool
	rfirst      int
	rinc        float64
	gcFrac      float64
	confBudget  int64
	propBudget  int64
)

var rootCmd = &cobra.Command{
	Use:   "minisat [flags] file.cnf",
	Short: "a CDCL boolean satisfiability solver",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return run(args[0])
	},
}

func addSolverFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&verbose, "verbose", "v", false, "log solving progress")
	fs.StringVar(&dimacsOut, "dimacs", "", "write the simplified problem to the given file instead of solving")
	fs.Float64Var(&varDecay, "var-decay", 0.95, "variable activity decay factor")
	fs.Float64Var(&clauseDecay, "cla-decay", 0.999, "clause activity decay factor")
	fs.Float64Var(&rndFreq, "rnd-freq", 0, "frequency of random branching decisions")
	fs.Float64Var(&seed, "rnd-seed", 91648253, "seed for the random generator")
	fs.IntVar(&ccminMode, "ccmin-mode", 2, "conflict clause minimization (0=none, 1=basic, 2=deep)")
	fs.IntVar(&phaseSaving, "phase-saving", 2, "phase saving (0=none, 1=limited, 2=full)")
	fs.BoolVar(&noLuby, "no-luby", false, "use geometric restarts instead of the Luby sequence")
	fs.IntVar(&rfirst, "rfirst", 100, "base restart interval")
	fs.Float64Var(&rinc, "rinc", 2, "restart interval increase factor")
	fs.Float64Var(&gcFrac, "gc-frac", 0.20, "wasted memory fraction triggering garbage collection")
	fs.Int64Var(&confBudget, "conflict-budget", -1, "max number of conflicts (-1 = no limit)")
	fs.Int64Var(&propBudget, "propagation-budget", -1, "max number of propagations (-1 = no limit)")
}

func options() solver.Options {
	opts := solver.DefaultOptions()
	opts.VarDecay = varDecay
	opts.ClauseDecay = clauseDecay
	opts.RandomVarFreq = rndFreq
	opts.RandomSeed = seed
	opts.CcminMode = ccminMode
	opts.PhaseSaving = phaseSaving
	opts.LubyRestart = !noLuby
	opts.RestartFirst = rfirst
	opts.RestartInc = rinc
	opts.GarbageFrac = gcFrac
	opts.ConflictBudget = confBudget
	opts.PropBudget = propBudget
	opts.Verbose = verbose
	opts.Logger = logrus.StandardLogger()
	return opts
}

func run(path string) error {
	if verbose {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "could not open %q", path)
	}
	defer func() { _ = f.Close() }()

	s := solver.NewSolver(options())
	if err := solver.ParseCNF(f, s); err != nil {
		return errors.Wrapf(err, "could not parse %q", path)
	}
	logrus.WithFields(logrus.Fields{
		"vars":    s.NbVars(),
		"clauses": s.NbClauses(),
	}).Info("problem parsed")

	if dimacsOut != "" {
		if !s.Simplify() {
			logrus.Info("problem is contradictory at the root level")
		}
		return s.ToDimacsFile(dimacsOut, nil)
	}

	status := s.Solve(nil, false)
	logrus.WithFields(logrus.Fields{
		"conflicts": s.Stats.Conflicts,
		"restarts":  s.Stats.Starts,
		"decisions": s.Stats.Decisions,
	}).Info("search finished")
	outputResult(s, status)
	return nil
}

// outputResult prints the result in the DIMACS solution format.
func outputResult(s *solver.Solver, status solver.Status) {
	switch status {
	case solver.Sat:
		fmt.Println("s SATISFIABLE")
		fmt.Print("v ")
		for i, val := range s.Model() {
			if val == solver.False {
				fmt.Printf("%d ", -i-1)
			} else {
				fmt.Printf("%d ", i+1)
			}
		}
		fmt.Println()
	case solver.Unsat:
		fmt.Println("s UNSATISFIABLE")
	default:
		fmt.Println("s INDETERMINATE")
	}
}

func main() {
	addSolverFlags(rootCmd.Flags())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
