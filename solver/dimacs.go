package solver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ToDimacs writes the current clause database to w in the DIMACS CNF
// format. Clauses already satisfied at the root level are skipped, root
// false literals are dropped, and the remaining variables are renumbered
// densely. Each assumption is emitted as an extra unit clause. A solver in
// a contradictory state writes the canonical two-clause unsatisfiable
// formula.
func (s *Solver) ToDimacs(w io.Writer, assumptions []Lit) error {
	bw := bufio.NewWriter(w)
	if !s.ok {
		fmt.Fprint(bw, "p cnf 1 2\n1 0\n-1 0\n")
		return errors.Wrap(bw.Flush(), "could not write dimacs output")
	}

	dmap := make(map[Var]int)
	mapVar := func(v Var) int {
		if mv, ok := dmap[v]; ok {
			return mv
		}
		mv := len(dmap) + 1
		dmap[v] = mv
		return mv
	}

	cnt := 0
	for _, cr := range s.clauses {
		if !s.satisfied(cr) {
			cnt++
			for i := 0; i < s.ca.size(cr); i++ {
				if l := s.ca.lit(cr, i); !s.isFalse(l) {
					mapVar(l.Var())
				}
			}
		}
	}

	// Assumptions are added as unit clauses:
	cnt += len(assumptions)

	fmt.Fprintf(bw, "p cnf %d %d\n", len(dmap)+countNewVars(dmap, assumptions), cnt)

	for _, a := range assumptions {
		if s.isFalse(a) {
			panic("assumption is false at the root level")
		}
		fmt.Fprintf(bw, "%s%d 0\n", signStr(a), mapVar(a.Var()))
	}

	for _, cr := range s.clauses {
		if s.satisfied(cr) {
			continue
		}
		for i := 0; i < s.ca.size(cr); i++ {
			if l := s.ca.lit(cr, i); !s.isFalse(l) {
				fmt.Fprintf(bw, "%s%d ", signStr(l), mapVar(l.Var()))
			}
		}
		fmt.Fprint(bw, "0\n")
	}
	return errors.Wrap(bw.Flush(), "could not write dimacs output")
}

// countNewVars counts the assumption vars not already mapped.
func countNewVars(dmap map[Var]int, assumptions []Lit) int {
	n := 0
	for _, a := range assumptions {
		if _, ok := dmap[a.Var()]; !ok {
			n++
		}
	}
	return n
}

func signStr(l Lit) string {
	if l.IsPositive() {
		return ""
	}
	return "-"
}

// ToDimacsFile writes the current clause database to the given file.
func (s *Solver) ToDimacsFile(path string, assumptions []Lit) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not open %q", path)
	}
	defer func() { _ = f.Close() }()
	return s.ToDimacs(f, assumptions)
}

// ParseCNF reads a problem in the DIMACS CNF format and feeds it to the
// solver: variables are created up to the header's count and every clause
// goes through AddClause. A contradiction found during intake does not make
// ParseCNF fail; it latches the solver's Okay flag instead.
func ParseCNF(r io.Reader, s *Solver) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	headerRead := false
	var lits []Lit
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "c" || strings.HasPrefix(fields[0], "c") {
			continue
		}
		if fields[0] == "p" {
			if headerRead {
				return errors.Errorf("line %d: duplicate header", line)
			}
			if len(fields) < 4 || fields[1] != "cnf" {
				return errors.Errorf("line %d: invalid header %q", line, scanner.Text())
			}
			nbVars, err := strconv.Atoi(fields[2])
			if err != nil {
				return errors.Wrapf(err, "line %d: nbvars is not an int", line)
			}
			for i := 0; i < nbVars; i++ {
				s.NewVar(Undef, true)
			}
			headerRead = true
			continue
		}
		if !headerRead {
			return errors.Errorf("line %d: clause found before the header", line)
		}
		for _, field := range fields {
			val, err := strconv.Atoi(field)
			if err != nil {
				return errors.Wrapf(err, "line %d: invalid literal %q", line, field)
			}
			if val == 0 {
				s.AddClause(lits)
				lits = lits[:0]
				continue
			}
			l := IntToLit(val)
			for int(l.Var()) >= s.NbVars() {
				// Tolerate headers understating the variable count.
				s.NewVar(Undef, true)
			}
			lits = append(lits, l)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "could not read dimacs input")
	}
	if !headerRead {
		return errors.New("no header found")
	}
	if len(lits) != 0 {
		s.AddClause(lits)
	}
	return nil
}
