package model

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gridforge/gridforge/internal/errors"
)

// WriteLP writes the model in CPLEX LP format.
func WriteLP(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ model %s\n", m.Name)
	if m.objective.Constant != 0 {
		fmt.Fprintf(bw, "\\ objective constant %s\n", formatNumber(m.objective.Constant))
	}
	bw.WriteString("Minimize\n obj:")
	writeTerms(bw, m, m.objective)
	bw.WriteString("\nSubject To\n")

	for _, c := range m.constraints {
		fmt.Fprintf(bw, " %s:", c.Name())
		writeTerms(bw, m, c.Expr)
		fmt.Fprintf(bw, " %s %s\n", c.Sense, formatNumber(c.RHS))
	}

	bw.WriteString("Bounds\n")
	var generals, binaries []string
	for _, v := range m.vars {
		switch v.Kind {
		case Binary:
			binaries = append(binaries, v.Name())
			continue
		case Integer:
			generals = append(generals, v.Name())
		}
		writeBounds(bw, v)
	}

	if len(generals) > 0 {
		bw.WriteString("General\n")
		for _, name := range generals {
			fmt.Fprintf(bw, " %s\n", name)
		}
	}
	if len(binaries) > 0 {
		bw.WriteString("Binary\n")
		for _, name := range binaries {
			fmt.Fprintf(bw, " %s\n", name)
		}
	}
	bw.WriteString("End\n")

	return bw.Flush()
}

func writeTerms(bw *bufio.Writer, m *Model, e LinExpr) {
	ids := e.Vars()
	if len(ids) == 0 {
		// LP requires at least one term on each row
		if len(m.vars) > 0 {
			fmt.Fprintf(bw, " 0 %s", m.vars[0].Name())
		}
		return
	}
	for _, id := range ids {
		c := e.Terms[id]
		sign := "+"
		if c < 0 {
			sign = "-"
			c = -c
		}
		fmt.Fprintf(bw, " %s %s %s", sign, formatNumber(c), m.vars[id].Name())
	}
}

func writeBounds(bw *bufio.Writer, v Var) {
	lowerInf := math.IsInf(v.Lower, -1)
	upperInf := math.IsInf(v.Upper, 1)
	switch {
	case lowerInf && upperInf:
		fmt.Fprintf(bw, " %s free\n", v.Name())
	case lowerInf:
		fmt.Fprintf(bw, " -inf <= %s <= %s\n", v.Name(), formatNumber(v.Upper))
	case upperInf:
		fmt.Fprintf(bw, " %s >= %s\n", v.Name(), formatNumber(v.Lower))
	default:
		fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNumber(v.Lower), v.Name(), formatNumber(v.Upper))
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Solution status values
const (
	StatusOptimal    = "optimal"
	StatusFeasible   = "feasible"
	StatusInfeasible = "infeasible"
	StatusUnbounded  = "unbounded"
	StatusUnknown    = "unknown"
)

// Solution holds variable values returned by the external solver.
type Solution struct {
	Status    string
	Objective float64
	Values    map[VarID]float64
}

// Value returns the value of v, zero when absent.
func (s *Solution) Value(v VarID) float64 {
	return s.Values[v]
}

// Evaluate computes an expression under the solution.
func (s *Solution) Evaluate(e LinExpr) float64 {
	return e.Evaluate(s.Values)
}

// ReadSolution parses a plain "name value" solution file. Optional header lines
// "status <status>" and "objective <value>" are recognized; lines starting with
// '#' or '\' are comments. Unknown variable names are an error.
func ReadSolution(r io.Reader, m *Model) (*Solution, error) {
	sol := &Solution{Status: StatusUnknown, Values: make(map[VarID]float64)}
	names := make(map[string]VarID, len(m.vars))
	for _, v := range m.vars {
		names[v.Name()] = v.ID
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "\\") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Newf("solution line %d: expected 'name value', got %q", lineNo, line).
				Category(errors.CategoryFileParsing).
				Build()
		}
		switch strings.ToLower(fields[0]) {
		case "status":
			sol.Status = strings.ToLower(fields[1])
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Newf("solution line %d: invalid value %q", lineNo, fields[1]).
				Category(errors.CategoryFileParsing).
				Build()
		}
		if strings.EqualFold(fields[0], "objective") {
			sol.Objective = value
			continue
		}
		id, ok := names[fields[0]]
		if !ok {
			return nil, errors.Newf("solution line %d: unknown variable %q", lineNo, fields[0]).
				Category(errors.CategoryFileParsing).
				Build()
		}
		sol.Values[id] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).Category(errors.CategoryFileIO).Build()
	}
	return sol, nil
}

// SolverError reports a solve that did not produce a usable solution.
type SolverError struct {
	Status string
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver returned status %q", e.Status)
}

// ErrorCategory marks solver failures.
func (e *SolverError) ErrorCategory() errors.ErrorCategory {
	return errors.CategorySolver
}

// Solver hands an assembled model to an optimizer and returns its solution.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// FileSolver writes the model to LPPath and reads the solution an external
// process wrote to SolutionPath.
type FileSolver struct {
	LPPath       string
	SolutionPath string
}

// ErrNoSolution is returned by FileSolver when no solution file is configured.
var ErrNoSolution = errors.NewStd("no solution file configured")

// Solve implements Solver.
func (s FileSolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Create(s.LPPath) //nolint:gosec // path from scenario directory
	if err != nil {
		return nil, errors.FileError(err, s.LPPath)
	}
	if err := WriteLP(f, m); err != nil {
		_ = f.Close()
		return nil, errors.FileError(err, s.LPPath)
	}
	if err := f.Close(); err != nil {
		return nil, errors.FileError(err, s.LPPath)
	}

	if s.SolutionPath == "" {
		return nil, ErrNoSolution
	}

	sf, err := os.Open(s.SolutionPath) //nolint:gosec // path from CLI flag
	if err != nil {
		return nil, errors.FileError(err, s.SolutionPath)
	}
	defer func() { _ = sf.Close() }()

	sol, err := ReadSolution(sf, m)
	if err != nil {
		return nil, err
	}
	if sol.Status != StatusOptimal && sol.Status != StatusFeasible {
		return nil, &SolverError{Status: sol.Status}
	}
	return sol, nil
}
