// Package simplex adapts gonum's dense simplex solver to the lp.Problem
// interface. The adapter converts a bounded-variable equality-form LP to the
// standard form gonum expects; the simplex math itself lives in gonum.
package simplex

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	convexlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/lp"
)

// DefaultTolerance is the reduced-cost tolerance handed to the simplex.
const DefaultTolerance = 1e-10

// Backend constructs simplex-backed problems.
type Backend struct {
	// Tolerance overrides DefaultTolerance when nonzero.
	Tolerance float64
}

// New returns a backend with default tolerance.
func New() *Backend { return &Backend{} }

var _ lp.Backend = (*Backend)(nil)

// NewProblem returns an empty problem.
func (b *Backend) NewProblem() lp.Problem {
	tol := b.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	return &problem{tol: tol, objective: map[lp.Variable]float64{}}
}

type constraintRow struct {
	terms   map[lp.Variable]float64
	rhs     float64
	removed bool
}

type problem struct {
	tol         float64
	lower       []float64
	upper       []float64
	constraints []constraintRow
	objective   map[lp.Variable]float64
	sense       lp.Sense
}

var _ lp.Problem = (*problem)(nil)

func (p *problem) NewVariable(lower, upper float64) lp.Variable {
	p.lower = append(p.lower, lower)
	p.upper = append(p.upper, upper)
	return lp.Variable(len(p.lower) - 1)
}

func (p *problem) AddEqualityConstraint(terms map[lp.Variable]float64, rhs float64) lp.Constraint {
	row := constraintRow{terms: make(map[lp.Variable]float64, len(terms)), rhs: rhs}
	for v, c := range terms {
		row.terms[v] = c
	}
	p.constraints = append(p.constraints, row)
	return lp.Constraint(len(p.constraints) - 1)
}

func (p *problem) RemoveConstraint(c lp.Constraint) {
	if int(c) >= 0 && int(c) < len(p.constraints) {
		p.constraints[int(c)].removed = true
	}
}

func (p *problem) SetObjective(terms map[lp.Variable]float64, sense lp.Sense) {
	p.objective = make(map[lp.Variable]float64, len(terms))
	for v, c := range terms {
		p.objective[v] = c
	}
	p.sense = sense
}

// Solve converts the problem to standard form and runs gonum's simplex.
//
// Each variable x_i in [l_i, u_i] is shifted to y_i = x_i - l_i in [0, w_i]
// with a slack row y_i + s_i = w_i, and every equality row is rewritten in
// terms of y. Linearly dependent equality rows are eliminated up front so
// the constraint matrix keeps full row rank.
func (p *problem) Solve() lp.Result {
	n := len(p.lower)
	if n == 0 {
		return lp.Result{Status: lp.StatusOptimal, Values: map[lp.Variable]float64{}}
	}
	for i := 0; i < n; i++ {
		if p.lower[i] > p.upper[i] {
			return lp.Result{Status: lp.StatusInfeasible, Detail: fmt.Sprintf("variable %d has empty domain", i)}
		}
		if math.IsInf(p.lower[i], 0) || math.IsInf(p.upper[i], 0) {
			return lp.Result{Status: lp.StatusError, Detail: "infinite bounds are not supported; use a finite sentinel"}
		}
	}

	rows, rhs, status, detail := p.shiftedRows(n)
	if status != lp.StatusOptimal {
		return lp.Result{Status: status, Detail: detail}
	}
	rows, rhs, ok := independentRows(rows, rhs)
	if !ok {
		return lp.Result{Status: lp.StatusInfeasible, Detail: "inconsistent equality constraints"}
	}

	m := len(rows)
	if m > n {
		return lp.Result{Status: lp.StatusError, Detail: "more independent equality rows than variables"}
	}

	// Standard form: columns 0..n-1 are the shifted y variables, columns
	// n..2n-1 the per-variable slacks.
	total := 2 * n
	a := mat.NewDense(m+n, total, nil)
	b := make([]float64, m+n)
	for i, row := range rows {
		for j, c := range row {
			if c != 0 {
				a.Set(i, j, c)
			}
		}
		b[i] = rhs[i]
	}
	for i := 0; i < n; i++ {
		a.Set(m+i, i, 1)
		a.Set(m+i, n+i, 1)
		b[m+i] = p.upper[i] - p.lower[i]
	}

	c := make([]float64, total)
	for v, coeff := range p.objective {
		if int(v) < n {
			c[int(v)] = coeff
		}
	}
	if p.sense == lp.Maximize {
		for i := range c {
			c[i] = -c[i]
		}
	}

	_, xStd, err := convexlp.Simplex(c, a, b, p.tol, nil)
	if err != nil {
		switch {
		case errors.Is(err, convexlp.ErrInfeasible):
			return lp.Result{Status: lp.StatusInfeasible, Detail: err.Error()}
		case errors.Is(err, convexlp.ErrUnbounded):
			return lp.Result{Status: lp.StatusUnbounded, Detail: err.Error()}
		default:
			return lp.Result{Status: lp.StatusError, Detail: err.Error()}
		}
	}

	values := make(map[lp.Variable]float64, n)
	for i := 0; i < n; i++ {
		values[lp.Variable(i)] = p.lower[i] + xStd[i]
	}
	var objective float64
	for v, coeff := range p.objective {
		objective += coeff * values[v]
	}
	return lp.Result{Status: lp.StatusOptimal, Objective: objective, Values: values}
}

// shiftedRows rewrites the live equality constraints in terms of the shifted
// variables, dropping all-zero rows and detecting trivially inconsistent
// ones.
func (p *problem) shiftedRows(n int) (rows [][]float64, rhs []float64, status lp.Status, detail string) {
	for _, con := range p.constraints {
		if con.removed {
			continue
		}
		row := make([]float64, n)
		shifted := con.rhs
		nonzero := false
		for v, c := range con.terms {
			if int(v) < 0 || int(v) >= n {
				continue
			}
			row[int(v)] = c
			shifted -= c * p.lower[int(v)]
			if c != 0 {
				nonzero = true
			}
		}
		if !nonzero {
			if math.Abs(shifted) > 1e-9 {
				return nil, nil, lp.StatusInfeasible, "constraint with no variables has nonzero rhs"
			}
			continue
		}
		rows = append(rows, row)
		rhs = append(rhs, shifted)
	}
	return rows, rhs, lp.StatusOptimal, ""
}

// independentRows filters out linearly dependent equality rows by Gaussian
// elimination with partial pivoting. A row that reduces to zero is dropped
// when its rhs also reduces to zero and flags infeasibility otherwise.
func independentRows(rows [][]float64, rhs []float64) ([][]float64, []float64, bool) {
	const eps = 1e-9
	var keptRows [][]float64
	var keptRHS []float64
	var reduced [][]float64
	var reducedRHS []float64
	var pivots []int

	for r := range rows {
		work := append([]float64(nil), rows[r]...)
		workRHS := rhs[r]
		for k, pivot := range pivots {
			factor := work[pivot] / reduced[k][pivot]
			if factor == 0 {
				continue
			}
			for j := range work {
				work[j] -= factor * reduced[k][j]
			}
			workRHS -= factor * reducedRHS[k]
		}
		pivot := -1
		best := eps
		for j, v := range work {
			if math.Abs(v) > best {
				best = math.Abs(v)
				pivot = j
			}
		}
		if pivot < 0 {
			if math.Abs(workRHS) > eps {
				return nil, nil, false
			}
			continue
		}
		keptRows = append(keptRows, rows[r])
		keptRHS = append(keptRHS, rhs[r])
		reduced = append(reduced, work)
		reducedRHS = append(reducedRHS, workRHS)
		pivots = append(pivots, pivot)
	}
	return keptRows, keptRHS, true
}
