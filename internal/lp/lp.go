// Package lp defines the narrow interface the flux optimizer consumes from a
// linear-programming backend: bounded variables, equality constraints, a
// linear objective, and a blocking solve that reports primal values.
package lp

// Sense selects the optimization direction.
type Sense int

// Optimization directions.
const (
	Minimize Sense = iota
	Maximize
)

// Status classifies a solve outcome. It is returned as data rather than an
// error so callers can branch on feasibility without unwrapping.
type Status string

// Solve statuses.
const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusError      Status = "error"
)

// Variable is an opaque handle to a problem variable.
type Variable int

// Constraint is an opaque handle to an equality constraint.
type Constraint int

// Result carries the outcome of a solve. Values holds the primal value of
// every variable when Status is StatusOptimal and is nil otherwise.
type Result struct {
	Status    Status
	Objective float64
	Values    map[Variable]float64
	Detail    string
}

// Problem accumulates an LP and solves it. A problem is built once, solved
// once, and discarded; the optimizer rebuilds from current model state on
// every solve.
type Problem interface {
	// NewVariable adds a variable bounded to [lower, upper].
	NewVariable(lower, upper float64) Variable
	// AddEqualityConstraint enforces sum(coefficient*variable) == rhs.
	AddEqualityConstraint(terms map[Variable]float64, rhs float64) Constraint
	// RemoveConstraint withdraws a previously added constraint.
	RemoveConstraint(c Constraint)
	// SetObjective replaces the objective function.
	SetObjective(terms map[Variable]float64, sense Sense)
	// Solve runs the backend and reports the outcome.
	Solve() Result
}

// Backend creates fresh problems. One backend serves many sequential solves.
type Backend interface {
	NewProblem() Problem
}
