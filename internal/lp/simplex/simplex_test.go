package simplex

import (
	"math"
	"testing"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/lp"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestSolveBoundedMaximize(t *testing.T) {
	p := New().NewProblem()
	x := p.NewVariable(0, 4)
	y := p.NewVariable(0, 3)
	// x + y == 5 with x <= 4, y <= 3; maximize 2x + y.
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 1, y: 1}, 5)
	p.SetObjective(map[lp.Variable]float64{x: 2, y: 1}, lp.Maximize)

	result := p.Solve()
	if result.Status != lp.StatusOptimal {
		t.Fatalf("status = %s (%s)", result.Status, result.Detail)
	}
	if !almostEqual(result.Objective, 9) {
		t.Fatalf("objective = %g, want 9", result.Objective)
	}
	if !almostEqual(result.Values[x], 4) || !almostEqual(result.Values[y], 1) {
		t.Fatalf("values = %v", result.Values)
	}
}

func TestSolveMinimizeWithNegativeLowerBounds(t *testing.T) {
	p := New().NewProblem()
	x := p.NewVariable(-10, 10)
	y := p.NewVariable(-10, 10)
	// x - y == 2; minimize x + y. Optimum at x=-8, y=-10.
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 1, y: -1}, 2)
	p.SetObjective(map[lp.Variable]float64{x: 1, y: 1}, lp.Minimize)

	result := p.Solve()
	if result.Status != lp.StatusOptimal {
		t.Fatalf("status = %s (%s)", result.Status, result.Detail)
	}
	if !almostEqual(result.Objective, -18) {
		t.Fatalf("objective = %g, want -18", result.Objective)
	}
	if !almostEqual(result.Values[x], -8) || !almostEqual(result.Values[y], -10) {
		t.Fatalf("values = %v", result.Values)
	}
}

func TestSolveInfeasible(t *testing.T) {
	p := New().NewProblem()
	x := p.NewVariable(0, 1)
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 1}, 5)
	p.SetObjective(map[lp.Variable]float64{x: 1}, lp.Maximize)

	result := p.Solve()
	if result.Status != lp.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", result.Status)
	}
}

func TestSolveEmptyVariableDomain(t *testing.T) {
	p := New().NewProblem()
	p.NewVariable(2, 1)
	result := p.Solve()
	if result.Status != lp.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", result.Status)
	}
}

func TestSolveContradictoryConstraints(t *testing.T) {
	p := New().NewProblem()
	x := p.NewVariable(0, 10)
	y := p.NewVariable(0, 10)
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 1, y: 1}, 3)
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 1, y: 1}, 4)
	p.SetObjective(map[lp.Variable]float64{x: 1}, lp.Maximize)

	result := p.Solve()
	if result.Status != lp.StatusInfeasible {
		t.Fatalf("status = %s (%s), want infeasible", result.Status, result.Detail)
	}
}

func TestSolveDropsDependentRows(t *testing.T) {
	p := New().NewProblem()
	x := p.NewVariable(0, 10)
	y := p.NewVariable(0, 10)
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 1, y: 1}, 6)
	// Same hyperplane scaled: must be eliminated, not declared infeasible.
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 2, y: 2}, 12)
	p.SetObjective(map[lp.Variable]float64{x: 1}, lp.Maximize)

	result := p.Solve()
	if result.Status != lp.StatusOptimal {
		t.Fatalf("status = %s (%s)", result.Status, result.Detail)
	}
	if !almostEqual(result.Objective, 6) {
		t.Fatalf("objective = %g, want 6", result.Objective)
	}
}

func TestRemoveConstraint(t *testing.T) {
	p := New().NewProblem()
	x := p.NewVariable(0, 10)
	pin := p.AddEqualityConstraint(map[lp.Variable]float64{x: 1}, 2)
	p.SetObjective(map[lp.Variable]float64{x: 1}, lp.Maximize)

	result := p.Solve()
	if result.Status != lp.StatusOptimal || !almostEqual(result.Objective, 2) {
		t.Fatalf("pinned solve = %s objective %g", result.Status, result.Objective)
	}

	p.RemoveConstraint(pin)
	result = p.Solve()
	if result.Status != lp.StatusOptimal || !almostEqual(result.Objective, 10) {
		t.Fatalf("unpinned solve = %s objective %g, want 10", result.Status, result.Objective)
	}
}

func TestSolveEmptyProblem(t *testing.T) {
	p := New().NewProblem()
	result := p.Solve()
	if result.Status != lp.StatusOptimal || result.Objective != 0 {
		t.Fatalf("empty problem = %s objective %g", result.Status, result.Objective)
	}
}

func TestSolveRejectsInfiniteBounds(t *testing.T) {
	p := New().NewProblem()
	p.NewVariable(0, math.Inf(1))
	result := p.Solve()
	if result.Status != lp.StatusError {
		t.Fatalf("status = %s, want error", result.Status)
	}
}

func TestSolveZeroRowWithNonzeroRHS(t *testing.T) {
	p := New().NewProblem()
	x := p.NewVariable(0, 1)
	p.AddEqualityConstraint(map[lp.Variable]float64{x: 0}, 1)
	result := p.Solve()
	if result.Status != lp.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", result.Status)
	}
}
