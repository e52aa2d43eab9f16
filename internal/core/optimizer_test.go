package core

import (
	"math"
	"testing"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/lp/simplex"
	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// growthModel is a toy network with a glucose exchange, a gene-gated
// transporter, and two alternative routes to the biomass precursor: a direct
// one-step conversion and a wasteful two-step detour.
func growthModel(t *testing.T) *metabolic.Model {
	t.Helper()
	doc := metabolic.Document{
		ID: "growth",
		Metabolites: []metabolic.Metabolite{
			{ID: "glc_e"}, {ID: "glc_c"}, {ID: "pyr_c"}, {ID: "x_c"},
		},
		Reactions: []metabolic.ReactionRecord{
			{ID: "EX_glc", Metabolites: map[string]float64{"glc_e": -1}, LowerBound: -10, UpperBound: metabolic.DefaultBound},
			{ID: "GLCt", Metabolites: map[string]float64{"glc_e": -1, "glc_c": 1}, UpperBound: metabolic.DefaultBound, GeneRule: "g1"},
			{ID: "SHORT", Metabolites: map[string]float64{"glc_c": -1, "pyr_c": 1}, UpperBound: metabolic.DefaultBound},
			{ID: "LONG1", Metabolites: map[string]float64{"glc_c": -1, "x_c": 1}, UpperBound: metabolic.DefaultBound},
			{ID: "LONG2", Metabolites: map[string]float64{"x_c": -1, "pyr_c": 1}, UpperBound: metabolic.DefaultBound},
			{ID: "BIOMASS", Metabolites: map[string]float64{"pyr_c": -1}, UpperBound: metabolic.DefaultBound, ObjectiveCoefficient: 1},
		},
	}
	m, err := metabolic.BuildModel(doc)
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return m
}

func newTestOptimizer() *Optimizer { return NewOptimizer(simplex.New()) }

func TestOptimizeMaximizesGrowth(t *testing.T) {
	m := growthModel(t)
	solution := newTestOptimizer().Optimize(m)
	if solution.Status != metabolic.StatusOptimal {
		t.Fatalf("status = %s", solution.Status)
	}
	if math.Abs(solution.Objective-10) > 1e-6 {
		t.Fatalf("objective = %g, want 10", solution.Objective)
	}
	if math.Abs(solution.Flux("EX_glc")+10) > 1e-6 {
		t.Fatalf("EX_glc flux = %g, want -10", solution.Flux("EX_glc"))
	}
	if math.Abs(solution.Flux("BIOMASS")-10) > 1e-6 {
		t.Fatalf("BIOMASS flux = %g, want 10", solution.Flux("BIOMASS"))
	}
}

func TestOptimizeParsimoniousPrefersShortRoute(t *testing.T) {
	m := growthModel(t)
	o := newTestOptimizer()
	solution := o.OptimizeParsimonious(m)
	if solution.Status != metabolic.StatusOptimal {
		t.Fatalf("status = %s", solution.Status)
	}
	if math.Abs(solution.Objective-10) > 1e-6 {
		t.Fatalf("objective = %g, want 10", solution.Objective)
	}
	if math.Abs(solution.Flux("LONG1")) > o.ZeroTolerance() {
		t.Fatalf("detour carries flux %g under pFBA", solution.Flux("LONG1"))
	}
	if math.Abs(solution.Flux("SHORT")-10) > 1e-6 {
		t.Fatalf("SHORT flux = %g, want 10", solution.Flux("SHORT"))
	}
	// EX(10) + GLCt(10) + SHORT(10) + BIOMASS(10)
	if math.Abs(solution.TotalFlux()-40) > 1e-6 {
		t.Fatalf("total flux = %g, want 40", solution.TotalFlux())
	}
}

func TestOptimizeParsimoniousNeverExceedsPlainTotalFlux(t *testing.T) {
	m := growthModel(t)
	o := newTestOptimizer()
	plain := o.Optimize(m)
	parsimonious := o.OptimizeParsimonious(m)
	if plain.Status != metabolic.StatusOptimal || parsimonious.Status != metabolic.StatusOptimal {
		t.Fatalf("statuses: %s %s", plain.Status, parsimonious.Status)
	}
	if math.Abs(plain.Objective-parsimonious.Objective) > 1e-6 {
		t.Fatalf("pFBA changed the objective: %g vs %g", plain.Objective, parsimonious.Objective)
	}
	if parsimonious.TotalFlux() > plain.TotalFlux()+1e-6 {
		t.Fatalf("pFBA total flux %g exceeds FBA total flux %g", parsimonious.TotalFlux(), plain.TotalFlux())
	}
}

func TestOptimizeAfterGeneKnockout(t *testing.T) {
	m := growthModel(t)
	o := newTestOptimizer()
	err := m.With(func(m *metabolic.Model) error {
		disabled, _, err := m.KnockOutGenes("g1")
		if err != nil {
			return err
		}
		if len(disabled) != 1 || disabled[0] != "GLCt" {
			t.Fatalf("disabled = %v", disabled)
		}
		solution := o.OptimizeParsimonious(m)
		if solution.Status != metabolic.StatusOptimal {
			t.Fatalf("status = %s", solution.Status)
		}
		if math.Abs(solution.Objective) > 1e-6 {
			t.Fatalf("growth without transporter = %g, want 0", solution.Objective)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with: %v", err)
	}
	// The scope has closed: the same model must solve at full growth again.
	solution := o.Optimize(m)
	if math.Abs(solution.Objective-10) > 1e-6 {
		t.Fatalf("objective after scope close = %g, want 10", solution.Objective)
	}
}

func TestOptimizeInfeasible(t *testing.T) {
	m := growthModel(t)
	o := newTestOptimizer()
	err := m.With(func(m *metabolic.Model) error {
		if err := m.KnockOutReaction("GLCt"); err != nil {
			return err
		}
		// Demand growth the network cannot supply.
		if err := m.SetBounds("BIOMASS", 5, metabolic.DefaultBound); err != nil {
			return err
		}
		solution := o.Optimize(m)
		if solution.Status != metabolic.StatusInfeasible {
			t.Fatalf("status = %s, want infeasible", solution.Status)
		}
		if len(solution.Fluxes) != 0 {
			t.Fatalf("non-optimal solution must carry no fluxes, got %d", len(solution.Fluxes))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with: %v", err)
	}
}

func TestOptimizeParsimoniousWithoutObjective(t *testing.T) {
	m := growthModel(t)
	if err := m.SetObjectiveCoefficient("BIOMASS", 0); err != nil {
		t.Fatalf("clear objective: %v", err)
	}
	solution := newTestOptimizer().OptimizeParsimonious(m)
	if solution.Status != metabolic.StatusOptimal {
		t.Fatalf("a model without an objective must still solve, got %s", solution.Status)
	}
	if solution.TotalFlux() > 1e-6 {
		t.Fatalf("minimum total flux without demands = %g, want 0", solution.TotalFlux())
	}
}

func TestOptimizeReportsKnockedOutReactionsAsZero(t *testing.T) {
	m := growthModel(t)
	o := newTestOptimizer()
	err := m.With(func(m *metabolic.Model) error {
		if err := m.KnockOutReaction("LONG1"); err != nil {
			return err
		}
		solution := o.Optimize(m)
		if solution.Status != metabolic.StatusOptimal {
			t.Fatalf("status = %s", solution.Status)
		}
		if _, ok := solution.Fluxes["LONG1"]; !ok {
			t.Fatal("knocked-out reaction missing from the flux map")
		}
		if solution.Flux("LONG1") != 0 {
			t.Fatalf("knocked-out reaction carries flux %g", solution.Flux("LONG1"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with: %v", err)
	}
}

func TestWithZeroTolerance(t *testing.T) {
	o := NewOptimizer(simplex.New(), WithZeroTolerance(1e-3))
	if o.ZeroTolerance() != 1e-3 {
		t.Fatalf("tolerance = %g", o.ZeroTolerance())
	}
	o = NewOptimizer(simplex.New(), WithZeroTolerance(-1))
	if o.ZeroTolerance() != DefaultZeroTolerance {
		t.Fatalf("non-positive tolerance must keep the default, got %g", o.ZeroTolerance())
	}
}
