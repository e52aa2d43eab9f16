// Package core implements the flux optimizer and the service layer that
// orchestrates model storage, validation, perturbation studies, and solves.
package core

import (
	"math"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/lp"
	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// DefaultZeroTolerance is the magnitude below which a reported flux is
// treated as zero. Values are never rounded internally.
const DefaultZeroTolerance = 1e-6

// Optimizer runs flux-balance analysis over a model using an LP backend. A
// fresh LP is built from current model state on every solve, so mutations are
// always visible to the next call.
type Optimizer struct {
	backend lp.Backend
	epsilon float64
}

// OptimizerOption configures an Optimizer.
type OptimizerOption func(*Optimizer)

// WithZeroTolerance sets the reporting epsilon.
func WithZeroTolerance(epsilon float64) OptimizerOption {
	return func(o *Optimizer) {
		if epsilon > 0 {
			o.epsilon = epsilon
		}
	}
}

// NewOptimizer constructs an optimizer on the given backend.
func NewOptimizer(backend lp.Backend, opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{backend: backend, epsilon: DefaultZeroTolerance}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ZeroTolerance returns the reporting epsilon.
func (o *Optimizer) ZeroTolerance() float64 { return o.epsilon }

// Optimize maximizes the model's declared objective subject to steady-state
// mass balance and the flux bounds (flux-balance analysis). When the solve is
// not optimal the returned solution carries that status and an empty flux
// mapping; it never silently defaults to zero fluxes.
func (o *Optimizer) Optimize(m *metabolic.Model) metabolic.Solution {
	active := m.ActiveReactions()
	problem := o.backend.NewProblem()
	vars := make(map[string]lp.Variable, len(active))
	for _, rxn := range active {
		vars[rxn.ID] = problem.NewVariable(rxn.LowerBound, rxn.UpperBound)
	}
	addMassBalance(problem, active, func(id string) (lp.Variable, float64, bool) {
		v, ok := vars[id]
		return v, 1, ok
	})
	objective := make(map[lp.Variable]float64)
	for _, rxn := range active {
		if rxn.ObjectiveCoefficient != 0 {
			objective[vars[rxn.ID]] = rxn.ObjectiveCoefficient
		}
	}
	problem.SetObjective(objective, lp.Maximize)
	res := problem.Solve()
	if res.Status != lp.StatusOptimal {
		return metabolic.Solution{Status: metabolic.SolveStatus(res.Status)}
	}
	fluxes := zeroFluxes(m)
	for id, v := range vars {
		fluxes[id] = res.Values[v]
	}
	return metabolic.Solution{Status: metabolic.StatusOptimal, Objective: res.Objective, Fluxes: fluxes}
}

// OptimizeParsimonious runs the two-phase pFBA procedure: maximize the
// declared objective, then, holding that optimum fixed, minimize the sum of
// absolute fluxes. Each flux is split into non-negative forward and reverse
// parts (v = f - r, |v| = f + r) so total flux is linear. Among all optima
// this selects the distribution with least total enzyme usage.
//
// A model with no declared objective is not an error: phase two degenerates
// to minimizing total flux subject to mass balance alone.
func (o *Optimizer) OptimizeParsimonious(m *metabolic.Model) metabolic.Solution {
	objective := m.Objective()
	var optimum float64
	if len(objective) > 0 {
		phase1 := o.Optimize(m)
		if phase1.Status != metabolic.StatusOptimal {
			return phase1
		}
		optimum = phase1.Objective
	}

	active := m.ActiveReactions()
	problem := o.backend.NewProblem()
	forward := make(map[string]lp.Variable, len(active))
	reverse := make(map[string]lp.Variable, len(active))
	minimize := make(map[lp.Variable]float64, 2*len(active))
	for _, rxn := range active {
		f := problem.NewVariable(math.Max(0, rxn.LowerBound), math.Max(0, rxn.UpperBound))
		r := problem.NewVariable(math.Max(0, -rxn.UpperBound), math.Max(0, -rxn.LowerBound))
		forward[rxn.ID] = f
		reverse[rxn.ID] = r
		minimize[f] = 1
		minimize[r] = 1
	}
	split := func(id string) (map[lp.Variable]float64, bool) {
		f, ok := forward[id]
		if !ok {
			return nil, false
		}
		return map[lp.Variable]float64{f: 1, reverse[id]: -1}, true
	}
	addMassBalanceSplit(problem, active, split)
	if len(objective) > 0 {
		fix := make(map[lp.Variable]float64, 2*len(objective))
		for id, coefficient := range objective {
			if f, ok := forward[id]; ok {
				fix[f] += coefficient
				fix[reverse[id]] -= coefficient
			}
		}
		problem.AddEqualityConstraint(fix, optimum)
	}
	problem.SetObjective(minimize, lp.Minimize)
	res := problem.Solve()
	if res.Status != lp.StatusOptimal {
		return metabolic.Solution{Status: metabolic.SolveStatus(res.Status)}
	}

	fluxes := zeroFluxes(m)
	for _, rxn := range active {
		fluxes[rxn.ID] = res.Values[forward[rxn.ID]] - res.Values[reverse[rxn.ID]]
	}
	achieved := 0.0
	for id, coefficient := range objective {
		achieved += coefficient * fluxes[id]
	}
	return metabolic.Solution{Status: metabolic.StatusOptimal, Objective: achieved, Fluxes: fluxes}
}

func zeroFluxes(m *metabolic.Model) map[string]float64 {
	fluxes := make(map[string]float64)
	for _, rxn := range m.Reactions() {
		fluxes[rxn.ID] = 0
	}
	return fluxes
}

// addMassBalance adds one equality row per metabolite: the net production of
// every species is zero at steady state.
func addMassBalance(problem lp.Problem, active []metabolic.Reaction, lookup func(id string) (lp.Variable, float64, bool)) {
	terms := make(map[string]map[lp.Variable]float64)
	for _, rxn := range active {
		v, scale, ok := lookup(rxn.ID)
		if !ok {
			continue
		}
		for metID, coefficient := range rxn.Stoichiometry {
			row, ok := terms[metID]
			if !ok {
				row = make(map[lp.Variable]float64)
				terms[metID] = row
			}
			row[v] += coefficient * scale
		}
	}
	for _, row := range terms {
		problem.AddEqualityConstraint(row, 0)
	}
}

// addMassBalanceSplit is the split-variable form: each reaction contributes
// coefficient*(f - r) to its metabolites' balance rows.
func addMassBalanceSplit(problem lp.Problem, active []metabolic.Reaction, split func(id string) (map[lp.Variable]float64, bool)) {
	terms := make(map[string]map[lp.Variable]float64)
	for _, rxn := range active {
		pair, ok := split(rxn.ID)
		if !ok {
			continue
		}
		for metID, coefficient := range rxn.Stoichiometry {
			row, ok := terms[metID]
			if !ok {
				row = make(map[lp.Variable]float64)
				terms[metID] = row
			}
			for v, sign := range pair {
				row[v] += coefficient * sign
			}
		}
	}
	for _, row := range terms {
		problem.AddEqualityConstraint(row, 0)
	}
}
