// Package metabolic defines the constraint-based metabolic network model:
// metabolites, reactions with flux bounds, gene-reaction rules, scoped
// perturbations, and the flux solution types produced by the optimizer.
package metabolic

import "sort"

// DefaultBound is the finite magnitude used as a proxy for an unbounded flux.
const DefaultBound = 1000.0

// Metabolite is a chemical species participating in reactions. A metabolite
// may appear in any number of reactions; the model is the sole owner of the
// record.
type Metabolite struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Compartment string `json:"compartment,omitempty"`
	Formula     string `json:"formula,omitempty"`
	Charge      int    `json:"charge,omitempty"`
}

// Reaction converts metabolites at a flux constrained to [LowerBound,
// UpperBound]. Stoichiometry maps metabolite id to a signed coefficient;
// negative consumes, positive produces.
type Reaction struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name,omitempty"`
	Stoichiometry        map[string]float64 `json:"metabolites"`
	LowerBound           float64            `json:"lower_bound"`
	UpperBound           float64            `json:"upper_bound"`
	ObjectiveCoefficient float64            `json:"objective_coefficient,omitempty"`
	GeneRule             string             `json:"gene_reaction_rule,omitempty"`

	rule *geneRuleNode
}

// Reversible reports whether the reaction can carry negative flux.
func (r Reaction) Reversible() bool { return r.LowerBound < 0 }

// Boundary reports whether the reaction exchanges a single species with the
// environment. Boundary reactions are exempt from mass-balance audits.
func (r Reaction) Boundary() bool { return len(r.Stoichiometry) == 1 }

// KnockedOut reports whether the bound interval pins the flux to zero.
func (r Reaction) KnockedOut() bool { return r.LowerBound == 0 && r.UpperBound == 0 }

// Gene is a catalytic gene referenced by gene-reaction rules. Functional is
// true unless the gene has been knocked out.
type Gene struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Functional bool   `json:"functional"`
}

// SolveStatus classifies the outcome of a flux optimization.
type SolveStatus string

// Solve statuses reported by the flux optimizer. Infeasible and unbounded are
// data, not errors; callers decide whether they are fatal to a workflow.
const (
	// StatusOptimal indicates an optimal flux distribution was found.
	StatusOptimal SolveStatus = "optimal"
	// StatusInfeasible indicates the constraints admit no flux distribution.
	StatusInfeasible SolveStatus = "infeasible"
	// StatusUnbounded indicates the objective is unbounded.
	StatusUnbounded SolveStatus = "unbounded"
	// StatusError indicates a numerical or backend failure.
	StatusError SolveStatus = "error"
)

// Solution is a flux distribution together with the achieved objective value
// and the optimizer status. Fluxes is empty unless Status is StatusOptimal.
type Solution struct {
	Status    SolveStatus        `json:"status"`
	Objective float64            `json:"objective"`
	Fluxes    map[string]float64 `json:"fluxes,omitempty"`
}

// Flux returns the flux through the given reaction, zero when absent.
func (s Solution) Flux(reactionID string) float64 { return s.Fluxes[reactionID] }

// Nonzero returns the reaction ids whose flux magnitude exceeds eps. Values
// are never rounded internally; eps applies to reporting only.
func (s Solution) Nonzero(eps float64) []string {
	out := make([]string, 0, len(s.Fluxes))
	for id, v := range s.Fluxes {
		if v > eps || v < -eps {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// TotalFlux returns the sum of absolute flux values, the quantity pFBA
// minimizes.
func (s Solution) TotalFlux() float64 {
	var total float64
	for _, v := range s.Fluxes {
		if v < 0 {
			total -= v
		} else {
			total += v
		}
	}
	return total
}
