package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// DefaultRules returns the validation engine used when none is supplied:
// mass-balance audit, bound sanity, and orphan detection.
func DefaultRules() *metabolic.RulesEngine {
	engine := metabolic.NewRulesEngine()
	engine.Register(MassBalanceRule())
	engine.Register(BoundsSanityRule())
	engine.Register(OrphanMetaboliteRule())
	return engine
}

// MassBalanceRule audits every non-boundary reaction for elemental and
// charge imbalance. Boundary (exchange) reactions are imbalanced by
// construction and are skipped. Metabolites without a parseable formula
// downgrade the finding to a log entry rather than failing the audit.
func MassBalanceRule() metabolic.Rule { return massBalanceRule{} }

type massBalanceRule struct{}

func (massBalanceRule) Name() string { return "mass_balance" }

func (massBalanceRule) Evaluate(_ context.Context, m *metabolic.Model) (metabolic.Result, error) {
	var result metabolic.Result
	for _, rxn := range m.Reactions() {
		if rxn.Boundary() {
			continue
		}
		imbalance, err := m.CheckMassBalance(rxn.ID)
		if err != nil {
			var formulaErr metabolic.FormulaError
			if errors.As(err, &formulaErr) {
				result.Violations = append(result.Violations, metabolic.Violation{
					Rule:     "mass_balance",
					Severity: metabolic.SeverityLog,
					Message:  err.Error(),
					Kind:     metabolic.KindReaction,
					EntityID: rxn.ID,
				})
				continue
			}
			return metabolic.Result{}, err
		}
		if len(imbalance) == 0 {
			continue
		}
		elements := make([]string, 0, len(imbalance))
		for element := range imbalance {
			elements = append(elements, element)
		}
		sort.Strings(elements)
		result.Violations = append(result.Violations, metabolic.Violation{
			Rule:     "mass_balance",
			Severity: metabolic.SeverityWarn,
			Message:  fmt.Sprintf("reaction %s is imbalanced in %v", rxn.ID, elements),
			Kind:     metabolic.KindReaction,
			EntityID: rxn.ID,
		})
	}
	return result, nil
}

// BoundsSanityRule flags bound magnitudes exceeding the unbounded sentinel.
// Inverted bounds cannot be produced through the model's mutators, so any
// occurrence in a loaded document is a blocking defect.
func BoundsSanityRule() metabolic.Rule { return boundsSanityRule{} }

type boundsSanityRule struct{}

func (boundsSanityRule) Name() string { return "bounds_sanity" }

func (boundsSanityRule) Evaluate(_ context.Context, m *metabolic.Model) (metabolic.Result, error) {
	var result metabolic.Result
	for _, rxn := range m.Reactions() {
		if rxn.LowerBound > rxn.UpperBound {
			result.Violations = append(result.Violations, metabolic.Violation{
				Rule:     "bounds_sanity",
				Severity: metabolic.SeverityBlock,
				Message:  fmt.Sprintf("reaction %s has lower bound above upper bound", rxn.ID),
				Kind:     metabolic.KindReaction,
				EntityID: rxn.ID,
			})
			continue
		}
		if rxn.LowerBound < -metabolic.DefaultBound || rxn.UpperBound > metabolic.DefaultBound {
			result.Violations = append(result.Violations, metabolic.Violation{
				Rule:     "bounds_sanity",
				Severity: metabolic.SeverityWarn,
				Message:  fmt.Sprintf("reaction %s bounds exceed the unbounded sentinel %g", rxn.ID, metabolic.DefaultBound),
				Kind:     metabolic.KindReaction,
				EntityID: rxn.ID,
			})
		}
	}
	return result, nil
}

// OrphanMetaboliteRule reports metabolites not referenced by any reaction.
func OrphanMetaboliteRule() metabolic.Rule { return orphanMetaboliteRule{} }

type orphanMetaboliteRule struct{}

func (orphanMetaboliteRule) Name() string { return "orphan_metabolite" }

func (orphanMetaboliteRule) Evaluate(_ context.Context, m *metabolic.Model) (metabolic.Result, error) {
	referenced := make(map[string]struct{})
	for _, rxn := range m.Reactions() {
		for metID := range rxn.Stoichiometry {
			referenced[metID] = struct{}{}
		}
	}
	var result metabolic.Result
	for _, met := range m.Metabolites() {
		if _, ok := referenced[met.ID]; ok {
			continue
		}
		result.Violations = append(result.Violations, metabolic.Violation{
			Rule:     "orphan_metabolite",
			Severity: metabolic.SeverityLog,
			Message:  fmt.Sprintf("metabolite %s is not used by any reaction", met.ID),
			Kind:     metabolic.KindMetabolite,
			EntityID: met.ID,
		})
	}
	return result, nil
}
