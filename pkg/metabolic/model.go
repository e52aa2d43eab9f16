package metabolic

import "sort"

// Model owns the complete set of metabolites, reactions, and genes of a
// stoichiometric network. Every metabolite referenced by a reaction's
// stoichiometry exists in the model, identifiers are unique per kind, and
// bounds always satisfy lower <= upper.
//
// A model is single-owner within a logical session; concurrent use from
// multiple goroutines requires external mutual exclusion.
type Model struct {
	id          string
	name        string
	metabolites map[string]Metabolite
	reactions   map[string]Reaction
	genes       map[string]Gene
	scopes      []*Scope
}

// NewModel constructs an empty model with the given identifier.
func NewModel(id string) *Model {
	return &Model{
		id:          id,
		metabolites: make(map[string]Metabolite),
		reactions:   make(map[string]Reaction),
		genes:       make(map[string]Gene),
	}
}

// ID returns the model identifier.
func (m *Model) ID() string { return m.id }

// Name returns the human-readable model name.
func (m *Model) Name() string { return m.name }

// SetName sets the human-readable model name.
func (m *Model) SetName(name string) { m.name = name }

// AddMetabolite registers a metabolite. It fails with DuplicateIDError when
// the id is already taken and leaves the model unchanged on any error.
func (m *Model) AddMetabolite(met Metabolite) error {
	if _, ok := m.metabolites[met.ID]; ok {
		return DuplicateIDError{Kind: KindMetabolite, ID: met.ID}
	}
	m.metabolites[met.ID] = met
	m.record(scopeEntry{kind: entryMetaboliteAdded, id: met.ID})
	return nil
}

// AddReaction registers a reaction. Metabolites supplied alongside the
// reaction are registered first, matching the build-from-stoichiometry
// pattern; any stoichiometry reference still unresolved fails with
// UnknownMetaboliteError. Duplicate reaction ids fail with DuplicateIDError,
// invalid bounds with InvalidBoundsError, and a malformed gene rule with
// RuleSyntaxError. No partial mutation is observed on error.
func (m *Model) AddReaction(rxn Reaction, mets ...Metabolite) error {
	if _, ok := m.reactions[rxn.ID]; ok {
		return DuplicateIDError{Kind: KindReaction, ID: rxn.ID}
	}
	if rxn.LowerBound > rxn.UpperBound {
		return InvalidBoundsError{ReactionID: rxn.ID, Lower: rxn.LowerBound, Upper: rxn.UpperBound}
	}
	pending := make([]Metabolite, 0, len(mets))
	for _, met := range mets {
		if _, ok := m.metabolites[met.ID]; ok {
			return DuplicateIDError{Kind: KindMetabolite, ID: met.ID}
		}
		pending = append(pending, met)
	}
	for metID := range rxn.Stoichiometry {
		if _, ok := m.metabolites[metID]; ok {
			continue
		}
		found := false
		for _, met := range pending {
			if met.ID == metID {
				found = true
				break
			}
		}
		if !found {
			return UnknownMetaboliteError{ReactionID: rxn.ID, MetaboliteID: metID}
		}
	}
	var rule *geneRuleNode
	if rxn.GeneRule != "" {
		parsed, genes, err := parseGeneRule(rxn.ID, rxn.GeneRule)
		if err != nil {
			return err
		}
		rule = parsed
		for _, geneID := range genes {
			if _, ok := m.genes[geneID]; !ok {
				m.genes[geneID] = Gene{ID: geneID, Functional: true}
				m.record(scopeEntry{kind: entryGeneAdded, id: geneID})
			}
		}
	}
	for _, met := range pending {
		m.metabolites[met.ID] = met
		m.record(scopeEntry{kind: entryMetaboliteAdded, id: met.ID})
	}
	rxn.Stoichiometry = cloneCoefficients(rxn.Stoichiometry)
	rxn.rule = rule
	m.reactions[rxn.ID] = rxn
	m.record(scopeEntry{kind: entryReactionAdded, id: rxn.ID})
	return nil
}

// RemoveReaction deletes a reaction from the network. The metabolites it
// referenced stay registered.
func (m *Model) RemoveReaction(id string) error {
	rxn, ok := m.reactions[id]
	if !ok {
		return NotFoundError{Kind: KindReaction, ID: id}
	}
	m.record(scopeEntry{kind: entryReactionRemoved, id: id, reaction: rxn})
	delete(m.reactions, id)
	return nil
}

// GetReaction returns a copy of the reaction with the given id.
func (m *Model) GetReaction(id string) (Reaction, error) {
	rxn, ok := m.reactions[id]
	if !ok {
		return Reaction{}, NotFoundError{Kind: KindReaction, ID: id}
	}
	rxn.Stoichiometry = cloneCoefficients(rxn.Stoichiometry)
	return rxn, nil
}

// GetMetabolite returns the metabolite with the given id.
func (m *Model) GetMetabolite(id string) (Metabolite, error) {
	met, ok := m.metabolites[id]
	if !ok {
		return Metabolite{}, NotFoundError{Kind: KindMetabolite, ID: id}
	}
	return met, nil
}

// GetGene returns the gene with the given id.
func (m *Model) GetGene(id string) (Gene, error) {
	gene, ok := m.genes[id]
	if !ok {
		return Gene{}, NotFoundError{Kind: KindGene, ID: id}
	}
	return gene, nil
}

// SetBounds replaces a reaction's flux bounds. Lower must not exceed upper;
// a violation fails with InvalidBoundsError and leaves the prior bounds
// intact.
func (m *Model) SetBounds(reactionID string, lower, upper float64) error {
	rxn, ok := m.reactions[reactionID]
	if !ok {
		return NotFoundError{Kind: KindReaction, ID: reactionID}
	}
	if lower > upper {
		return InvalidBoundsError{ReactionID: reactionID, Lower: lower, Upper: upper}
	}
	m.record(scopeEntry{kind: entryBounds, id: reactionID, lower: rxn.LowerBound, upper: rxn.UpperBound})
	rxn.LowerBound = lower
	rxn.UpperBound = upper
	m.reactions[reactionID] = rxn
	return nil
}

// KnockOutReaction disables a reaction by pinning its bounds to zero. The
// reaction stays in the network topology; the enzyme is absent, not erased.
func (m *Model) KnockOutReaction(reactionID string) error {
	return m.SetBounds(reactionID, 0, 0)
}

// SetObjectiveCoefficient sets the objective coefficient of one reaction.
func (m *Model) SetObjectiveCoefficient(reactionID string, coefficient float64) error {
	rxn, ok := m.reactions[reactionID]
	if !ok {
		return NotFoundError{Kind: KindReaction, ID: reactionID}
	}
	m.record(scopeEntry{kind: entryObjective, id: reactionID, coefficient: rxn.ObjectiveCoefficient})
	rxn.ObjectiveCoefficient = coefficient
	m.reactions[reactionID] = rxn
	return nil
}

// SetObjective makes the given reaction the sole objective with the supplied
// coefficient, clearing any other declared objective coefficients.
func (m *Model) SetObjective(reactionID string, coefficient float64) error {
	if _, ok := m.reactions[reactionID]; !ok {
		return NotFoundError{Kind: KindReaction, ID: reactionID}
	}
	for id, rxn := range m.reactions {
		if id != reactionID && rxn.ObjectiveCoefficient != 0 {
			if err := m.SetObjectiveCoefficient(id, 0); err != nil {
				return err
			}
		}
	}
	return m.SetObjectiveCoefficient(reactionID, coefficient)
}

// Objective returns the declared objective coefficients by reaction id.
func (m *Model) Objective() map[string]float64 {
	out := make(map[string]float64)
	for id, rxn := range m.reactions {
		if rxn.ObjectiveCoefficient != 0 {
			out[id] = rxn.ObjectiveCoefficient
		}
	}
	return out
}

// SetGeneFunctional flips the functional state of a gene.
func (m *Model) SetGeneFunctional(geneID string, functional bool) error {
	gene, ok := m.genes[geneID]
	if !ok {
		return NotFoundError{Kind: KindGene, ID: geneID}
	}
	m.record(scopeEntry{kind: entryGeneState, id: geneID, functional: gene.Functional})
	gene.Functional = functional
	m.genes[geneID] = gene
	return nil
}

// Metabolites lists all metabolites sorted by id.
func (m *Model) Metabolites() []Metabolite {
	out := make([]Metabolite, 0, len(m.metabolites))
	for _, met := range m.metabolites {
		out = append(out, met)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reactions lists all reactions sorted by id.
func (m *Model) Reactions() []Reaction {
	out := make([]Reaction, 0, len(m.reactions))
	for _, rxn := range m.reactions {
		rxn.Stoichiometry = cloneCoefficients(rxn.Stoichiometry)
		out = append(out, rxn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Genes lists all genes sorted by id.
func (m *Model) Genes() []Gene {
	out := make([]Gene, 0, len(m.genes))
	for _, gene := range m.genes {
		out = append(out, gene)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveReactions returns a snapshot of the reactions whose bound interval is
// not {0,0}, sorted by id. The optimizer consumes this snapshot and rebuilds
// its LP from it on every solve, so mutations are always visible to the next
// solve.
func (m *Model) ActiveReactions() []Reaction {
	out := make([]Reaction, 0, len(m.reactions))
	for _, rxn := range m.reactions {
		if rxn.KnockedOut() {
			continue
		}
		rxn.Stoichiometry = cloneCoefficients(rxn.Stoichiometry)
		out = append(out, rxn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneCoefficients(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
