package metabolic

import "fmt"

// EntityKind identifies the kind of record addressed by a structural error.
type EntityKind string

// Entity kinds referenced by structural errors and validation violations.
const (
	// KindMetabolite identifies a metabolite record.
	KindMetabolite EntityKind = "metabolite"
	// KindReaction identifies a reaction record.
	KindReaction EntityKind = "reaction"
	// KindGene identifies a gene record.
	KindGene EntityKind = "gene"
)

// DuplicateIDError reports an attempt to register an entity under an
// identifier that is already taken.
type DuplicateIDError struct {
	Kind EntityKind
	ID   string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}

// NotFoundError reports a lookup of an entity that is not part of the model.
type NotFoundError struct {
	Kind EntityKind
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// UnknownMetaboliteError reports a reaction whose stoichiometry references a
// metabolite absent from the model.
type UnknownMetaboliteError struct {
	ReactionID   string
	MetaboliteID string
}

func (e UnknownMetaboliteError) Error() string {
	return fmt.Sprintf("reaction %s references unknown metabolite %s", e.ReactionID, e.MetaboliteID)
}

// InvalidBoundsError reports a flux bound interval with lower > upper.
type InvalidBoundsError struct {
	ReactionID string
	Lower      float64
	Upper      float64
}

func (e InvalidBoundsError) Error() string {
	return fmt.Sprintf("reaction %s bounds invalid: lower %g > upper %g", e.ReactionID, e.Lower, e.Upper)
}

// RuleSyntaxError reports a malformed gene-reaction rule. It is raised at
// model-construction time, never during evaluation.
type RuleSyntaxError struct {
	ReactionID string
	Rule       string
	Pos        int
	Detail     string
}

func (e RuleSyntaxError) Error() string {
	return fmt.Sprintf("reaction %s gene rule %q: %s at offset %d", e.ReactionID, e.Rule, e.Detail, e.Pos)
}

// FormulaError reports an elemental formula that cannot be parsed during a
// mass-balance check.
type FormulaError struct {
	MetaboliteID string
	Formula      string
}

func (e FormulaError) Error() string {
	return fmt.Sprintf("metabolite %s formula %q cannot be parsed", e.MetaboliteID, e.Formula)
}
