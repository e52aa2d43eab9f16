package metabolic

import (
	"encoding/json"
	"io"
	"sort"
)

// Document is the structured description a model is loaded from and saved
// to: three collections of records. Load, save, and load again reproduces an
// equivalent model: same ids, bounds, coefficients, and rules.
type Document struct {
	ID          string           `json:"id"`
	Name        string           `json:"name,omitempty"`
	Metabolites []Metabolite     `json:"metabolites"`
	Reactions   []ReactionRecord `json:"reactions"`
	Genes       []Gene           `json:"genes,omitempty"`
}

// ReactionRecord is the wire form of a reaction.
type ReactionRecord struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name,omitempty"`
	Metabolites          map[string]float64 `json:"metabolites"`
	LowerBound           float64            `json:"lower_bound"`
	UpperBound           float64            `json:"upper_bound"`
	ObjectiveCoefficient float64            `json:"objective_coefficient,omitempty"`
	GeneRule             string             `json:"gene_reaction_rule,omitempty"`
}

// BuildModel constructs a model from a document, validating it eagerly:
// duplicate ids, unknown metabolite references, invalid bounds, and
// malformed gene rules all fail here rather than at solve time.
func BuildModel(doc Document) (*Model, error) {
	m := NewModel(doc.ID)
	m.SetName(doc.Name)
	for _, met := range doc.Metabolites {
		if err := m.AddMetabolite(met); err != nil {
			return nil, err
		}
	}
	for _, gene := range doc.Genes {
		if _, ok := m.genes[gene.ID]; ok {
			return nil, DuplicateIDError{Kind: KindGene, ID: gene.ID}
		}
		m.genes[gene.ID] = gene
	}
	for _, record := range doc.Reactions {
		rxn := Reaction{
			ID:                   record.ID,
			Name:                 record.Name,
			Stoichiometry:        record.Metabolites,
			LowerBound:           record.LowerBound,
			UpperBound:           record.UpperBound,
			ObjectiveCoefficient: record.ObjectiveCoefficient,
			GeneRule:             record.GeneRule,
		}
		if err := m.AddReaction(rxn); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ExportDocument renders the model back into its wire form with all
// collections sorted by id.
func ExportDocument(m *Model) Document {
	doc := Document{
		ID:          m.ID(),
		Name:        m.Name(),
		Metabolites: m.Metabolites(),
		Genes:       m.Genes(),
	}
	for _, rxn := range m.Reactions() {
		doc.Reactions = append(doc.Reactions, ReactionRecord{
			ID:                   rxn.ID,
			Name:                 rxn.Name,
			Metabolites:          rxn.Stoichiometry,
			LowerBound:           rxn.LowerBound,
			UpperBound:           rxn.UpperBound,
			ObjectiveCoefficient: rxn.ObjectiveCoefficient,
			GeneRule:             rxn.GeneRule,
		})
	}
	sort.Slice(doc.Reactions, func(i, j int) bool { return doc.Reactions[i].ID < doc.Reactions[j].ID })
	return doc
}

// DecodeDocument reads a JSON document from r.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// EncodeDocument writes the document as indented JSON to w.
func EncodeDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
