// Package memory provides an in-memory implementation of the flux core
// archive used for tests and ephemeral environments, and as the working set
// behind the snapshotting durable stores.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// Compile-time contract assertion.
var _ metabolic.Store = (*Store)(nil)

// Snapshot captures a point-in-time clone of the store state, the unit the
// durable stores persist after every write.
type Snapshot struct {
	Models    map[string]metabolic.ModelRecord    `json:"models"`
	Solutions map[string]metabolic.SolutionRecord `json:"solutions"`
}

// Store keeps model documents and solution records in process memory.
type Store struct {
	mu        sync.RWMutex
	models    map[string]metabolic.ModelRecord
	solutions map[string]metabolic.SolutionRecord
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		models:    make(map[string]metabolic.ModelRecord),
		solutions: make(map[string]metabolic.SolutionRecord),
	}
}

// PutModel inserts or replaces a model record.
func (s *Store) PutModel(_ context.Context, record metabolic.ModelRecord) (metabolic.ModelRecord, error) {
	record = cloneModelRecord(record)
	s.mu.Lock()
	s.models[record.ID] = record
	s.mu.Unlock()
	return record, nil
}

// GetModel returns the model record with the given id.
func (s *Store) GetModel(_ context.Context, id string) (metabolic.ModelRecord, bool) {
	s.mu.RLock()
	record, ok := s.models[id]
	s.mu.RUnlock()
	if !ok {
		return metabolic.ModelRecord{}, false
	}
	return cloneModelRecord(record), true
}

// ListModels returns all model records sorted by id.
func (s *Store) ListModels(_ context.Context) []metabolic.ModelRecord {
	s.mu.RLock()
	out := make([]metabolic.ModelRecord, 0, len(s.models))
	for _, record := range s.models {
		out = append(out, cloneModelRecord(record))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteModel removes a model record, reporting whether it existed.
func (s *Store) DeleteModel(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	_, ok := s.models[id]
	delete(s.models, id)
	s.mu.Unlock()
	return ok, nil
}

// PutSolution inserts or replaces a solution record.
func (s *Store) PutSolution(_ context.Context, record metabolic.SolutionRecord) (metabolic.SolutionRecord, error) {
	record = cloneSolutionRecord(record)
	s.mu.Lock()
	s.solutions[record.ID] = record
	s.mu.Unlock()
	return record, nil
}

// ListSolutions returns the solutions archived for a model, newest last.
func (s *Store) ListSolutions(_ context.Context, modelID string) []metabolic.SolutionRecord {
	s.mu.RLock()
	out := make([]metabolic.SolutionRecord, 0, len(s.solutions))
	for _, record := range s.solutions {
		if record.ModelID == modelID {
			out = append(out, cloneSolutionRecord(record))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ExportState clones the full store state for snapshotting.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Snapshot{
		Models:    make(map[string]metabolic.ModelRecord, len(s.models)),
		Solutions: make(map[string]metabolic.SolutionRecord, len(s.solutions)),
	}
	for id, record := range s.models {
		snapshot.Models[id] = cloneModelRecord(record)
	}
	for id, record := range s.solutions {
		snapshot.Solutions[id] = cloneSolutionRecord(record)
	}
	return snapshot
}

// ImportState replaces the store state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = make(map[string]metabolic.ModelRecord, len(snapshot.Models))
	for id, record := range snapshot.Models {
		s.models[id] = cloneModelRecord(record)
	}
	s.solutions = make(map[string]metabolic.SolutionRecord, len(snapshot.Solutions))
	for id, record := range snapshot.Solutions {
		s.solutions[id] = cloneSolutionRecord(record)
	}
}

func cloneModelRecord(record metabolic.ModelRecord) metabolic.ModelRecord {
	doc := record.Document
	doc.Metabolites = append([]metabolic.Metabolite(nil), doc.Metabolites...)
	doc.Genes = append([]metabolic.Gene(nil), doc.Genes...)
	reactions := make([]metabolic.ReactionRecord, len(doc.Reactions))
	for i, rxn := range doc.Reactions {
		coefficients := make(map[string]float64, len(rxn.Metabolites))
		for k, v := range rxn.Metabolites {
			coefficients[k] = v
		}
		rxn.Metabolites = coefficients
		reactions[i] = rxn
	}
	doc.Reactions = reactions
	record.Document = doc
	return record
}

func cloneSolutionRecord(record metabolic.SolutionRecord) metabolic.SolutionRecord {
	record.KnockedGenes = append([]string(nil), record.KnockedGenes...)
	record.KnockedReactions = append([]string(nil), record.KnockedReactions...)
	if record.Fluxes != nil {
		fluxes := make(map[string]float64, len(record.Fluxes))
		for k, v := range record.Fluxes {
			fluxes[k] = v
		}
		record.Fluxes = fluxes
	}
	return record
}
