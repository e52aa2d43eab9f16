package metabolic

import (
	"context"
	"time"
)

// ModelRecord wraps a model document for archival.
type ModelRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Document  Document  `json:"document"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SolutionRecord archives one optimization outcome, including the
// perturbation it was solved under. Non-optimal statuses are stored like any
// other outcome; a knockout study records zero growth instead of failing.
type SolutionRecord struct {
	ID               string             `json:"id"`
	ModelID          string             `json:"model_id"`
	KnockedGenes     []string           `json:"knocked_genes,omitempty"`
	KnockedReactions []string           `json:"knocked_reactions,omitempty"`
	Status           SolveStatus        `json:"status"`
	Objective        float64            `json:"objective"`
	Fluxes           map[string]float64 `json:"fluxes,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Store is a minimal abstraction over durable backends for model documents
// and solved flux distributions. It mirrors the subset of capabilities used
// by the service layer.
type Store interface {
	PutModel(ctx context.Context, record ModelRecord) (ModelRecord, error)
	GetModel(ctx context.Context, id string) (ModelRecord, bool)
	ListModels(ctx context.Context) []ModelRecord
	DeleteModel(ctx context.Context, id string) (bool, error)
	PutSolution(ctx context.Context, record SolutionRecord) (SolutionRecord, error)
	ListSolutions(ctx context.Context, modelID string) []SolutionRecord
}
