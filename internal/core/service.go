package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/lp/simplex"
	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// Service exposes the higher-level operations of the flux core: importing
// and exporting model documents, validating them, running plain and
// parsimonious flux optimization, and knockout studies whose perturbations
// are scoped and never leak into the stored model.
type Service struct {
	store     metabolic.Store
	optimizer *Optimizer
	engine    *metabolic.RulesEngine
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
}

// NewService constructs a service over the given store. By default it solves
// with the gonum simplex backend and validates with DefaultRules.
func NewService(store metabolic.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		optimizer: NewOptimizer(simplex.New()),
		engine:    DefaultRules(),
		logger:    noopLogger{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() metabolic.Store { return s.store }

// ZeroTolerance returns the optimizer's reporting epsilon: fluxes at or below
// this magnitude are presented as zero.
func (s *Service) ZeroTolerance() float64 { return s.optimizer.ZeroTolerance() }

// ImportModel validates a document by building it into a model, then
// persists the document.
func (s *Service) ImportModel(ctx context.Context, doc metabolic.Document) (record metabolic.ModelRecord, err error) {
	_, finish := s.instrument(ctx, "import_model", time.Now())
	defer finish(&err)
	if _, err = metabolic.BuildModel(doc); err != nil {
		return metabolic.ModelRecord{}, err
	}
	if doc.ID == "" {
		doc.ID = newID()
	}
	now := time.Now().UTC()
	record = metabolic.ModelRecord{ID: doc.ID, Name: doc.Name, Document: doc, CreatedAt: now, UpdatedAt: now}
	if existing, ok := s.store.GetModel(ctx, doc.ID); ok {
		record.CreatedAt = existing.CreatedAt
	}
	record, err = s.store.PutModel(ctx, record)
	if err != nil {
		return metabolic.ModelRecord{}, err
	}
	s.logger.Info("model imported", "model", record.ID, "reactions", len(doc.Reactions), "metabolites", len(doc.Metabolites))
	return record, nil
}

// ExportModel returns the stored document for a model.
func (s *Service) ExportModel(ctx context.Context, modelID string) (metabolic.Document, error) {
	record, ok := s.store.GetModel(ctx, modelID)
	if !ok {
		return metabolic.Document{}, metabolic.NotFoundError{Kind: kindModel, ID: modelID}
	}
	return record.Document, nil
}

// Model materializes the stored document into a live model instance. The
// caller owns the returned model; mutations do not touch the archive.
func (s *Service) Model(ctx context.Context, modelID string) (*metabolic.Model, error) {
	doc, err := s.ExportModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return metabolic.BuildModel(doc)
}

// Validate runs the registered validation rules against a stored model.
func (s *Service) Validate(ctx context.Context, modelID string) (result metabolic.Result, err error) {
	_, finish := s.instrument(ctx, "validate", time.Now())
	defer finish(&err)
	m, err := s.Model(ctx, modelID)
	if err != nil {
		return metabolic.Result{}, err
	}
	return s.engine.Evaluate(ctx, m)
}

// Optimize runs parsimonious FBA on a stored model and archives the result.
// Infeasible and unbounded outcomes are archived like any other; they are
// data for the caller, not errors.
func (s *Service) Optimize(ctx context.Context, modelID string) (metabolic.SolutionRecord, error) {
	return s.solveStudy(ctx, "optimize", modelID, nil, nil)
}

// GeneKnockout knocks out the given genes inside a perturbation scope, runs
// parsimonious FBA, and archives the result together with the knocked gene
// set. The scope guarantees the perturbation is reverted on every exit path.
func (s *Service) GeneKnockout(ctx context.Context, modelID string, genes []string) (metabolic.SolutionRecord, error) {
	return s.solveStudy(ctx, "gene_knockout", modelID, genes, nil)
}

// ReactionKnockout disables the given reactions inside a perturbation scope,
// runs parsimonious FBA, and archives the result.
func (s *Service) ReactionKnockout(ctx context.Context, modelID string, reactions []string) (metabolic.SolutionRecord, error) {
	return s.solveStudy(ctx, "reaction_knockout", modelID, nil, reactions)
}

func (s *Service) solveStudy(ctx context.Context, operation, modelID string, genes, reactions []string) (record metabolic.SolutionRecord, err error) {
	span, finish := s.instrument(ctx, operation, time.Now())
	defer finish(&err)
	m, err := s.Model(ctx, modelID)
	if err != nil {
		return metabolic.SolutionRecord{}, err
	}
	var solution metabolic.Solution
	err = m.With(func(m *metabolic.Model) error {
		if len(genes) > 0 {
			disabled, unknown, err := m.KnockOutGenes(genes...)
			if err != nil {
				return err
			}
			for _, id := range unknown {
				s.logger.Warn("knockout references unknown gene", "model", modelID, "gene", id)
			}
			s.logger.Debug("gene knockout applied", "model", modelID, "disabled_reactions", len(disabled))
		}
		for _, id := range reactions {
			if err := m.KnockOutReaction(id); err != nil {
				return err
			}
		}
		solution = s.optimizer.OptimizeParsimonious(m)
		return nil
	})
	if err != nil {
		return metabolic.SolutionRecord{}, err
	}
	span.SetField("status", string(solution.Status))
	span.SetField("objective", solution.Objective)
	s.metrics.ObserveSolve(ctx, operation, solution.Status, solution.Objective)
	record = metabolic.SolutionRecord{
		ID:               newID(),
		ModelID:          modelID,
		KnockedGenes:     append([]string(nil), genes...),
		KnockedReactions: append([]string(nil), reactions...),
		Status:           solution.Status,
		Objective:        solution.Objective,
		Fluxes:           solution.Fluxes,
		CreatedAt:        time.Now().UTC(),
	}
	record, err = s.store.PutSolution(ctx, record)
	if err != nil {
		return metabolic.SolutionRecord{}, err
	}
	s.logger.Info("solve archived", "model", modelID, "operation", operation, "status", solution.Status, "objective", solution.Objective)
	return record, nil
}

// AddReactions extends a stored model with pathway reactions and any new
// metabolites they introduce, validating the extended document before it
// replaces the stored one.
func (s *Service) AddReactions(ctx context.Context, modelID string, reactions []metabolic.ReactionRecord, metabolites []metabolic.Metabolite) (record metabolic.ModelRecord, err error) {
	_, finish := s.instrument(ctx, "add_reactions", time.Now())
	defer finish(&err)
	existing, ok := s.store.GetModel(ctx, modelID)
	if !ok {
		return metabolic.ModelRecord{}, metabolic.NotFoundError{Kind: kindModel, ID: modelID}
	}
	doc := existing.Document
	doc.Metabolites = append(append([]metabolic.Metabolite(nil), doc.Metabolites...), metabolites...)
	doc.Reactions = append(append([]metabolic.ReactionRecord(nil), doc.Reactions...), reactions...)
	if _, err = metabolic.BuildModel(doc); err != nil {
		return metabolic.ModelRecord{}, err
	}
	existing.Document = doc
	existing.UpdatedAt = time.Now().UTC()
	record, err = s.store.PutModel(ctx, existing)
	if err != nil {
		return metabolic.ModelRecord{}, err
	}
	s.logger.Info("pathway added", "model", modelID, "reactions", len(reactions), "metabolites", len(metabolites))
	return record, nil
}

// ListSolutions returns the archived solutions for a model.
func (s *Service) ListSolutions(ctx context.Context, modelID string) []metabolic.SolutionRecord {
	return s.store.ListSolutions(ctx, modelID)
}

// instrument wraps an operation with metrics and tracing. The returned span
// is open until finish runs; callers may attach fields to it. Usage:
//
//	span, finish := s.instrument(ctx, "op", time.Now())
//	defer finish(&err)
func (s *Service) instrument(ctx context.Context, operation string, started time.Time) (TraceSpan, func(*error)) {
	ctx, span := s.tracer.Start(ctx, operation)
	return span, func(errp *error) {
		err := *errp
		span.End(err)
		s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
		if err != nil {
			s.logger.Error("operation failed", "operation", operation, "error", err)
		}
	}
}

// kindModel tags archive-level lookups in NotFoundError values.
const kindModel metabolic.EntityKind = "model"

func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("generate id: %w", err))
	}
	return hex.EncodeToString(buf)
}
