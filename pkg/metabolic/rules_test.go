package metabolic

import (
	"context"
	"errors"
	"testing"
)

type stubRule struct {
	name   string
	result Result
	err    error
}

func (r stubRule) Name() string { return r.name }

func (r stubRule) Evaluate(context.Context, *Model) (Result, error) { return r.result, r.err }

func TestRulesEngineAggregates(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "a", result: Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}}})
	engine.Register(stubRule{name: "b", result: Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}}})

	result, err := engine.Evaluate(context.Background(), NewModel("m"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.Violations) != 2 {
		t.Fatalf("violations = %d, want 2", len(result.Violations))
	}
	if !result.HasBlocking() {
		t.Fatal("blocking violation lost in aggregation")
	}
}

func TestRulesEngineStopsOnError(t *testing.T) {
	engine := NewRulesEngine()
	failure := errors.New("rule crashed")
	engine.Register(stubRule{name: "bad", err: failure})
	if _, err := engine.Evaluate(context.Background(), NewModel("m")); !errors.Is(err, failure) {
		t.Fatalf("expected rule error, got %v", err)
	}
}
