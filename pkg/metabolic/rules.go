package metabolic

import "context"

// Severity captures validation rule outcomes.
type Severity string

// Validation severities. Blocking violations indicate a model that cannot be
// solved meaningfully; warnings and log entries are advisory diagnostics.
const (
	// SeverityBlock marks a structural defect.
	SeverityBlock Severity = "block"
	// SeverityWarn marks a suspicious but solvable configuration.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation against one entity.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Kind     EntityKind
	EntityID string
}

// Result aggregates violations from the validation engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Rule defines a validation executed against a model snapshot. Rules are
// diagnostics; they never mutate the model and never block a solve.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, m *Model) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, m *Model) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, m)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
