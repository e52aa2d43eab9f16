package core

import (
	"context"
	"time"

	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// Logger is the minimal structured logging surface the service emits to.
// Arguments are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes service operation outcomes. ObserveSolve is
// called once per flux study with the optimizer verdict, so feasibility and
// achieved objective are visible in metrics, not just success/error.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	ObserveSolve(ctx context.Context, operation string, status metabolic.SolveStatus, objective float64)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration)                 {}
func (noopMetrics) ObserveSolve(context.Context, string, metabolic.SolveStatus, float64) {}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a span, recording the operation error if any. Fields
// set before End are attached to the emitted span.
type TraceSpan interface {
	SetField(key string, value any)
	End(err error)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopSpan) SetField(string, any) {}
func (noopSpan) End(error)            {}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger installs a logger. Nil restores the noop logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger == nil {
			logger = noopLogger{}
		}
		s.logger = logger
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder == nil {
			recorder = noopMetrics{}
		}
		s.metrics = recorder
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer == nil {
			tracer = noopTracer{}
		}
		s.tracer = tracer
	}
}

// WithOptimizer replaces the default simplex-backed optimizer.
func WithOptimizer(optimizer *Optimizer) ServiceOption {
	return func(s *Service) {
		if optimizer != nil {
			s.optimizer = optimizer
		}
	}
}

// WithRules replaces the default validation engine.
func WithRules(engine *metabolic.RulesEngine) ServiceOption {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}
