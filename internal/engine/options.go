package engine

import (
	"log/slog"

	"github.com/bingo-rules/bingo/internal/action"
	"github.com/bingo-rules/bingo/internal/calc"
	"github.com/bingo-rules/bingo/internal/formula"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithActionLimits overrides the security caps the action executor
// enforces (spec.md §4.5).
func WithActionLimits(l action.Limits) Option {
	return func(e *Engine) { e.actionLimits = l }
}

// WithBatchLimits overrides the per-batch cycle/activation/deadline
// bounds (spec.md §5).
func WithBatchLimits(l BatchLimits) Option {
	return func(e *Engine) { e.batchLimits = l }
}

// WithEvaluator installs a formula.Evaluator other than the default
// expr-lang-backed one.
func WithEvaluator(ev formula.Evaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

// WithCalculatorRegistry installs a pre-populated calculator registry,
// e.g. one with application-specific calculators registered on top of
// the built-ins.
func WithCalculatorRegistry(r *calc.Registry) Option {
	return func(e *Engine) { e.calculators = r }
}

// WithIndexedFields names fields the fact store should maintain an
// equality index for from the start (spec.md §4.1).
func WithIndexedFields(fields ...string) Option {
	return func(e *Engine) { e.indexedFields = fields }
}
