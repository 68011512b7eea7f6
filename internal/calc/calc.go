// Package calc implements the calculator layer (spec.md §4.6): stateless
// pluggable functions invoked by CallCalculator actions.
package calc

import (
	"fmt"
	"sync"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

// Inputs is the String→Value mapping resolved from a fact via an action's
// input_mapping before a calculator runs.
type Inputs map[string]value.Value

// Calculator is a stateless function over a resolved input mapping.
// Implementations must not retain or mutate the Inputs map.
type Calculator interface {
	Calculate(in Inputs) (value.Value, error)
}

// CalculatorFunc adapts a plain function to the Calculator interface.
type CalculatorFunc func(in Inputs) (value.Value, error)

func (f CalculatorFunc) Calculate(in Inputs) (value.Value, error) { return f(in) }

// Registry is a name→Calculator map. Registration is additive and
// idempotent (spec.md §4.6). An RWMutex guards the map, so Register and
// lookups are safe to call concurrently.
type Registry struct {
	mu          sync.RWMutex
	calculators map[string]Calculator
}

// NewRegistry returns a registry pre-populated with the built-in
// calculators spec.md §4.6 requires.
func NewRegistry() *Registry {
	r := &Registry{calculators: make(map[string]Calculator)}
	for name, c := range builtins() {
		r.calculators[name] = c
	}
	return r
}

// Register adds or replaces a calculator under name. Safe for concurrent
// use, though in practice it is only called during setup.
func (r *Registry) Register(name string, c Calculator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calculators[name] = c
}

// Get looks up a calculator by name.
func (r *Registry) Get(name string) (Calculator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calculators[name]
	return c, ok
}

// Invoke resolves a calculator by name and runs it, translating a missing
// name into ErrNotFound so action executors can report CalculatorNotFound
// (spec.md §4.5).
func (r *Registry) Invoke(name string, in Inputs) (value.Value, error) {
	c, ok := r.Get(name)
	if !ok {
		return value.Value{}, fmt.Errorf("calc: calculator %q: %w", name, bingoerr.ErrNotFound)
	}
	return c.Calculate(in)
}

// firstOf returns the first input present among the given aliases, in
// order, implementing spec.md §4.6's documented-alias contract (e.g.
// multiply accepts multiplicand|value1|a|x for operand A).
func firstOf(in Inputs, aliases ...string) (value.Value, bool) {
	for _, a := range aliases {
		if v, ok := in[a]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

func requireNumeric(in Inputs, label string, aliases ...string) (float64, error) {
	v, ok := firstOf(in, aliases...)
	if !ok {
		return 0, fmt.Errorf("calc: missing required input %q (aliases %v): %w", label, aliases, bingoerr.ErrValidation)
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, fmt.Errorf("calc: input %q: %w", label, bingoerr.ErrTypeMismatch)
	}
	return f, nil
}

// intish reports whether both original operands were integers, so a
// calculator that adds/multiplies floats behind the scenes can still
// return an Integer result per spec.md's int/int→int promotion rule.
func intish(a, b value.Value) bool {
	return a.Kind() == value.KindInteger && b.Kind() == value.KindInteger
}

func numericResult(f float64, asInt bool) value.Value {
	if asInt {
		return value.Int(int64(f))
	}
	return value.Float(f)
}
