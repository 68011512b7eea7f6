// Package formula implements the expression evaluator spec.md §4.6
// describes for the Formula action: an arithmetic/comparison/conditional
// mini-language over fact fields, with LRU-cached compilation.
//
// The core engine treats evaluation as pluggable — it depends only on the
// Evaluator interface below — but ships a working default backed by
// github.com/expr-lang/expr, so a Formula action has something real to
// run out of the box.
package formula

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

// Program is a compiled expression ready to run against a fact's fields.
type Program interface {
	// Eval runs the program against the given field bindings and returns
	// the result as a Value.
	Eval(fields map[string]value.Value) (value.Value, error)
}

// Evaluator compiles Formula source text into a reusable Program.
// Compilation is expected to be cached; Compile itself need not be cheap.
type Evaluator interface {
	Compile(source string) (Program, error)
}

// DefaultEvaluator is the expr-lang-backed Evaluator the engine installs
// unless a caller supplies its own. Safe for concurrent use: the LRU
// cache is internally synchronized and compiled programs are immutable.
type DefaultEvaluator struct {
	cache    *lru.Cache[string, Program]
	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
}

// DefaultCacheSize is the number of distinct expression source strings
// kept compiled at once (spec.md §4.6: "compilation results are LRU-cached
// by source text").
const DefaultCacheSize = 512

// NewDefaultEvaluator builds an Evaluator whose compiled-program cache
// holds up to size entries; a non-positive size selects DefaultCacheSize.
func NewDefaultEvaluator(size int) *DefaultEvaluator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, Program](size)
	if err != nil {
		// Only non-positive sizes cause an error here, and size is
		// normalized above, so this is unreachable in practice.
		panic(fmt.Sprintf("formula: lru.New: %v", err))
	}
	return &DefaultEvaluator{cache: c, capacity: size}
}

// Compile translates source through the preprocessor, compiles it with
// expr-lang, and caches the result under the exact source text.
func (e *DefaultEvaluator) Compile(source string) (Program, error) {
	if p, ok := e.cache.Get(source); ok {
		e.hits.Add(1)
		return p, nil
	}
	e.misses.Add(1)

	translated, err := preprocess(source)
	if err != nil {
		return nil, fmt.Errorf("formula: %q: %w", source, err)
	}

	p, err := compileExpr(translated)
	if err != nil {
		return nil, fmt.Errorf("formula: compile %q: %w: %v", source, bingoerr.ErrValidation, err)
	}
	e.cache.Add(source, p)
	return p, nil
}

// CacheStats reports the evaluator's compiled-program cache telemetry
// (spec.md §4.7: capacity, size, and access counters apply to every LRU
// the engine keeps, including this one).
type CacheStats struct {
	Capacity int
	Size     int
	Hits     int64
	Misses   int64
}

func (e *DefaultEvaluator) Stats() CacheStats {
	return CacheStats{
		Capacity: e.capacity,
		Size:     e.cache.Len(),
		Hits:     e.hits.Load(),
		Misses:   e.misses.Load(),
	}
}
