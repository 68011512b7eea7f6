// Package engine implements the engine facade (spec.md §2 component G):
// it owns the fact store, alpha/beta networks, calculator registry,
// formula evaluator, and action executor, and exposes the add_rule /
// process_facts / lookup_fact_by_id / get_stats surface spec.md §6
// names. Following beads' internal/daemon, the facade is the one place
// that logs at the package level and coordinates the pieces that are
// each independently testable.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bingo-rules/bingo/internal/action"
	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/calc"
	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/formula"
	"github.com/bingo-rules/bingo/internal/rete/alpha"
	"github.com/bingo-rules/bingo/internal/rete/beta"
	"github.com/bingo-rules/bingo/internal/rete/token"
	"github.com/bingo-rules/bingo/internal/stats"
	"github.com/bingo-rules/bingo/internal/store"
	"github.com/bingo-rules/bingo/internal/value"
)

// BatchLimits bounds one process_facts call (spec.md §5): maximum
// cycles, maximum activations fired, and a wall-clock deadline. Zero
// means unbounded.
type BatchLimits struct {
	MaxCycles      int
	MaxActivations int
	Deadline       time.Duration
}

// DefaultBatchLimits returns generous bounds that only stop a genuinely
// runaway rule set (e.g. a cyclic create-fact chain).
func DefaultBatchLimits() BatchLimits {
	return BatchLimits{
		MaxCycles:      1000,
		MaxActivations: 100_000,
		Deadline:       30 * time.Second,
	}
}

// arrival is one queued conflict-set entry, tagged with its arrival
// order so same-priority, same-rule activations keep FIFO order (spec.md
// §5: "priority desc, rule-id asc, token-arrival order").
type arrival struct {
	activation beta.Activation
	seq        uint64
}

// Engine wires components A-F into the facade spec.md §6 names.
// Following spec.md §5 ("the core is single-threaded per engine
// instance by default... external callers serialize access through an
// external read-write barrier"), Engine carries no internal lock of its
// own: AddRule/RemoveRule/ProcessFacts are not safe to call concurrently
// on the same instance, matching the teacher's own non-thread-safe
// internal maps guarded by its callers rather than by the map itself.
type Engine struct {
	logger      *slog.Logger
	store       *store.Store
	alphaNet    *alpha.Network
	betaNet     *beta.Network
	calculators *calc.Registry
	evaluator   formula.Evaluator
	executor    *action.Executor
	stats       *stats.Collector

	actionLimits action.Limits
	batchLimits  BatchLimits
	indexedFields []string

	rules map[uint64]fact.Rule

	nextSeq uint64
	pending []arrival

	// firedThisBatch is reset at the start of every ProcessFacts call; it
	// enforces spec.md §4.4's "a rule fires at most once per distinct
	// complete token within a batch."
	firedThisBatch map[string]bool
}

// New builds an Engine. capacityHint preallocates fact-store slot
// capacity for an expected batch size; it is advisory only.
func New(capacityHint int, opts ...Option) *Engine {
	e := &Engine{
		logger:       slog.Default(),
		actionLimits: action.DefaultLimits(),
		batchLimits:  DefaultBatchLimits(),
		stats:        stats.New(),
		rules:        make(map[uint64]fact.Rule),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.calculators == nil {
		e.calculators = calc.NewRegistry()
	}
	if e.evaluator == nil {
		e.evaluator = formula.NewDefaultEvaluator(formula.DefaultCacheSize)
	}
	e.store = store.New(e.indexedFields...)
	if capacityHint > 0 {
		e.store.Reserve(capacityHint)
	}
	e.alphaNet = alpha.NewNetwork()
	e.betaNet = beta.NewNetwork()
	e.executor = action.NewExecutor(e.store, e.calculators, e.evaluator, e.actionLimits)
	return e
}

// AddRule validates and compiles a rule into the alpha/beta networks.
// Activations for facts already live are emitted only for chains whose
// alpha nodes all existed before this call; a node the rule creates
// starts empty, and facts already in the store enter it only when they
// are next activated.
func (e *Engine) AddRule(r fact.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, exists := e.rules[r.ID]; exists {
		return fmt.Errorf("engine: rule %d already registered: %w", r.ID, bingoerr.ErrValidation)
	}
	conjunctions := beta.ToDNF(r.Conditions)
	e.betaNet.Compile(r.ID, e.alphaNet, conjunctions, e)
	e.rules[r.ID] = r
	e.stats.RecordRuleAdded()
	e.logger.Debug("rule added", slog.Uint64("rule_id", r.ID), slog.String("name", r.Name), slog.Int("disjuncts", len(conjunctions)))
	return nil
}

// RemoveRule drops a rule's compiled chains and any of its activations
// still sitting in the conflict set. The alpha nodes compiled for the
// rule stay in the alpha network, including nodes no other rule uses.
func (e *Engine) RemoveRule(ruleID uint64) error {
	if _, ok := e.rules[ruleID]; !ok {
		return fmt.Errorf("engine: rule %d: %w", ruleID, bingoerr.ErrNotFound)
	}
	e.betaNet.Remove(ruleID)
	delete(e.rules, ruleID)
	kept := e.pending[:0]
	for _, a := range e.pending {
		if a.activation.RuleID != ruleID {
			kept = append(kept, a)
		}
	}
	e.pending = kept
	e.stats.RecordRuleRemoved()
	e.logger.Debug("rule removed", slog.Uint64("rule_id", ruleID))
	return nil
}

// OnActivation implements beta.Listener: queue the activation for the
// next conflict-set drain.
func (e *Engine) OnActivation(a beta.Activation) {
	e.nextSeq++
	e.pending = append(e.pending, arrival{activation: a, seq: e.nextSeq})
}

// OnRetraction implements beta.Listener: drop any queued activation that
// matches, so a fact deleted mid-batch retracts activations still
// waiting to fire (spec.md P3) before their actions run.
func (e *Engine) OnRetraction(a beta.Activation) {
	kept := e.pending[:0]
	for _, p := range e.pending {
		if p.activation.RuleID == a.RuleID && p.activation.ChainIdx == a.ChainIdx && tokensEqual(p.activation.Token, a.Token) {
			continue
		}
		kept = append(kept, p)
	}
	e.pending = kept
}

func tokensEqual(a, b *token.Token) bool {
	if len(a.Facts) != len(b.Facts) {
		return false
	}
	for i := range a.Facts {
		if a.Facts[i] != b.Facts[i] {
			return false
		}
	}
	return true
}

func firingKey(ruleID uint64, chainIdx int, facts []uint64) string {
	key := fmt.Sprintf("%d:%d", ruleID, chainIdx)
	for _, id := range facts {
		key += fmt.Sprintf(":%d", id)
	}
	return key
}

// ProcessFacts runs one batch (spec.md §4.4): inserts facts, then
// repeatedly drains the conflict set. Within a single "cycle" here,
// deletions and negated-join toggles the beta network emits
// synchronously are reflected immediately against the still-pending
// queue (satisfying P3). Facts newly created or field-mutated by
// actions re-enter the alpha network only once the current cycle's
// queue is fully drained, deferring their effects to the next cycle
// (spec.md §5: "visible to later cycles but not to earlier ones in the
// same cycle").
func (e *Engine) ProcessFacts(ctx context.Context, facts []fact.Fact) ([]RuleExecutionResult, error) {
	batchStart := time.Now()
	var deadline time.Time
	if e.batchLimits.Deadline > 0 {
		deadline = batchStart.Add(e.batchLimits.Deadline)
	}

	e.firedThisBatch = make(map[string]bool)
	var results []RuleExecutionResult
	activationsFired := 0
	rulesFired := make(map[uint64]bool)

	for _, f := range facts {
		id := e.store.Insert(f)
		stored, _ := e.store.Get(id)
		e.alphaNet.Activate(stored)
	}

	cycle := 0
	for len(e.pending) > 0 {
		cycle++
		if e.batchLimits.MaxCycles > 0 && cycle > e.batchLimits.MaxCycles {
			e.stats.RecordLimitExceeded()
			return results, fmt.Errorf("engine: exceeded %d cycles: %w", e.batchLimits.MaxCycles, bingoerr.ErrLimitExceeded)
		}
		cycleStart := time.Now()
		reactivate := make(map[uint64]bool)

		for len(e.pending) > 0 {
			if err := checkBounds(ctx, deadline); err != nil {
				e.stats.RecordLimitExceeded()
				return results, err
			}

			sort.SliceStable(e.pending, func(i, j int) bool {
				pi, pj := e.rules[e.pending[i].activation.RuleID].Priority, e.rules[e.pending[j].activation.RuleID].Priority
				if pi != pj {
					return pi > pj
				}
				if e.pending[i].activation.RuleID != e.pending[j].activation.RuleID {
					return e.pending[i].activation.RuleID < e.pending[j].activation.RuleID
				}
				return e.pending[i].seq < e.pending[j].seq
			})
			next := e.pending[0]
			e.pending = e.pending[1:]

			a := next.activation
			rule, ok := e.rules[a.RuleID]
			if !ok {
				continue
			}
			key := firingKey(a.RuleID, a.ChainIdx, a.Token.Facts)
			if e.firedThisBatch[key] {
				continue
			}
			e.firedThisBatch[key] = true

			if e.batchLimits.MaxActivations > 0 && activationsFired >= e.batchLimits.MaxActivations {
				e.stats.RecordLimitExceeded()
				return results, fmt.Errorf("engine: exceeded %d activations: %w", e.batchLimits.MaxActivations, bingoerr.ErrLimitExceeded)
			}
			if !rulesFired[rule.ID] {
				if limit := e.actionLimits.MaxRulesPerBatch; limit > 0 && len(rulesFired) >= limit {
					e.stats.RecordLimitExceeded()
					return results, fmt.Errorf("engine: exceeded %d rules per batch: %w", limit, bingoerr.ErrLimitExceeded)
				}
				rulesFired[rule.ID] = true
			}

			actionResults, err := e.executor.Execute(rule.Actions, a.Token.Facts)
			if err != nil {
				e.stats.RecordLimitExceeded()
				e.logger.Warn("rule execution aborted batch", slog.Uint64("rule_id", rule.ID), slog.String("error", err.Error()))
				return results, fmt.Errorf("engine: rule %q: %w", rule.Name, err)
			}
			activationsFired++
			e.stats.RecordActivationFired()

			results = append(results, buildResult(a, rule.ID, actionResults))
			for _, ar := range actionResults {
				switch ar.Outcome {
				case action.ResultFactDeleted:
					e.alphaNet.RetractByID(ar.FactID)
				case action.ResultFieldSet, action.ResultFieldIncremented, action.ResultFactUpdated,
					action.ResultCalculatorInvoked, action.ResultFormulaEvaluated, action.ResultFactCreated:
					reactivate[ar.FactID] = true
				}
				if ar.Outcome == action.ResultCalculatorInvoked {
					e.stats.RecordCalculatorInvocation(ar.Name)
				}
			}
		}

		e.stats.RecordCycle(float64(time.Since(cycleStart).Microseconds()) / 1000.0)

		for id := range reactivate {
			if f, ok := e.store.Get(id); ok {
				e.alphaNet.Activate(f)
			}
		}
	}

	e.stats.RecordBatch(float64(time.Since(batchStart).Microseconds()) / 1000.0)
	return results, nil
}

func checkBounds(ctx context.Context, deadline time.Time) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("engine: %w: %w", err, bingoerr.ErrLimitExceeded)
		}
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return fmt.Errorf("engine: batch deadline exceeded: %w", bingoerr.ErrLimitExceeded)
	}
	return nil
}

// LookupFactByID returns the live fact currently bound to an external
// id (spec.md §6, P4).
func (e *Engine) LookupFactByID(externalID string) (fact.Fact, bool) {
	return e.store.LookupExternal(externalID)
}

// GetFieldByID returns one field of the fact bound to an external id.
func (e *Engine) GetFieldByID(externalID, field string) (value.Value, bool) {
	f, ok := e.store.LookupExternal(externalID)
	if !ok {
		return value.Value{}, false
	}
	return f.Get(field)
}

// GetStats assembles EngineStats from the per-instance counters in
// internal/stats plus live reads off the store and alpha/beta networks
// (spec.md §6 get_stats, expanded in SPEC_FULL.md §4).
func (e *Engine) GetStats() EngineStats {
	snap := e.stats.Snapshot()
	var formulaCache formula.CacheStats
	if de, ok := e.evaluator.(*formula.DefaultEvaluator); ok {
		formulaCache = de.Stats()
	}
	return EngineStats{
		FactsLive:             e.store.Count(),
		RulesRegistered:       len(e.rules),
		AlphaNodeCount:        e.alphaNet.NodeCount(),
		AlphaMemorySize:       e.alphaNet.TotalMemorySize(),
		BetaChainCount:        e.betaNet.ChainCount(),
		TokenPool:             e.betaNet.PoolStats(),
		FormulaCache:          formulaCache,
		RulesAdded:            snap.RulesAdded,
		RulesRemoved:          snap.RulesRemoved,
		ActivationsFired:      snap.ActivationsFired,
		BatchesRun:            snap.BatchesRun,
		LimitExceededCount:    snap.LimitExceededCount,
		CalculatorInvocations: snap.CalculatorInvocations,
		CycleLatencyMs:        snap.CycleLatency,
		BatchLatencyMs:        snap.BatchLatency,
	}
}
