package calc

import (
	"fmt"
	"time"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

func builtins() map[string]Calculator {
	return map[string]Calculator{
		"add":                    CalculatorFunc(add),
		"multiply":               CalculatorFunc(multiply),
		"percentage_add":         CalculatorFunc(percentageAdd),
		"percentage_deduct":      CalculatorFunc(percentageDeduct),
		"proportional_allocator": CalculatorFunc(proportionalAllocator),
		"time_between_datetime":  CalculatorFunc(timeBetweenDatetime),
		"weighted_average":       CalculatorFunc(weightedAverage),
		"threshold_check":        CalculatorFunc(thresholdCheck),
		"limit_validator":        CalculatorFunc(limitValidator),
	}
}

func add(in Inputs) (value.Value, error) {
	a, ok := firstOf(in, "addend1", "value1", "a", "x")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: add: missing operand a: %w", bingoerr.ErrValidation)
	}
	b, ok := firstOf(in, "addend2", "value2", "b", "y")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: add: missing operand b: %w", bingoerr.ErrValidation)
	}
	return value.Add(a, b)
}

func multiply(in Inputs) (value.Value, error) {
	a, ok := firstOf(in, "multiplicand", "value1", "a", "x")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: multiply: missing operand a: %w", bingoerr.ErrValidation)
	}
	b, ok := firstOf(in, "multiplier", "value2", "b", "y")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: multiply: missing operand b: %w", bingoerr.ErrValidation)
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return value.Value{}, fmt.Errorf("calc: multiply: non-numeric operand: %w", bingoerr.ErrTypeMismatch)
	}
	return numericResult(af*bf, intish(a, b)), nil
}

func percentageAdd(in Inputs) (value.Value, error) {
	base, err := requireNumeric(in, "base", "base", "value", "amount")
	if err != nil {
		return value.Value{}, err
	}
	pct, err := requireNumeric(in, "percentage", "percentage", "percent", "rate")
	if err != nil {
		return value.Value{}, err
	}
	return value.Float(base + base*pct/100), nil
}

func percentageDeduct(in Inputs) (value.Value, error) {
	base, err := requireNumeric(in, "base", "base", "value", "amount")
	if err != nil {
		return value.Value{}, err
	}
	pct, err := requireNumeric(in, "percentage", "percentage", "percent", "rate")
	if err != nil {
		return value.Value{}, err
	}
	return value.Float(base - base*pct/100), nil
}

// proportionalAllocator splits a total across an array of {weight} (or
// {share}) objects given under "items", returning the amount allocated to
// the item at "index". Proportions are computed against the sum of all
// weights; a zero total weight allocates 0 to every index.
func proportionalAllocator(in Inputs) (value.Value, error) {
	itemsV, ok := firstOf(in, "items", "shares", "weights")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: proportional_allocator: missing items: %w", bingoerr.ErrValidation)
	}
	items, ok := itemsV.AsArray()
	if !ok {
		return value.Value{}, fmt.Errorf("calc: proportional_allocator: items must be an array: %w", bingoerr.ErrTypeMismatch)
	}
	total, err := requireNumeric(in, "total", "total", "amount")
	if err != nil {
		return value.Value{}, err
	}
	idxV, ok := firstOf(in, "index", "item_index")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: proportional_allocator: missing index: %w", bingoerr.ErrValidation)
	}
	idx, ok := idxV.AsInt()
	if !ok {
		return value.Value{}, fmt.Errorf("calc: proportional_allocator: index must be an integer: %w", bingoerr.ErrTypeMismatch)
	}
	if idx < 0 || int(idx) >= len(items) {
		return value.Value{}, fmt.Errorf("calc: proportional_allocator: index %d out of range: %w", idx, bingoerr.ErrValidation)
	}

	var sumWeight, targetWeight float64
	for i, item := range items {
		obj, ok := item.AsObject()
		if !ok {
			return value.Value{}, fmt.Errorf("calc: proportional_allocator: item %d not an object: %w", i, bingoerr.ErrTypeMismatch)
		}
		w, ok := firstOfMap(obj, "weight", "share")
		if !ok {
			return value.Value{}, fmt.Errorf("calc: proportional_allocator: item %d missing weight: %w", i, bingoerr.ErrValidation)
		}
		wf, ok := w.AsFloat()
		if !ok {
			return value.Value{}, fmt.Errorf("calc: proportional_allocator: item %d weight not numeric: %w", i, bingoerr.ErrTypeMismatch)
		}
		sumWeight += wf
		if int64(i) == idx {
			targetWeight = wf
		}
	}
	if sumWeight == 0 {
		return value.Float(0), nil
	}
	return value.Float(total * targetWeight / sumWeight), nil
}

func firstOfMap(m map[string]value.Value, keys ...string) (value.Value, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

func timeBetweenDatetime(in Inputs) (value.Value, error) {
	startV, ok := firstOf(in, "start", "start_datetime", "start_field")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: time_between_datetime: missing start: %w", bingoerr.ErrValidation)
	}
	endV, ok := firstOf(in, "end", "end_datetime", "end_field")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: time_between_datetime: missing end: %w", bingoerr.ErrValidation)
	}
	start, err := asDateTime(startV)
	if err != nil {
		return value.Value{}, fmt.Errorf("calc: time_between_datetime: start: %w", err)
	}
	end, err := asDateTime(endV)
	if err != nil {
		return value.Value{}, fmt.Errorf("calc: time_between_datetime: end: %w", err)
	}
	unitV, ok := firstOf(in, "unit")
	unit := "hours"
	if ok {
		if s, ok := unitV.AsString(); ok {
			unit = s
		}
	}
	d := end.Sub(start)
	switch unit {
	case "hours":
		return value.Float(d.Hours()), nil
	case "minutes":
		return value.Float(d.Minutes()), nil
	case "seconds":
		return value.Float(d.Seconds()), nil
	default:
		return value.Value{}, fmt.Errorf("calc: time_between_datetime: unknown unit %q: %w", unit, bingoerr.ErrValidation)
	}
}

func asDateTime(v value.Value) (time.Time, error) {
	if t, ok := v.AsDate(); ok {
		return t, nil
	}
	if s, ok := v.AsString(); ok {
		dv, err := value.ParseDate(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", bingoerr.ErrTypeMismatch, err)
		}
		t, _ := dv.AsDate()
		return t, nil
	}
	return time.Time{}, fmt.Errorf("calc: expected date or ISO-8601 string, got %s: %w", v.Kind(), bingoerr.ErrTypeMismatch)
}

// weightedAverage computes sum(value*weight)/sum(weight) over an array of
// {value, weight} objects under "items", returning 0 when the array is
// empty or the total weight is 0 (spec.md §4.6 example 5).
func weightedAverage(in Inputs) (value.Value, error) {
	itemsV, ok := firstOf(in, "items", "values")
	if !ok {
		return value.Value{}, fmt.Errorf("calc: weighted_average: missing items: %w", bingoerr.ErrValidation)
	}
	items, ok := itemsV.AsArray()
	if !ok {
		return value.Value{}, fmt.Errorf("calc: weighted_average: items must be an array: %w", bingoerr.ErrTypeMismatch)
	}
	if len(items) == 0 {
		return value.Float(0), nil
	}
	var weightedSum, totalWeight float64
	for i, item := range items {
		obj, ok := item.AsObject()
		if !ok {
			return value.Value{}, fmt.Errorf("calc: weighted_average: item %d not an object: %w", i, bingoerr.ErrTypeMismatch)
		}
		v, ok := firstOfMap(obj, "value")
		if !ok {
			return value.Value{}, fmt.Errorf("calc: weighted_average: item %d missing value: %w", i, bingoerr.ErrValidation)
		}
		w, ok := firstOfMap(obj, "weight")
		if !ok {
			return value.Value{}, fmt.Errorf("calc: weighted_average: item %d missing weight: %w", i, bingoerr.ErrValidation)
		}
		vf, ok1 := v.AsFloat()
		wf, ok2 := w.AsFloat()
		if !ok1 || !ok2 {
			return value.Value{}, fmt.Errorf("calc: weighted_average: item %d value/weight not numeric: %w", i, bingoerr.ErrTypeMismatch)
		}
		weightedSum += vf * wf
		totalWeight += wf
	}
	if totalWeight == 0 {
		return value.Float(0), nil
	}
	return value.Float(weightedSum / totalWeight), nil
}

// thresholdCheck compares "value" against "threshold" using the given
// "operator" (default gte), returning a Boolean.
func thresholdCheck(in Inputs) (value.Value, error) {
	v, err := requireNumeric(in, "value", "value", "input")
	if err != nil {
		return value.Value{}, err
	}
	t, err := requireNumeric(in, "threshold", "threshold", "limit")
	if err != nil {
		return value.Value{}, err
	}
	op := "gte"
	if opV, ok := firstOf(in, "operator"); ok {
		if s, ok := opV.AsString(); ok {
			op = s
		}
	}
	switch op {
	case "gte":
		return value.Bool(v >= t), nil
	case "gt":
		return value.Bool(v > t), nil
	case "lte":
		return value.Bool(v <= t), nil
	case "lt":
		return value.Bool(v < t), nil
	case "eq":
		return value.Bool(v == t), nil
	default:
		return value.Value{}, fmt.Errorf("calc: threshold_check: unknown operator %q: %w", op, bingoerr.ErrValidation)
	}
}

// limitValidator clamps "value" into [min, max] and returns the clamped
// result; callers that need a hard failure instead should combine this
// with an Action-level LimitExceeded check rather than rely on an error
// here, since clamping (not rejecting) is the documented behavior for
// calculator-level limit enforcement.
func limitValidator(in Inputs) (value.Value, error) {
	v, err := requireNumeric(in, "value", "value", "input")
	if err != nil {
		return value.Value{}, err
	}
	min, hasMin := firstOf(in, "min")
	max, hasMax := firstOf(in, "max")
	result := v
	if hasMin {
		if mf, ok := min.AsFloat(); ok && result < mf {
			result = mf
		}
	}
	if hasMax {
		if mf, ok := max.AsFloat(); ok && result > mf {
			result = mf
		}
	}
	return value.Float(result), nil
}
