package formula

import (
	"fmt"
	"math"
)

// asFloat coerces an expr-lang numeric argument (int, int64 or float64)
// to float64.
func asFloat(x any) (float64, error) {
	switch v := x.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("formula: expected a number, got %T", x)
	}
}

// exprMax implements the mini-language's max(a, b, ...) over one or more
// numeric arguments.
func exprMax(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("formula: max() requires at least one argument")
	}
	best, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		f, err := asFloat(a)
		if err != nil {
			return nil, err
		}
		if f > best {
			best = f
		}
	}
	return best, nil
}

// exprMin mirrors exprMax for the minimum.
func exprMin(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("formula: min() requires at least one argument")
	}
	best, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		f, err := asFloat(a)
		if err != nil {
			return nil, err
		}
		if f < best {
			best = f
		}
	}
	return best, nil
}

// exprAbs implements abs(n).
func exprAbs(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("formula: abs() takes exactly one argument")
	}
	f, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	return math.Abs(f), nil
}

// exprRound implements round(n, precision?). precision defaults to 0.
func exprRound(args ...any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("formula: round() takes one or two arguments")
	}
	f, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	precision := 0
	if len(args) == 2 {
		p, err := asFloat(args[1])
		if err != nil {
			return nil, err
		}
		precision = int(p)
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(f*scale) / scale, nil
}
