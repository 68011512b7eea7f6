package action

import (
	"fmt"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

// numericAdd implements spec.md §4.5's promotion rule: integer+integer
// stays an integer, any float operand promotes the result to float, and
// a non-numeric operand is a type mismatch (string+number is never
// allowed).
func numericAdd(a, b value.Value) (value.Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return value.Value{}, fmt.Errorf("action: %s + %s: %w", a.Kind(), b.Kind(), bingoerr.ErrTypeMismatch)
	}
	if a.Kind() == value.KindInteger && b.Kind() == value.KindInteger {
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		return value.Int(ai + bi), nil
	}
	af, _ := a.AsFloat()
	bf, _ := b.AsFloat()
	return value.Float(af + bf), nil
}
