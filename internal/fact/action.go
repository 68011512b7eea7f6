package fact

import (
	"encoding/json"
	"fmt"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

// ActionKind discriminates the Action variant (spec.md §3/§4.5).
type ActionKind string

const (
	ActionSetField       ActionKind = "set_field"
	ActionIncrementField ActionKind = "increment_field"
	ActionLog            ActionKind = "log"
	ActionCreateFact     ActionKind = "create_fact"
	ActionUpdateFact     ActionKind = "update_fact"
	ActionDeleteFact     ActionKind = "delete_fact"
	ActionCallCalculator ActionKind = "call_calculator"
	ActionFormula        ActionKind = "formula"
)

// Action is the sum type of mutations a rule may perform when its
// conditions are satisfied.
type Action struct {
	Kind ActionKind

	// SetField / IncrementField
	Field     string
	Value     value.Value // SetField
	Increment value.Value // IncrementField

	// Log
	Message string

	// CreateFact
	Data map[string]value.Value

	// UpdateFact / DeleteFact
	FactIDField string
	Updates     map[string]value.Value // UpdateFact

	// CallCalculator
	CalculatorName string
	InputMapping   map[string]string
	OutputField    string // shared with Formula

	// Formula
	Expression string
}

// Validate checks that the action carries the fields its kind requires.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionSetField:
		if a.Field == "" {
			return fmt.Errorf("%w: set_field requires field", bingoerr.ErrValidation)
		}
	case ActionIncrementField:
		if a.Field == "" {
			return fmt.Errorf("%w: increment_field requires field", bingoerr.ErrValidation)
		}
	case ActionLog:
		// message may legitimately be empty
	case ActionCreateFact:
		// data may be empty (creates a bare fact)
	case ActionUpdateFact:
		if a.FactIDField == "" {
			return fmt.Errorf("%w: update_fact requires fact_id_field", bingoerr.ErrValidation)
		}
	case ActionDeleteFact:
		if a.FactIDField == "" {
			return fmt.Errorf("%w: delete_fact requires fact_id_field", bingoerr.ErrValidation)
		}
	case ActionCallCalculator:
		if a.CalculatorName == "" {
			return fmt.Errorf("%w: call_calculator requires name", bingoerr.ErrValidation)
		}
		if a.OutputField == "" {
			return fmt.Errorf("%w: call_calculator requires output_field", bingoerr.ErrValidation)
		}
	case ActionFormula:
		if a.Expression == "" {
			return fmt.Errorf("%w: formula requires expression", bingoerr.ErrValidation)
		}
		if a.OutputField == "" {
			return fmt.Errorf("%w: formula requires output_field", bingoerr.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown action kind %q", bingoerr.ErrValidation, a.Kind)
	}
	return nil
}

// --- JSON wire format ---

type wireAction struct {
	Type           string                     `json:"type"`
	Field          string                     `json:"field,omitempty"`
	Value          json.RawMessage            `json:"value,omitempty"`
	Increment      json.RawMessage            `json:"increment,omitempty"`
	Message        string                     `json:"message,omitempty"`
	Data           map[string]json.RawMessage `json:"data,omitempty"`
	FactIDField    string                     `json:"fact_id_field,omitempty"`
	Updates        map[string]json.RawMessage `json:"updates,omitempty"`
	CalculatorName string                     `json:"name,omitempty"`
	InputMapping   map[string]string          `json:"input_mapping,omitempty"`
	OutputField    string                     `json:"output_field,omitempty"`
	Expression     string                     `json:"expression,omitempty"`
}

func marshalValueMap(m map[string]value.Value) (map[string]json.RawMessage, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}

func unmarshalValueMap(m map[string]json.RawMessage) (map[string]value.Value, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]value.Value, len(m))
	for k, raw := range m {
		var v value.Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("fact: field %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	w := wireAction{
		Type:           string(a.Kind),
		Field:          a.Field,
		Message:        a.Message,
		FactIDField:    a.FactIDField,
		CalculatorName: a.CalculatorName,
		InputMapping:   a.InputMapping,
		OutputField:    a.OutputField,
		Expression:     a.Expression,
	}
	if !a.Value.IsNull() || a.Kind == ActionSetField {
		b, err := a.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		w.Value = b
	}
	if a.Kind == ActionIncrementField {
		b, err := a.Increment.MarshalJSON()
		if err != nil {
			return nil, err
		}
		w.Increment = b
	}
	var err error
	if w.Data, err = marshalValueMap(a.Data); err != nil {
		return nil, err
	}
	if w.Updates, err = marshalValueMap(a.Updates); err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Action{
		Kind:           ActionKind(w.Type),
		Field:          w.Field,
		Message:        w.Message,
		FactIDField:    w.FactIDField,
		CalculatorName: w.CalculatorName,
		InputMapping:   w.InputMapping,
		OutputField:    w.OutputField,
		Expression:     w.Expression,
	}
	if len(w.Value) > 0 {
		if err := out.Value.UnmarshalJSON(w.Value); err != nil {
			return fmt.Errorf("fact: action value: %w", err)
		}
	}
	if len(w.Increment) > 0 {
		if err := out.Increment.UnmarshalJSON(w.Increment); err != nil {
			return fmt.Errorf("fact: action increment: %w", err)
		}
	}
	var err error
	if out.Data, err = unmarshalValueMap(w.Data); err != nil {
		return err
	}
	if out.Updates, err = unmarshalValueMap(w.Updates); err != nil {
		return err
	}
	*a = out
	return nil
}
