// Package fact defines the data model shared by the fact store and the
// rule network: facts, conditions, actions, and rules, plus their JSON
// wire shapes (spec.md §3, §6).
package fact

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bingo-rules/bingo/internal/value"
)

// Fact is a dynamically-typed field map flowing through the engine.
// InternalID is assigned by the fact store and stable for the fact's
// lifetime; ExternalID is an opaque client identifier.
type Fact struct {
	InternalID uint64
	ExternalID string // empty means "no external id"
	Timestamp  time.Time
	Fields     map[string]value.Value
}

// HasExternalID reports whether the fact carries a client-assigned id.
func (f Fact) HasExternalID() bool { return f.ExternalID != "" }

// Get returns the named field, or Null with ok=false if absent.
func (f Fact) Get(field string) (value.Value, bool) {
	v, ok := f.Fields[field]
	return v, ok
}

// Clone returns a deep-enough copy: a new Fields map with the same
// (immutable) Value entries, safe to mutate independently of f.
func (f Fact) Clone() Fact {
	fields := make(map[string]value.Value, len(f.Fields))
	for k, v := range f.Fields {
		fields[k] = v
	}
	return Fact{
		InternalID: f.InternalID,
		ExternalID: f.ExternalID,
		Timestamp:  f.Timestamp,
		Fields:     fields,
	}
}

// wireFact is the JSON wire shape for a Fact (spec.md §6): dates are
// RFC-3339 UTC strings, fields are a plain JSON object.
type wireFact struct {
	ExternalID string                     `json:"external_id,omitempty"`
	Timestamp  string                     `json:"timestamp,omitempty"`
	Fields     map[string]json.RawMessage `json:"fields"`
}

// MarshalJSON renders the fact using the wire shape external collaborators
// expect. InternalID is not serialized: it is assigned by the store.
func (f Fact) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(f.Fields))
	for k, v := range f.Fields {
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("fact: marshal field %q: %w", k, err)
		}
		fields[k] = b
	}
	w := wireFact{
		ExternalID: f.ExternalID,
		Fields:     fields,
	}
	if !f.Timestamp.IsZero() {
		w.Timestamp = f.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses a wire Fact. InternalID is left zero; the fact
// store assigns it on Insert.
func (f *Fact) UnmarshalJSON(data []byte) error {
	var w wireFact
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fields := make(map[string]value.Value, len(w.Fields))
	for k, raw := range w.Fields {
		var v value.Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("fact: field %q: %w", k, err)
		}
		fields[k] = v
	}
	ts := time.Now().UTC()
	if w.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, w.Timestamp)
		if err != nil {
			return fmt.Errorf("fact: timestamp: %w", err)
		}
		ts = parsed.UTC()
	}
	f.ExternalID = w.ExternalID
	f.Timestamp = ts
	f.Fields = fields
	return nil
}
