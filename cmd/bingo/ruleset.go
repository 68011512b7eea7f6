package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bingo-rules/bingo/internal/fact"
)

// ruleSetFile is the on-disk shape bingo validate/serve/run load: an
// object whose "rules" key holds the array of rules, in JSON, YAML, or
// TOML (spec.md §6 only defines the
// wire shape for a single Rule; the file wrapper is a CLI convenience).
type ruleSetFile struct {
	Rules []fact.Rule `json:"rules"`
}

// loadRules reads a rule-set file, dispatching on extension the same way
// beads' own internal/formula/parser.go dispatches .formula.toml vs
// .formula.json by suffix, and the same way internal/config dispatches
// YAML vs JSON for its own config file.
func loadRules(path string) ([]fact.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bingo: read rules %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("bingo: parse rules %s: %w", path, err)
		}
		// Condition/Action/Value carry custom JSON sum-type decoding, so
		// a YAML rule file is re-expressed as JSON rather than decoded
		// directly into the fact.Rule tree.
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("bingo: convert rules %s to JSON: %w", path, err)
		}
		data = converted
	case ".toml":
		var generic any
		if err := toml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("bingo: parse rules %s: %w", path, err)
		}
		// Same re-expression-as-JSON trick as the YAML branch above, for
		// the same reason: the sum-type codecs only know JSON.
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("bingo: convert rules %s to JSON: %w", path, err)
		}
		data = converted
	}

	var rs ruleSetFile
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("bingo: parse rules %s: %w", path, err)
	}
	return rs.Rules, nil
}

// loadFacts reads a batch-of-facts file. Facts only ever round-trip as
// JSON (spec.md §6's wire shape), regardless of the rule-set file's
// format.
func loadFacts(data []byte) ([]fact.Fact, error) {
	var facts []fact.Fact
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("bingo: parse facts: %w", err)
	}
	return facts, nil
}
