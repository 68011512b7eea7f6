package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bingo-rules/bingo/internal/config"
	"github.com/bingo-rules/bingo/internal/engine"
)

var runFactsPath string

var runCmd = &cobra.Command{
	Use:   "run <rules-file>",
	Short: "Run one batch of facts through a rule set and print the results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := buildEngine(args[0])
		if err != nil {
			return err
		}

		data, err := readFactsInput(runFactsPath)
		if err != nil {
			return err
		}
		facts, err := loadFacts(data)
		if err != nil {
			return err
		}

		results, err := eng.ProcessFacts(rootCtx, facts)
		if err != nil {
			return fmt.Errorf("bingo: process facts: %w", err)
		}
		return json.NewEncoder(os.Stdout).Encode(results)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFactsPath, "facts", "", "path to a JSON facts batch file (default: stdin)")
	rootCmd.AddCommand(runCmd)
}

// buildEngine loads the rule set at rulesPath and compiles it into a
// fresh engine using whatever tuning knobs --config resolves.
func buildEngine(rulesPath string) (*engine.Engine, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("bingo: load config: %w", err)
	}

	rules, err := loadRules(rulesPath)
	if err != nil {
		return nil, cfg, err
	}

	eng := engine.New(0, engine.WithBatchLimits(engine.BatchLimits{
		MaxCycles:      cfg.MaxCycles,
		MaxActivations: cfg.MaxActivations,
		Deadline:       cfg.BatchDeadline,
	}))
	for _, r := range rules {
		if err := eng.AddRule(r); err != nil {
			return nil, cfg, fmt.Errorf("bingo: rule %q: %w", r.Name, err)
		}
	}
	return eng, cfg, nil
}

// readFactsInput reads a facts batch from path, or from stdin when path
// is empty.
func readFactsInput(path string) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("bingo: read facts from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bingo: read facts %s: %w", path, err)
	}
	return data, nil
}
