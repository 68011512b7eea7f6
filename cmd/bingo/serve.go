package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	serveFactsPath string
	serveWatch     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <rules-file>",
	Short: "Run a facts batch once, or repeatedly on each change to --facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rulesPath := args[0]

		if err := runOneBatch(rulesPath, serveFactsPath); err != nil {
			return err
		}
		if !serveWatch {
			return nil
		}
		if serveFactsPath == "" {
			return fmt.Errorf("bingo: --watch requires --facts (stdin can't be watched)")
		}
		return watchAndReprocess(rulesPath, serveFactsPath)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFactsPath, "facts", "", "path to a JSON facts batch file (default: stdin)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reprocess the facts file on every change (fsnotify)")
	rootCmd.AddCommand(serveCmd)
}

// runOneBatch compiles the rule set fresh and runs one facts batch
// through it, writing the RuleExecutionResult array to stdout. A fresh
// engine per batch keeps --watch reloads independent: each file change
// is evaluated against a clean fact store rather than accumulating state
// across reloads.
func runOneBatch(rulesPath, factsPath string) error {
	eng, _, err := buildEngine(rulesPath)
	if err != nil {
		return err
	}
	data, err := readFactsInput(factsPath)
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
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(results)
}

// watchAndReprocess follows beads' fsnotify-based file watching: watch
// the containing directory rather than the file itself, since editors
// commonly replace a file via rename-and-recreate rather than an
// in-place write, which a direct file watch would miss.
func watchAndReprocess(rulesPath, factsPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("bingo: start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(factsPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("bingo: watch %s: %w", dir, err)
	}

	target := filepath.Clean(factsPath)
	for {
		select {
		case <-rootCtx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := runOneBatch(rulesPath, factsPath); err != nil {
				slog.Default().Error("batch failed", slog.String("error", err.Error()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Default().Error("watcher error", slog.String("error", err.Error()))
		}
	}
}
