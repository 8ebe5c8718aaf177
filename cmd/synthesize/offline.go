package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/evaluation"
	"github.com/helixir/review-synthesis-service/internal/report"
)

// --- evaluate subcommand ---

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Score an existing review against its papers",
	Long: `Evaluate reads a JSON document with "summary" and "papers" fields, the
same shape the run command and the HTTP API return, and prints fresh
evaluation scores. Use "-" to read from stdin. No model is called.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	var doc struct {
		Summary domain.SummaryDocument `json:"summary"`
		Papers  []domain.Paper         `json:"papers"`
	}
	if err := readJSON(cmd, args[0], &doc); err != nil {
		return err
	}

	strategy, _ := cmd.Flags().GetString("coverage")
	cfg := evaluation.DefaultConfig()
	cfg.CoverageStrategy = strategy
	engine, err := evaluation.NewEngine(cfg)
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(engine.Evaluate(doc.Summary, doc.Papers), "", "  ")
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	return writeOutput(cmd, body)
}

// --- render subcommand ---

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a saved JSON result in another format",
	Long: `Render converts a JSON result saved from "run --format json" or the HTTP
API into YAML, Markdown or HTML. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	var result domain.SummarizeResult
	if err := readJSON(cmd, args[0], &result); err != nil {
		return err
	}

	body, err := report.Render(&result, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd, body)
}

func init() {
	evaluateCmd.Flags().String("coverage", evaluation.StrategyTFIDF, "coverage strategy: tfidf or rouge1")
	renderCmd.Flags().StringP("format", "f", string(report.FormatMarkdown), "output format: "+formatList())

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(renderCmd)
}

// readJSON decodes path, or stdin for "-", into v.
func readJSON(cmd *cobra.Command, path string, v interface{}) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
