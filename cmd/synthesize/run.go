package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/review-synthesis-service/internal/app"
	"github.com/helixir/review-synthesis-service/internal/config"
	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/observability"
	"github.com/helixir/review-synthesis-service/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Retrieve papers for a query and synthesize a review",
	Long: `Run searches the selected paper sources, synthesizes a structured review
with the configured model and prints it with its evaluation scores.

A model that times out or returns unusable text still produces a review;
its status is reported in the run metadata.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSynthesize,
}

func init() {
	runCmd.Flags().IntP("papers", "n", 0, "number of papers to retrieve (default from config)")
	runCmd.Flags().StringSliceP("source", "s", nil, "paper source to search, repeatable (arxiv, semantic_scholar, openalex)")
	runCmd.Flags().StringP("format", "f", string(report.FormatMarkdown), "output format: "+formatList())

	rootCmd.AddCommand(runCmd)
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cliLogger(cmd, cfg)

	components, err := app.Build(cfg, logger, nil)
	if err != nil {
		return err
	}

	nPapers, _ := cmd.Flags().GetInt("papers")
	sources, _ := cmd.Flags().GetStringSlice("source")
	req := domain.SummarizeRequest{
		Query:   strings.Join(args, " "),
		NPapers: nPapers,
		Sources: sources,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := components.Service.Summarize(ctx, req)
	if err != nil {
		return err
	}

	body, err := report.Render(result, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd, body)
}

// cliLogger logs to stderr. Without --verbose only warnings are shown.
func cliLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")

	logCfg := app.LoggingConfig(cfg.Logging)
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	if !verbose {
		logCfg.Level = "warn"
	}
	return observability.NewLogger(logCfg)
}

// writeOutput writes body to --output, or to stdout.
func writeOutput(cmd *cobra.Command, body []byte) error {
	path, _ := cmd.Flags().GetString("output")

	var w io.Writer = cmd.OutOrStdout()
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if len(body) > 0 && body[len(body)-1] != '\n' {
		_, _ = io.WriteString(w, "\n")
	}
	return nil
}

func formatList() string {
	names := make([]string, 0, len(report.Formats))
	for _, f := range report.Formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
