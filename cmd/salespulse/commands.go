package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"salespulse/internal/app"
	"salespulse/internal/config"
	"salespulse/internal/infrastructure"
	"salespulse/internal/operations"
	"salespulse/pkg/contracts"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:     "salespulse",
		Short:   "Sales KPI pipeline and read API",
		Version: contracts.Version,
		Long: `salespulse turns a sales export (CSV or XLSX) into a KPI document,
writes it locally, uploads it to Azure Blob Storage when configured, and
serves both copies over HTTP.`,
		Example: `  # Run the pipeline once
  $ salespulse run --input "Dataset/Amazon Sale Report.csv"

  # Re-run nightly at 02:00
  $ salespulse schedule --cron "0 2 * * *"

  # Serve the KPI document
  $ salespulse serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile != "" {
				return os.Setenv(config.EnvPrefix+"_CONFIG_FILE", opts.configFile)
			}
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newServeCmd())
	return root
}

// pathOverrides replaces configured paths with command-line values
type pathOverrides struct {
	input  string
	output string
}

func (o pathOverrides) apply(cfg *config.Config) {
	if o.input != "" {
		cfg.Paths.InputFile = o.input
	}
	if o.output != "" {
		cfg.Paths.OutputFile = o.output
	}
}

func buildApplication(overrides pathOverrides) (*app.Application, error) {
	cfg, err := config.Load(overrides.apply)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.New(cfg, logger)
}

func newRunCmd() *cobra.Command {
	var overrides pathOverrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long: `Load the sales export, compute the KPIs and publish the document.
The command fails only when the local artifact could not be produced; a
failed or skipped upload is reported in the summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApplication(overrides)
			if err != nil {
				return err
			}
			defer application.Close(context.Background())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := application.RunPipeline(ctx, operations.TriggerManual)
			if err != nil {
				return err
			}
			return writeSummary(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&overrides.input, "input", "i", "", "sales export to read (CSV or XLSX)")
	cmd.Flags().StringVarP(&overrides.output, "output", "o", "", "where to write the KPI document")
	return cmd
}

type runSummary struct {
	RunID       string `json:"run_id"`
	Duration    string `json:"duration"`
	LocalPath   string `json:"local_path"`
	Bytes       int    `json:"bytes"`
	Uploaded    bool   `json:"uploaded"`
	SkipReason  string `json:"upload_skipped_reason,omitempty"`
	UploadError string `json:"upload_error,omitempty"`
}

func writeSummary(cmd *cobra.Command, result *operations.RunResult) error {
	summary := runSummary{
		RunID:    result.RunID,
		Duration: result.Duration.String(),
	}
	if result.Publish != nil {
		summary.LocalPath = result.Publish.LocalPath
		summary.Bytes = result.Publish.Bytes
		summary.Uploaded = result.Publish.Uploaded
		summary.SkipReason = result.Publish.UploadSkippedReason
		summary.UploadError = result.Publish.UploadError
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func newScheduleCmd() *cobra.Command {
	var (
		spec      string
		overrides pathOverrides
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule",
		Long: `Keep running and execute the pipeline on every tick of a standard
five-field cron expression. A failed run is logged and the next tick still fires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApplication(overrides)
			if err != nil {
				return err
			}
			defer application.Close(context.Background())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scheduler, err := application.StartScheduler(ctx, spec)
			if err != nil {
				return err
			}
			<-ctx.Done()
			scheduler.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron expression (defaults to the configured pipeline schedule)")
	cmd.Flags().StringVarP(&overrides.input, "input", "i", "", "sales export to read (CSV or XLSX)")
	cmd.Flags().StringVarP(&overrides.output, "output", "o", "", "where to write the KPI document")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		withScheduler bool
		overrides     pathOverrides
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the KPI document over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApplication(overrides)
			if err != nil {
				return err
			}
			return application.Run(withScheduler)
		},
	}

	cmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the pipeline on the configured schedule")
	cmd.Flags().StringVarP(&overrides.output, "output", "o", "", "KPI document served by GET /")
	return cmd
}
