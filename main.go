package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/upi-statement-converter/internal/adapter"
	"github.com/insightdelivered/upi-statement-converter/internal/api"
	"github.com/insightdelivered/upi-statement-converter/internal/config"
	"github.com/insightdelivered/upi-statement-converter/internal/filter"
	"github.com/insightdelivered/upi-statement-converter/internal/ingest"
	"github.com/insightdelivered/upi-statement-converter/internal/logger"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
	"github.com/insightdelivered/upi-statement-converter/internal/writer"
)

const version = "1.0.0"

// sessionTTL is how long an idle API session is kept.
const sessionTTL = 2 * time.Hour

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "upi-statement-converter",
		Short: "Convert UPI app exports into one unified transaction list",
		Long: `UPI Statement Converter
by Insight Delivered (QEA AutoLens)

Reads Google Pay Takeout archives and files, BHIM HTML transaction
histories and PhonePe PDF statements, detects which app produced each
file, and merges them into a single categorized dataset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML config file (environment: UPI_*)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newParseCmd(opts), newServeCmd(opts), newVersionCmd())
	return cmd
}

// setup loads configuration and builds the service with a console logger
// attached to the returned context.
func (o *rootOptions) setup(ctx context.Context, stderr io.Writer) (context.Context, *config.Config, *ingest.Service, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return ctx, nil, nil, zerolog.Nop(), err
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}

	log := logger.WithLevel(logger.NewConsole(stderr), level)
	registry := adapter.DefaultRegistry(cfg.Classifier())
	svc := ingest.NewService(registry, nil, cfg.Rate())
	return logger.WithContext(ctx, log), cfg, svc, log, nil
}

type parseOptions struct {
	password string
	year     string
	apps     string
	output   string
	asJSON   bool
	header   bool
}

func newParseCmd(root *rootOptions) *cobra.Command {
	opts := &parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse <file> [file ...]",
		Short: "Detect, parse and merge export files into CSV or JSON",
		Example: `  # Merge a Takeout archive and a BHIM export
  upi-statement-converter parse takeout.zip bhim.html

  # Password protected PhonePe statement, 2024 only
  upi-statement-converter parse --password=1234 --year=2024 phonepe.pdf

  # JSON dataset on stdout
  upi-statement-converter parse --json --apps=googlepay takeout.zip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, root, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.password, "password", "", "Password for encrypted PDF statements")
	f.StringVar(&opts.year, "year", models.AllSentinel, `Calendar year to keep, or "all"`)
	f.StringVar(&opts.apps, "apps", models.AllSentinel, `Comma separated apps to keep (googlepay,bhim,phonepe), or "all"`)
	f.StringVarP(&opts.output, "output", "o", "", "Output file (defaults to upi-transactions.csv, or stdout with --json)")
	f.BoolVar(&opts.asJSON, "json", false, "Write the full dataset as JSON instead of transactions CSV")
	f.BoolVar(&opts.header, "header", true, "Include metadata rows above the CSV header")
	return cmd
}

func runParse(cmd *cobra.Command, root *rootOptions, opts *parseOptions, files []string) error {
	ctx, _, svc, log, err := root.setup(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	uploads := make([]models.Upload, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("input file not readable: %w", err)
		}
		uploads = append(uploads, models.Upload{Name: filepath.Base(path), Data: data})
	}

	q := filter.Query{Year: opts.year, Apps: filter.SplitApps(opts.apps)}
	res, ingested, err := svc.Convert(ctx, uploads, opts.password, q)
	for _, r := range ingested {
		log.Info().Str("file", r.File).Str("app", r.AppName).Strs("roles", roleNames(r.Roles)).Msg("Recognized")
	}
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Warn().Msg(w.String())
	}
	log.Info().
		Int("transactions", res.Summary.Transactions).
		Int("activities", res.Summary.Activities).
		Str("total_spend_inr", res.Summary.TotalSpend.StringFixed(2)).
		Msg("Merged")
	if len(res.Data.Transactions) == 0 && len(res.Data.Activities) == 0 {
		log.Warn().Msg("No transactions left after filtering")
	}

	if opts.asJSON {
		if opts.output == "" {
			return writer.WriteJSON(cmd.OutOrStdout(), res)
		}
		return writer.WriteFile(opts.output, func(out io.Writer) error { return writer.WriteJSON(out, res) })
	}

	outPath := opts.output
	if outPath == "" {
		outPath = "upi-transactions.csv"
	}
	w := &writer.CSVWriter{
		IncludeHeader: opts.header,
		Meta:          writer.Metadata{Year: opts.year, Apps: q.Apps, TotalSpend: &res.Summary.TotalSpend},
	}
	if err := w.WriteToFile(outPath, res.Data); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transaction(s) to %s\n", len(res.Data.Transactions), outPath)
	return nil
}

func roleNames(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, svc, log, err := root.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}
			return serve(ctx, svc, log, port, cfg.BodyLimit())
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port (overrides server.port)")
	return cmd
}

func serve(ctx context.Context, svc *ingest.Service, log zerolog.Logger, port, bodyLimit int) error {
	api.Version = version
	app := api.NewApp(&api.Handler{Service: svc, Logger: log}, bodyLimit)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := svc.Sessions().Prune(sessionTTL); n > 0 {
					log.Info().Int("sessions", n).Msg("Pruned idle sessions")
				}
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("Listening")
		errc <- app.Listen(fmt.Sprintf(":%d", port))
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "upi-statement-converter v%s\n", version)
		},
	}
}
