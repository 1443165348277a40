// Command holders classifies the holders of an SPL token and decomposes its supply.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"solana-holder-lab/internal/config"
	"solana-holder-lab/internal/enrich"
	"solana-holder-lab/internal/history"
	"solana-holder-lab/internal/orchestrator"
	"solana-holder-lab/internal/ratelimit"
	"solana-holder-lab/internal/reporting"
	"solana-holder-lab/internal/solana"
	"solana-holder-lab/internal/solscan"
	"solana-holder-lab/internal/storage"
	"solana-holder-lab/internal/storage/memory"
	"solana-holder-lab/internal/storage/migrations"
	"solana-holder-lab/internal/storage/postgres"
	"solana-holder-lab/internal/supply"
)

// flags override values loaded from the environment when set.
var flags = struct {
	EnvFile        string
	RPCEndpoint    string
	Commitment     string
	SolscanAPIKey  string
	SolscanBaseURL string
	PostgresDSN    string
	MetricsAddr    string
	OutputDir      string
	LogLevel       string
	LogFormat      string

	TopN            int
	HolderLimit     int
	MetadataCap     int
	MinBalanceBps   int64
	HistoryInterval time.Duration
	MetadataBatch   int
	MaxRetries      int
	Timeout         time.Duration

	PruneOlderThan time.Duration
}{
	EnvFile:         ".env",
	TopN:            supply.DefaultTopN,
	HolderLimit:     orchestrator.DefaultHolderLimit,
	MetadataCap:     supply.DefaultMetadataCap,
	MinBalanceBps:   supply.DefaultMinBalanceBps,
	HistoryInterval: ratelimit.DefaultHistoryInterval,
	MetadataBatch:   ratelimit.DefaultMetadataBatch,
	Timeout:         solana.DefaultTimeout,
	PruneOlderThan:  config.DefaultLabelCacheTTL,
}

var rootCmd = &cobra.Command{
	Use:           "holders",
	Short:         "Classify SPL token holders and decompose supply",
	Long:          "Enumerates the holders of an SPL token, classifies them by account type and behavior, and reports CEX/DEX/on-chain and locked/circulating supply splits.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <mint>",
	Short: "Analyze the holders of a mint and write CSV and Markdown reports",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage the persistent account label cache",
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached account labels older than --older-than",
	RunE:  runPrune,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.EnvFile, "env-file", flags.EnvFile, "Env file loaded before reading the environment")
	pf.StringVar(&flags.PostgresDSN, "postgres-dsn", "", "PostgreSQL connection string for the label cache (overrides "+config.EnvPostgresDSN+")")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides "+config.EnvLogLevel+")")
	pf.StringVar(&flags.LogFormat, "log-format", "", "Log format: console or json (overrides "+config.EnvLogFormat+")")

	af := analyzeCmd.Flags()
	af.StringVar(&flags.RPCEndpoint, "rpc-endpoint", "", "Solana RPC HTTP endpoint (overrides "+config.EnvRPCEndpoint+")")
	af.StringVar(&flags.Commitment, "commitment", "", "Commitment for every chain query: processed, confirmed, finalized (overrides "+config.EnvCommitment+")")
	af.StringVar(&flags.SolscanAPIKey, "solscan-api-key", "", "Solscan Pro API key (overrides "+config.EnvSolscanAPIKey+")")
	af.StringVar(&flags.SolscanBaseURL, "solscan-base-url", "", "Solscan API base URL (overrides "+config.EnvSolscanBaseURL+")")
	af.StringVar(&flags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090 (overrides "+config.EnvMetricsAddr+")")
	af.StringVar(&flags.OutputDir, "output-dir", "", "Output directory for reports (overrides "+config.EnvOutputDir+")")
	af.IntVar(&flags.TopN, "top-n", flags.TopN, "Largest token accounts sampled by the top holders split (max 20)")
	af.IntVar(&flags.HolderLimit, "holders", flags.HolderLimit, "Largest owners classified in the holder table")
	af.IntVar(&flags.MetadataCap, "metadata-cap", flags.MetadataCap, "Max metadata lookups per full scan")
	af.Int64Var(&flags.MinBalanceBps, "min-balance-bps", flags.MinBalanceBps, "Owners below this share of supply (basis points) are not looked up")
	af.DurationVar(&flags.HistoryInterval, "history-interval", flags.HistoryInterval, "Minimum interval between transfer history pages")
	af.IntVar(&flags.MetadataBatch, "metadata-batch", flags.MetadataBatch, "Metadata requests allowed per 200ms window")
	af.IntVar(&flags.MaxRetries, "max-retries", flags.MaxRetries, "Retries for failed provider calls")
	af.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP timeout per provider call")

	pruneCmd.Flags().DurationVar(&flags.PruneOlderThan, "older-than", flags.PruneOlderThan, "Age above which cached labels are deleted")

	labelsCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(analyzeCmd, labelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the environment and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.EnvFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.RPCEndpoint, flags.RPCEndpoint)
	override(&cfg.Commitment, strings.ToLower(flags.Commitment))
	override(&cfg.SolscanAPIKey, flags.SolscanAPIKey)
	override(&cfg.SolscanBaseURL, flags.SolscanBaseURL)
	override(&cfg.PostgresDSN, flags.PostgresDSN)
	override(&cfg.MetricsAddr, flags.MetricsAddr)
	override(&cfg.OutputDir, flags.OutputDir)
	override(&cfg.LogLevel, flags.LogLevel)
	override(&cfg.LogFormat, flags.LogFormat)
}

// setupLogger configures the global zerolog logger from cfg.
func setupLogger(cfg *config.Config) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.Level())

	var logger zerolog.Logger
	if cfg.LogFormat == config.LogFormatJSON {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger = logger.With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// signalContext cancels on SIGINT/SIGTERM; a second signal exits immediately.
// Scans stop before the next owner; the owner in flight finishes its requests.
func signalContext(logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("received signal, stopping after current owner")
			cancel()
		case <-ctx.Done():
			return
		}

		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("received second signal, forcing exit")
		os.Exit(1)
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// openLabelStore returns the Postgres label store when a DSN is configured,
// otherwise an in-process store.
func openLabelStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.AccountLabelStore, func(), error) {
	if cfg.PostgresDSN == "" {
		logger.Info().Msg("no postgres dsn, label cache is per-process")
		return memory.NewAccountLabelStore(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	logger.Info().Strs("migrations_applied", applied).Msg("postgres label cache ready")
	return postgres.NewAccountLabelStore(pool), pool.Close, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := setupLogger(cfg)

	ctx, cancel := signalContext(logger)
	defer cancel()

	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	store, closeStore, err := openLabelStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	chain := solana.NewHTTPClient(cfg.RPCEndpoint,
		solana.WithCommitment(cfg.Commitment),
		solana.WithTimeout(flags.Timeout),
		solana.WithMaxRetries(flags.MaxRetries),
	)
	api := solscan.NewHTTPClient(cfg.SolscanAPIKey,
		solscan.WithBaseURL(cfg.SolscanBaseURL),
		solscan.WithTimeout(flags.Timeout),
		solscan.WithMaxRetries(flags.MaxRetries),
	)

	metadata := enrich.NewCachedSource(api,
		enrich.WithStore(store),
		enrich.WithTTL(cfg.LabelCacheTTL),
		enrich.WithLimiter(ratelimit.NewBatch("metadata", flags.MetadataBatch, ratelimit.DefaultMetadataWindow)),
		enrich.WithLogger(logger.With().Str("component", "enrich").Logger()),
	)
	analyzer := history.NewAnalyzer(api,
		history.WithLimiter(ratelimit.NewInterval("history", flags.HistoryInterval)),
		history.WithLogger(logger.With().Str("component", "history").Logger()),
	)

	orchLogger := logger.With().Str("component", "orchestrator").Logger()
	orch := orchestrator.New(orchestrator.Options{
		Chain:         chain,
		Metadata:      metadata,
		History:       analyzer,
		TopN:          flags.TopN,
		HolderLimit:   flags.HolderLimit,
		MetadataCap:   flags.MetadataCap,
		MinBalanceBps: flags.MinBalanceBps,
		Logger:        &orchLogger,
	})

	result, err := orch.Run(ctx, args[0])
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}

	report, err := reporting.NewGenerator().Generate(result)
	if err != nil {
		return err
	}
	paths, err := reporting.WriteFiles(cfg.OutputDir, report)
	if err != nil {
		return err
	}

	logger.Info().
		Strs("files", paths).
		Int("metadata_api_calls", metadata.APICalls()).
		Msg("reports written")
	return nil
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("%s or --postgres-dsn is required", config.EnvPostgresDSN)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	store, closeStore, err := openLabelStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	cutoff := time.Now().Add(-flags.PruneOlderThan).UnixMilli()
	n, err := store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune labels: %w", err)
	}

	logger.Info().Int64("deleted", n).Dur("older_than", flags.PruneOlderThan).Msg("label cache pruned")
	return nil
}
