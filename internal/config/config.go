// Package config loads runtime configuration from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variable names.
const (
	EnvRPCEndpoint    = "SOLANA_RPC_ENDPOINT"
	EnvSolscanAPIKey  = "SOLSCAN_API_KEY"
	EnvSolscanBaseURL = "SOLSCAN_BASE_URL"
	EnvPostgresDSN    = "POSTGRES_DSN"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvMetricsAddr    = "METRICS_ADDR"
	EnvLabelCacheTTL  = "LABEL_CACHE_TTL"
	EnvOutputDir      = "OUTPUT_DIR"
	EnvCommitment     = "SOLANA_COMMITMENT"
)

// Defaults applied when a variable is unset.
const (
	DefaultRPCEndpoint    = "https://api.mainnet-beta.solana.com"
	DefaultSolscanBaseURL = "https://pro-api.solscan.io"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultLabelCacheTTL  = 7 * 24 * time.Hour
	DefaultOutputDir      = "output"
	DefaultCommitment     = CommitmentConfirmed
)

// Commitment levels accepted by the chain provider.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the runtime configuration of the holders CLI.
type Config struct {
	RPCEndpoint    string
	Commitment     string // applied to every chain query of a run
	SolscanAPIKey  string
	SolscanBaseURL string
	PostgresDSN    string // empty disables the persistent label cache
	LogLevel       string
	LogFormat      string
	MetricsAddr    string // empty disables the metrics server
	LabelCacheTTL  time.Duration
	OutputDir      string
}

// Load reads envFiles (".env" when none given) without overriding variables
// already set, then builds Config from the environment.
// Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		RPCEndpoint:    getenv(EnvRPCEndpoint, DefaultRPCEndpoint),
		Commitment:     strings.ToLower(getenv(EnvCommitment, DefaultCommitment)),
		SolscanAPIKey:  os.Getenv(EnvSolscanAPIKey),
		SolscanBaseURL: getenv(EnvSolscanBaseURL, DefaultSolscanBaseURL),
		PostgresDSN:    os.Getenv(EnvPostgresDSN),
		LogLevel:       strings.ToLower(getenv(EnvLogLevel, DefaultLogLevel)),
		LogFormat:      strings.ToLower(getenv(EnvLogFormat, DefaultLogFormat)),
		MetricsAddr:    os.Getenv(EnvMetricsAddr),
		LabelCacheTTL:  DefaultLabelCacheTTL,
		OutputDir:      getenv(EnvOutputDir, DefaultOutputDir),
	}

	if v := os.Getenv(EnvLabelCacheTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvLabelCacheTTL, err)
		}
		cfg.LabelCacheTTL = d
	}

	return cfg, nil
}

// Validate reports missing or malformed values.
func (c *Config) Validate() error {
	var problems []string

	if c.RPCEndpoint == "" {
		problems = append(problems, EnvRPCEndpoint+" is required")
	} else if !isHTTPURL(c.RPCEndpoint) {
		problems = append(problems, EnvRPCEndpoint+" must be an http(s) URL")
	}
	switch c.Commitment {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
	default:
		problems = append(problems, fmt.Sprintf("%s %q must be %s, %s or %s",
			EnvCommitment, c.Commitment, CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized))
	}
	if c.SolscanAPIKey == "" {
		problems = append(problems, EnvSolscanAPIKey+" is required")
	}
	if c.SolscanBaseURL != "" && !isHTTPURL(c.SolscanBaseURL) {
		problems = append(problems, EnvSolscanBaseURL+" must be an http(s) URL")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("%s %q is not a log level", EnvLogLevel, c.LogLevel))
	}
	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		problems = append(problems, fmt.Sprintf("%s must be %q or %q", EnvLogFormat, LogFormatConsole, LogFormatJSON))
	}
	if c.LabelCacheTTL <= 0 {
		problems = append(problems, EnvLabelCacheTTL+" must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
