package supply

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-holder-lab/internal/classify"
	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/enrich"
	"solana-holder-lab/internal/observability"
	"solana-holder-lab/internal/solana"
)

// Lookup bounds for the exhaustive scan.
const (
	DefaultMetadataCap   = 300
	DefaultMinBalanceBps = 1
	DefaultTopN          = solana.MaxLargestAccounts
)

// Options configures a Pipeline.
type Options struct {
	Chain         solana.RPCClient
	Metadata      enrich.Source
	MetadataCap   int   // max metadata lookups per full scan
	MinBalanceBps int64 // owners below this share of supply are not looked up
	Programs      []string
	Logger        *zerolog.Logger
}

// Pipeline runs the shared per-owner metadata and account type stage.
type Pipeline struct {
	chain         solana.RPCClient
	metadata      enrich.Source
	metadataCap   int
	minBalanceBps int64
	programs      []string
	logger        zerolog.Logger
}

// NewPipeline creates a Pipeline. Zero option values take defaults.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		chain:         opts.Chain,
		metadata:      opts.Metadata,
		metadataCap:   opts.MetadataCap,
		minBalanceBps: opts.MinBalanceBps,
		programs:      opts.Programs,
	}
	if p.metadataCap <= 0 {
		p.metadataCap = DefaultMetadataCap
	}
	if p.minBalanceBps <= 0 {
		p.minBalanceBps = DefaultMinBalanceBps
	}
	if len(p.programs) == 0 {
		p.programs = DefaultPrograms
	}
	if opts.Logger != nil {
		p.logger = *opts.Logger
	} else {
		p.logger = log.With().Str("component", "supply").Logger()
	}
	return p
}

// Lookup fetches metadata for owner. Failures are logged and yield nil.
func (p *Pipeline) Lookup(ctx context.Context, owner string) *domain.AccountMetadata {
	if p.metadata == nil {
		return nil
	}
	meta, err := p.metadata.GetAccountMetadata(ctx, owner)
	if err != nil {
		p.logger.Warn().Err(err).Str("owner", owner).Msg("account metadata unavailable")
		observability.RecordProviderError("solscan", "metadata")
		return nil
	}
	return meta
}

// Classify looks up owner metadata and assigns its account type.
func (p *Pipeline) Classify(ctx context.Context, owner string) (*domain.AccountMetadata, domain.AccountClassification) {
	meta := p.Lookup(ctx, owner)
	return meta, classify.ClassifyAccount(meta)
}

// Enumerate returns every token account of mint across the configured programs.
func (p *Pipeline) Enumerate(ctx context.Context, mint string) ([]domain.HolderRecord, error) {
	return EnumerateAccounts(ctx, p.chain, mint, p.programs, p.logger)
}

// MetadataCap returns the lookup cap of the exhaustive scan.
func (p *Pipeline) MetadataCap() int {
	return p.metadataCap
}

// MinBalanceBps returns the lookup threshold in basis points of supply.
func (p *Pipeline) MinBalanceBps() int64 {
	return p.minBalanceBps
}
