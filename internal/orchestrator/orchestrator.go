// Package orchestrator runs a full holder analysis for one mint.
// Phases: mint info → account enumeration → supply splits → lock estimate → holder table.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"solana-holder-lab/internal/classify"
	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/enrich"
	"solana-holder-lab/internal/history"
	"solana-holder-lab/internal/lock"
	"solana-holder-lab/internal/observability"
	"solana-holder-lab/internal/solana"
	"solana-holder-lab/internal/supply"
)

// DefaultHolderLimit is the number of largest owners classified in the holder table.
const DefaultHolderLimit = 20

// ErrNoHolders is returned when enumeration finds no token accounts for the mint.
var ErrNoHolders = errors.New("no token accounts found for mint")

// Orchestrator coordinates one analysis run.
type Orchestrator struct {
	chain    solana.RPCClient
	pipeline *supply.Pipeline
	lock     *lock.Estimator
	history  *history.Analyzer

	topN        int
	holderLimit int
	logger      zerolog.Logger
	now         func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required providers
	Chain    solana.RPCClient
	Metadata enrich.Source

	// History is optional; without it every holder gets the empty history.
	History *history.Analyzer

	// Scan bounds (zero takes defaults)
	TopN          int
	HolderLimit   int
	MetadataCap   int
	MinBalanceBps int64
	Programs      []string

	Logger *zerolog.Logger
	Now    func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		chain:       opts.Chain,
		history:     opts.History,
		topN:        opts.TopN,
		holderLimit: opts.HolderLimit,
		now:         opts.Now,
	}
	if opts.Logger != nil {
		o.logger = *opts.Logger
	} else {
		o.logger = log.With().Str("component", "orchestrator").Logger()
	}
	if o.topN <= 0 {
		o.topN = supply.DefaultTopN
	}
	if o.holderLimit <= 0 {
		o.holderLimit = DefaultHolderLimit
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}

	o.pipeline = supply.NewPipeline(supply.Options{
		Chain:         opts.Chain,
		Metadata:      opts.Metadata,
		MetadataCap:   opts.MetadataCap,
		MinBalanceBps: opts.MinBalanceBps,
		Programs:      opts.Programs,
		Logger:        &o.logger,
	})
	o.lock = lock.NewEstimator(lock.Options{
		Metadata:      opts.Metadata,
		MetadataCap:   opts.MetadataCap,
		MinBalanceBps: opts.MinBalanceBps,
		Logger:        &o.logger,
	})
	return o
}

// Run executes the full analysis for mint.
// Phases:
//  1. Fetch mint info and snapshot slot
//  2. Enumerate token accounts across token programs
//  3. Top-holders and full splits (concurrently)
//  4. Lock / circulating estimate
//  5. Classify the largest owners
func (o *Orchestrator) Run(ctx context.Context, mintAddress string) (result *domain.HolderAnalysis, err error) {
	started := o.now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		observability.RecordRun(status, float64(o.now().Unix()))
	}()

	result = &domain.HolderAnalysis{StartedAt: started}

	// Phase 1: Mint info
	o.logger.Info().Str("mint", mintAddress).Msg("phase 1: fetching mint info")
	phaseStart := time.Now()
	mint, err := o.chain.GetMintInfo(ctx, mintAddress)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (mint info) failed: %w", err)
	}
	result.Mint = mint
	if slot, err := o.chain.GetSlot(ctx); err != nil {
		o.warn(result, "slot unavailable: %v", err)
	} else {
		result.Slot = slot
	}
	observability.RecordPhase("mint", time.Since(phaseStart).Seconds())
	o.logger.Info().
		Float64("supply", mint.Supply).
		Int("decimals", mint.Decimals).
		Str("program", mint.ProgramID).
		Msg("  mint loaded")

	// Phase 2: Enumeration
	o.logger.Info().Msg("phase 2: enumerating token accounts")
	phaseStart = time.Now()
	accounts, err := o.pipeline.Enumerate(ctx, mint.Address)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (enumerate accounts) failed: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoHolders
	}
	owners := supply.AggregateOwners(accounts)
	result.AccountsEnumerated = len(accounts)
	result.OwnersEnumerated = len(owners)
	observability.RecordPhase("enumerate", time.Since(phaseStart).Seconds())
	o.logger.Info().
		Int("accounts", len(accounts)).
		Int("owners", len(owners)).
		Msg("  enumeration complete")

	// Phase 3: Supply splits
	o.logger.Info().Msg("phase 3: computing supply splits")
	phaseStart = time.Now()
	var boundedErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		split, err := o.pipeline.BoundedSplit(gctx, mint, o.topN)
		if err != nil {
			// The full split still covers supply; only a cancelled run is fatal.
			if ctx.Err() != nil {
				return err
			}
			boundedErr = err
			return nil
		}
		result.TopHolders = split
		return nil
	})
	g.Go(func() error {
		split, err := o.pipeline.FullSplit(gctx, mint, accounts)
		if err != nil {
			return err
		}
		result.Full = split
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("phase 3 (supply splits) failed: %w", err)
	}
	if boundedErr != nil {
		o.warn(result, "top holders split unavailable: %v", boundedErr)
	}
	observability.RecordPhase("splits", time.Since(phaseStart).Seconds())

	// Phase 4: Lock estimate
	o.logger.Info().Msg("phase 4: estimating locked supply")
	phaseStart = time.Now()
	breakdown, err := o.lock.Estimate(ctx, mint, accounts)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (lock estimate) failed: %w", err)
	}
	result.Lock = breakdown
	observability.RecordPhase("lock", time.Since(phaseStart).Seconds())

	// Phase 5: Holder classification
	o.logger.Info().Int("limit", o.holderLimit).Msg("phase 5: classifying holders")
	phaseStart = time.Now()
	holders, err := o.classifyHolders(ctx, mint, owners)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (classify holders) failed: %w", err)
	}
	result.Holders = holders
	observability.RecordPhase("holders", time.Since(phaseStart).Seconds())

	result.CompletedAt = o.now()
	o.logger.Info().
		Int("accounts", result.AccountsEnumerated).
		Int("holders", len(result.Holders)).
		Float64("circulating", result.Lock.Circulating).
		Int("warnings", len(result.Warnings)).
		Msg("analysis completed")

	return result, nil
}

// classifyHolders runs the three classification stages for the largest owners.
// Owners are processed one at a time; cancellation is checked between owners
// and an owner already started finishes its lookups.
func (o *Orchestrator) classifyHolders(ctx context.Context, mint *domain.MintInfo, owners []domain.OwnerBalance) ([]domain.WalletClassification, error) {
	if len(owners) > o.holderLimit {
		owners = owners[:o.holderLimit]
	}

	out := make([]domain.WalletClassification, 0, len(owners))
	for _, ob := range owners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		octx := context.WithoutCancel(ctx)
		meta := o.pipeline.Lookup(octx, ob.Owner)

		now := o.now()
		hist := domain.EmptyHistory(now)
		if o.history != nil {
			hist = o.history.Analyze(octx, ob.Owner, mint.Address)
		}

		wc := classify.ClassifyWallet(classify.WalletInput{
			Owner:         ob.Owner,
			BalanceRaw:    ob.RawBalance,
			Decimals:      mint.Decimals,
			Mint:          mint,
			History:       hist,
			Metadata:      meta,
			OwnerOffCurve: ob.OwnerOffCurve,
			Now:           now,
		})
		observability.RecordOwnerClassified(string(wc.Category))
		o.logger.Debug().
			Str("owner", ob.Owner).
			Str("category", string(wc.Category)).
			Str("account_type", string(wc.Metadata.AccountType)).
			Msg("holder classified")

		out = append(out, wc)
	}
	return out, nil
}

func (o *Orchestrator) warn(result *domain.HolderAnalysis, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	result.Warnings = append(result.Warnings, msg)
	o.logger.Warn().Msg(msg)
}
