package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"solana-holder-lab/internal/domain"
)

// Section titles of the CSV report.
const (
	SectionMintInfo       = "MINT INFO"
	SectionTopHolders     = "TOP HOLDERS SPLIT"
	SectionFullSplit      = "FULL OWNERSHIP SPLIT"
	SectionLockSummary    = "LOCK SUMMARY"
	SectionHolders        = "HOLDERS"
	SectionClassification = "CLASSIFICATION SUMMARY"
)

// HolderColumns is the header of the HOLDERS section.
var HolderColumns = []string{
	"address", "category", "account_type", "sub_type", "confidence",
	"balance", "pct_of_supply", "tx_count", "first_tx", "last_tx",
	"has_sold", "diamond_hand", "long_term_no_outflow",
	"label", "tags", "funded_by", "owner_off_curve",
}

// RenderCSV renders the report as a sectioned CSV document.
// Sections are separated by a blank line and start with a title row.
func RenderCSV(r *Report) (string, error) {
	var sb strings.Builder
	if err := writeCSV(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeCSV(out io.Writer, r *Report) error {
	w := &rowWriter{w: csv.NewWriter(out)}

	writeMintInfo(w, r)
	writeSplit(w, SectionTopHolders, r.TopHolders)
	writeSplit(w, SectionFullSplit, r.Full)
	writeLock(w, r.Lock)
	writeHolders(w, r.Holders)
	writeClassification(w, r)

	return w.flush()
}

// rowWriter keeps the first write error and drops later rows.
type rowWriter struct {
	w   *csv.Writer
	err error
}

func (rw *rowWriter) row(fields ...string) {
	if rw.err != nil {
		return
	}
	rw.err = rw.w.Write(fields)
}

func (rw *rowWriter) flush() error {
	if rw.err != nil {
		return rw.err
	}
	rw.w.Flush()
	return rw.w.Error()
}

func writeMintInfo(w *rowWriter, r *Report) {
	m := r.Mint
	w.row(SectionMintInfo)
	w.row("field", "value")
	w.row("mint", m.Address)
	w.row("program_id", m.ProgramID)
	w.row("decimals", strconv.Itoa(m.Decimals))
	w.row("total_supply", formatAmount(m.Supply))
	w.row("raw_supply", m.RawSupply)
	w.row("mint_authority", m.MintAuthority)
	w.row("freeze_authority", m.FreezeAuthority)
	w.row("slot", strconv.FormatInt(m.Slot, 10))
	w.row("token_accounts", strconv.Itoa(m.AccountsEnumerated))
	w.row("owners", strconv.Itoa(m.OwnersEnumerated))
	w.row("generated_at", r.GeneratedAt.Format(time.RFC3339))
	for _, warn := range r.Warnings {
		w.row("warning", warn)
	}
	w.row()
}

func writeSplit(w *rowWriter, title string, s *domain.SupplySplit) {
	w.row(title)
	if s == nil {
		w.row("unavailable")
		w.row()
		return
	}

	w.row("bucket", "balance", "pct_of_supply")
	w.row("cex", formatAmount(s.CEX), formatPct(s.CEXPct))
	w.row("dex", formatAmount(s.DEX), formatPct(s.DEXPct))
	w.row("onchain", formatAmount(s.OnChain), formatPct(s.OnChainPct))
	if s.Kind == domain.SplitKindTopHolders {
		w.row("unknown_remainder", formatAmount(s.UnknownRemainder), formatPct(s.UnknownPct))
	}
	w.row("total_supply", formatAmount(s.TotalSupply), "")

	topDEX := ""
	if s.TopDEX != nil {
		topDEX = *s.TopDEX
	}
	w.row("top_dex", topDEX, "")
	w.row("accounts_sampled", strconv.Itoa(s.AccountsSampled), "")
	w.row("owners_scanned", strconv.Itoa(s.OwnersScanned), "")
	w.row("metadata_lookups", strconv.Itoa(s.MetadataLookups), "")
	w.row("skipped_below_threshold", strconv.Itoa(s.SkippedBelowThreshold), "")

	w.row("cex_venue", "balance", "pct_of_supply")
	for _, v := range s.CEXVenues {
		w.row(v.Name, formatAmount(v.Balance), formatPct(v.Pct))
	}
	w.row()
}

func writeLock(w *rowWriter, l *domain.LockBreakdown) {
	w.row(SectionLockSummary)
	if l == nil {
		w.row("unavailable")
		w.row()
		return
	}

	w.row("metric", "value")
	w.row("total_supply", formatAmount(l.TotalSupply))
	w.row("locked_total", formatAmount(l.LockedTotal))
	w.row("circulating", formatAmount(l.Circulating))
	w.row("frozen", formatAmount(l.Components.Frozen))
	w.row("labeled_vesting", formatAmount(l.Components.LabeledVesting))

	w.row("frozen_token_account", "owner", "balance")
	for _, f := range l.Details.FrozenAccounts {
		w.row(f.TokenAccount, f.Owner, formatAmount(f.UIBalance))
	}

	w.row("labeled_owner", "label", "balance", "frozen_portion", "effective_locked", "matched_keyword")
	for _, o := range l.Details.LabeledOwners {
		w.row(
			o.Owner, o.Label,
			formatAmount(o.Balance), formatAmount(o.FrozenPortion), formatAmount(o.EffectiveLocked),
			o.MatchedKeyword,
		)
	}

	for _, n := range l.Notes {
		w.row("note", n)
	}
	w.row()
}

func writeHolders(w *rowWriter, rows []HolderRow) {
	w.row(SectionHolders)
	w.row(HolderColumns...)
	for _, h := range rows {
		w.row(
			h.Address,
			h.Category,
			h.AccountType,
			h.SubType,
			h.Confidence,
			formatAmount(h.Balance),
			formatPct(h.Pct),
			strconv.Itoa(h.TxCount),
			formatTime(h.FirstTxAt),
			formatTime(h.LastTxAt),
			strconv.FormatBool(h.HasSold),
			strconv.FormatBool(h.DiamondHand),
			strconv.FormatBool(h.LongTermNoOutflow),
			h.Label,
			strings.Join(h.Tags, ";"),
			h.FundedBy,
			strconv.FormatBool(h.OwnerOffCurve),
		)
	}
	w.row()
}

func writeClassification(w *rowWriter, r *Report) {
	w.row(SectionClassification)
	w.row("dimension", "key", "count", "total_balance", "pct_of_supply")
	for _, s := range r.ByCategory {
		w.row("category", s.Key, strconv.Itoa(s.Count), formatAmount(s.TotalBalance), formatPct(s.Pct))
	}
	for _, s := range r.ByAccountType {
		w.row("account_type", s.Key, strconv.Itoa(s.Count), formatAmount(s.TotalBalance), formatPct(s.Pct))
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
