package reporting

import (
	"fmt"
	"strings"
	"time"

	"solana-holder-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Holder Report\n\n")
	sb.WriteString(fmt.Sprintf("Mint: `%s`\n\n", r.Mint.Address))
	sb.WriteString(fmt.Sprintf("Generated: %s | Slot: %d\n\n", r.GeneratedAt.Format(time.RFC3339), r.Mint.Slot))

	// Mint
	sb.WriteString("## Mint\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Program | %s |\n", r.Mint.ProgramID))
	sb.WriteString(fmt.Sprintf("| Decimals | %d |\n", r.Mint.Decimals))
	sb.WriteString(fmt.Sprintf("| Total Supply | %.2f |\n", r.Mint.Supply))
	sb.WriteString(fmt.Sprintf("| Mint Authority | %s |\n", orNone(r.Mint.MintAuthority)))
	sb.WriteString(fmt.Sprintf("| Freeze Authority | %s |\n", orNone(r.Mint.FreezeAuthority)))
	sb.WriteString(fmt.Sprintf("| Token Accounts | %d |\n", r.Mint.AccountsEnumerated))
	sb.WriteString(fmt.Sprintf("| Owners | %d |\n", r.Mint.OwnersEnumerated))
	sb.WriteString("\n")

	if len(r.Warnings) > 0 {
		sb.WriteString("### Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Splits
	sb.WriteString("## Supply Split\n\n")
	writeSplitMarkdown(&sb, "Top Holders", r.TopHolders)
	writeSplitMarkdown(&sb, "Full Ownership", r.Full)

	// Lock
	sb.WriteString("## Locked vs Circulating\n\n")
	if l := r.Lock; l != nil {
		sb.WriteString("| Metric | Amount | % of Supply |\n")
		sb.WriteString("|--------|--------|-------------|\n")
		sb.WriteString(fmt.Sprintf("| Frozen | %.2f | %.2f |\n", l.Components.Frozen, pctOf(l.Components.Frozen, l.TotalSupply)))
		sb.WriteString(fmt.Sprintf("| Labeled Vesting | %.2f | %.2f |\n", l.Components.LabeledVesting, pctOf(l.Components.LabeledVesting, l.TotalSupply)))
		sb.WriteString(fmt.Sprintf("| **Locked** | %.2f | %.2f |\n", l.LockedTotal, pctOf(l.LockedTotal, l.TotalSupply)))
		sb.WriteString(fmt.Sprintf("| **Circulating** | %.2f | %.2f |\n", l.Circulating, pctOf(l.Circulating, l.TotalSupply)))
		sb.WriteString("\n")

		if len(l.Details.LabeledOwners) > 0 {
			sb.WriteString("| Owner | Label | Balance | Frozen | Effective Locked |\n")
			sb.WriteString("|-------|-------|---------|--------|------------------|\n")
			for _, o := range l.Details.LabeledOwners {
				sb.WriteString(fmt.Sprintf("| `%s` | %s | %.2f | %.2f | %.2f |\n",
					o.Owner, o.Label, o.Balance, o.FrozenPortion, o.EffectiveLocked))
			}
			sb.WriteString("\n")
		}
		for _, n := range l.Notes {
			sb.WriteString(fmt.Sprintf("- %s\n", n))
		}
	} else {
		sb.WriteString("No lock estimate available.\n")
	}
	sb.WriteString("\n")

	// Classification summary
	sb.WriteString("## Classification Summary\n\n")
	if len(r.ByCategory) > 0 {
		sb.WriteString("| Category | Holders | Balance | % of Supply |\n")
		sb.WriteString("|----------|---------|---------|-------------|\n")
		for _, s := range r.ByCategory {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f |\n", s.Key, s.Count, s.TotalBalance, s.Pct))
		}
		sb.WriteString("\n")
		sb.WriteString("| Account Type | Holders | Balance | % of Supply |\n")
		sb.WriteString("|--------------|---------|---------|-------------|\n")
		for _, s := range r.ByAccountType {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f |\n", s.Key, s.Count, s.TotalBalance, s.Pct))
		}
	} else {
		sb.WriteString("No holders classified.\n")
	}
	sb.WriteString("\n")

	// Holders
	sb.WriteString("## Top Holders\n\n")
	if len(r.Holders) > 0 {
		sb.WriteString("| # | Address | Category | Type | Label | Balance | % | Txs |\n")
		sb.WriteString("|---|---------|----------|------|-------|---------|---|-----|\n")
		for i, h := range r.Holders {
			sb.WriteString(fmt.Sprintf("| %d | `%s` | %s | %s | %s | %.2f | %.4f | %d |\n",
				i+1, h.Address, h.Category, h.AccountType, h.Label, h.Balance, h.Pct, h.TxCount))
		}
	} else {
		sb.WriteString("No holders classified.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func writeSplitMarkdown(sb *strings.Builder, title string, s *domain.SupplySplit) {
	sb.WriteString(fmt.Sprintf("### %s\n\n", title))
	if s == nil {
		sb.WriteString("Not available.\n\n")
		return
	}

	sb.WriteString("| Bucket | Amount | % of Supply |\n")
	sb.WriteString("|--------|--------|-------------|\n")
	sb.WriteString(fmt.Sprintf("| CEX | %.2f | %.2f |\n", s.CEX, s.CEXPct))
	sb.WriteString(fmt.Sprintf("| DEX | %.2f | %.2f |\n", s.DEX, s.DEXPct))
	sb.WriteString(fmt.Sprintf("| On-chain | %.2f | %.2f |\n", s.OnChain, s.OnChainPct))
	if s.Kind == domain.SplitKindTopHolders {
		sb.WriteString(fmt.Sprintf("| Unknown | %.2f | %.2f |\n", s.UnknownRemainder, s.UnknownPct))
	}
	sb.WriteString("\n")

	if len(s.CEXVenues) > 0 {
		sb.WriteString("CEX venues: ")
		names := make([]string, 0, len(s.CEXVenues))
		for _, v := range s.CEXVenues {
			names = append(names, fmt.Sprintf("%s (%.2f%%)", v.Name, v.Pct))
		}
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n\n")
	}
	if s.TopDEX != nil {
		sb.WriteString(fmt.Sprintf("Top DEX: %s\n\n", *s.TopDEX))
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func pctOf(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
