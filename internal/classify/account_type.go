// Package classify assigns account types and wallet categories to holders.
package classify

import (
	"fmt"
	"strings"
	"unicode"

	"solana-holder-lab/internal/domain"
)

// Rule is one step of the account type cascade.
type Rule struct {
	Name          string
	Type          domain.AccountType
	Confidence    domain.Confidence
	LabelKeywords []string // matched on word boundaries of the normalized label
	Tags          []string // matched by set membership on normalized tags
}

// rules is evaluated in order; the first match wins.
var rules = []Rule{
	{
		Name:       "cex",
		Type:       domain.AccountTypeCEX,
		Confidence: domain.ConfidenceHigh,
		LabelKeywords: []string{
			"binance", "coinbase", "kraken", "okx", "okex", "bybit", "kucoin",
			"gate io", "huobi", "htx", "bitget", "mexc", "bitfinex", "crypto com",
			"bitstamp", "gemini", "upbit", "bithumb",
		},
		Tags: []string{"exchange", "cex", "centralized-exchange", "exchange-wallet", "exchange_wallet"},
	},
	{
		Name:       "dex",
		Type:       domain.AccountTypeDEX,
		Confidence: domain.ConfidenceHigh,
		LabelKeywords: []string{
			"raydium", "orca", "jupiter", "meteora", "phoenix", "openbook", "serum",
			"lifinity", "saber", "pump fun", "pumpswap", "amm", "liquidity pool", "swap",
		},
		Tags: []string{"dex", "amm", "liquidity-pool", "pool"},
	},
	{
		Name:          "bridge",
		Type:          domain.AccountTypeBridge,
		Confidence:    domain.ConfidenceHigh,
		LabelKeywords: []string{"wormhole", "portal", "allbridge", "debridge", "mayan", "bridge"},
		Tags:          []string{"bridge", "cross-chain"},
	},
	{
		Name:       "staking",
		Type:       domain.AccountTypeStaking,
		Confidence: domain.ConfidenceHigh,
		LabelKeywords: []string{
			"marinade", "jito", "lido", "blazestake", "sanctum", "stake pool", "staking",
		},
		Tags: []string{"staking", "stake-pool", "liquid-staking"},
	},
	{
		Name:          "staking-generic",
		Type:          domain.AccountTypeStaking,
		Confidence:    domain.ConfidenceMedium,
		LabelKeywords: []string{"stake", "staked", "validator"},
	},
	{
		Name:          "defi",
		Type:          domain.AccountTypeDeFiProtocol,
		Confidence:    domain.ConfidenceHigh,
		LabelKeywords: []string{"kamino", "marginfi", "solend", "drift", "mango", "lending", "vault"},
		Tags:          []string{"defi", "lending", "protocol"},
	},
	{
		Name:          "nft",
		Type:          domain.AccountTypeNFTMarketplace,
		Confidence:    domain.ConfidenceHigh,
		LabelKeywords: []string{"magic eden", "tensor", "hyperspace", "solanart", "nft marketplace"},
		Tags:          []string{"nft", "nft-marketplace"},
	},
	{
		Name:       "market-maker",
		Type:       domain.AccountTypeMarketMaker,
		Confidence: domain.ConfidenceHigh,
		LabelKeywords: []string{
			"wintermute", "jump", "gsr", "dwf", "market maker", "amber", "flow traders", "keyrock",
		},
		Tags: []string{"market-maker", "market_maker", "mm"},
	},
	{
		Name:          "program-authority",
		Type:          domain.AccountTypeProgramAuthority,
		Confidence:    domain.ConfidenceHigh,
		LabelKeywords: []string{"authority", "program", "multisig", "squads", "pda"},
		Tags:          []string{"program", "authority", "multisig"},
	},
	{
		Name:          "validator",
		Type:          domain.AccountTypeValidator,
		Confidence:    domain.ConfidenceHigh,
		LabelKeywords: []string{"vote account"},
		Tags:          []string{"validator", "vote-account"},
	},
	{
		Name:       "whale",
		Type:       domain.AccountTypeWhale,
		Confidence: domain.ConfidenceMedium,
		Tags:       []string{"whale"},
	},
	{
		Name:       "bot",
		Type:       domain.AccountTypeBotTrader,
		Confidence: domain.ConfidenceMedium,
		Tags:       []string{"bot", "mev", "sniper"},
	},
	{
		Name:       "institutional",
		Type:       domain.AccountTypeInstitutional,
		Confidence: domain.ConfidenceMedium,
		Tags:       []string{"institutional", "fund"},
	},
}

// Rules returns a copy of the ordered account type cascade.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// normalizeLabel lowercases s and replaces every non-alphanumeric run with a
// single space, padded so that " kw " matches whole words only.
func normalizeLabel(s string) string {
	var sb strings.Builder
	sb.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			space = false
			continue
		}
		if !space {
			sb.WriteByte(' ')
			space = true
		}
	}
	if !space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func normalizeTags(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Match reports whether the rule matches, returning the matched keyword or tag
// and whether it was a tag.
func (r Rule) Match(label string, tags map[string]struct{}) (matched string, isTag bool, ok bool) {
	if label != "" {
		for _, kw := range r.LabelKeywords {
			if strings.Contains(label, " "+kw+" ") {
				return kw, false, true
			}
		}
	}
	for _, tag := range r.Tags {
		if _, found := tags[tag]; found {
			return tag, true, true
		}
	}
	return "", false, false
}

// ClassifyAccount assigns an account type from off-chain metadata.
// The result is deterministic for identical input.
func ClassifyAccount(meta *domain.AccountMetadata) domain.AccountClassification {
	if meta == nil {
		return domain.AccountClassification{
			Type:       domain.AccountTypeUnknown,
			Confidence: domain.ConfidenceHigh,
			Reasoning:  []string{"no data available"},
		}
	}

	label := ""
	if meta.Label != nil {
		label = normalizeLabel(*meta.Label)
	}
	tags := normalizeTags(meta.Tags)

	for _, rule := range rules {
		matched, isTag, ok := rule.Match(label, tags)
		if !ok {
			continue
		}

		var reason string
		if isTag {
			reason = fmt.Sprintf("tag %q matched %s rule", matched, rule.Name)
		} else {
			reason = fmt.Sprintf("label keyword %q matched %s rule", matched, rule.Name)
		}
		subType := matched

		return domain.AccountClassification{
			Type:       rule.Type,
			Confidence: rule.Confidence,
			SubType:    &subType,
			Reasoning:  []string{reason},
		}
	}

	return domain.AccountClassification{
		Type:       domain.AccountTypeUnknown,
		Confidence: domain.ConfidenceLow,
		Reasoning:  []string{"no matching label or tag"},
	}
}

// IsExchange reports whether metadata classifies as CEX, or DEX when includeDex is set.
func IsExchange(meta *domain.AccountMetadata, includeDex bool) bool {
	c := ClassifyAccount(meta)
	return IsExchangeType(c, includeDex)
}

// IsExchangeType is IsExchange over an existing classification.
func IsExchangeType(c domain.AccountClassification, includeDex bool) bool {
	if c.Type == domain.AccountTypeCEX {
		return true
	}
	return includeDex && c.Type == domain.AccountTypeDEX
}
