package domain

// AccountType is the label-derived type of an account.
type AccountType string

const (
	AccountTypeCEX              AccountType = "CEX"
	AccountTypeDEX              AccountType = "DEX"
	AccountTypeDeFiProtocol     AccountType = "DEFI_PROTOCOL"
	AccountTypeBridge           AccountType = "BRIDGE"
	AccountTypeStaking          AccountType = "STAKING"
	AccountTypeNFTMarketplace   AccountType = "NFT_MARKETPLACE"
	AccountTypeValidator        AccountType = "VALIDATOR"
	AccountTypeProgramAuthority AccountType = "PROGRAM_AUTHORITY"
	AccountTypeMarketMaker      AccountType = "MARKET_MAKER"
	AccountTypeWhale            AccountType = "WHALE"
	AccountTypeBotTrader        AccountType = "BOT_TRADER"
	AccountTypeInstitutional    AccountType = "INSTITUTIONAL"
	AccountTypeUnknown          AccountType = "UNKNOWN"
)

// AllAccountTypes lists every account type in report order.
var AllAccountTypes = []AccountType{
	AccountTypeCEX,
	AccountTypeDEX,
	AccountTypeDeFiProtocol,
	AccountTypeBridge,
	AccountTypeStaking,
	AccountTypeNFTMarketplace,
	AccountTypeValidator,
	AccountTypeProgramAuthority,
	AccountTypeMarketMaker,
	AccountTypeWhale,
	AccountTypeBotTrader,
	AccountTypeInstitutional,
	AccountTypeUnknown,
}

// String returns the string representation of AccountType.
func (t AccountType) String() string {
	return string(t)
}

// IsValid checks if the account type is a known value.
func (t AccountType) IsValid() bool {
	for _, v := range AllAccountTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Confidence is the trust level attached to a classification.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// String returns the string representation of Confidence.
func (c Confidence) String() string {
	return string(c)
}

// FundedBy records which address first funded an account.
type FundedBy struct {
	Address   string
	TxHash    string
	BlockTime int64 // unix seconds
}

// AccountMetadata is off-chain metadata for an owner address.
type AccountMetadata struct {
	Label         *string
	Tags          []string
	FundedBy      *FundedBy
	ActiveAgeDays *int
}

// AccountClassification is the output of the account type classifier.
type AccountClassification struct {
	Type       AccountType
	Confidence Confidence
	SubType    *string  // matched keyword or tag
	Reasoning  []string // in evaluation order
}
