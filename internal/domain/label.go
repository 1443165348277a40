package domain

// AccountLabelRecord is a cached metadata lookup result for an address.
// Found is false when the provider had no metadata for the address.
type AccountLabelRecord struct {
	Address       string
	Found         bool
	Label         *string
	Tags          []string
	FundedBy      *FundedBy
	ActiveAgeDays *int
	FetchedAt     int64 // ms
}

// Metadata converts the record to AccountMetadata. Returns nil when not found.
func (r *AccountLabelRecord) Metadata() *AccountMetadata {
	if r == nil || !r.Found {
		return nil
	}
	return &AccountMetadata{
		Label:         r.Label,
		Tags:          append([]string(nil), r.Tags...),
		FundedBy:      r.FundedBy,
		ActiveAgeDays: r.ActiveAgeDays,
	}
}

// NewAccountLabelRecord builds a cache record from a lookup result.
func NewAccountLabelRecord(address string, meta *AccountMetadata, fetchedAt int64) *AccountLabelRecord {
	rec := &AccountLabelRecord{Address: address, FetchedAt: fetchedAt}
	if meta == nil {
		return rec
	}
	rec.Found = true
	rec.Label = meta.Label
	rec.Tags = append([]string(nil), meta.Tags...)
	rec.FundedBy = meta.FundedBy
	rec.ActiveAgeDays = meta.ActiveAgeDays
	return rec
}
