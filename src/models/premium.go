package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PremiumEntry is the net option credit of one (date, symbol) group.
type PremiumEntry struct {
	Date           time.Time       `json:"date"`
	Symbol         string          `json:"symbol"`
	NetCredit      decimal.Decimal `json:"net_credit"`
	Descriptions   []string        `json:"included_transaction_descriptions"`
	TransactionIDs []int64         `json:"included_transaction_ids"`
}

// PeriodSummary aggregates premium entries over a calendar week or month.
type PeriodSummary struct {
	Period           string          `json:"period"` // "2025-W03" or "2025-01"
	Start            time.Time       `json:"start"`
	TotalCredit      decimal.Decimal `json:"total_credit"`
	TransactionCount int             `json:"transaction_count"`
	Symbols          []string        `json:"symbols"`
}

// PremiumSummary is the result of the "compute premium summary" operation.
type PremiumSummary struct {
	Entries     []PremiumEntry  `json:"entries"`
	Weekly      []PeriodSummary `json:"weekly"`
	Monthly     []PeriodSummary `json:"monthly"`
	TotalCredit decimal.Decimal `json:"total_credit"`
}
