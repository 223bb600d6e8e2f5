package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a single FIFO-tracked quantity of an opened position.
type Lot struct {
	ChainID   string          `json:"chain_id"`
	Remaining decimal.Decimal `json:"remaining_quantity"`
	OpenDate  time.Time       `json:"open_date"`
	CloseDate *time.Time      `json:"close_date,omitempty"`
	Members   []int64         `json:"member_transaction_ids"`

	// Series is only set for option lots.
	Series *OptionIdentity `json:"series,omitempty"`
}

// IsClosed reports whether the lot has been fully consumed.
func (l *Lot) IsClosed() bool {
	return !l.Remaining.IsPositive()
}

// Chain groups every transaction causally connected to one position lifecycle.
type Chain struct {
	ID         string     `json:"id"`
	Instrument Instrument `json:"instrument"`
	Symbol     string     `json:"symbol"`
	Members    []int64    `json:"member_transaction_ids"`
	CloseDate  *time.Time `json:"close_date,omitempty"`
}

// AddMember appends a transaction id unless it is already part of the chain.
func (c *Chain) AddMember(txnID int64) {
	for _, id := range c.Members {
		if id == txnID {
			return
		}
	}
	c.Members = append(c.Members, txnID)
}

// ChainStats are the informational counters of one chain rebuild.
type ChainStats struct {
	Total             int             `json:"total"`
	EquityChains      int             `json:"equity_chains"`
	OptionChains      int             `json:"option_chains"`
	UnmatchedCloses   int             `json:"unmatched_closes"`
	UnmatchedQuantity decimal.Decimal `json:"unmatched_quantity"`
	SplitTransactions int             `json:"split_transactions"`
	Skipped           int             `json:"skipped"`
	Rolls             int             `json:"rolls"`
	Expired           int             `json:"expired"`
}

// ChainStatistics is the aggregate the ledger reports after a rebuild.
type ChainStatistics struct {
	Total         int `json:"total"`
	Chained       int `json:"chained"`
	TotalChains   int `json:"total_chains"`
	Closed        int `json:"closed"`
	EquityChained int `json:"equity_chained"`
	OptionChained int `json:"option_chained"`
}
