package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the normalized broker action of a ledger row.
type Action string

const (
	ActionBoughtOpen     Action = "BOUGHT"
	ActionSoldShort      Action = "SOLD_SHORT"
	ActionBoughtToCover  Action = "BOUGHT_TO_COVER"
	ActionSold           Action = "SOLD"
	ActionOptionAssigned Action = "OPTION_ASSIGNED"
	ActionOptionExpired  Action = "OPTION_EXPIRED"
)

// Instrument distinguishes equity rows from option rows.
type Instrument string

const (
	InstrumentEquity Instrument = "EQUITY"
	InstrumentOption Instrument = "OPTION"
)

// DateLayout is the storage and wire format of every ledger date.
const DateLayout = "2006-01-02"

// Transaction represents one row of the append-only transaction ledger.
type Transaction struct {
	ID          int64           `json:"id,omitempty"` // Insertion id, strictly increasing
	Date        time.Time       `json:"date"`
	Action      Action          `json:"action"`
	Instrument  Instrument      `json:"instrument"`
	Symbol      string          `json:"symbol"`     // Grouping key; the underlying for options
	RawSymbol   string          `json:"raw_symbol"` // Broker symbol text, only used to parse options
	Quantity    decimal.Decimal `json:"quantity"`   // Consumed as a magnitude
	Amount      decimal.Decimal `json:"amount"`     // Signed cash flow
	Description string          `json:"description"`

	ChainID        string     `json:"chain_id,omitempty"`
	ChainCloseDate *time.Time `json:"chain_close_date,omitempty"`
}

// Magnitude returns the absolute quantity of the transaction.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Quantity.Abs()
}

// IsOption reports whether the row is an option trade.
func (t Transaction) IsOption() bool {
	return t.Instrument == InstrumentOption
}

// ChainAssignment is the write-back record produced by a chain rebuild.
type ChainAssignment struct {
	TransactionID int64
	ChainID       string
	CloseDate     *time.Time
}
