package processors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/models"
)

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func equityTx(id int64, date string, action models.Action, symbol string, qty int64) models.Transaction {
	return models.Transaction{
		ID:          id,
		Date:        day(date),
		Action:      action,
		Instrument:  models.InstrumentEquity,
		Symbol:      symbol,
		RawSymbol:   symbol,
		Quantity:    decimal.NewFromInt(qty),
		Amount:      decimal.Zero,
		Description: fmt.Sprintf("%s %d %s", action, qty, symbol),
	}
}

func optionTx(id int64, date string, action models.Action, symbol, description string, qty int64, amount string) models.Transaction {
	return models.Transaction{
		ID:          id,
		Date:        day(date),
		Action:      action,
		Instrument:  models.InstrumentOption,
		Symbol:      symbol,
		Quantity:    decimal.NewFromInt(qty),
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	}
}

// sequentialIDs returns a deterministic chain id generator.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("chain-%d", n)
	}
}

func newTestChainProcessor() ChainProcessor {
	return NewChainProcessor(ChainOptions{NewChainID: sequentialIDs()})
}
