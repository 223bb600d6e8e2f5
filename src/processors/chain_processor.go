// src/processors/chain_processor.go
package processors

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/parsers"
)

// SoldOptionPolicy fixes how an option "Sold" row is interpreted. Broker exports
// use the same word for sell-to-open (covered calls, cash secured puts) and
// sell-to-close, so the reading is a configured policy rather than inferred.
type SoldOptionPolicy string

const (
	SoldOptionOpens  SoldOptionPolicy = "open"
	SoldOptionCloses SoldOptionPolicy = "close"
)

// DefaultRollWindowDays is how many calendar days after a chain closes a new
// option open on the same underlying still continues it.
const DefaultRollWindowDays = 1

// ChainOptions configures a ChainProcessor. A nil or negative RollWindowDays
// uses DefaultRollWindowDays; zero only continues chains closed the same day.
type ChainOptions struct {
	SoldOptionPolicy SoldOptionPolicy
	RollWindowDays   *int
	NewChainID       func() string
}

// ChainResult is the outcome of one full chain reconstruction.
type ChainResult struct {
	Stats  models.ChainStats
	Ledger *LotLedger

	assigned map[int64]string
	order    []int64
}

// Sweep runs the expiration sweeper over the result's option lots.
func (r *ChainResult) Sweep(today time.Time) int {
	n := r.Ledger.SweepExpired(today)
	r.Stats.Expired += n
	return n
}

// ChainIDOf returns the chain a transaction was assigned to.
func (r *ChainResult) ChainIDOf(txnID int64) (string, bool) {
	id, ok := r.assigned[txnID]
	return id, ok
}

// Assignments lists one write-back record per assigned transaction, in processing order.
func (r *ChainResult) Assignments() []models.ChainAssignment {
	out := make([]models.ChainAssignment, 0, len(r.order))
	for _, txnID := range r.order {
		chainID := r.assigned[txnID]
		a := models.ChainAssignment{TransactionID: txnID, ChainID: chainID}
		if c, ok := r.Ledger.Chain(chainID); ok && c.CloseDate != nil {
			closed := *c.CloseDate
			a.CloseDate = &closed
		}
		out = append(out, a)
	}
	return out
}

func (r *ChainResult) assign(txnID int64, chainID string) {
	if _, ok := r.assigned[txnID]; ok {
		return
	}
	r.assigned[txnID] = chainID
	r.order = append(r.order, txnID)
}

type chainProcessorImpl struct {
	opts       ChainOptions
	rollWindow int
	log        *slog.Logger
}

// NewChainProcessor creates a ChainProcessor. Zero-valued options fall back to
// the documented defaults.
func NewChainProcessor(opts ChainOptions) ChainProcessor {
	if opts.SoldOptionPolicy == "" {
		opts.SoldOptionPolicy = SoldOptionOpens
	}
	rollWindow := DefaultRollWindowDays
	if opts.RollWindowDays != nil && *opts.RollWindowDays >= 0 {
		rollWindow = *opts.RollWindowDays
	}
	if opts.NewChainID == nil {
		opts.NewChainID = uuid.NewString
	}
	return &chainProcessorImpl{opts: opts, rollWindow: rollWindow, log: logger.WithComponent("chain_builder")}
}

// Process rebuilds every chain from scratch over the full transaction history.
func (p *chainProcessorImpl) Process(transactions []models.Transaction) *ChainResult {
	txs := make([]models.Transaction, len(transactions))
	copy(txs, transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})

	result := &ChainResult{
		Stats:    models.ChainStats{UnmatchedQuantity: decimal.Zero},
		Ledger:   NewLotLedger(),
		assigned: make(map[int64]string),
	}

	for i := range txs {
		tx := &txs[i]
		result.Stats.Total++
		switch tx.Instrument {
		case models.InstrumentEquity:
			p.processEquity(result, tx)
		case models.InstrumentOption:
			p.processOption(result, tx)
		default:
			p.log.Warn("Skipping transaction with unknown instrument", "id", tx.ID, "instrument", tx.Instrument)
			result.Stats.Skipped++
		}
	}

	p.log.Info("Chain reconstruction finished",
		"total", result.Stats.Total,
		"equityChains", result.Stats.EquityChains,
		"optionChains", result.Stats.OptionChains,
		"unmatchedCloses", result.Stats.UnmatchedCloses,
		"splitTransactions", result.Stats.SplitTransactions,
		"rolls", result.Stats.Rolls,
		"skipped", result.Stats.Skipped)
	return result
}

func (p *chainProcessorImpl) processEquity(r *ChainResult, tx *models.Transaction) {
	switch tx.Action {
	case models.ActionBoughtOpen:
		p.openEquity(r, tx, BookLong)
	case models.ActionSoldShort:
		p.openEquity(r, tx, BookShort)
	case models.ActionSold, models.ActionOptionAssigned:
		p.close(r, tx, EquityKey(BookLong, tx.Symbol))
	case models.ActionBoughtToCover:
		p.close(r, tx, EquityKey(BookShort, tx.Symbol))
	default:
		p.log.Debug("Ignoring equity transaction without a chain role", "id", tx.ID, "action", tx.Action)
		r.Stats.Skipped++
	}
}

func (p *chainProcessorImpl) openEquity(r *ChainResult, tx *models.Transaction, book Book) {
	if tx.Magnitude().IsZero() {
		p.log.Warn("Skipping zero-quantity equity open", "id", tx.ID, "symbol", tx.Symbol)
		r.Stats.Skipped++
		return
	}
	chain := r.Ledger.NewChain(p.opts.NewChainID(), models.InstrumentEquity, tx.Symbol)
	r.Stats.EquityChains++
	r.Ledger.Open(EquityKey(book, tx.Symbol), tx.Magnitude(), tx.Date, tx.ID, chain.ID, nil)
	r.assign(tx.ID, chain.ID)
}

func (p *chainProcessorImpl) processOption(r *ChainResult, tx *models.Transaction) {
	identity, ok := parsers.ParseOptionIdentityFrom(tx.RawSymbol, tx.Description)
	if !ok {
		p.log.Warn("Skipping option transaction with unparseable description",
			"id", tx.ID, "symbol", tx.Symbol, "rawSymbol", tx.RawSymbol, "description", tx.Description)
		r.Stats.Skipped++
		return
	}

	if p.isOptionOpen(tx.Action) {
		p.openOption(r, tx, identity)
		return
	}

	key := OptionKey(identity)
	if closesWholeSeries(tx) {
		// brokers often report expirations and assignments without a contract count
		p.closeQuantity(r, tx, key, r.Ledger.OpenQuantity(key))
		return
	}
	p.close(r, tx, key)
}

func closesWholeSeries(tx *models.Transaction) bool {
	if !tx.Magnitude().IsZero() {
		return false
	}
	return tx.Action == models.ActionOptionExpired || tx.Action == models.ActionOptionAssigned
}

func (p *chainProcessorImpl) isOptionOpen(action models.Action) bool {
	switch action {
	case models.ActionSoldShort, models.ActionBoughtOpen:
		return true
	case models.ActionSold:
		return p.opts.SoldOptionPolicy != SoldOptionCloses
	}
	return false
}

func (p *chainProcessorImpl) openOption(r *ChainResult, tx *models.Transaction, identity models.OptionIdentity) {
	if tx.Magnitude().IsZero() {
		p.log.Warn("Skipping zero-quantity option open", "id", tx.ID, "series", identity.String())
		r.Stats.Skipped++
		return
	}

	chainID, rolled := r.Ledger.DetectRoll(identity.Underlying, tx.Date, p.rollWindow)
	if rolled {
		r.Stats.Rolls++
		p.log.Debug("Roll detected", "id", tx.ID, "chainID", chainID, "series", identity.String())
	} else {
		chainID = r.Ledger.NewChain(p.opts.NewChainID(), models.InstrumentOption, identity.Underlying).ID
		r.Stats.OptionChains++
	}

	series := identity
	r.Ledger.Open(OptionKey(identity), tx.Magnitude(), tx.Date, tx.ID, chainID, &series)
	r.assign(tx.ID, chainID)
}

func (p *chainProcessorImpl) close(r *ChainResult, tx *models.Transaction, key LedgerKey) {
	p.closeQuantity(r, tx, key, tx.Magnitude())
}

func (p *chainProcessorImpl) closeQuantity(r *ChainResult, tx *models.Transaction, key LedgerKey, quantity decimal.Decimal) {
	res := r.Ledger.Close(key, quantity, tx.Date, tx.ID)

	if res.IsSplit() {
		r.Stats.SplitTransactions++
	}
	if res.Unmatched.IsPositive() || (quantity.IsPositive() && len(res.Chains) == 0) {
		r.Stats.UnmatchedCloses++
		r.Stats.UnmatchedQuantity = r.Stats.UnmatchedQuantity.Add(res.Unmatched)
		p.log.Debug("Unmatched close",
			"id", tx.ID, "book", key.Book.String(), "symbol", key.Symbol,
			"requested", quantity.String(), "unmatched", res.Unmatched.String())
	}

	if len(res.Chains) > 0 {
		r.assign(tx.ID, res.Chains[0])
		return
	}

	// Nothing was open: the close still gets its own closed chain so it is attributed.
	instrument := models.InstrumentEquity
	if key.Book == BookOption {
		instrument = models.InstrumentOption
		r.Stats.OptionChains++
	} else {
		r.Stats.EquityChains++
	}
	chain := r.Ledger.NewChain(p.opts.NewChainID(), instrument, key.Symbol)
	chain.AddMember(tx.ID)
	closed := tx.Date
	chain.CloseDate = &closed
	r.assign(tx.ID, chain.ID)
}
