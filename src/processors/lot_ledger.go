package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/utils"
)

// Book selects one of the three independent lot collections.
type Book int

const (
	BookLong Book = iota
	BookShort
	BookOption
)

func (b Book) String() string {
	switch b {
	case BookLong:
		return "long"
	case BookShort:
		return "short"
	default:
		return "option"
	}
}

// LedgerKey addresses one FIFO queue: a symbol for the equity books, a series for options.
type LedgerKey struct {
	Book   Book
	Symbol string
	Series models.SeriesKey
}

// EquityKey addresses the long or short queue of an equity symbol.
func EquityKey(book Book, symbol string) LedgerKey {
	return LedgerKey{Book: book, Symbol: symbol}
}

// OptionKey addresses the queue of one option series.
func OptionKey(id models.OptionIdentity) LedgerKey {
	return LedgerKey{Book: BookOption, Symbol: id.Underlying, Series: id.Key()}
}

// ClosureResult describes what a single closing transaction consumed.
type ClosureResult struct {
	Matched   decimal.Decimal
	Chains    []string // touched chains, oldest lot first
	Unmatched decimal.Decimal
}

// IsSplit reports whether the close drained more than one lot.
func (r ClosureResult) IsSplit() bool {
	return len(r.Chains) > 1
}

// LotLedger owns every open and historical lot of one rebuild, plus the chains they feed.
// It is created per rebuild and never shared.
type LotLedger struct {
	long    map[string][]*models.Lot
	short   map[string][]*models.Lot
	options map[models.SeriesKey][]*models.Lot

	// option lots per underlying in creation order, scanned by the roll detector
	optionHistory map[string][]*models.Lot

	chains     map[string]*models.Chain
	chainOrder []string
}

// NewLotLedger returns an empty ledger.
func NewLotLedger() *LotLedger {
	return &LotLedger{
		long:          make(map[string][]*models.Lot),
		short:         make(map[string][]*models.Lot),
		options:       make(map[models.SeriesKey][]*models.Lot),
		optionHistory: make(map[string][]*models.Lot),
		chains:        make(map[string]*models.Chain),
	}
}

// NewChain registers an empty open chain.
func (l *LotLedger) NewChain(id string, instrument models.Instrument, symbol string) *models.Chain {
	c := &models.Chain{ID: id, Instrument: instrument, Symbol: symbol}
	l.chains[id] = c
	l.chainOrder = append(l.chainOrder, id)
	return c
}

// Chain looks up a chain by id.
func (l *LotLedger) Chain(id string) (*models.Chain, bool) {
	c, ok := l.chains[id]
	return c, ok
}

// Chains returns every chain in creation order.
func (l *LotLedger) Chains() []*models.Chain {
	out := make([]*models.Chain, 0, len(l.chainOrder))
	for _, id := range l.chainOrder {
		out = append(out, l.chains[id])
	}
	return out
}

// Lots returns the queue (open and drained lots, oldest first) under key.
func (l *LotLedger) Lots(key LedgerKey) []*models.Lot {
	switch key.Book {
	case BookLong:
		return l.long[key.Symbol]
	case BookShort:
		return l.short[key.Symbol]
	default:
		return l.options[key.Series]
	}
}

// OpenQuantity sums the remaining quantity under key.
func (l *LotLedger) OpenQuantity(key LedgerKey) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.Lots(key) {
		total = total.Add(lot.Remaining)
	}
	return total
}

func (l *LotLedger) setLots(key LedgerKey, lots []*models.Lot) {
	switch key.Book {
	case BookLong:
		l.long[key.Symbol] = lots
	case BookShort:
		l.short[key.Symbol] = lots
	default:
		l.options[key.Series] = lots
	}
}

// Open always creates a new lot on chainID and records txnID on both.
// The chain must have been registered with NewChain.
func (l *LotLedger) Open(key LedgerKey, quantity decimal.Decimal, date time.Time, txnID int64, chainID string, series *models.OptionIdentity) *models.Lot {
	lot := &models.Lot{
		ChainID:   chainID,
		Remaining: quantity.Abs(),
		OpenDate:  date,
		Members:   []int64{txnID},
		Series:    series,
	}
	l.setLots(key, append(l.Lots(key), lot))
	if key.Book == BookOption {
		l.optionHistory[key.Symbol] = append(l.optionHistory[key.Symbol], lot)
	}
	if c, ok := l.chains[chainID]; ok {
		c.AddMember(txnID)
		c.CloseDate = nil
	}
	return lot
}

// Close consumes quantity from the oldest open lots under key. Any excess is
// clamped and reported as Unmatched; remaining quantities never go negative.
func (l *LotLedger) Close(key LedgerKey, quantity decimal.Decimal, date time.Time, txnID int64) ClosureResult {
	need := quantity.Abs()
	result := ClosureResult{Matched: decimal.Zero}

	for _, lot := range l.Lots(key) {
		if !need.IsPositive() {
			break
		}
		if lot.IsClosed() {
			continue
		}
		take := decimal.Min(need, lot.Remaining)
		lot.Remaining = lot.Remaining.Sub(take)
		lot.Members = append(lot.Members, txnID)
		need = need.Sub(take)
		result.Matched = result.Matched.Add(take)
		result.Chains = append(result.Chains, lot.ChainID)

		chain := l.chains[lot.ChainID]
		if chain != nil {
			chain.AddMember(txnID)
		}
		if lot.IsClosed() {
			closed := date
			lot.CloseDate = &closed
			if chain != nil {
				chain.CloseDate = &closed
			}
		}
	}

	result.Unmatched = need
	return result
}

// OptionLotsFor returns the option lots of an underlying in creation order.
func (l *LotLedger) OptionLotsFor(underlying string) []*models.Lot {
	return l.optionHistory[underlying]
}

// DetectRoll looks for a drained option lot on the same underlying whose chain
// closed within windowDays before current. The first match in lot creation
// order wins; when several series closed the same day the attribution is a
// heuristic.
func (l *LotLedger) DetectRoll(underlying string, current time.Time, windowDays int) (string, bool) {
	for _, lot := range l.optionHistory[underlying] {
		if !lot.IsClosed() {
			continue
		}
		chain, ok := l.chains[lot.ChainID]
		if !ok || chain.CloseDate == nil {
			continue
		}
		diff := utils.DaysBetween(*chain.CloseDate, current)
		if diff >= 0 && diff <= windowDays {
			return chain.ID, true
		}
	}
	return "", false
}

// SweepExpired force-closes every option lot whose series expired on or before
// today. Running it again with the same day changes nothing.
func (l *LotLedger) SweepExpired(today time.Time) int {
	today = utils.TruncateToDay(today)

	keys := make([]models.SeriesKey, 0, len(l.options))
	for k := range l.options {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Expiration != keys[j].Expiration {
			return keys[i].Expiration < keys[j].Expiration
		}
		if keys[i].Underlying != keys[j].Underlying {
			return keys[i].Underlying < keys[j].Underlying
		}
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Strike < keys[j].Strike
	})

	swept := 0
	for _, k := range keys {
		for _, lot := range l.options[k] {
			if lot.IsClosed() || lot.Series == nil || lot.Series.Expiration.After(today) {
				continue
			}
			expiration := lot.Series.Expiration
			lot.Remaining = decimal.Zero
			lot.CloseDate = &expiration
			if chain, ok := l.chains[lot.ChainID]; ok && chain.CloseDate == nil {
				chain.CloseDate = &expiration
			}
			swept++
		}
	}
	return swept
}
