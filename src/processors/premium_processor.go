package processors

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"golang.org/x/sync/errgroup"
)

// DefaultPremiumWorkers bounds how many (date, symbol) groups are evaluated at once.
const DefaultPremiumWorkers = 4

type premiumGroupKey struct {
	date   string
	symbol string
}

type premiumProcessorImpl struct {
	workers int
	log     *slog.Logger
}

// NewPremiumProcessor creates the premium net-flow processor.
func NewPremiumProcessor(workers int) PremiumProcessor {
	if workers <= 0 {
		workers = DefaultPremiumWorkers
	}
	return &premiumProcessorImpl{workers: workers, log: logger.WithComponent("premium")}
}

// IsPremiumRelevant reports whether a transaction takes part in premium reconciliation:
// option sells, buys and buy-to-covers, plus equity purchases.
func IsPremiumRelevant(tx models.Transaction) bool {
	switch tx.Instrument {
	case models.InstrumentOption:
		switch tx.Action {
		case models.ActionSold, models.ActionSoldShort, models.ActionBoughtToCover, models.ActionBoughtOpen:
			return true
		}
	case models.InstrumentEquity:
		return tx.Action == models.ActionBoughtOpen
	}
	return false
}

func isSoldOption(tx models.Transaction) bool {
	return tx.IsOption() && (tx.Action == models.ActionSold || tx.Action == models.ActionSoldShort)
}

func isEquityBuy(tx models.Transaction) bool {
	return tx.Instrument == models.InstrumentEquity && tx.Action == models.ActionBoughtOpen
}

// Process computes one PremiumEntry per surviving (date, symbol) group, sorted
// by date then symbol. Groups are independent and evaluated concurrently.
func (p *premiumProcessorImpl) Process(ctx context.Context, transactions []models.Transaction) ([]models.PremiumEntry, error) {
	groups := make(map[premiumGroupKey][]models.Transaction)
	var keys []premiumGroupKey
	for _, tx := range transactions {
		if !IsPremiumRelevant(tx) {
			continue
		}
		k := premiumGroupKey{date: tx.Date.Format(models.DateLayout), symbol: tx.Symbol}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], tx)
	}

	results := make([]*models.PremiumEntry, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, k := range keys {
		i, members := i, groups[k]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry, ok := EvaluatePremiumGroup(members); ok {
				results[i] = &entry
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]models.PremiumEntry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	p.log.Debug("Premium groups evaluated", "groups", len(keys), "entries", len(entries))
	return entries, nil
}

// EvaluatePremiumGroup runs the pairing pass over one (date, symbol) group.
//
// Members are walked most-recently-inserted first. A sold option meeting an
// equity purchase (in either order) is treated as premium consumed by an
// assignment and excluded. This is a heuristic stand-in for causal pairing.
func EvaluatePremiumGroup(members []models.Transaction) (models.PremiumEntry, bool) {
	group := make([]models.Transaction, len(members))
	copy(group, members)
	sort.SliceStable(group, func(i, j int) bool { return group[i].ID < group[j].ID })

	excluded := make(map[int64]bool)
	var pendingSoldOptions, pendingEquityBuys []int64
	for i := len(group) - 1; i >= 0; i-- {
		tx := group[i]
		switch {
		case isEquityBuy(tx):
			if len(pendingSoldOptions) > 0 {
				excluded[pendingSoldOptions[0]] = true
				pendingSoldOptions = pendingSoldOptions[1:]
			} else {
				pendingEquityBuys = append(pendingEquityBuys, tx.ID)
			}
		case isSoldOption(tx):
			if len(pendingEquityBuys) > 0 {
				pendingEquityBuys = pendingEquityBuys[1:]
				excluded[tx.ID] = true
			} else {
				pendingSoldOptions = append(pendingSoldOptions, tx.ID)
			}
		}
	}

	entry := models.PremiumEntry{NetCredit: decimal.Zero}
	soldCount, soldExcluded := 0, 0
	for _, tx := range group {
		if !tx.IsOption() {
			continue
		}
		if isSoldOption(tx) {
			soldCount++
		}
		if excluded[tx.ID] {
			if isSoldOption(tx) {
				soldExcluded++
			}
			continue
		}
		entry.NetCredit = entry.NetCredit.Add(tx.Amount)
		entry.Descriptions = append(entry.Descriptions, tx.Description)
		entry.TransactionIDs = append(entry.TransactionIDs, tx.ID)
	}

	if soldCount > 0 && soldExcluded == soldCount {
		return models.PremiumEntry{}, false
	}
	if entry.NetCredit.IsZero() || len(entry.TransactionIDs) == 0 {
		return models.PremiumEntry{}, false
	}
	entry.Date = group[0].Date
	entry.Symbol = group[0].Symbol
	return entry, true
}
