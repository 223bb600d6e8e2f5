package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/utils"
)

type periodKeyFunc func(t time.Time) (string, time.Time)

func weekPeriod(t time.Time) (string, time.Time) {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week), utils.StartOfWeek(t)
}

func monthPeriod(t time.Time) (string, time.Time) {
	start := utils.StartOfMonth(t)
	return start.Format("2006-01"), start
}

// SummarizeByWeek aggregates premium entries per ISO week (Monday start).
func SummarizeByWeek(entries []models.PremiumEntry) []models.PeriodSummary {
	return summarize(entries, weekPeriod)
}

// SummarizeByMonth aggregates premium entries per calendar month.
func SummarizeByMonth(entries []models.PremiumEntry) []models.PeriodSummary {
	return summarize(entries, monthPeriod)
}

// BuildPremiumSummary assembles entries and their weekly and monthly roll-ups.
func BuildPremiumSummary(entries []models.PremiumEntry) models.PremiumSummary {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.NetCredit)
	}
	if entries == nil {
		entries = []models.PremiumEntry{}
	}
	return models.PremiumSummary{
		Entries:     entries,
		Weekly:      SummarizeByWeek(entries),
		Monthly:     SummarizeByMonth(entries),
		TotalCredit: total,
	}
}

func summarize(entries []models.PremiumEntry, keyOf periodKeyFunc) []models.PeriodSummary {
	byPeriod := make(map[string]*models.PeriodSummary)
	symbols := make(map[string]map[string]bool)

	for _, e := range entries {
		period, start := keyOf(e.Date)
		s, ok := byPeriod[period]
		if !ok {
			s = &models.PeriodSummary{Period: period, Start: start, TotalCredit: decimal.Zero}
			byPeriod[period] = s
			symbols[period] = make(map[string]bool)
		}
		s.TotalCredit = s.TotalCredit.Add(e.NetCredit)
		s.TransactionCount += len(e.TransactionIDs)
		symbols[period][e.Symbol] = true
	}

	out := make([]models.PeriodSummary, 0, len(byPeriod))
	for period, s := range byPeriod {
		for sym := range symbols[period] {
			s.Symbols = append(s.Symbols, sym)
		}
		sort.Strings(s.Symbols)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
