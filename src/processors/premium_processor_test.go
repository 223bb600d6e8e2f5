package processors

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wheelbook/backend/src/models"
)

func TestEvaluatePremiumGroup(t *testing.T) {
	call := "XYZ Jan 17 '25 $10 Call"
	tests := []struct {
		name    string
		members []models.Transaction
		emitted bool
		net     string
		ids     []int64
	}{
		{
			name: "plain sale",
			members: []models.Transaction{
				optionTx(1, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "120"),
			},
			emitted: true, net: "120", ids: []int64{1},
		},
		{
			name: "sale then equity buy is fully excluded",
			members: []models.Transaction{
				optionTx(1, "2025-01-06", models.ActionSold, "XYZ", call, 1, "120"),
				equityTx(2, "2025-01-06", models.ActionBoughtOpen, "XYZ", 100),
			},
			emitted: false,
		},
		{
			name: "equity buy then sale is fully excluded",
			members: []models.Transaction{
				equityTx(1, "2025-01-06", models.ActionBoughtOpen, "XYZ", 100),
				optionTx(2, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "120"),
			},
			emitted: false,
		},
		{
			name: "one of two sales paired with the equity buy",
			members: []models.Transaction{
				optionTx(1, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "100"),
				optionTx(2, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "50"),
				equityTx(3, "2025-01-06", models.ActionBoughtOpen, "XYZ", 100),
			},
			emitted: true, net: "100", ids: []int64{1},
		},
		{
			name: "buy to cover reduces the credit",
			members: []models.Transaction{
				optionTx(1, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "120"),
				optionTx(2, "2025-01-06", models.ActionBoughtToCover, "XYZ", call, 1, "-40.5"),
			},
			emitted: true, net: "79.5", ids: []int64{1, 2},
		},
		{
			name: "net zero is not emitted",
			members: []models.Transaction{
				optionTx(1, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "50"),
				optionTx(2, "2025-01-06", models.ActionBoughtToCover, "XYZ", call, 1, "-50"),
			},
			emitted: false,
		},
		{
			name: "equity buy alone is not emitted",
			members: []models.Transaction{
				equityTx(1, "2025-01-06", models.ActionBoughtOpen, "XYZ", 100),
			},
			emitted: false,
		},
		{
			name: "debit-only day is emitted",
			members: []models.Transaction{
				optionTx(1, "2025-01-06", models.ActionBoughtOpen, "XYZ", call, 1, "-75"),
			},
			emitted: true, net: "-75", ids: []int64{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := EvaluatePremiumGroup(tt.members)
			require.Equal(t, tt.emitted, ok)
			if !tt.emitted {
				return
			}
			assert.True(t, decimal.RequireFromString(tt.net).Equal(entry.NetCredit), "net %s", entry.NetCredit)
			assert.Equal(t, tt.ids, entry.TransactionIDs)
			assert.Len(t, entry.Descriptions, len(tt.ids))
			assert.Equal(t, "XYZ", entry.Symbol)
		})
	}
}

func TestEvaluatePremiumGroup_UsesInsertionOrderNotSliceOrder(t *testing.T) {
	call := "XYZ Jan 17 '25 $10 Call"
	members := []models.Transaction{
		equityTx(3, "2025-01-06", models.ActionBoughtOpen, "XYZ", 100),
		optionTx(2, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "50"),
		optionTx(1, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "100"),
	}
	entry, ok := EvaluatePremiumGroup(members)
	require.True(t, ok)
	assert.Equal(t, []int64{1}, entry.TransactionIDs)
}

func TestPremiumProcessor_GroupsAndSorts(t *testing.T) {
	call := "XYZ Jan 17 '25 $10 Call"
	put := "ABC Jan 17 '25 $20 Put"
	txs := []models.Transaction{
		optionTx(1, "2025-01-07", models.ActionSoldShort, "XYZ", call, 1, "120"),
		optionTx(2, "2025-01-06", models.ActionSoldShort, "XYZ", call, 1, "60"),
		optionTx(3, "2025-01-06", models.ActionSoldShort, "ABC", put, 1, "80"),
		// assignment day for ABC: premium consumed by the share purchase
		optionTx(4, "2025-01-08", models.ActionSold, "ABC", put, 1, "30"),
		equityTx(5, "2025-01-08", models.ActionBoughtOpen, "ABC", 100),
		// never part of premium reconciliation
		equityTx(6, "2025-01-08", models.ActionSold, "XYZ", 100),
		optionTx(7, "2025-01-09", models.ActionOptionExpired, "XYZ", call, 1, "0"),
	}

	entries, err := NewPremiumProcessor(2).Process(context.Background(), txs)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "ABC", entries[0].Symbol)
	assert.Equal(t, day("2025-01-06"), entries[0].Date)
	assert.Equal(t, "XYZ", entries[1].Symbol)
	assert.Equal(t, day("2025-01-06"), entries[1].Date)
	assert.Equal(t, day("2025-01-07"), entries[2].Date)
}

func TestPremiumProcessor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txs := []models.Transaction{
		optionTx(1, "2025-01-07", models.ActionSoldShort, "XYZ", "XYZ Jan 17 '25 $10 Call", 1, "120"),
	}
	_, err := NewPremiumProcessor(1).Process(ctx, txs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildPremiumSummary(t *testing.T) {
	entries := []models.PremiumEntry{
		{Date: day("2025-01-06"), Symbol: "XYZ", NetCredit: decimal.NewFromInt(100), TransactionIDs: []int64{1, 2}},
		{Date: day("2025-01-08"), Symbol: "ABC", NetCredit: decimal.NewFromInt(50), TransactionIDs: []int64{3}},
		{Date: day("2025-01-08"), Symbol: "XYZ", NetCredit: decimal.NewFromInt(-20), TransactionIDs: []int64{4}},
		{Date: day("2025-02-03"), Symbol: "XYZ", NetCredit: decimal.NewFromInt(70), TransactionIDs: []int64{5}},
	}

	summary := BuildPremiumSummary(entries)

	assert.True(t, decimal.NewFromInt(200).Equal(summary.TotalCredit))

	require.Len(t, summary.Weekly, 2)
	assert.Equal(t, "2025-W02", summary.Weekly[0].Period)
	assert.Equal(t, day("2025-01-06"), summary.Weekly[0].Start)
	assert.True(t, decimal.NewFromInt(130).Equal(summary.Weekly[0].TotalCredit))
	assert.Equal(t, 4, summary.Weekly[0].TransactionCount)
	assert.Equal(t, []string{"ABC", "XYZ"}, summary.Weekly[0].Symbols)
	assert.Equal(t, "2025-W06", summary.Weekly[1].Period)

	require.Len(t, summary.Monthly, 2)
	assert.Equal(t, "2025-01", summary.Monthly[0].Period)
	assert.True(t, decimal.NewFromInt(130).Equal(summary.Monthly[0].TotalCredit))
	assert.Equal(t, "2025-02", summary.Monthly[1].Period)
	assert.Equal(t, []string{"XYZ"}, summary.Monthly[1].Symbols)
}

func TestBuildPremiumSummaryEmpty(t *testing.T) {
	summary := BuildPremiumSummary(nil)
	assert.NotNil(t, summary.Entries)
	assert.Empty(t, summary.Weekly)
	assert.True(t, summary.TotalCredit.IsZero())
}
