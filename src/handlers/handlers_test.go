package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/services"
	"golang.org/x/time/rate"
)

type stubChainService struct {
	result *services.RebuildResult
	stats  models.ChainStatistics
	err    error
}

func (s *stubChainService) RebuildChains(ctx context.Context) (*services.RebuildResult, error) {
	return s.result, s.err
}

func (s *stubChainService) GetChainStatistics(ctx context.Context) (models.ChainStatistics, error) {
	return s.stats, s.err
}

type stubPremiumService struct {
	summary *models.PremiumSummary
	err     error
}

func (s *stubPremiumService) GetPremiumSummary(ctx context.Context) (*models.PremiumSummary, error) {
	return s.summary, s.err
}

func (s *stubPremiumService) InvalidateCache() {}

type stubTransactionService struct {
	got []models.Transaction
	err error
}

func (s *stubTransactionService) AddTransactions(ctx context.Context, txs []models.Transaction) ([]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.got = txs
	ids := make([]int64, len(txs))
	for i := range txs {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHandleRebuildChains(t *testing.T) {
	h := NewChainHandler(&stubChainService{result: &services.RebuildResult{
		Stats:       models.ChainStats{Total: 3, EquityChains: 1, OptionChains: 1, UnmatchedQuantity: decimal.Zero},
		Assignments: 3,
	}})

	rec := httptest.NewRecorder()
	h.HandleRebuildChains(rec, httptest.NewRequest(http.MethodPost, "/api/chains/rebuild", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body struct {
		Stats struct {
			Total        int `json:"total"`
			EquityChains int `json:"equity_chains"`
		} `json:"stats"`
		Assignments int `json:"assignments"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 3, body.Stats.Total)
	assert.Equal(t, 1, body.Stats.EquityChains)
	assert.Equal(t, 3, body.Assignments)
}

func TestHandleRebuildChainsErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: locked", services.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: commit", services.ErrRebuildFailed), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h := NewChainHandler(&stubChainService{err: tt.err})
		rec := httptest.NewRecorder()
		h.HandleRebuildChains(rec, httptest.NewRequest(http.MethodPost, "/api/chains/rebuild", nil))
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())

		var body map[string]string
		decodeBody(t, rec, &body)
		assert.Equal(t, "Failed to rebuild chains", body["error"])
	}
}

func TestHandleGetChainStatistics(t *testing.T) {
	h := NewChainHandler(&stubChainService{stats: models.ChainStatistics{Total: 10, Chained: 8, TotalChains: 3, Closed: 2}})
	rec := httptest.NewRecorder()
	h.HandleGetChainStatistics(rec, httptest.NewRequest(http.MethodGet, "/api/chains/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.ChainStatistics
	decodeBody(t, rec, &stats)
	assert.Equal(t, models.ChainStatistics{Total: 10, Chained: 8, TotalChains: 3, Closed: 2}, stats)
}

func TestHandleGetPremiumSummary(t *testing.T) {
	summary := &models.PremiumSummary{
		Entries:     []models.PremiumEntry{{Symbol: "XYZ", NetCredit: decimal.NewFromInt(120), TransactionIDs: []int64{1}}},
		Weekly:      []models.PeriodSummary{{Period: "2025-W02", TotalCredit: decimal.NewFromInt(120), TransactionCount: 1, Symbols: []string{"XYZ"}}},
		Monthly:     []models.PeriodSummary{{Period: "2025-01", TotalCredit: decimal.NewFromInt(120), TransactionCount: 1, Symbols: []string{"XYZ"}}},
		TotalCredit: decimal.NewFromInt(120),
	}
	h := NewPremiumHandler(&stubPremiumService{summary: summary})

	rec := httptest.NewRecorder()
	h.HandleGetPremiumSummary(rec, httptest.NewRequest(http.MethodGet, "/api/premium/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var full models.PremiumSummary
	decodeBody(t, rec, &full)
	require.Len(t, full.Entries, 1)
	assert.True(t, decimal.NewFromInt(120).Equal(full.TotalCredit))

	rec = httptest.NewRecorder()
	h.HandleGetPremiumSummary(rec, httptest.NewRequest(http.MethodGet, "/api/premium/summary?period=monthly", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var monthly []models.PeriodSummary
	decodeBody(t, rec, &monthly)
	require.Len(t, monthly, 1)
	assert.Equal(t, "2025-01", monthly[0].Period)

	rec = httptest.NewRecorder()
	h.HandleGetPremiumSummary(rec, httptest.NewRequest(http.MethodGet, "/api/premium/summary?period=daily", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetPremiumSummaryError(t *testing.T) {
	h := NewPremiumHandler(&stubPremiumService{err: services.ErrPremiumSummaryFailed})
	rec := httptest.NewRecorder()
	h.HandleGetPremiumSummary(rec, httptest.NewRequest(http.MethodGet, "/api/premium/summary", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleAddTransactions(t *testing.T) {
	svc := &stubTransactionService{}
	h := NewTransactionHandler(svc)

	body := `{"transactions":[
		{"date":"2025-01-06","action":"Sell Short","instrument":"option","symbol":"XYZ","quantity":"1","amount":"120.50","description":"XYZ Jan 17 '25 $10 Call"},
		{"date":"2025-01-07","action":"Bought","instrument":"stock","symbol":"XYZ","quantity":100,"amount":-1000}
	]}`
	rec := httptest.NewRecorder()
	h.HandleAddTransactions(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		IDs []int64 `json:"ids"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, []int64{1, 2}, resp.IDs)

	require.Len(t, svc.got, 2)
	assert.Equal(t, models.Action("Sell Short"), svc.got[0].Action, "normalization is left to the service")
	assert.True(t, decimal.RequireFromString("120.5").Equal(svc.got[0].Amount))
	assert.True(t, decimal.NewFromInt(100).Equal(svc.got[1].Quantity))
	assert.Equal(t, 7, svc.got[1].Date.Day())
}

func TestHandleAddTransactionsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{"malformed json", `{"transactions":`, nil},
		{"empty batch", `{"transactions":[]}`, nil},
		{"bad date", `{"transactions":[{"date":"17/01/2025","action":"Bought","instrument":"stock","symbol":"XYZ","quantity":"1"}]}`, nil},
		{"service rejects", `{"transactions":[{"date":"2025-01-17","action":"gift","instrument":"stock","symbol":"XYZ","quantity":"1"}]}`,
			fmt.Errorf("%w: unknown action", services.ErrInvalidTransaction)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransactionHandler(&stubTransactionService{err: tt.err})
			rec := httptest.NewRecorder()
			h.HandleAddTransactions(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestContextualLoggerMiddleware(t *testing.T) {
	var seenID string
	var seenLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = GetRequestIDFromContext(r.Context())
		seenLogger = logger.FromContext(r.Context()) != nil
	})

	rec := httptest.NewRecorder()
	ContextualLoggerMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seenID)
	assert.True(t, seenLogger)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 2)
	calls := 0
	h := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chains/stats", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, calls)
}

func TestStatusForServiceError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForServiceError(services.ErrInvalidTransaction))
	assert.Equal(t, http.StatusServiceUnavailable, statusForServiceError(fmt.Errorf("wrap: %w", services.ErrStorageUnavailable)))
	assert.Equal(t, http.StatusInternalServerError, statusForServiceError(errors.New("boom")))
}
