// src/services/premium_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/processors"
)

const (
	ckPremiumSummary       = "agg_premium_summary"
	ckChainStatistics      = "agg_chain_statistics"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type premiumServiceImpl struct {
	repo        TransactionRepository
	processor   processors.PremiumProcessor
	reportCache *cache.Cache
}

func NewPremiumService(repo TransactionRepository, processor processors.PremiumProcessor, reportCache *cache.Cache) PremiumService {
	return &premiumServiceImpl{
		repo:        repo,
		processor:   processor,
		reportCache: reportCache,
	}
}

func (s *premiumServiceImpl) GetPremiumSummary(ctx context.Context) (*models.PremiumSummary, error) {
	if cached, found := s.reportCache.Get(ckPremiumSummary); found {
		return cached.(*models.PremiumSummary), nil
	}

	txs, err := s.repo.GetPremiumTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	entries, err := s.processor.Process(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPremiumSummaryFailed, err)
	}

	summary := processors.BuildPremiumSummary(entries)
	logger.FromContext(ctx).Debug("Premium summary computed",
		"transactions", len(txs), "entries", len(summary.Entries), "total_credit", summary.TotalCredit.String())

	s.reportCache.Set(ckPremiumSummary, &summary, cache.DefaultExpiration)
	return &summary, nil
}

func (s *premiumServiceImpl) InvalidateCache() {
	s.reportCache.Delete(ckPremiumSummary)
	s.reportCache.Delete(ckChainStatistics)
}
