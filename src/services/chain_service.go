// src/services/chain_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/processors"
	"github.com/username/wheelbook/backend/src/utils"
)

type chainServiceImpl struct {
	repo        TransactionRepository
	processor   processors.ChainProcessor
	reportCache *cache.Cache
	now         func() time.Time

	// rebuilds never interleave
	mu sync.Mutex
}

func NewChainService(repo TransactionRepository, processor processors.ChainProcessor, reportCache *cache.Cache) ChainService {
	return newChainService(repo, processor, reportCache, time.Now)
}

func newChainService(repo TransactionRepository, processor processors.ChainProcessor, reportCache *cache.Cache, now func() time.Time) *chainServiceImpl {
	return &chainServiceImpl{
		repo:        repo,
		processor:   processor,
		reportCache: reportCache,
		now:         now,
	}
}

func (s *chainServiceImpl) RebuildChains(ctx context.Context) (*RebuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	log := logger.FromContext(ctx).With("component", "chain_service")

	txs, err := s.repo.GetAllTransactions(ctx)
	if err != nil {
		log.Error("Failed to read transactions for chain rebuild", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	result := s.processor.Process(txs)
	asOf := utils.TruncateToDay(s.now())
	swept := result.Sweep(asOf)
	assignments := result.Assignments()

	if err := s.repo.ReplaceChainAssignments(ctx, assignments); err != nil {
		log.Error("Failed to persist chain assignments, previous assignments kept", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRebuildFailed, err)
	}

	s.reportCache.Delete(ckChainStatistics)
	s.reportCache.Delete(ckPremiumSummary)

	elapsed := time.Since(start)
	log.Info("Chain rebuild complete",
		"transactions", result.Stats.Total,
		"equity_chains", result.Stats.EquityChains,
		"option_chains", result.Stats.OptionChains,
		"rolls", result.Stats.Rolls,
		"unmatched_closes", result.Stats.UnmatchedCloses,
		"split_transactions", result.Stats.SplitTransactions,
		"skipped", result.Stats.Skipped,
		"swept", swept,
		"duration", elapsed)

	return &RebuildResult{
		Stats:       result.Stats,
		Assignments: len(assignments),
		Swept:       swept,
		AsOf:        asOf,
		Duration:    elapsed.String(),
	}, nil
}

func (s *chainServiceImpl) GetChainStatistics(ctx context.Context) (models.ChainStatistics, error) {
	if cached, found := s.reportCache.Get(ckChainStatistics); found {
		return cached.(models.ChainStatistics), nil
	}
	stats, err := s.repo.GetChainStatistics(ctx)
	if err != nil {
		return models.ChainStatistics{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	s.reportCache.Set(ckChainStatistics, stats, cache.DefaultExpiration)
	return stats, nil
}
