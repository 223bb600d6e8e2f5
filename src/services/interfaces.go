// src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/wheelbook/backend/src/models"
)

// Define common service errors
var (
	ErrRebuildFailed        = errors.New("chain rebuild failed")
	ErrStorageUnavailable   = errors.New("transaction storage unavailable")
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrPremiumSummaryFailed = errors.New("premium summary failed")
)

// TransactionRepository is the storage collaborator of the engine.
// database.TransactionStore is the production implementation.
type TransactionRepository interface {
	GetAllTransactions(ctx context.Context) ([]models.Transaction, error)
	GetPremiumTransactions(ctx context.Context) ([]models.Transaction, error)
	ReplaceChainAssignments(ctx context.Context, assignments []models.ChainAssignment) error
	GetChainStatistics(ctx context.Context) (models.ChainStatistics, error)
	InsertTransactions(ctx context.Context, txs []models.Transaction) ([]int64, error)
}

// RebuildResult is returned by a successful chain rebuild.
type RebuildResult struct {
	Stats       models.ChainStats `json:"stats"`
	Assignments int               `json:"assignments"`
	Swept       int               `json:"swept"`
	AsOf        time.Time         `json:"as_of"`
	Duration    string            `json:"duration"`
}

// ChainService rebuilds position chains and reports on them.
type ChainService interface {
	// RebuildChains recomputes every chain from the full history and replaces
	// the stored assignments atomically. It either fully succeeds or leaves
	// storage unchanged.
	RebuildChains(ctx context.Context) (*RebuildResult, error)
	GetChainStatistics(ctx context.Context) (models.ChainStatistics, error)
}

// PremiumService computes the net premium report.
type PremiumService interface {
	GetPremiumSummary(ctx context.Context) (*models.PremiumSummary, error)
	InvalidateCache()
}

// TransactionService appends rows to the ledger.
type TransactionService interface {
	AddTransactions(ctx context.Context, txs []models.Transaction) ([]int64, error)
}
