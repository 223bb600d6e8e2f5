package processors

import (
	"context"

	"github.com/username/wheelbook/backend/src/models"
)

// ChainProcessor reconstructs position chains from the full transaction history.
type ChainProcessor interface {
	Process(transactions []models.Transaction) *ChainResult
}

// PremiumProcessor computes net option premium per (date, symbol).
type PremiumProcessor interface {
	Process(ctx context.Context, transactions []models.Transaction) ([]models.PremiumEntry, error)
}
