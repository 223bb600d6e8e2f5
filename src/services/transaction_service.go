// src/services/transaction_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/parsers"
	"github.com/username/wheelbook/backend/src/security/validation"
)

type transactionServiceImpl struct {
	repo    TransactionRepository
	premium PremiumService
}

func NewTransactionService(repo TransactionRepository, premium PremiumService) TransactionService {
	return &transactionServiceImpl{repo: repo, premium: premium}
}

// AddTransactions validates and appends rows. Chains are not rebuilt here;
// callers trigger a rebuild when they are done appending.
func (s *transactionServiceImpl) AddTransactions(ctx context.Context, txs []models.Transaction) ([]int64, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("%w: no transactions given", ErrInvalidTransaction)
	}
	for i := range txs {
		if err := validateTransaction(&txs[i]); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidTransaction, i, err)
		}
	}

	ids, err := s.repo.InsertTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	s.premium.InvalidateCache()
	logger.FromContext(ctx).Info("Transactions appended", "count", len(ids))
	return ids, nil
}

func validateTransaction(tx *models.Transaction) error {
	tx.Symbol = strings.ToUpper(strings.TrimSpace(tx.Symbol))
	if err := validation.ValidateSymbol(tx.Symbol); err != nil {
		return err
	}
	if err := validation.ValidateFreeText(tx.Description, validation.MaxDescriptionLength, "description", tx.Symbol); err != nil {
		return err
	}
	if err := validation.ValidateFreeText(tx.RawSymbol, validation.MaxRawSymbolLength, "raw_symbol", tx.Symbol); err != nil {
		return err
	}
	action, err := parsers.ParseAction(string(tx.Action))
	if err != nil {
		return err
	}
	tx.Action = action
	instrument, err := parsers.ParseInstrument(string(tx.Instrument))
	if err != nil {
		return err
	}
	tx.Instrument = instrument
	if tx.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if tx.Quantity.IsZero() && tx.Action != models.ActionOptionExpired {
		return fmt.Errorf("quantity must not be zero")
	}
	if tx.IsOption() {
		if _, ok := parsers.ParseOptionIdentityFrom(tx.RawSymbol, tx.Description); !ok {
			logger.L.Warn("Option row has no recognizable contract description; it will be skipped by chain rebuilds",
				"symbol", tx.Symbol, "description", tx.Description)
		}
	}
	return nil
}
