// src/database/transaction_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/parsers"
	"github.com/username/wheelbook/backend/src/utils"
)

const transactionColumns = `id, date, action, instrument, symbol, raw_symbol, quantity, amount, description, chain_id, chain_close_date`

// TransactionStore is the SQLite-backed transaction ledger read and rewritten by chain rebuilds.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// GetAllTransactions returns every equity and option row ordered by (date, id).
func (s *TransactionStore) GetAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE instrument IN (?, ?)
		ORDER BY date ASC, id ASC`
	return s.queryTransactions(ctx, query, string(models.InstrumentEquity), string(models.InstrumentOption))
}

// GetPremiumTransactions returns the rows taking part in premium reconciliation:
// option sells, buys and buy-to-covers plus equity purchases, ordered by (date, symbol, id).
func (s *TransactionStore) GetPremiumTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE (instrument = ? AND action IN (?, ?, ?, ?))
		   OR (instrument = ? AND action = ?)
		ORDER BY date ASC, symbol ASC, id ASC`
	return s.queryTransactions(ctx, query,
		string(models.InstrumentOption), string(models.ActionSold), string(models.ActionSoldShort),
		string(models.ActionBoughtToCover), string(models.ActionBoughtOpen),
		string(models.InstrumentEquity), string(models.ActionBoughtOpen),
	)
}

// ReplaceChainAssignments clears every chain assignment and writes the given ones
// in a single transaction. On any error nothing is committed.
func (s *TransactionStore) ReplaceChainAssignments(ctx context.Context, assignments []models.ChainAssignment) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chain assignment transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `UPDATE transactions SET chain_id = NULL, chain_close_date = NULL`); err != nil {
		return fmt.Errorf("failed to clear chain assignments: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `UPDATE transactions SET chain_id = ?, chain_close_date = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare chain assignment statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		var closeDate sql.NullString
		if a.CloseDate != nil {
			closeDate = sql.NullString{String: a.CloseDate.Format(models.DateLayout), Valid: true}
		}
		res, err := stmt.ExecContext(ctx, a.ChainID, closeDate, a.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to assign chain %s to transaction %d: %w", a.ChainID, a.TransactionID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("failed to assign chain %s: transaction %d does not exist", a.ChainID, a.TransactionID)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chain assignments: %w", err)
	}
	logger.L.Info("Chain assignments replaced", "count", len(assignments))
	return nil
}

// GetChainStatistics aggregates the stored chain assignments.
func (s *TransactionStore) GetChainStatistics(ctx context.Context) (models.ChainStatistics, error) {
	var stats models.ChainStatistics
	query := `
		SELECT
			COUNT(*),
			COUNT(chain_id),
			COUNT(DISTINCT chain_id),
			COUNT(DISTINCT CASE WHEN chain_close_date IS NOT NULL THEN chain_id END),
			COALESCE(SUM(CASE WHEN chain_id IS NOT NULL AND instrument = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN chain_id IS NOT NULL AND instrument = ? THEN 1 ELSE 0 END), 0)
		FROM transactions`
	err := s.db.QueryRowContext(ctx, query, string(models.InstrumentEquity), string(models.InstrumentOption)).Scan(
		&stats.Total, &stats.Chained, &stats.TotalChains, &stats.Closed, &stats.EquityChained, &stats.OptionChained,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to query chain statistics: %w", err)
	}
	return stats, nil
}

// InsertTransactions appends rows to the ledger and returns their insertion ids.
func (s *TransactionStore) InsertTransactions(ctx context.Context, txs []models.Transaction) ([]int64, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (date, action, instrument, symbol, raw_symbol, quantity, amount, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(txs))
	for _, tx := range txs {
		res, err := stmt.ExecContext(ctx,
			tx.Date.Format(models.DateLayout), string(tx.Action), string(tx.Instrument),
			tx.Symbol, tx.RawSymbol, tx.Quantity.String(), tx.Amount.String(), tx.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction for %s: %w", tx.Symbol, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read inserted id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit inserted transactions: %w", err)
	}
	return ids, nil
}

func (s *TransactionStore) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, ok, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			txs = append(txs, tx)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}

// scanTransaction reads one row. Rows that cannot be normalized are logged and
// reported with ok=false so a single bad row never aborts a rebuild.
func scanTransaction(rows *sql.Rows) (models.Transaction, bool, error) {
	var (
		tx                       models.Transaction
		date, action, instrument string
		quantity, amount         string
		chainID, chainCloseDate  sql.NullString
	)
	if err := rows.Scan(&tx.ID, &date, &action, &instrument, &tx.Symbol, &tx.RawSymbol,
		&quantity, &amount, &tx.Description, &chainID, &chainCloseDate); err != nil {
		return tx, false, fmt.Errorf("failed to scan transaction row: %w", err)
	}

	var err error
	if tx.Date, err = time.Parse(models.DateLayout, date); err != nil {
		logger.L.Warn("Skipping transaction with malformed date", "id", tx.ID, "date", date)
		return tx, false, nil
	}
	if tx.Action, err = parsers.ParseAction(action); err != nil {
		logger.L.Warn("Skipping transaction with unknown action", "id", tx.ID, "error", err)
		return tx, false, nil
	}
	if tx.Instrument, err = parsers.ParseInstrument(instrument); err != nil {
		logger.L.Warn("Skipping transaction with unknown instrument", "id", tx.ID, "error", err)
		return tx, false, nil
	}
	if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
		logger.L.Warn("Skipping transaction with malformed quantity", "id", tx.ID, "quantity", quantity)
		return tx, false, nil
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		logger.L.Warn("Skipping transaction with malformed amount", "id", tx.ID, "amount", amount)
		return tx, false, nil
	}

	tx.ChainID = chainID.String
	if chainCloseDate.Valid {
		if d := utils.ParseDate(chainCloseDate.String); !d.IsZero() {
			tx.ChainCloseDate = &d
		}
	}
	return tx, true, nil
}
