// src/handlers/transaction_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/models"
	"github.com/username/wheelbook/backend/src/services"
	"github.com/username/wheelbook/backend/src/utils"
)

// maxManualBatch bounds one manual insert request.
const maxManualBatch = 500

type TransactionHandler struct {
	transactionService services.TransactionService
}

func NewTransactionHandler(transactionService services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// ManualTransactionRequest is one row of a manual insert. Action and instrument
// accept broker wording ("Sell Short", "stock").
type ManualTransactionRequest struct {
	Date        string          `json:"date"`
	Action      string          `json:"action"`
	Instrument  string          `json:"instrument"`
	Symbol      string          `json:"symbol"`
	RawSymbol   string          `json:"raw_symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type addTransactionsRequest struct {
	Transactions []ManualTransactionRequest `json:"transactions"`
}

type addTransactionsResponse struct {
	IDs []int64 `json:"ids"`
}

// HandleAddTransactions appends manually entered rows to the ledger.
func (h *TransactionHandler) HandleAddTransactions(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req addTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Transactions) == 0 {
		utils.SendJSONError(w, "At least one transaction is required", http.StatusBadRequest)
		return
	}
	if len(req.Transactions) > maxManualBatch {
		utils.SendJSONError(w, fmt.Sprintf("At most %d transactions per request", maxManualBatch), http.StatusBadRequest)
		return
	}

	txs := make([]models.Transaction, 0, len(req.Transactions))
	for i, in := range req.Transactions {
		tx, err := in.toTransaction()
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Invalid transaction %d: %v", i, err), http.StatusBadRequest)
			return
		}
		txs = append(txs, tx)
	}

	ids, err := h.transactionService.AddTransactions(r.Context(), txs)
	if err != nil {
		ctxLogger.Warn("Manual transaction insert failed", "error", err)
		utils.SendJSONError(w, err.Error(), statusForServiceError(err))
		return
	}
	ctxLogger.Info("Manual transactions added", "count", len(ids))
	utils.SendJSON(w, addTransactionsResponse{IDs: ids}, http.StatusCreated)
}

func (in ManualTransactionRequest) toTransaction() (models.Transaction, error) {
	date, err := utils.ParseDateStrict(in.Date)
	if err != nil {
		return models.Transaction{}, err
	}
	return models.Transaction{
		Date:        date,
		Action:      models.Action(in.Action),
		Instrument:  models.Instrument(in.Instrument),
		Symbol:      in.Symbol,
		RawSymbol:   in.RawSymbol,
		Quantity:    in.Quantity,
		Amount:      in.Amount,
		Description: in.Description,
	}, nil
}
