// src/handlers/chain_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/services"
	"github.com/username/wheelbook/backend/src/utils"
)

type ChainHandler struct {
	chainService services.ChainService
}

func NewChainHandler(chainService services.ChainService) *ChainHandler {
	return &ChainHandler{chainService: chainService}
}

// HandleRebuildChains recomputes every chain and returns the rebuild statistics.
func (h *ChainHandler) HandleRebuildChains(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	ctxLogger.Info("Handling chain rebuild request")

	result, err := h.chainService.RebuildChains(r.Context())
	if err != nil {
		ctxLogger.Error("Chain rebuild failed", "error", err)
		utils.SendJSONError(w, "Failed to rebuild chains", statusForServiceError(err))
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *ChainHandler) HandleGetChainStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.chainService.GetChainStatistics(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load chain statistics", "error", err)
		utils.SendJSONError(w, "Failed to load chain statistics", statusForServiceError(err))
		return
	}
	utils.SendJSON(w, stats, http.StatusOK)
}

func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidTransaction):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
