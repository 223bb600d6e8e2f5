// src/handlers/premium_handler.go
package handlers

import (
	"net/http"

	"github.com/username/wheelbook/backend/src/logger"
	"github.com/username/wheelbook/backend/src/services"
	"github.com/username/wheelbook/backend/src/utils"
)

type PremiumHandler struct {
	premiumService services.PremiumService
}

func NewPremiumHandler(premiumService services.PremiumService) *PremiumHandler {
	return &PremiumHandler{premiumService: premiumService}
}

// HandleGetPremiumSummary returns the net premium entries with weekly and monthly roll-ups.
// With ?period=weekly or ?period=monthly only that roll-up is returned.
func (h *PremiumHandler) HandleGetPremiumSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.premiumService.GetPremiumSummary(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute premium summary", "error", err)
		utils.SendJSONError(w, "Failed to compute premium summary", statusForServiceError(err))
		return
	}

	switch r.URL.Query().Get("period") {
	case "":
		utils.SendJSON(w, summary, http.StatusOK)
	case "weekly":
		utils.SendJSON(w, summary.Weekly, http.StatusOK)
	case "monthly":
		utils.SendJSON(w, summary.Monthly, http.StatusOK)
	default:
		utils.SendJSONError(w, "period must be 'weekly' or 'monthly'", http.StatusBadRequest)
	}
}
