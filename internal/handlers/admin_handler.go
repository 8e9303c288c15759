package handlers

import (
	"fmt"
	"net/http"
	"time"

	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// AdminHandler serves operator endpoints. Every route is admin-only.
type AdminHandler struct {
	exportService *service.ExportService
	familyService *service.FamilyService
	log           *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(exportService *service.ExportService, familyService *service.FamilyService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		exportService: exportService,
		familyService: familyService,
		log:           log,
	}
}

// ExportLedger streams the ledger export as a JSON download
func (h *AdminHandler) ExportLedger(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())

	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("kidcoins_ledger_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.exportService.ExportToWriter(r.Context(), w); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	h.log.WithField("admin_id", actor.ID).Info("ledger exported")
}

// Stats returns row counts of the domain tables
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.exportService.Stats(r.Context())
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// SweepInvitationCodes deletes expired unused invitation codes
func (h *AdminHandler) SweepInvitationCodes(w http.ResponseWriter, r *http.Request) {
	removed, err := h.familyService.SweepExpiredCodes(r.Context())
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
