package handler

import (
	"encoding/json"
	"net/http"

	"github.com/preventivo-app/preventivo/internal/auth"
	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/service"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	settings, err := h.settingsService.Get(r.Context(), user.UserID)
	if err != nil {
		h.logger.Error("failed to get settings", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req domain.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	settings, err := h.settingsService.Update(r.Context(), user.UserID, &req)
	if err != nil {
		h.logger.Error("failed to update settings", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}
