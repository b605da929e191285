package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/preventivo-app/preventivo/internal/auth"
	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/service"
	"go.uber.org/zap"
)

type OfferHandler struct {
	offerService *service.OfferService
	logger       *zap.Logger
}

func NewOfferHandler(offerService *service.OfferService, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
		logger:       logger,
	}
}

func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	offers, err := h.offerService.List(r.Context(), user.UserID)
	if err != nil {
		h.logger.Error("failed to list offers", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list offers")
		return
	}

	respondJSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	offers, err := h.offerService.ListPublic(r.Context())
	if err != nil {
		h.logger.Error("failed to list public offers", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list offers")
		return
	}

	respondJSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var doc domain.OfferDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := doc.ValidateForSave(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.offerService.Create(r.Context(), user.UserID, &doc)
	if err != nil {
		h.logger.Error("failed to create offer", zap.Error(err))
		h.handleOfferError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/offers/"+created.ID)
	respondJSON(w, http.StatusCreated, created)
}

func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid offer ID: must be a valid UUID")
		return
	}

	offer, err := h.offerService.GetByID(r.Context(), user.UserID, id)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			h.logger.Error("failed to get offer", zap.Error(err), zap.String("offer_id", id.String()))
		}
		h.handleOfferError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid offer ID: must be a valid UUID")
		return
	}

	var doc domain.OfferDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := doc.ValidateForSave(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.offerService.Update(r.Context(), user.UserID, id, &doc)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			h.logger.Error("failed to update offer", zap.Error(err), zap.String("offer_id", id.String()))
		}
		h.handleOfferError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid offer ID: must be a valid UUID")
		return
	}

	if err := h.offerService.Delete(r.Context(), user.UserID, id); err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			h.logger.Error("failed to delete offer", zap.Error(err), zap.String("offer_id", id.String()))
		}
		h.handleOfferError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OfferHandler) handleOfferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Offer not found")
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
