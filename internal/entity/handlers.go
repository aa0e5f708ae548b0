package entity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/agropesa/backend-balanza/internal/common"
)

// LedgerPurger removes an entity's batch sequences when the entity is
// deleted.
type LedgerPurger interface {
	DeleteEntityData(ctx context.Context, entityID string)
}

// SettlementPurger removes an entity's settlement inputs when the
// entity is deleted.
type SettlementPurger interface {
	DeleteData(ctx context.Context, entityID string)
}

// Handler wires the entity directory to HTTP.
type Handler struct {
	service    *Service
	ledger     LedgerPurger
	settlement SettlementPurger
	validate   *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service    *Service
	Ledger     LedgerPurger
	Settlement SettlementPurger
	Validator  *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, ledger: cfg.Ledger, settlement: cfg.Settlement, validate: v}
}

type createRequest struct {
	Name string `json:"name" validate:"required"`
	Type Type   `json:"type" validate:"required,oneof=provider client warehouse"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required"`
}

// List handles GET /api/v1/entities with an optional type filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "entity service not configured", nil)
		return
	}
	typ := Type(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALUE", "unknown entity type", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.service.List(typ)})
}

// Create handles POST /api/v1/entities.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "entity service not configured", nil)
		return
	}
	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALUE", "invalid request payload", nil)
		return
	}
	created, err := h.service.Add(r.Context(), payload.Name, payload.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Rename handles PATCH /api/v1/entities/{entityID}.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "entity service not configured", nil)
		return
	}
	var payload renameRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALUE", "invalid request payload", nil)
		return
	}
	renamed, err := h.service.Rename(r.Context(), chi.URLParam(r, "entityID"), payload.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": renamed})
}

// Delete handles DELETE /api/v1/entities/{entityID}. Removing an entity
// also drops its ledger batches and settlement inputs.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "entity service not configured", nil)
		return
	}
	entityID := chi.URLParam(r, "entityID")
	if err := h.service.Delete(r.Context(), entityID); err != nil {
		h.writeError(w, err)
		return
	}
	if h.ledger != nil {
		h.ledger.DeleteEntityData(r.Context(), entityID)
	}
	if h.settlement != nil {
		h.settlement.DeleteData(r.Context(), entityID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALUE", "name and type are required", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "entity not found", nil)
	case errors.Is(err, ErrDuplicateName):
		common.JSONError(w, http.StatusConflict, "DUPLICATE_NAME", "an entity with that name already exists", nil)
	case errors.Is(err, ErrGuardedDeletion):
		common.JSONError(w, http.StatusConflict, "DELETION_NOT_ALLOWED", "the last entity of a type cannot be deleted", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
