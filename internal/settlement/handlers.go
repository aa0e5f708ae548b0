package settlement

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/agropesa/backend-balanza/internal/common"
)

// Handler wires the settlement service to HTTP.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// dataRequest updates settlement inputs. Absent fields are left
// untouched so the UI can save a single slider at a time.
type dataRequest struct {
	Prices      map[string]float64 `json:"prices" validate:"omitempty,dive,gte=0"`
	FreightRate *float64           `json:"freightRate" validate:"omitempty,gte=0"`
	SackValue   *float64           `json:"sackValue" validate:"omitempty,gte=0"`
}

// Summary handles GET /api/v1/entities/{entityID}/settlement.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settlement service not configured", nil)
		return
	}
	entityID := chi.URLParam(r, "entityID")
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"summary":  h.service.Summary(r.Context(), entityID),
			"inputs":   h.service.DataFor(r.Context(), entityID),
			"entityId": entityID,
		},
	})
}

// Update handles PUT /api/v1/entities/{entityID}/settlement.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settlement service not configured", nil)
		return
	}
	var payload dataRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALUE", "invalid request payload", nil)
		return
	}

	ctx := r.Context()
	entityID := chi.URLParam(r, "entityID")
	for categoryID, price := range payload.Prices {
		h.service.SetPrice(ctx, entityID, categoryID, price)
	}
	if payload.FreightRate != nil {
		h.service.SetFreightRate(ctx, entityID, *payload.FreightRate)
	}
	if payload.SackValue != nil {
		h.service.SetSackValue(ctx, entityID, *payload.SackValue)
	}

	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"inputs":  h.service.DataFor(ctx, entityID),
			"summary": h.service.Summary(ctx, entityID),
		},
	})
}
