package ledger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/agropesa/backend-balanza/internal/common"
	"github.com/agropesa/backend-balanza/internal/obs"
)

// Handler wires the ledger service to HTTP.
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

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
}

type weightRequest struct {
	Value float64 `json:"value" validate:"required,gt=0"`
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.service.Categories()})
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	var payload categoryRequest
	if !h.decode(w, r, &payload) {
		return
	}
	category, err := h.service.AddCategory(r.Context(), payload.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": category})
}

// RenameCategory handles PATCH /api/v1/categories/{categoryID}.
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	var payload categoryRequest
	if !h.decode(w, r, &payload) {
		return
	}
	category, err := h.service.RenameCategory(r.Context(), chi.URLParam(r, "categoryID"), payload.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": category})
}

// DeleteCategory handles DELETE /api/v1/categories/{categoryID}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendWeight handles POST /api/v1/entities/{entityID}/categories/{categoryID}/weights.
func (h *Handler) AppendWeight(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	var payload weightRequest
	if !h.decode(w, r, &payload) {
		return
	}
	entityID := chi.URLParam(r, "entityID")
	categoryID := chi.URLParam(r, "categoryID")
	entry, err := h.service.Append(r.Context(), entityID, categoryID, payload.Value)
	if err != nil {
		h.countWeighIn("append", "error")
		h.writeError(w, err)
		return
	}
	h.countWeighIn("append", "ok")
	current, _ := h.service.CurrentBatch(entityID, categoryID)
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"entry":        entry,
			"currentBatch": current,
		},
	})
}

// UpdateWeight handles PATCH /api/v1/entities/{entityID}/categories/{categoryID}/weights/{entryID}.
func (h *Handler) UpdateWeight(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	var payload weightRequest
	if !h.decode(w, r, &payload) {
		return
	}
	err := h.service.UpdateEntry(r.Context(), chi.URLParam(r, "entityID"), chi.URLParam(r, "categoryID"), chi.URLParam(r, "entryID"), payload.Value)
	if err != nil {
		h.countWeighIn("update", "error")
		h.writeError(w, err)
		return
	}
	h.countWeighIn("update", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteWeight handles DELETE /api/v1/entities/{entityID}/categories/{categoryID}/weights/{entryID}.
func (h *Handler) DeleteWeight(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	err := h.service.DeleteEntry(r.Context(), chi.URLParam(r, "entityID"), chi.URLParam(r, "categoryID"), chi.URLParam(r, "entryID"))
	if err != nil {
		h.countWeighIn("delete", "error")
		h.writeError(w, err)
		return
	}
	h.countWeighIn("delete", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// Batches handles GET /api/v1/entities/{entityID}/categories/{categoryID}/batches.
func (h *Handler) Batches(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	entityID := chi.URLParam(r, "entityID")
	categoryID := chi.URLParam(r, "categoryID")
	batches := h.service.Batches(entityID, categoryID)
	var current any
	if open, ok := h.service.CurrentBatch(entityID, categoryID); ok {
		current = open
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"batches":      batches,
			"currentBatch": current,
			"totalWeight":  h.service.TotalWeight(entityID, categoryID),
			"totalEntries": h.service.TotalEntries(entityID, categoryID),
		},
	})
}

// CategoryStats handles GET /api/v1/entities/{entityID}/categories/{categoryID}/stats.
func (h *Handler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	stats := h.service.CategoryStats(chi.URLParam(r, "entityID"), chi.URLParam(r, "categoryID"))
	common.JSON(w, http.StatusOK, map[string]any{"data": stats})
}

// EntityStats handles GET /api/v1/entities/{entityID}/stats.
func (h *Handler) EntityStats(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	entityID := chi.URLParam(r, "entityID")
	stats := h.service.EntityStats(entityID)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"totalWeight":     stats.TotalWeight,
			"totalEntries":    stats.TotalEntries,
			"closedBatches":   stats.ClosedBatches,
			"categoryWeights": h.service.CategoryWeights(entityID),
		},
	})
}

// decode parses and validates the JSON request body. It writes the error
// response itself and reports whether the payload is usable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALUE", "invalid request payload", nil)
		return false
	}
	return true
}

func (h *Handler) countWeighIn(op, result string) {
	if obs.WeighInsTotal != nil {
		obs.WeighInsTotal.WithLabelValues(op, result).Inc()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidValue):
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALUE", "value must be positive and names non-empty", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, ErrDuplicateName):
		common.JSONError(w, http.StatusConflict, "DUPLICATE_NAME", "a category with that name already exists", nil)
	case errors.Is(err, ErrGuardedDeletion):
		common.JSONError(w, http.StatusConflict, "DELETION_NOT_ALLOWED", "this category cannot be deleted", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
