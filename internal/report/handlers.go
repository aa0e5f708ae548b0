package report

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agropesa/backend-balanza/internal/common"
	"github.com/agropesa/backend-balanza/internal/entity"
	"github.com/agropesa/backend-balanza/internal/obs"
	"github.com/agropesa/backend-balanza/internal/settlement"
)

// SummarySource derives the settlement summary to export.
type SummarySource interface {
	Summary(ctx context.Context, entityID string) settlement.Summary
}

// EntityNamer resolves the entity named in the document header.
type EntityNamer interface {
	Get(id string) (entity.Entity, error)
}

// Handler serves settlement exports.
type Handler struct {
	summaries   SummarySource
	entities    EntityNamer
	stationName string
	currency    string
	now         func() time.Time
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Summaries   SummarySource
	Entities    EntityNamer
	StationName string
	Currency    string
	Now         func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		summaries:   cfg.Summaries,
		entities:    cfg.Entities,
		stationName: cfg.StationName,
		currency:    cfg.Currency,
		now:         cfg.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Export handles GET /api/v1/entities/{entityID}/settlement/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.summaries == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "report handler not configured", nil)
		return
	}
	entityID := chi.URLParam(r, "entityID")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	entityName := entityID
	if h.entities != nil {
		if e, err := h.entities.Get(entityID); err == nil {
			entityName = e.Name
		}
	}

	meta := Meta{
		StationName: h.stationName,
		EntityName:  entityName,
		Currency:    h.currency,
		GeneratedAt: h.now(),
	}
	summary := h.summaries.Summary(r.Context(), entityID)

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case "pdf":
		payload, err = BuildTicketPDF(summary, meta)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = BuildSummaryXLSX(summary, meta)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		common.JSONError(w, http.StatusBadRequest, "INVALID_FORMAT", "format must be pdf or xlsx", nil)
		return
	}
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to render export", nil)
		return
	}

	if obs.ExportsTotal != nil {
		obs.ExportsTotal.WithLabelValues(format).Inc()
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=settlement-%s.%s", entityID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
