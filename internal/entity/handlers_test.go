package entity_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/agropesa/backend-balanza/internal/entity"
)

type purgeRecorder struct {
	ledger     []string
	settlement []string
}

func (p *purgeRecorder) DeleteEntityData(_ context.Context, entityID string) {
	p.ledger = append(p.ledger, entityID)
}

func (p *purgeRecorder) DeleteData(_ context.Context, entityID string) {
	p.settlement = append(p.settlement, entityID)
}

type entityResponse struct {
	Data entity.Entity `json:"data"`
}

type entitiesResponse struct {
	Data []entity.Entity `json:"data"`
}

func newEntityRouter(t *testing.T) (*chi.Mux, *entity.Service, *purgeRecorder) {
	t.Helper()
	svc := newTestService(t, newTestStore(t))
	purges := &purgeRecorder{}
	handler := entity.NewHandler(entity.HandlerConfig{
		Service:    svc,
		Ledger:     purges,
		Settlement: purges,
	})

	r := chi.NewRouter()
	r.Route("/api/v1/entities", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Patch("/{entityID}", handler.Rename)
		r.Delete("/{entityID}", handler.Delete)
	})
	return r, svc, purges
}

func TestEntityEndpoints(t *testing.T) {
	router, svc, purges := newEntityRouter(t)

	t.Run("list filtered by type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entities?type=provider", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp entitiesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, entity.TypeProvider, resp.Data[0].Type)
	})

	t.Run("list rejects unknown type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entities?type=depot", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var created entity.Entity
	t.Run("create", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name": "Finca Alta", "type": "provider"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/entities", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp entityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Finca Alta", resp.Data.Name)
		created = resp.Data
	})

	t.Run("create rejects unknown type", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name": "Acopio", "type": "depot"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/entities", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rename", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name": "Finca Baja"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/entities/"+created.ID, body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp entityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Finca Baja", resp.Data.Name)
	})

	t.Run("delete cascades", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/entities/"+created.ID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, []string{created.ID}, purges.ledger)
		require.Equal(t, []string{created.ID}, purges.settlement)

		_, err := svc.Get(created.ID)
		require.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("guarded delete does not cascade", func(t *testing.T) {
		last := svc.List(entity.TypeClient)[0]
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/entities/"+last.ID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Len(t, purges.ledger, 1)
	})
}
