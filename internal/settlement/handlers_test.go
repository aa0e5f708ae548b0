package settlement_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/agropesa/backend-balanza/internal/settlement"
)

type summaryResponse struct {
	Data struct {
		Summary settlement.Summary `json:"summary"`
		Inputs  settlement.Data    `json:"inputs"`
	} `json:"data"`
}

func newSettlementRouter(t *testing.T) *chi.Mux {
	t.Helper()
	source := fakeSource{
		categories: testCategories,
		weights:    map[string]map[string]float64{"farm-1": {"cat-a": 100, "cat-b": 50}},
	}
	svc := newSettlementService(t, newSettlementStore(t), source)
	handler := settlement.NewHandler(settlement.HandlerConfig{Service: svc})

	r := chi.NewRouter()
	r.Route("/api/v1/entities/{entityID}/settlement", func(r chi.Router) {
		r.Get("/", handler.Summary)
		r.Put("/", handler.Update)
	})
	return r
}

func TestSettlementEndpoints(t *testing.T) {
	router := newSettlementRouter(t)

	t.Run("update then summary", func(t *testing.T) {
		body, err := json.Marshal(map[string]any{
			"prices":      map[string]float64{"cat-a": 2, "cat-b": 3},
			"freightRate": 0.5,
			"sackValue":   20,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/entities/farm-1/settlement", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		greq := httptest.NewRequest(http.MethodGet, "/api/v1/entities/farm-1/settlement", nil)
		grec := httptest.NewRecorder()
		router.ServeHTTP(grec, greq)
		require.Equal(t, http.StatusOK, grec.Code)

		var resp summaryResponse
		require.NoError(t, json.Unmarshal(grec.Body.Bytes(), &resp))
		require.True(t, resp.Data.Summary.HasData)
		require.Equal(t, 350.0, resp.Data.Summary.GrossTotal)
		require.Equal(t, 295.0, resp.Data.Summary.FinalAmount)
		require.Equal(t, 0.5, resp.Data.Inputs.FreightRate)
	})

	t.Run("partial update keeps other inputs", func(t *testing.T) {
		body := bytes.NewBufferString(`{"sackValue": 35}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/entities/farm-1/settlement", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp summaryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 35.0, resp.Data.Inputs.SackValue)
		require.Equal(t, 0.5, resp.Data.Inputs.FreightRate)
		require.Equal(t, 310.0, resp.Data.Summary.FinalAmount)
	})

	t.Run("negative input rejected", func(t *testing.T) {
		body := bytes.NewBufferString(`{"freightRate": -1}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/entities/farm-1/settlement", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad json rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/entities/farm-1/settlement", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("summary for entity without readings", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entities/farm-9/settlement", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp summaryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.False(t, resp.Data.Summary.HasData)
	})
}
