package handler

import (
	"context"
	"encoding/json"
	"errors"
	"microfinance-backend/internal/api/handler/dto"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandlerHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all services up", func(t *testing.T) {
		handler := NewSystemHandler(map[string]PingFunc{"postgres": ok, "redis": ok}, logger)
		rec := httptest.NewRecorder()
		handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, map[string]string{"postgres": "up", "redis": "up"}, resp.Services)
	})

	t.Run("degraded when a check fails", func(t *testing.T) {
		handler := NewSystemHandler(map[string]PingFunc{"postgres": ok, "redis": down}, logger)
		rec := httptest.NewRecorder()
		handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp dto.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "down", resp.Services["redis"])
	})

	t.Run("nil checks are skipped", func(t *testing.T) {
		handler := NewSystemHandler(map[string]PingFunc{"postgres": ok, "redis": nil}, logger)
		rec := httptest.NewRecorder()
		handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "redis")
	})
}

func TestSystemHandlerRootAndTest(t *testing.T) {
	handler := NewSystemHandler(nil, logger)

	rec := httptest.NewRecorder()
	handler.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var root dto.RootResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&root))
	assert.Equal(t, "microfinance-backend", root.Service)

	rec = httptest.NewRecorder()
	handler.Test(rec, httptest.NewRequest(http.MethodGet, "/api/manager/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Manager API is working"}`, rec.Body.String())
}
