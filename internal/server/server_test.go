package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/registry"
	"github.com/quantcore/analytics-core/internal/core/types"
	"github.com/quantcore/analytics-core/internal/server"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	log := zerolog.Nop()
	reg := registry.New(log)
	reg.RegisterModule("echo", registry.Capability{
		ID:          "ping",
		ParamSchema: []string{"value"},
		Handler: func(ctx context.Context, params map[string]any) types.Result {
			return types.Ok(params["value"], &types.Meta{})
		},
	})
	d := dispatcher.New(reg, 2, log)
	s := server.New(server.Config{Log: log, Dispatcher: d, Port: 0, DevMode: true})
	return s.Router()
}

func TestHandleDispatch_Success(t *testing.T) {
	h := newTestServer(t)
	body, _ := json.Marshal(map[string]any{"params": map[string]any{"value": 7}})
	req := httptest.NewRequest(http.MethodPost, "/api/echo/ping", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result types.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.OK)
}

func TestHandleDispatch_UnknownModuleReturns404(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/nope/ping", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDispatch_MalformedBodyReturns400(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/echo/ping", bytes.NewReader([]byte(`{not json`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
