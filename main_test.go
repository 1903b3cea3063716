package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mager/auricle/config"
	"github.com/mager/auricle/dsp"
	"github.com/mager/auricle/handler/analyze"
	"github.com/mager/auricle/handler/health"
	"github.com/mager/auricle/logger"
	"github.com/mager/auricle/recommend"
	"github.com/mager/auricle/spotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestOptionsValidate(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	err := fx.ValidateApp(Options(), fx.Invoke(func(*http.Server) {}))
	assert.NoError(t, err)
}

func newTestServer(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	log, _ := logger.NewTestLogger()
	catalog := spotify.ProvideSpotify(cfg, log)

	router := NewRouter([]Route{
		health.NewHealthHandler(log, catalog),
		analyze.NewAnalyzeHandler(log, cfg, dsp.NewAnalyzer(), recommend.NewRecommender(log, catalog)),
	})
	return corsMiddleware(cfg.CORSOrigins, jsonMiddleware(router))
}

func TestRouterHealth(t *testing.T) {
	srv := newTestServer(t, config.Config{CORSOrigins: []string{"*"}})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	var resp health.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "online", resp.Status)
	assert.False(t, resp.SpotifyConfigured)
}

func TestRouterMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, config.Config{})

	tests := []struct {
		method, path string
		status       int
		detail       string
	}{
		{http.MethodGet, "/analyze", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{http.MethodPost, "/", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{http.MethodGet, "/missing", http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

		assert.Equal(t, tt.status, rr.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var resp analyze.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
		assert.Equal(t, tt.detail, resp.Detail)
	}
}

func TestRouterAnalyzeRejectsText(t *testing.T) {
	srv := newTestServer(t, config.Config{SampleRate: 22050, MaxUploadMB: 1, TempDir: t.TempDir()})

	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp analyze.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Detail)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, config.Config{CORSOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://app.example")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestPlaceholderWithoutCredentials(t *testing.T) {
	log, _ := logger.NewTestLogger()
	catalog := spotify.ProvideSpotify(config.Config{}, log)

	got := recommend.NewRecommender(log, catalog).Recommend(context.Background(), 120)

	assert.Equal(t, recommend.Placeholder, got)
}
