package health

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Configurer reports whether the catalog client has credentials.
type Configurer interface {
	Configured() bool
}

// HealthHandler reports that the server is up and whether Spotify is configured.
type HealthHandler struct {
	log     *zap.SugaredLogger
	catalog Configurer
}

func (*HealthHandler) Pattern() string {
	return "/"
}

func (*HealthHandler) Methods() []string {
	return []string{http.MethodGet}
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(log *zap.SugaredLogger, catalog Configurer) *HealthHandler {
	return &HealthHandler{
		log:     log,
		catalog: catalog,
	}
}

type Response struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	SpotifyConfigured bool   `json:"spotify_configured"`
}

// Health check
// @Summary Health check
// @Description Reports that the API is online and whether Spotify credentials are set
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Router / [get]
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:  "online",
		Message: "Music Label Matcher API",
	}

	// Make sure Spotify client is set up properly
	if h.catalog != nil && h.catalog.Configured() {
		resp.SpotifyConfigured = true
	}

	h.log.Debugw("health check", "spotify_configured", resp.SpotifyConfigured)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
