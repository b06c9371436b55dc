package config

import (
	"encoding/json"
	"net/http"

	coreconfig "fairvalue/pkg/core/config"
	"fairvalue/pkg/core/store"
)

type Response struct {
	QuoteBaseURL        string  `json:"quote_base_url"`
	CacheTTLSeconds     int     `json:"cache_ttl_seconds"`
	DefaultMoSPercent   float64 `json:"default_mos_percent"`
	ClassifyBandPercent float64 `json:"classify_band_percent"`
	DatabaseConnected   bool    `json:"database_connected"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Cfg coreconfig.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg coreconfig.Config) *Handler {
	return &Handler{Cfg: cfg}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	resp := Response{
		QuoteBaseURL:        h.Cfg.Provider.QuoteBaseURL,
		CacheTTLSeconds:     h.Cfg.Provider.CacheTTLSeconds,
		DefaultMoSPercent:   h.Cfg.Valuation.DefaultMoSPercent,
		ClassifyBandPercent: h.Cfg.Valuation.ClassifyBandPercent,
		DatabaseConnected:   store.GetPool() != nil,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
