package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fairvalue/pkg/core/config"
	"fairvalue/pkg/core/marketdata"
	"fairvalue/pkg/core/report"
	"fairvalue/pkg/core/scenario"
	"fairvalue/pkg/core/store"
	corevaluation "fairvalue/pkg/core/valuation"
)

var (
	marketSvc *marketdata.Service
	runCache  *store.RunCache
	cfg       config.Config
)

// InitHandler wires the handler dependencies. Call once at startup.
func InitHandler(svc *marketdata.Service, runs *store.RunCache, c config.Config) {
	marketSvc = svc
	runCache = runs
	cfg = c
}

type DCFRequest struct {
	Ticker     string        `json:"ticker"`
	MoSPercent *float64      `json:"mos_percent,omitempty"`
	Scenarios  *scenario.Set `json:"scenarios,omitempty"` // user-edited override
}

type DCFResponse struct {
	Run       *corevaluation.ValuationRun `json:"run"`
	Scenarios scenario.Set                `json:"scenarios"`
}

type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleDCF runs the full pipeline for one ticker: fetch market data, derive
// (or accept) the scenario set, run all three scenarios, classify, persist.
func HandleDCF(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req DCFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	mos := cfg.Valuation.DefaultMoSPercent
	if req.MoSPercent != nil {
		mos = *req.MoSPercent
	}
	fmt.Printf("[VALUATION] Request: %s (mos=%.0f%%)\n", ticker, mos)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	data, err := marketSvc.FetchCompanyData(ctx, ticker)
	if err != nil {
		fmt.Printf("[VALUATION] Fetch failed for %s: %v\n", ticker, err)
		status := http.StatusBadGateway
		if strings.Contains(err.Error(), "no data returned") {
			status = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("market data fetch failed: %v", err), status)
		return
	}

	var set scenario.Set
	if req.Scenarios != nil {
		// User-edited assumptions must pass engine validation untouched;
		// auto-correcting them here would hide the user's mistake.
		for name, s := range map[string]corevaluation.ScenarioInput{
			"bull": req.Scenarios.Bull, "base": req.Scenarios.Base, "bear": req.Scenarios.Bear,
		} {
			if err := corevaluation.ValidateScenarioInput(s); err != nil {
				http.Error(w, fmt.Sprintf("%s scenario invalid: %v", name, err), http.StatusBadRequest)
				return
			}
		}
		set = *req.Scenarios
	} else {
		set = scenario.ForCompany(data.Fundamentals, data.Estimates)
	}

	run, err := corevaluation.RunAllScenarios(data.Snapshot, set.Bull, set.Base, set.Bear, mos)
	if err != nil {
		// Positive-input violations mean unusable upstream data, not a bad request.
		fmt.Printf("[VALUATION] Run failed for %s: %v\n", ticker, err)
		http.Error(w, fmt.Sprintf("valuation failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	if cfg.Valuation.ClassifyBandPercent > 0 {
		run.Classification = corevaluation.Classify(run.Base.Result.UpsideVsPricePercent, cfg.Valuation.ClassifyBandPercent)
	}

	if err := runCache.Save(ctx, run); err != nil {
		fmt.Printf("[WARNING] Failed to persist run %s: %v\n", run.RunID, err)
	}

	fmt.Printf("[VALUATION] %s base fair value $%.2f (%s)\n", ticker, run.Base.Result.FairValuePerShare, run.Classification)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DCFResponse{Run: run, Scenarios: set})
}

// HandleValidate checks a single user-edited scenario without running it.
func HandleValidate(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var s corevaluation.ScenarioInput
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := corevaluation.ValidateScenarioInput(s); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ValidateResponse{Valid: false, Error: err.Error()})
		return
	}
	json.NewEncoder(w).Encode(ValidateResponse{Valid: true})
}

// HandleScenarios returns a scenario set: company-derived when a ticker is
// given, otherwise the generic defaults (the dashboard's reset action).
func HandleScenarios(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	w.Header().Set("Content-Type", "application/json")

	if ticker == "" {
		json.NewEncoder(w).Encode(defaultSet())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	data, err := marketSvc.FetchCompanyData(ctx, ticker)
	if err != nil {
		fmt.Printf("[VALUATION] Scenario fetch failed for %s: %v. Serving defaults.\n", ticker, err)
		json.NewEncoder(w).Encode(defaultSet())
		return
	}
	json.NewEncoder(w).Encode(scenario.ForCompany(data.Fundamentals, data.Estimates))
}

// HandleReport serves the latest persisted run for a ticker as Markdown or HTML.
func HandleReport(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	run, err := runCache.GetLatest(r.Context(), ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, fmt.Sprintf("no stored valuation for %s", ticker), http.StatusNotFound)
		return
	}

	md := report.BuildMarkdown(run)
	if r.URL.Query().Get("format") == "html" {
		html, err := report.RenderHTML(md)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, md)
}

// defaultSet prefers the operator's preset file when configured.
func defaultSet() scenario.Set {
	if cfg.Valuation.PresetFile != "" {
		if set, err := scenario.LoadPresetFile(cfg.Valuation.PresetFile); err == nil {
			return set
		}
	}
	return scenario.Defaults()
}
