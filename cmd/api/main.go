package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	apiconfig "fairvalue/pkg/api/config"
	apivaluation "fairvalue/pkg/api/valuation"
	"fairvalue/pkg/core/config"
	"fairvalue/pkg/core/marketdata"
	"fairvalue/pkg/core/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfg, err := config.Load("config/fairvalue.yaml")
	if err != nil {
		fmt.Printf("[WARNING] Config load failed: %v\n", err)
		fmt.Println("  Falling back to built-in defaults")
		cfg = config.Default()
	}

	// Database is optional; without it runs persist to the file cache.
	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Database init failed: %v\n", err)
		} else {
			fmt.Println("[STORE] Connected to Postgres")
		}
	}
	defer store.Close()

	client := marketdata.NewClient(cfg.Provider.QuoteBaseURL)
	scraper := marketdata.NewScraper(cfg.Provider.ScrapeBaseURL)
	marketSvc := marketdata.NewService(client, scraper, time.Duration(cfg.Provider.CacheTTLSeconds)*time.Second)
	runCache := store.NewRunCache(store.GetPool(), cfg.Cache.RunDir)

	// Valuation endpoints
	apivaluation.InitHandler(marketSvc, runCache, cfg)
	http.HandleFunc("/api/valuation/dcf", apivaluation.HandleDCF)
	http.HandleFunc("/api/valuation/validate", apivaluation.HandleValidate)
	http.HandleFunc("/api/valuation/scenarios", apivaluation.HandleScenarios)
	http.HandleFunc("/api/valuation/report", apivaluation.HandleReport)

	// Config endpoint
	configHandler := apiconfig.NewHandler(cfg)
	http.HandleFunc("/api/config", configHandler.HandleConfig)

	fmt.Printf("API server starting on %s...\n", cfg.Server.Addr)
	fmt.Println("  - POST /api/valuation/dcf        (3-scenario DCF for a ticker)")
	fmt.Println("  - POST /api/valuation/validate   (check a user-edited scenario)")
	fmt.Println("  - GET  /api/valuation/scenarios  (derived or default assumption sets)")
	fmt.Println("  - GET  /api/valuation/report     (latest run as markdown/html)")
	fmt.Println("  - GET  /api/config")

	if err := http.ListenAndServe(cfg.Server.Addr, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
