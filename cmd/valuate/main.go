// Command valuate runs one 3-scenario DCF valuation from the terminal and
// prints the markdown report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fairvalue/pkg/core/config"
	"fairvalue/pkg/core/marketdata"
	"fairvalue/pkg/core/report"
	"fairvalue/pkg/core/scenario"
	"fairvalue/pkg/core/valuation"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	ticker := flag.String("ticker", "", "stock ticker to value (required)")
	mos := flag.Float64("mos", 25, "margin of safety percent (0-80)")
	generic := flag.Bool("generic", false, "use the generic preset scenarios instead of company-derived ones")
	configPath := flag.String("config", "config/fairvalue.yaml", "config file path")
	flag.Parse()

	if *ticker == "" {
		fmt.Println("Usage: valuate -ticker AAPL [-mos 25] [-generic]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("[WARNING] Config load failed: %v\n", err)
		cfg = config.Default()
	}

	client := marketdata.NewClient(cfg.Provider.QuoteBaseURL)
	scraper := marketdata.NewScraper(cfg.Provider.ScrapeBaseURL)
	svc := marketdata.NewService(client, scraper, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	data, err := svc.FetchCompanyData(ctx, *ticker)
	if err != nil {
		fmt.Printf("[FATAL] Market data fetch failed: %v\n", err)
		os.Exit(1)
	}

	var set scenario.Set
	if *generic {
		set = scenario.Defaults()
	} else {
		set = scenario.ForCompany(data.Fundamentals, data.Estimates)
	}

	run, err := valuation.RunAllScenarios(data.Snapshot, set.Bull, set.Base, set.Bear, *mos)
	if err != nil {
		fmt.Printf("[FATAL] Valuation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(report.BuildMarkdown(run))
}
