package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fairvalue/pkg/models"
)

// CompanyData bundles everything one valuation request needs from upstream.
type CompanyData struct {
	Snapshot     models.TickerSnapshot   `json:"snapshot"`
	Fundamentals models.FundamentalsData `json:"fundamentals"`
	Estimates    models.AnalystEstimates `json:"estimates"`
}

// Service coordinates the JSON client and the scraper fallback behind a
// TTL cache. The cache absorbs upstream rate limiting: a recalculation for
// the same ticker inside the TTL never touches the provider again.
type Service struct {
	client  *Client
	scraper *Scraper
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	data      CompanyData
	fetchedAt time.Time
}

// NewService wires the provider stack together. A zero ttl disables caching.
func NewService(client *Client, scraper *Scraper, ttl time.Duration) *Service {
	return &Service{
		client:  client,
		scraper: scraper,
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
	}
}

// FetchCompanyData returns the snapshot, fundamentals, and estimates for a
// ticker. The snapshot is mandatory; fundamentals and estimates degrade to
// empty values so scenario derivation can fall through its chains.
func (s *Service) FetchCompanyData(ctx context.Context, ticker string) (*CompanyData, error) {
	if cached, ok := s.lookup(ticker); ok {
		return cached, nil
	}

	snap, err := s.client.GetSnapshot(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("snapshot fetch failed for %s: %w", ticker, err)
	}

	data := CompanyData{Snapshot: *snap}

	fundamentals, err := s.client.GetFundamentals(ctx, ticker)
	if err != nil {
		fmt.Printf("[MARKETDATA] Fundamentals unavailable for %s: %v\n", ticker, err)
		data.Fundamentals = models.FundamentalsData{Ticker: ticker}
	} else {
		data.Fundamentals = *fundamentals
	}

	estimates, err := s.client.GetEstimates(ctx, ticker)
	if err != nil || estimates.Empty() {
		if err != nil {
			fmt.Printf("[MARKETDATA] Estimate API failed for %s: %v. Trying scraper...\n", ticker, err)
		} else {
			fmt.Printf("[MARKETDATA] No analyst coverage via API for %s. Trying scraper...\n", ticker)
		}
		scraped, scrapeErr := s.scraper.FetchEstimates(ctx, ticker)
		if scrapeErr != nil {
			fmt.Printf("[MARKETDATA] Scraper fallback failed for %s: %v\n", ticker, scrapeErr)
			data.Estimates = models.AnalystEstimates{}
		} else {
			data.Estimates = *scraped
		}
	} else {
		data.Estimates = *estimates
	}

	s.store(ticker, data)
	return &data, nil
}

func (s *Service) lookup(ticker string) (*CompanyData, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[ticker]
	if !ok || time.Since(entry.fetchedAt) > s.ttl {
		return nil, false
	}
	data := entry.data
	return &data, true
}

func (s *Service) store(ticker string, data CompanyData) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[ticker] = cacheEntry{data: data, fetchedAt: time.Now()}
}
