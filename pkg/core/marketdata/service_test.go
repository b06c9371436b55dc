package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// countingQuoteServer serves the client fixtures and counts upstream hits.
func countingQuoteServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		modules := r.URL.Query().Get("modules")
		switch {
		case strings.Contains(modules, "price"):
			w.Write([]byte(snapshotFixture))
		case strings.Contains(modules, "incomeStatementHistory"):
			w.Write([]byte(fundamentalsFixture))
		case strings.Contains(modules, "earningsTrend"):
			w.Write([]byte(estimatesFixture))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestService_FetchCompanyData(t *testing.T) {
	var hits atomic.Int64
	server := countingQuoteServer(t, &hits)
	defer server.Close()

	svc := NewService(NewClient(server.URL), NewScraper(server.URL), 0)
	data, err := svc.FetchCompanyData(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data.Snapshot.CurrentPrice != 190.5 {
		t.Errorf("snapshot price: got %v", data.Snapshot.CurrentPrice)
	}
	if len(data.Fundamentals.Annual) != 2 {
		t.Errorf("fundamentals: got %d points", len(data.Fundamentals.Annual))
	}
	if data.Estimates.Empty() {
		t.Error("estimates should be populated from the API")
	}
}

func TestService_CacheHitSkipsProvider(t *testing.T) {
	var hits atomic.Int64
	server := countingQuoteServer(t, &hits)
	defer server.Close()

	svc := NewService(NewClient(server.URL), NewScraper(server.URL), time.Minute)

	if _, err := svc.FetchCompanyData(context.Background(), "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := hits.Load()
	if first == 0 {
		t.Fatal("first fetch should hit the provider")
	}

	if _, err := svc.FetchCompanyData(context.Background(), "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != first {
		t.Errorf("second fetch inside the TTL should be served from cache: %d -> %d", first, hits.Load())
	}

	// A different ticker is a different cache key.
	if _, err := svc.FetchCompanyData(context.Background(), "MSFT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() == first {
		t.Error("a new ticker should hit the provider")
	}
}

func TestService_ZeroTTLDisablesCache(t *testing.T) {
	var hits atomic.Int64
	server := countingQuoteServer(t, &hits)
	defer server.Close()

	svc := NewService(NewClient(server.URL), NewScraper(server.URL), 0)
	svc.FetchCompanyData(context.Background(), "AAPL")
	first := hits.Load()
	svc.FetchCompanyData(context.Background(), "AAPL")
	if hits.Load() == first {
		t.Error("zero TTL should refetch every call")
	}
}

func TestService_SnapshotFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(NewClient(server.URL), NewScraper(server.URL), 0)
	if _, err := svc.FetchCompanyData(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error when the snapshot is unavailable, got nil")
	}
}

func TestService_DegradesWithoutFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		modules := r.URL.Query().Get("modules")
		switch {
		case strings.Contains(modules, "price"):
			w.Write([]byte(snapshotFixture))
		case strings.Contains(modules, "incomeStatementHistory"):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.Contains(modules, "earningsTrend"):
			w.Write([]byte(estimatesFixture))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	svc := NewService(NewClient(server.URL), NewScraper(server.URL), 0)
	data, err := svc.FetchCompanyData(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fundamentals failure should not be fatal: %v", err)
	}
	if len(data.Fundamentals.Annual) != 0 {
		t.Error("fundamentals should degrade to empty")
	}
	if data.Fundamentals.Ticker != "AAPL" {
		t.Error("degraded fundamentals should still carry the ticker")
	}
}

func TestService_ScraperFallback(t *testing.T) {
	// API has no analyst coverage; the analysis page does.
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		modules := r.URL.Query().Get("modules")
		switch {
		case strings.Contains(modules, "price"):
			w.Write([]byte(snapshotFixture))
		case strings.Contains(modules, "incomeStatementHistory"):
			w.Write([]byte(fundamentalsFixture))
		default:
			w.Write([]byte(`{"quoteSummary": {"result": [{}], "error": null}}`))
		}
	}))
	defer api.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(analysisPageFixture))
	}))
	defer site.Close()

	svc := NewService(NewClient(api.URL), NewScraper(site.URL), 0)
	data, err := svc.FetchCompanyData(context.Background(), "OBSCURE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Estimates.RevenueGrowth5Year == nil || *data.Estimates.RevenueGrowth5Year != 0.11 {
		t.Errorf("estimates should come from the scraper: got %+v", data.Estimates)
	}
}

func TestService_EmptyEstimatesWhenAllSourcesFail(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		modules := r.URL.Query().Get("modules")
		switch {
		case strings.Contains(modules, "price"):
			w.Write([]byte(snapshotFixture))
		case strings.Contains(modules, "incomeStatementHistory"):
			w.Write([]byte(fundamentalsFixture))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer api.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer site.Close()

	svc := NewService(NewClient(api.URL), NewScraper(site.URL), 0)
	data, err := svc.FetchCompanyData(context.Background(), "OBSCURE")
	if err != nil {
		t.Fatalf("estimate failure should not be fatal: %v", err)
	}
	if !data.Estimates.Empty() {
		t.Errorf("estimates should be empty, got %+v", data.Estimates)
	}
}
