package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fairvalue/pkg/core/utils"
	"fairvalue/pkg/models"

	"github.com/PuerkitoBio/goquery"
)

// Scraper recovers analyst estimates from the provider's analysis page when
// the JSON API has no coverage for a ticker. The page embeds its data as a
// large app-state blob inside a script tag; that blob is near-JSON at best,
// so extraction runs through the lenient parser.
type Scraper struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewScraper creates the HTML fallback fetcher. Empty baseURL selects the
// public site.
func NewScraper(baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = "https://finance.yahoo.com"
	}
	return &Scraper{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
	}
}

// appStateMarker prefixes the embedded JSON blob in the analysis page.
const appStateMarker = "root.App.main = "

// analysisPayload is the slice of the embedded app state we care about.
type analysisPayload struct {
	Context struct {
		Dispatcher struct {
			Stores struct {
				QuoteSummaryStore struct {
					EarningsTrend struct {
						Trend []struct {
							Period string   `json:"period"`
							Growth rawValue `json:"growth"`
						} `json:"trend"`
					} `json:"earningsTrend"`
					FinancialData struct {
						OperatingMargins rawValue `json:"operatingMargins"`
						FreeCashflow     rawValue `json:"freeCashflow"`
						TotalRevenue     rawValue `json:"totalRevenue"`
						RevenueGrowth    rawValue `json:"revenueGrowth"`
					} `json:"financialData"`
				} `json:"QuoteSummaryStore"`
			} `json:"stores"`
		} `json:"dispatcher"`
	} `json:"context"`
}

// FetchEstimates scrapes the analysis page for one ticker.
func (s *Scraper) FetchEstimates(ctx context.Context, ticker string) (*models.AnalystEstimates, error) {
	url := fmt.Sprintf("%s/quote/%s/analysis", s.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis page returned status %d for %s", resp.StatusCode, ticker)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis page: %w", err)
	}
	return parseAnalysisDocument(doc)
}

// parseAnalysisDocument walks the script tags looking for the app-state blob
// and pulls the estimate fields out of it.
func parseAnalysisDocument(doc *goquery.Document) (*models.AnalystEstimates, error) {
	var blob string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if extracted, ok := extractEmbeddedJSON(sel.Text()); ok {
			blob = extracted
			return false
		}
		return true
	})
	if blob == "" {
		return nil, fmt.Errorf("no embedded app state found in analysis page")
	}

	var payload analysisPayload
	if _, err := utils.SmartParse(blob, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse embedded app state: %w", err)
	}

	store := payload.Context.Dispatcher.Stores.QuoteSummaryStore
	est := &models.AnalystEstimates{
		RevenueGrowthTTM: store.FinancialData.RevenueGrowth.ptr(),
		OperatingMargins: store.FinancialData.OperatingMargins.ptr(),
		FreeCashflow:     store.FinancialData.FreeCashflow.ptr(),
		TotalRevenue:     store.FinancialData.TotalRevenue.ptr(),
	}
	for _, trend := range store.EarningsTrend.Trend {
		switch trend.Period {
		case "+5y":
			est.RevenueGrowth5Year = trend.Growth.ptr()
		case "+1y":
			est.RevenueGrowthNextYear = trend.Growth.ptr()
		}
	}
	if est.Empty() {
		return nil, fmt.Errorf("analysis page carried no estimate fields")
	}
	return est, nil
}

// extractEmbeddedJSON cuts the JSON object assigned to the app-state marker
// out of a script body. The assignment ends with "};" on its own statement.
func extractEmbeddedJSON(script string) (string, bool) {
	idx := strings.Index(script, appStateMarker)
	if idx < 0 {
		return "", false
	}
	rest := script[idx+len(appStateMarker):]
	end := strings.LastIndex(rest, "}")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end+1]), true
}
