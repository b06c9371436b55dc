// Package marketdata fetches quotes, historical fundamentals, and analyst
// estimates from the upstream financial-data provider. The valuation core
// never does I/O; everything it consumes is fetched here first and handed
// over as plain structs.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"fairvalue/pkg/models"
)

// DefaultBaseURL points at the provider's public quote API.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client is the JSON quote-summary client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a provider client. An empty baseURL selects the public
// endpoint; tests point it at a local httptest server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
	}
}

// rawValue mirrors the provider's {"raw": 1.23, "fmt": "1.23"} wrapper.
// Raw stays nil when the provider has no figure, which is how absence of
// analyst coverage shows up.
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v rawValue) ptr() *float64 {
	return v.Raw
}

func (v rawValue) or(def float64) float64 {
	if v.Raw == nil {
		return def
	}
	return *v.Raw
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	Price *struct {
		RegularMarketPrice rawValue `json:"regularMarketPrice"`
	} `json:"price"`
	DefaultKeyStatistics *struct {
		SharesOutstanding rawValue `json:"sharesOutstanding"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		TotalDebt        rawValue `json:"totalDebt"`
		TotalCash        rawValue `json:"totalCash"`
		TotalRevenue     rawValue `json:"totalRevenue"`
		OperatingMargins rawValue `json:"operatingMargins"`
		FreeCashflow     rawValue `json:"freeCashflow"`
		RevenueGrowth    rawValue `json:"revenueGrowth"`
	} `json:"financialData"`
	EarningsTrend *struct {
		Trend []struct {
			Period string   `json:"period"`
			Growth rawValue `json:"growth"`
		} `json:"trend"`
	} `json:"earningsTrend"`
	IncomeStatementHistory *struct {
		Statements []incomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	CashflowStatementHistory *struct {
		Statements []cashflowStatement `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

type incomeStatement struct {
	EndDate         rawValue `json:"endDate"`
	TotalRevenue    rawValue `json:"totalRevenue"`
	OperatingIncome rawValue `json:"operatingIncome"`
	NetIncome       rawValue `json:"netIncome"`
}

type cashflowStatement struct {
	EndDate                          rawValue `json:"endDate"`
	TotalCashFromOperatingActivities rawValue `json:"totalCashFromOperatingActivities"`
	CapitalExpenditures              rawValue `json:"capitalExpenditures"`
}

// fetchModules performs one quote-summary request for the given modules.
func (c *Client) fetchModules(ctx context.Context, ticker, modules string) (*quoteSummaryResult, error) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", c.baseURL, ticker, modules)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("provider rate limited request for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d for %s", resp.StatusCode, ticker)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var qs quoteSummaryResponse
	if err := json.Unmarshal(body, &qs); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}
	if qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %s", ticker, qs.QuoteSummary.Error.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no data returned for symbol %s", ticker)
	}
	return &qs.QuoteSummary.Result[0], nil
}

// GetSnapshot fetches the market inputs the DCF needs: current price, shares
// outstanding, net debt (total debt minus cash), and trailing revenue.
func (c *Client) GetSnapshot(ctx context.Context, ticker string) (*models.TickerSnapshot, error) {
	result, err := c.fetchModules(ctx, ticker, "price,defaultKeyStatistics,financialData")
	if err != nil {
		return nil, err
	}

	snap := &models.TickerSnapshot{
		Ticker:    ticker,
		FetchedAt: time.Now().UTC(),
		Source:    "quote_summary",
	}
	if result.Price != nil {
		snap.CurrentPrice = result.Price.RegularMarketPrice.or(0)
	}
	if result.DefaultKeyStatistics != nil {
		snap.SharesOutstanding = result.DefaultKeyStatistics.SharesOutstanding.or(0)
	}
	if result.FinancialData != nil {
		snap.NetDebt = result.FinancialData.TotalDebt.or(0) - result.FinancialData.TotalCash.or(0)
		snap.CurrentRevenue = result.FinancialData.TotalRevenue.or(0)
	}
	return snap, nil
}

// GetFundamentals fetches the annual income and cash-flow history and folds
// them into per-year fundamental points, newest first.
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (*models.FundamentalsData, error) {
	result, err := c.fetchModules(ctx, ticker, "incomeStatementHistory,cashflowStatementHistory")
	if err != nil {
		return nil, err
	}

	data := &models.FundamentalsData{Ticker: ticker}
	if result.IncomeStatementHistory == nil {
		return data, nil
	}

	// Cash-flow statements keyed by fiscal year for the FCF join.
	cashByYear := map[int]cashflowStatement{}
	if result.CashflowStatementHistory != nil {
		for _, cf := range result.CashflowStatementHistory.Statements {
			cashByYear[fiscalYear(cf.EndDate)] = cf
		}
	}

	for _, is := range result.IncomeStatementHistory.Statements {
		year := fiscalYear(is.EndDate)
		if year == 0 {
			continue
		}
		point := models.AnnualFundamentalPoint{
			Year:      year,
			Revenue:   is.TotalRevenue.or(0),
			EBIT:      is.OperatingIncome.or(0),
			NetIncome: is.NetIncome.or(0),
		}
		if cf, ok := cashByYear[year]; ok {
			// CapEx is reported as a signed negative outflow.
			point.FCF = cf.TotalCashFromOperatingActivities.or(0) + cf.CapitalExpenditures.or(0)
		}
		if point.Revenue > 0 {
			point.OperatingMargin = point.EBIT / point.Revenue
			point.NetMargin = point.NetIncome / point.Revenue
		}
		data.Annual = append(data.Annual, point)
	}
	return data, nil
}

// GetEstimates fetches forward-looking analyst data. Any subset of fields
// may come back nil; nothing is invented for uncovered tickers.
func (c *Client) GetEstimates(ctx context.Context, ticker string) (*models.AnalystEstimates, error) {
	result, err := c.fetchModules(ctx, ticker, "earningsTrend,financialData")
	if err != nil {
		return nil, err
	}

	est := &models.AnalystEstimates{}
	if result.EarningsTrend != nil {
		for _, trend := range result.EarningsTrend.Trend {
			switch trend.Period {
			case "+5y":
				est.RevenueGrowth5Year = trend.Growth.ptr()
			case "+1y":
				est.RevenueGrowthNextYear = trend.Growth.ptr()
			}
		}
	}
	if result.FinancialData != nil {
		est.RevenueGrowthTTM = result.FinancialData.RevenueGrowth.ptr()
		est.OperatingMargins = result.FinancialData.OperatingMargins.ptr()
		est.FreeCashflow = result.FinancialData.FreeCashflow.ptr()
		est.TotalRevenue = result.FinancialData.TotalRevenue.ptr()
	}
	return est, nil
}

// fiscalYear extracts the year from an endDate value, preferring the
// formatted "2024-09-28" string over the raw epoch.
func fiscalYear(v rawValue) int {
	if len(v.Fmt) >= 4 {
		if year, err := strconv.Atoi(v.Fmt[:4]); err == nil {
			return year
		}
	}
	if v.Raw != nil {
		return time.Unix(int64(*v.Raw), 0).UTC().Year()
	}
	return 0
}
