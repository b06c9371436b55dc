package models

import (
	"time"
)

// AnnualFundamentalPoint is one fiscal year of reported fundamentals.
// Slices of these are always ordered newest-first.
type AnnualFundamentalPoint struct {
	Year            int     `json:"year"`
	Revenue         float64 `json:"revenue"`
	EBIT            float64 `json:"ebit"`
	NetIncome       float64 `json:"net_income"`
	FCF             float64 `json:"fcf"`
	OperatingMargin float64 `json:"operating_margin"`
	NetMargin       float64 `json:"net_margin"`
}

// FundamentalsData is the historical annual window for one company.
type FundamentalsData struct {
	Ticker string                   `json:"ticker"`
	Annual []AnnualFundamentalPoint `json:"annual"` // newest first
}

// AnalystEstimates carries forward-looking consensus data. Every field is
// nullable: coverage is spotty and any subset may be absent upstream.
type AnalystEstimates struct {
	RevenueGrowth5Year    *float64 `json:"revenue_growth_5_year,omitempty"`
	RevenueGrowthNextYear *float64 `json:"revenue_growth_next_year,omitempty"`
	RevenueGrowthTTM      *float64 `json:"revenue_growth_ttm,omitempty"`
	OperatingMargins      *float64 `json:"operating_margins,omitempty"`
	FreeCashflow          *float64 `json:"free_cashflow,omitempty"`
	TotalRevenue          *float64 `json:"total_revenue,omitempty"`
}

// Empty reports whether no estimate field is populated at all.
func (e AnalystEstimates) Empty() bool {
	return e.RevenueGrowth5Year == nil &&
		e.RevenueGrowthNextYear == nil &&
		e.RevenueGrowthTTM == nil &&
		e.OperatingMargins == nil &&
		e.FreeCashflow == nil &&
		e.TotalRevenue == nil
}

// TickerSnapshot holds the already-fetched market inputs a valuation consumes.
type TickerSnapshot struct {
	Ticker            string    `json:"ticker"`
	CurrentPrice      float64   `json:"current_price"`
	SharesOutstanding float64   `json:"shares_outstanding"`
	NetDebt           float64   `json:"net_debt"`
	CurrentRevenue    float64   `json:"current_revenue"`
	FetchedAt         time.Time `json:"fetched_at"`
	Source            string    `json:"source"`
}
