// Package valuation implements the deterministic DCF engine: a 10-year
// two-phase free-cash-flow projection with a Gordon Growth terminal value.
// All functions here are pure; callers own error surfacing and persistence.
package valuation

import (
	"fmt"
	"math"
)

// ProjectionYears is the explicit forecast horizon before terminal value.
const ProjectionYears = 10

// Bound is the closed valid range for one scenario field.
type Bound struct {
	Min float64
	Max float64
}

// Valid ranges per scenario field. Scenario derivation clamps to these;
// the engine rejects anything outside them.
var (
	BoundRevenueGrowthYears1to5  = Bound{-0.5, 0.6}
	BoundRevenueGrowthYears6to10 = Bound{-0.5, 0.4}
	BoundOperatingMarginTarget   = Bound{0, 0.8}
	BoundTaxRate                 = Bound{0, 0.6}
	BoundReinvestmentRate        = Bound{0, 0.9}
	BoundWACC                    = Bound{0.03, 0.3}
	BoundTerminalGrowth          = Bound{-0.02, 0.06}
)

// ScenarioInput holds one scenario's operating assumptions.
// All rates are decimal fractions (0.12 means 12%).
type ScenarioInput struct {
	RevenueGrowthYears1to5  float64 `json:"revenue_growth_years_1_to_5"`
	RevenueGrowthYears6to10 float64 `json:"revenue_growth_years_6_to_10"`
	OperatingMarginTarget   float64 `json:"operating_margin_target"`
	TaxRate                 float64 `json:"tax_rate"`
	ReinvestmentRate        float64 `json:"reinvestment_rate"`
	WACC                    float64 `json:"wacc"`
	TerminalGrowth          float64 `json:"terminal_growth"`
}

// DCFInput encapsulates all inputs required for one scenario's valuation.
// Monetary amounts share one unit (typically USD); the output per-share
// value is in the same unit.
type DCFInput struct {
	CurrentRevenue    float64       `json:"current_revenue"`
	NetDebt           float64       `json:"net_debt"`
	SharesOutstanding float64       `json:"shares_outstanding"`
	CurrentPrice      float64       `json:"current_price"`
	MoSPercent        float64       `json:"mos_percent"` // margin of safety, 0..80
	Scenario          ScenarioInput `json:"scenario"`
}

// ScenarioResult holds the valuation outputs for one scenario. Values are
// recomputed fresh on every call; nothing is cached inside the engine.
type ScenarioResult struct {
	EnterpriseValue      float64 `json:"enterprise_value"`
	EquityValue          float64 `json:"equity_value"`
	FairValuePerShare    float64 `json:"fair_value_per_share"`
	FairValueAfterMoS    float64 `json:"fair_value_after_mos"`
	UpsideVsPricePercent float64 `json:"upside_vs_price_percent"`
}

// ValidateScenarioInput checks a scenario against the engine's valid input
// ranges. The WACC/terminal-growth relation is checked first: the Gordon
// Growth denominator (WACC - g) must stay positive.
func ValidateScenarioInput(s ScenarioInput) error {
	if s.WACC <= s.TerminalGrowth {
		return fmt.Errorf("WACC must be greater than terminal growth (wacc=%.4f, terminal_growth=%.4f)", s.WACC, s.TerminalGrowth)
	}

	checks := []struct {
		name  string
		value float64
		bound Bound
	}{
		{"revenue_growth_years_1_to_5", s.RevenueGrowthYears1to5, BoundRevenueGrowthYears1to5},
		{"revenue_growth_years_6_to_10", s.RevenueGrowthYears6to10, BoundRevenueGrowthYears6to10},
		{"operating_margin_target", s.OperatingMarginTarget, BoundOperatingMarginTarget},
		{"tax_rate", s.TaxRate, BoundTaxRate},
		{"reinvestment_rate", s.ReinvestmentRate, BoundReinvestmentRate},
		{"wacc", s.WACC, BoundWACC},
		{"terminal_growth", s.TerminalGrowth, BoundTerminalGrowth},
	}
	for _, c := range checks {
		if c.value < c.bound.Min || c.value > c.bound.Max {
			return fmt.Errorf("%s out of range: %.4f not in [%.2f, %.2f]", c.name, c.value, c.bound.Min, c.bound.Max)
		}
	}
	return nil
}

// RunDCF performs the 10-year two-phase DCF for a single scenario.
//
// Years 1-5 grow revenue at RevenueGrowthYears1to5, years 6-10 at
// RevenueGrowthYears6to10. Each year:
//
//	EBIT  = Revenue × OperatingMarginTarget
//	NOPAT = EBIT × (1 - TaxRate)
//	FCF   = NOPAT × (1 - ReinvestmentRate)
//	PV    = FCF / (1 + WACC)^year
//
// Terminal value grows the year-10 ending revenue once more by
// TerminalGrowth while keeping the phase-2 margin/tax/reinvestment
// assumptions, then capitalizes at (WACC - TerminalGrowth). The terminal
// growth rate deliberately scales revenue only; it is not an independent
// terminal margin regime. Changing that changes every valuation output.
//
// RunDCF fails fast on the first violated precondition and never clamps.
func RunDCF(input DCFInput) (ScenarioResult, error) {
	if err := ValidateScenarioInput(input.Scenario); err != nil {
		return ScenarioResult{}, err
	}
	if input.CurrentRevenue <= 0 {
		return ScenarioResult{}, fmt.Errorf("current_revenue must be positive, got %.2f", input.CurrentRevenue)
	}
	if input.SharesOutstanding <= 0 {
		return ScenarioResult{}, fmt.Errorf("shares_outstanding must be positive, got %.2f", input.SharesOutstanding)
	}
	if input.CurrentPrice <= 0 {
		return ScenarioResult{}, fmt.Errorf("current_price must be positive, got %.2f", input.CurrentPrice)
	}
	if input.MoSPercent < 0 || input.MoSPercent > 80 {
		return ScenarioResult{}, fmt.Errorf("mos_percent out of range: %.2f not in [0, 80]", input.MoSPercent)
	}

	s := input.Scenario
	revenue := input.CurrentRevenue
	var pvFCF float64

	for year := 1; year <= ProjectionYears; year++ {
		growth := s.RevenueGrowthYears1to5
		if year > 5 {
			growth = s.RevenueGrowthYears6to10
		}
		revenue *= 1 + growth

		ebit := revenue * s.OperatingMarginTarget
		nopat := ebit * (1 - s.TaxRate)
		fcf := nopat * (1 - s.ReinvestmentRate)

		pvFCF += fcf / math.Pow(1+s.WACC, float64(year))
	}

	// Terminal year: one more revenue step at the terminal rate, same
	// phase-2 operating assumptions.
	terminalRevenue := revenue * (1 + s.TerminalGrowth)
	terminalEBIT := terminalRevenue * s.OperatingMarginTarget
	terminalNOPAT := terminalEBIT * (1 - s.TaxRate)
	terminalFCF := terminalNOPAT * (1 - s.ReinvestmentRate)

	terminalValue := terminalFCF / (s.WACC - s.TerminalGrowth)
	pvTerminal := terminalValue / math.Pow(1+s.WACC, float64(ProjectionYears))

	enterpriseValue := pvFCF + pvTerminal
	equityValue := enterpriseValue - input.NetDebt
	fairValuePerShare := equityValue / input.SharesOutstanding
	fairValueAfterMoS := fairValuePerShare * (1 - input.MoSPercent/100)
	upside := (fairValueAfterMoS - input.CurrentPrice) / input.CurrentPrice * 100

	return ScenarioResult{
		EnterpriseValue:      enterpriseValue,
		EquityValue:          equityValue,
		FairValuePerShare:    fairValuePerShare,
		FairValueAfterMoS:    fairValueAfterMoS,
		UpsideVsPricePercent: upside,
	}, nil
}
