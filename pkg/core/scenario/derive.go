package scenario

import (
	"math"

	"fairvalue/pkg/core/valuation"
	"fairvalue/pkg/models"
)

// Fixed base-scenario capital assumptions. No automated cost-of-capital
// estimation (beta/CAPM) happens here.
const (
	baseWACC           = 0.095
	baseTerminalGrowth = 0.025

	fallbackGrowth       = 0.05
	fallbackMargin       = 0.18
	fallbackTaxRate      = 0.22
	fallbackReinvestment = 0.30

	// Phase-2 growth decays toward the terminal rate.
	growthDecayYears6to10 = 0.6
)

// candidate is one link in an ordered fallback chain. Links are evaluated
// in order and the first non-nil value wins, which keeps the fallback order
// auditable and testable per link.
type candidate struct {
	name  string
	value func() *float64
}

func firstDefined(chain []candidate, fallback float64) float64 {
	for _, c := range chain {
		if v := c.value(); v != nil {
			return *v
		}
	}
	return fallback
}

// ForCompany derives a company-specific scenario set: a base scenario from
// analyst estimates and historical fundamentals via fallback chains, then
// bull/bear as fixed deterministic adjustments of base. Total over its input
// domain, including all-nil estimates and a zero- or one-year history.
func ForCompany(fundamentals models.FundamentalsData, estimates models.AnalystEstimates) Set {
	base := deriveBase(fundamentals, estimates)
	return Set{
		Bull: deriveBull(base),
		Base: base,
		Bear: deriveBear(base),
	}
}

func deriveBase(f models.FundamentalsData, est models.AnalystEstimates) valuation.ScenarioInput {
	growth := firstDefined([]candidate{
		{"analyst_5y", func() *float64 { return est.RevenueGrowth5Year }},
		{"analyst_next_year", func() *float64 { return est.RevenueGrowthNextYear }},
		{"historical_cagr", func() *float64 { return historicalCAGR(f.Annual) }},
		{"analyst_ttm", func() *float64 { return est.RevenueGrowthTTM }},
	}, fallbackGrowth)

	margin := firstDefined([]candidate{
		{"analyst_margin", func() *float64 { return est.OperatingMargins }},
		{"latest_annual", func() *float64 { return latestOperatingMargin(f.Annual) }},
		{"avg_3_years", func() *float64 { return avgOperatingMargin3(f.Annual) }},
	}, fallbackMargin)

	taxRate := deriveTaxRate(f.Annual)

	return clampToBounds(valuation.ScenarioInput{
		RevenueGrowthYears1to5:  growth,
		RevenueGrowthYears6to10: growth * growthDecayYears6to10,
		OperatingMarginTarget:   margin,
		TaxRate:                 taxRate,
		ReinvestmentRate:        deriveReinvestmentRate(f.Annual, est, taxRate),
		WACC:                    baseWACC,
		TerminalGrowth:          baseTerminalGrowth,
	})
}

// deriveBull applies the fixed optimism deltas to base. The deltas are
// empirically chosen calibration constants.
func deriveBull(base valuation.ScenarioInput) valuation.ScenarioInput {
	s := base
	s.RevenueGrowthYears1to5 *= 1.25
	s.RevenueGrowthYears6to10 *= 1.25
	s.OperatingMarginTarget += 0.03
	s.TaxRate -= 0.02
	s.ReinvestmentRate -= 0.05
	s.WACC -= 0.01
	s.TerminalGrowth += 0.005
	return repairTerminal(clampToBounds(s))
}

func deriveBear(base valuation.ScenarioInput) valuation.ScenarioInput {
	s := base
	s.RevenueGrowthYears1to5 *= 0.5
	s.RevenueGrowthYears6to10 *= 0.4
	s.OperatingMarginTarget -= 0.04
	s.TaxRate += 0.03
	s.ReinvestmentRate += 0.10
	s.WACC += 0.015
	s.TerminalGrowth -= 0.005
	return repairTerminal(clampToBounds(s))
}

// historicalCAGR computes the compound annual revenue growth rate over the
// fundamentals window (newest-first). Needs at least two points with
// positive revenue at both ends.
func historicalCAGR(points []models.AnnualFundamentalPoint) *float64 {
	n := len(points)
	if n < 2 {
		return nil
	}
	newest := points[0].Revenue
	oldest := points[n-1].Revenue
	if newest <= 0 || oldest <= 0 {
		return nil
	}
	cagr := math.Pow(newest/oldest, 1/float64(n-1)) - 1
	return &cagr
}

// latestOperatingMargin yields the most recent reported margin. Fundamental
// points are non-nullable structs, so a non-positive margin is the absence
// signal and falls through to the next link.
func latestOperatingMargin(points []models.AnnualFundamentalPoint) *float64 {
	if len(points) == 0 || points[0].OperatingMargin <= 0 {
		return nil
	}
	m := points[0].OperatingMargin
	return &m
}

func avgOperatingMargin3(points []models.AnnualFundamentalPoint) *float64 {
	if len(points) < 3 {
		return nil
	}
	avg := (points[0].OperatingMargin + points[1].OperatingMargin + points[2].OperatingMargin) / 3
	if avg <= 0 {
		return nil
	}
	return &avg
}

// deriveTaxRate scans newest-first for the first year with positive EBIT and
// positive net income and implies the effective rate from them.
func deriveTaxRate(points []models.AnnualFundamentalPoint) float64 {
	for _, p := range points {
		if p.EBIT > 0 && p.NetIncome > 0 {
			return clamp(1-p.NetIncome/p.EBIT, 0.10, 0.40)
		}
	}
	return fallbackTaxRate
}

// deriveReinvestmentRate implies the share of NOPAT retained for growth.
//
// Capital-light firms can show FCF exceeding NOPAT, giving a negative
// implied reinvestment; that must clamp to the 0.05 floor rather than fall
// through to the generic 0.30 default, which would materially understate
// fair value.
func deriveReinvestmentRate(points []models.AnnualFundamentalPoint, est models.AnalystEstimates, effectiveTaxRate float64) float64 {
	// 1. Current analyst data, when fully populated.
	if est.FreeCashflow != nil && est.TotalRevenue != nil && est.OperatingMargins != nil {
		currentEBIT := *est.TotalRevenue * *est.OperatingMargins
		currentNOPAT := currentEBIT * (1 - effectiveTaxRate)
		if currentNOPAT > 0 {
			return clamp(1-*est.FreeCashflow/currentNOPAT, 0.05, 0.70)
		}
	}

	// 2. First historical year with a computable positive NOPAT and a
	// nonzero FCF, using that year's implied tax rate where available.
	for _, p := range points {
		taxRate := fallbackTaxRate
		if p.EBIT > 0 && p.NetIncome > 0 {
			taxRate = 1 - p.NetIncome/p.EBIT
		}
		nopat := p.EBIT * (1 - taxRate)
		if nopat > 0 && p.FCF != 0 {
			return clamp(1-p.FCF/nopat, 0.05, 0.70)
		}
	}

	return fallbackReinvestment
}
