// Package scenario builds the three-scenario (bull/base/bear) assumption
// sets the DCF engine consumes. Derivation is total: every fallback chain
// terminates in a literal default and every emitted scenario is clamped to
// the engine's valid ranges, so this package never returns an error.
package scenario

import (
	"fairvalue/pkg/core/valuation"
)

// Set holds exactly three named scenarios. By construction bull >= base >=
// bear on growth and margin, and bull <= base <= bear on WACC, tax, and
// reinvestment; the engine itself does not enforce that ordering.
type Set struct {
	Bull valuation.ScenarioInput `json:"bull"`
	Base valuation.ScenarioInput `json:"base"`
	Bear valuation.ScenarioInput `json:"bear"`
}

// clamp is the single bounds utility. Every finalized scenario field passes
// through it exactly once, at emission.
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampToBounds pins all seven fields to the engine's valid input ranges.
func clampToBounds(s valuation.ScenarioInput) valuation.ScenarioInput {
	s.RevenueGrowthYears1to5 = clamp(s.RevenueGrowthYears1to5, valuation.BoundRevenueGrowthYears1to5.Min, valuation.BoundRevenueGrowthYears1to5.Max)
	s.RevenueGrowthYears6to10 = clamp(s.RevenueGrowthYears6to10, valuation.BoundRevenueGrowthYears6to10.Min, valuation.BoundRevenueGrowthYears6to10.Max)
	s.OperatingMarginTarget = clamp(s.OperatingMarginTarget, valuation.BoundOperatingMarginTarget.Min, valuation.BoundOperatingMarginTarget.Max)
	s.TaxRate = clamp(s.TaxRate, valuation.BoundTaxRate.Min, valuation.BoundTaxRate.Max)
	s.ReinvestmentRate = clamp(s.ReinvestmentRate, valuation.BoundReinvestmentRate.Min, valuation.BoundReinvestmentRate.Max)
	s.WACC = clamp(s.WACC, valuation.BoundWACC.Min, valuation.BoundWACC.Max)
	s.TerminalGrowth = clamp(s.TerminalGrowth, valuation.BoundTerminalGrowth.Min, valuation.BoundTerminalGrowth.Max)
	return s
}

// repairTerminal restores the WACC > terminal-growth invariant after the
// bull/bear adjustments. Growth-heavy deltas can push terminal growth at or
// above a lowered discount rate.
func repairTerminal(s valuation.ScenarioInput) valuation.ScenarioInput {
	if s.WACC <= s.TerminalGrowth {
		s.TerminalGrowth = s.WACC - 0.01
	}
	return s
}
