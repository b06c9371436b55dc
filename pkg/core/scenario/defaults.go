package scenario

import (
	"fmt"
	"os"

	"fairvalue/pkg/core/utils"
	"fairvalue/pkg/core/valuation"
)

// Defaults returns the generic hand-tuned scenario set, used when no company
// data is available or as an explicit reset action. The values are fixed
// calibration constants; do not re-derive them.
func Defaults() Set {
	return Set{
		Bull: valuation.ScenarioInput{
			RevenueGrowthYears1to5:  0.12,
			RevenueGrowthYears6to10: 0.08,
			OperatingMarginTarget:   0.22,
			TaxRate:                 0.20,
			ReinvestmentRate:        0.30,
			WACC:                    0.085,
			TerminalGrowth:          0.03,
		},
		Base: valuation.ScenarioInput{
			RevenueGrowthYears1to5:  0.08,
			RevenueGrowthYears6to10: 0.05,
			OperatingMarginTarget:   0.18,
			TaxRate:                 0.22,
			ReinvestmentRate:        0.35,
			WACC:                    0.095,
			TerminalGrowth:          0.025,
		},
		Bear: valuation.ScenarioInput{
			RevenueGrowthYears1to5:  0.04,
			RevenueGrowthYears6to10: 0.02,
			OperatingMarginTarget:   0.14,
			TaxRate:                 0.25,
			ReinvestmentRate:        0.40,
			WACC:                    0.11,
			TerminalGrowth:          0.02,
		},
	}
}

// LoadPresetFile reads a human-edited scenario preset file in Hjson (comments
// and unquoted keys allowed) and normalizes it: each scenario is clamped to
// engine bounds and terminal-growth repaired, so a sloppy preset can never
// reach the engine out of range.
func LoadPresetFile(path string) (Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read preset file: %w", err)
	}

	var set Set
	if err := utils.ParseHJSONToStruct(string(raw), &set); err != nil {
		return Set{}, fmt.Errorf("failed to parse preset file %s: %w", path, err)
	}

	set.Bull = repairTerminal(clampToBounds(set.Bull))
	set.Base = repairTerminal(clampToBounds(set.Base))
	set.Bear = repairTerminal(clampToBounds(set.Bear))
	return set, nil
}
