package valuation

import (
	"math"
	"strings"
	"testing"
)

func validScenario() ScenarioInput {
	return ScenarioInput{
		RevenueGrowthYears1to5:  0.08,
		RevenueGrowthYears6to10: 0.05,
		OperatingMarginTarget:   0.20,
		TaxRate:                 0.22,
		ReinvestmentRate:        0.35,
		WACC:                    0.10,
		TerminalGrowth:          0.025,
	}
}

func TestValidateScenarioInput_Valid(t *testing.T) {
	if err := ValidateScenarioInput(validScenario()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateScenarioInput_WACCBelowTerminalGrowth(t *testing.T) {
	cases := []struct {
		wacc     float64
		terminal float64
	}{
		{0.02, 0.025},
		{0.025, 0.025}, // equal is also invalid
		{0.05, 0.06},
	}
	for _, c := range cases {
		s := validScenario()
		s.WACC = c.wacc
		s.TerminalGrowth = c.terminal
		err := ValidateScenarioInput(s)
		if err == nil {
			t.Fatalf("expected error for wacc=%v terminal=%v, got nil", c.wacc, c.terminal)
		}
		if !strings.Contains(err.Error(), "WACC must be greater than terminal growth") {
			t.Errorf("expected WACC/terminal error, got: %v", err)
		}
	}
}

func TestValidateScenarioInput_FieldRanges(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*ScenarioInput)
	}{
		{"revenue_growth_years_1_to_5", func(s *ScenarioInput) { s.RevenueGrowthYears1to5 = 0.7 }},
		{"revenue_growth_years_6_to_10", func(s *ScenarioInput) { s.RevenueGrowthYears6to10 = -0.6 }},
		{"operating_margin_target", func(s *ScenarioInput) { s.OperatingMarginTarget = 0.85 }},
		{"tax_rate", func(s *ScenarioInput) { s.TaxRate = -0.01 }},
		{"reinvestment_rate", func(s *ScenarioInput) { s.ReinvestmentRate = 0.95 }},
		{"wacc", func(s *ScenarioInput) { s.WACC = 0.35 }},
		{"terminal_growth", func(s *ScenarioInput) { s.TerminalGrowth = -0.03 }},
	}
	for _, c := range cases {
		s := validScenario()
		c.mutate(&s)
		err := ValidateScenarioInput(s)
		if err == nil {
			t.Fatalf("expected out-of-range error for %s, got nil", c.field)
		}
		if !strings.Contains(err.Error(), c.field) {
			t.Errorf("error should name field %s, got: %v", c.field, err)
		}
		if !strings.Contains(err.Error(), "out of range") {
			t.Errorf("error should mention range, got: %v", err)
		}
	}
}

func TestRunDCF_PositiveInputChecks(t *testing.T) {
	base := DCFInput{
		CurrentRevenue:    100e9,
		NetDebt:           20e9,
		SharesOutstanding: 15e9,
		CurrentPrice:      190,
		MoSPercent:        25,
		Scenario:          validScenario(),
	}

	cases := []struct {
		name   string
		mutate func(*DCFInput)
	}{
		{"current_revenue", func(in *DCFInput) { in.CurrentRevenue = 0 }},
		{"shares_outstanding", func(in *DCFInput) { in.SharesOutstanding = -1 }},
		{"current_price", func(in *DCFInput) { in.CurrentPrice = 0 }},
	}
	for _, c := range cases {
		in := base
		c.mutate(&in)
		_, err := RunDCF(in)
		if err == nil {
			t.Fatalf("expected error for non-positive %s, got nil", c.name)
		}
		if !strings.Contains(err.Error(), "must be positive") {
			t.Errorf("expected positivity error for %s, got: %v", c.name, err)
		}
	}

	in := base
	in.MoSPercent = 81
	if _, err := RunDCF(in); err == nil {
		t.Fatal("expected error for mos_percent > 80, got nil")
	}
}

// Constant-revenue perpetuity: with zero growth everywhere, zero tax and
// reinvestment, the 10-year annuity plus the discounted terminal perpetuity
// collapse to FCF/WACC exactly.
func TestRunDCF_PerpetuityIdentity(t *testing.T) {
	result, err := RunDCF(DCFInput{
		CurrentRevenue:    100,
		NetDebt:           0,
		SharesOutstanding: 10,
		CurrentPrice:      5,
		MoSPercent:        0,
		Scenario: ScenarioInput{
			RevenueGrowthYears1to5:  0,
			RevenueGrowthYears6to10: 0,
			OperatingMarginTarget:   0.10,
			TaxRate:                 0,
			ReinvestmentRate:        0,
			WACC:                    0.10,
			TerminalGrowth:          0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// FCF = 10 forever, WACC = 10% => EV = 100, per share = 10.
	if math.Abs(result.EnterpriseValue-100) > 1e-9 {
		t.Errorf("expected enterprise value 100, got %.12f", result.EnterpriseValue)
	}
	if math.Abs(result.FairValuePerShare-10) > 1e-9 {
		t.Errorf("expected fair value 10/share, got %.12f", result.FairValuePerShare)
	}
	if math.Abs(result.UpsideVsPricePercent-100) > 1e-9 {
		t.Errorf("expected +100%% upside vs $5, got %.6f", result.UpsideVsPricePercent)
	}
}

func TestRunDCF_LargeCapExample(t *testing.T) {
	result, err := RunDCF(DCFInput{
		CurrentRevenue:    100e9,
		NetDebt:           20e9,
		SharesOutstanding: 15e9,
		CurrentPrice:      190,
		MoSPercent:        25,
		Scenario:          validScenario(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FairValuePerShare <= 0 {
		t.Errorf("expected positive fair value, got %.4f", result.FairValuePerShare)
	}
	want := result.FairValuePerShare * 0.75
	if math.Abs(result.FairValueAfterMoS-want) > 1e-6 {
		t.Errorf("fair value after 25%% MoS: got %.8f, want %.8f", result.FairValueAfterMoS, want)
	}
}

func TestRunDCF_MoSRelation(t *testing.T) {
	input := DCFInput{
		CurrentRevenue:    50e9,
		NetDebt:           0,
		SharesOutstanding: 5e9,
		CurrentPrice:      100,
		MoSPercent:        0,
		Scenario:          validScenario(),
	}
	noMos, err := RunDCF(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input.MoSPercent = 20
	withMos, err := RunDCF(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := noMos.FairValuePerShare * 0.8
	if math.Abs(withMos.FairValueAfterMoS-want) > 1e-6 {
		t.Errorf("20%% MoS: got %.8f, want %.8f", withMos.FairValueAfterMoS, want)
	}

	// MoS never changes the pre-MoS per-share value.
	if withMos.FairValuePerShare != noMos.FairValuePerShare {
		t.Errorf("fair value per share should be MoS-independent: %.8f vs %.8f",
			withMos.FairValuePerShare, noMos.FairValuePerShare)
	}
}

func TestRunDCF_Deterministic(t *testing.T) {
	input := DCFInput{
		CurrentRevenue:    123.456e9,
		NetDebt:           -4.2e9, // net cash is fine
		SharesOutstanding: 7.89e9,
		CurrentPrice:      42.42,
		MoSPercent:        15,
		Scenario:          validScenario(),
	}
	first, err := RunDCF(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := RunDCF(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("identical inputs must produce bit-identical results:\n%+v\n%+v", first, second)
	}
}

func TestRunDCF_FiniteAcrossRanges(t *testing.T) {
	// Sweep corner-ish scenarios; every valid input must yield a finite value.
	growths := []float64{-0.5, 0, 0.6}
	waccs := []float64{0.03, 0.10, 0.30}
	terminals := []float64{-0.02, 0.025}

	for _, g := range growths {
		for _, w := range waccs {
			for _, tg := range terminals {
				if w <= tg {
					continue
				}
				s := validScenario()
				s.RevenueGrowthYears1to5 = g
				s.WACC = w
				s.TerminalGrowth = tg
				result, err := RunDCF(DCFInput{
					CurrentRevenue:    1e9,
					NetDebt:           1e8,
					SharesOutstanding: 1e8,
					CurrentPrice:      50,
					MoSPercent:        10,
					Scenario:          s,
				})
				if err != nil {
					t.Fatalf("unexpected error (g=%v w=%v tg=%v): %v", g, w, tg, err)
				}
				if math.IsNaN(result.FairValuePerShare) || math.IsInf(result.FairValuePerShare, 0) {
					t.Errorf("non-finite fair value for g=%v w=%v tg=%v", g, w, tg)
				}
			}
		}
	}
}
