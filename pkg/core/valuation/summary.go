package valuation

import (
	"fmt"
	"math"
	"time"

	"fairvalue/pkg/models"

	"github.com/google/uuid"
)

// Valuation classifications derived from the base-scenario upside.
const (
	StatusUndervalued  = "UNDERVALUED"
	StatusFairlyValued = "FAIRLY_VALUED"
	StatusOvervalued   = "OVERVALUED"
)

// DefaultClassifyBandPercent is the symmetric band (in percentage points of
// upside) inside which a stock counts as fairly valued.
const DefaultClassifyBandPercent = 15.0

// ScenarioOutcome pairs the assumptions that produced a result with the
// result itself, so persisted runs stay self-describing.
type ScenarioOutcome struct {
	Scenario ScenarioInput  `json:"scenario"`
	Result   ScenarioResult `json:"result"`
}

// ValuationRun is one completed 3-scenario valuation for a ticker.
type ValuationRun struct {
	RunID          string                `json:"run_id"`
	Ticker         string                `json:"ticker"`
	MoSPercent     float64               `json:"mos_percent"`
	Snapshot       models.TickerSnapshot `json:"snapshot"`
	Bull           ScenarioOutcome       `json:"bull"`
	Base           ScenarioOutcome       `json:"base"`
	Bear           ScenarioOutcome       `json:"bear"`
	Classification string                `json:"classification"`
	CreatedAt      time.Time             `json:"created_at"`
}

// RunAllScenarios executes the DCF for bull, base, and bear against one
// market snapshot and aggregates the outcomes into a run record.
//
// The engine itself does not self-detect numeric blowups, so the aggregation
// layer sanity-checks fairValueAfterMoS for finiteness before trusting it.
func RunAllScenarios(snap models.TickerSnapshot, bull, base, bear ScenarioInput, mosPercent float64) (*ValuationRun, error) {
	run := &ValuationRun{
		RunID:      uuid.NewString(),
		Ticker:     snap.Ticker,
		MoSPercent: mosPercent,
		Snapshot:   snap,
		CreatedAt:  time.Now().UTC(),
	}

	scenarios := []struct {
		name    string
		input   ScenarioInput
		outcome *ScenarioOutcome
	}{
		{"bull", bull, &run.Bull},
		{"base", base, &run.Base},
		{"bear", bear, &run.Bear},
	}

	for _, sc := range scenarios {
		result, err := RunDCF(DCFInput{
			CurrentRevenue:    snap.CurrentRevenue,
			NetDebt:           snap.NetDebt,
			SharesOutstanding: snap.SharesOutstanding,
			CurrentPrice:      snap.CurrentPrice,
			MoSPercent:        mosPercent,
			Scenario:          sc.input,
		})
		if err != nil {
			return nil, fmt.Errorf("%s scenario: %w", sc.name, err)
		}
		if math.IsNaN(result.FairValueAfterMoS) || math.IsInf(result.FairValueAfterMoS, 0) {
			return nil, fmt.Errorf("%s scenario produced a non-finite fair value", sc.name)
		}
		*sc.outcome = ScenarioOutcome{Scenario: sc.input, Result: result}
	}

	run.Classification = Classify(run.Base.Result.UpsideVsPricePercent, DefaultClassifyBandPercent)
	return run, nil
}

// Classify maps a base-scenario upside (percentage points) to an overall
// valuation status using a symmetric band around zero.
func Classify(baseUpsidePercent, bandPercent float64) string {
	switch {
	case baseUpsidePercent >= bandPercent:
		return StatusUndervalued
	case baseUpsidePercent <= -bandPercent:
		return StatusOvervalued
	default:
		return StatusFairlyValued
	}
}
