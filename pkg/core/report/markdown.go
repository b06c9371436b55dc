// Package report renders a completed valuation run as Markdown for the
// dashboard, with optional HTML conversion.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"fairvalue/pkg/core/valuation"

	"github.com/yuin/goldmark"
)

// BuildMarkdown produces the three-scenario summary for one run.
// All rates are rendered as percentages here; the underlying run keeps
// decimal fractions.
func BuildMarkdown(run *valuation.ValuationRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — 3-Scenario DCF Valuation\n\n", run.Ticker)
	fmt.Fprintf(&b, "Run `%s` at %s. Margin of safety: %.0f%%. Verdict: **%s**\n\n",
		run.RunID, run.CreatedAt.Format(time.RFC3339), run.MoSPercent, run.Classification)

	fmt.Fprintf(&b, "Current price $%.2f, trailing revenue $%.0fM, net debt $%.0fM, %.0fM shares outstanding.\n\n",
		run.Snapshot.CurrentPrice, run.Snapshot.CurrentRevenue/1e6, run.Snapshot.NetDebt/1e6, run.Snapshot.SharesOutstanding/1e6)

	b.WriteString("## Results\n\n")
	b.WriteString("| Scenario | Fair Value | After MoS | Upside |\n")
	b.WriteString("|----------|-----------:|----------:|-------:|\n")
	for _, row := range []struct {
		name    string
		outcome valuation.ScenarioOutcome
	}{
		{"Bull", run.Bull},
		{"Base", run.Base},
		{"Bear", run.Bear},
	} {
		fmt.Fprintf(&b, "| %s | $%.2f | $%.2f | %+.1f%% |\n",
			row.name,
			row.outcome.Result.FairValuePerShare,
			row.outcome.Result.FairValueAfterMoS,
			row.outcome.Result.UpsideVsPricePercent)
	}

	b.WriteString("\n## Assumptions\n\n")
	b.WriteString("| Scenario | Growth y1-5 | Growth y6-10 | Op. Margin | Tax | Reinvest | WACC | Terminal g |\n")
	b.WriteString("|----------|------------:|-------------:|-----------:|----:|---------:|-----:|-----------:|\n")
	for _, row := range []struct {
		name     string
		scenario valuation.ScenarioInput
	}{
		{"Bull", run.Bull.Scenario},
		{"Base", run.Base.Scenario},
		{"Bear", run.Bear.Scenario},
	} {
		s := row.scenario
		fmt.Fprintf(&b, "| %s | %.1f%% | %.1f%% | %.1f%% | %.1f%% | %.1f%% | %.2f%% | %.2f%% |\n",
			row.name,
			s.RevenueGrowthYears1to5*100, s.RevenueGrowthYears6to10*100,
			s.OperatingMarginTarget*100, s.TaxRate*100, s.ReinvestmentRate*100,
			s.WACC*100, s.TerminalGrowth*100)
	}

	return b.String()
}

// RenderHTML converts a Markdown report to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(CleanMarkdown(markdown)), &buf); err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}
	return buf.String(), nil
}

// CleanMarkdown strips outer code-fence wrapping so a fenced report still
// renders as Markdown instead of one big code block.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```markdown") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```markdown")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}
