// Package report renders a finished brief as a shareable document:
// markdown, standalone HTML, and PDF via headless Chromium.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/research"
)

func BuildReportMarkdown(b research.Brief) string {
	var md strings.Builder
	buildHeader(&md, b)
	buildCompanySection(&md, b)
	buildIndustrySection(&md, b)
	buildMovesSection(&md, b)
	buildCompetitorSection(&md, b)
	buildUseCaseSection(&md, b)
	buildROISection(&md, b)
	buildCitationsSection(&md, b)
	buildProvenanceSection(&md, b)
	fmt.Fprintf(&md, "---\n\n%s\n", research.Disclaimer)
	return md.String()
}

func buildHeader(md *strings.Builder, b research.Brief) {
	fmt.Fprintf(md, "# AI Opportunity Brief: %s\n\n", safe(b.Company.Name))
	fmt.Fprintf(md, "- Website: %s\n", safe(b.Company.Website))
	fmt.Fprintf(md, "- Date: %s\n\n", time.Now().Format(time.RFC3339))
}

func buildCompanySection(md *strings.Builder, b research.Brief) {
	fmt.Fprintf(md, "## Company\n\n")
	fmt.Fprintf(md, "%s\n\n", safe(b.Company.Summary))
	if b.Company.CEO != "" {
		fmt.Fprintf(md, "- CEO: %s\n", b.Company.CEO)
	}
	if b.Company.FoundingYear != "" {
		fmt.Fprintf(md, "- Founded: %s\n", b.Company.FoundingYear)
	}
	if b.Company.Size != "" {
		fmt.Fprintf(md, "- Size: %s\n", b.Company.Size)
	}
	if b.Company.Headquarters != "" {
		fmt.Fprintf(md, "- Headquarters: %s\n", b.Company.Headquarters)
	}
	md.WriteString("\n")
}

func buildIndustrySection(md *strings.Builder, b research.Brief) {
	fmt.Fprintf(md, "## Industry\n\n")
	fmt.Fprintf(md, "%s\n\n", safe(b.Industry.Summary))
	fmt.Fprintf(md, "### Trends\n\n")
	for _, t := range b.Industry.Trends {
		fmt.Fprintf(md, "- %s\n", t)
	}
	md.WriteString("\n")
}

func buildMovesSection(md *strings.Builder, b research.Brief) {
	if len(b.StrategicMoves) == 0 {
		return
	}
	fmt.Fprintf(md, "## Strategic Moves\n\n")
	for _, m := range b.StrategicMoves {
		fmt.Fprintf(md, "- %s (owner: %s, horizon: %s)\n", safe(m.Move), safe(m.Owner), horizonLabel(m.HorizonQuarters))
		if m.Rationale != "" {
			fmt.Fprintf(md, "  - %s\n", m.Rationale)
		}
	}
	md.WriteString("\n")
}

func buildCompetitorSection(md *strings.Builder, b research.Brief) {
	fmt.Fprintf(md, "## Competitive Landscape\n\n")
	fmt.Fprintf(md, "| Competitor | Website | Geographic Fit |\n")
	fmt.Fprintf(md, "|---|---|---|\n")
	for _, c := range b.Competitors {
		fmt.Fprintf(md, "| %s | %s | %s |\n", safe(c.Name), safe(c.Website), safe(c.GeoFit))
	}
	md.WriteString("\n")
	for _, c := range b.Competitors {
		if c.Positioning == "" {
			continue
		}
		fmt.Fprintf(md, "- **%s**: %s\n", c.Name, c.Positioning)
	}
	md.WriteString("\n")
}

func buildUseCaseSection(md *strings.Builder, b research.Brief) {
	fmt.Fprintf(md, "## AI Use Cases\n\n")
	for i, uc := range b.UseCases {
		fmt.Fprintf(md, "### %d. %s\n\n", i+1, safe(uc.Title))
		fmt.Fprintf(md, "%s\n\n", safe(uc.Description))
		fmt.Fprintf(md, "- Value driver: %s\n", uc.ValueDriver)
		fmt.Fprintf(md, "- Complexity: %d/5, Effort: %d/5\n", uc.Complexity, uc.Effort)
		fmt.Fprintf(md, "- Annual benefit: %s\n", usd(uc.AnnualBenefitUSD))
		fmt.Fprintf(md, "- Cost: %s one-time + %s/yr ongoing\n", usd(uc.OneTimeCostUSD), usd(uc.OngoingCostUSD))
		fmt.Fprintf(md, "- Payback: %d months\n\n", uc.PaybackMonths)
	}
}

func buildROISection(md *strings.Builder, b research.Brief) {
	if b.ROI == nil {
		return
	}
	fmt.Fprintf(md, "## Portfolio Economics\n\n")
	fmt.Fprintf(md, "- Total annual benefit: %s\n", usd(b.ROI.TotalBenefitUSD))
	fmt.Fprintf(md, "- Total annual investment: %s\n", usd(b.ROI.TotalInvestmentUSD))
	fmt.Fprintf(md, "- Overall ROI: %.1f%%\n", b.ROI.OverallROIPct)
	fmt.Fprintf(md, "- Weighted payback: %.1f months\n\n", b.ROI.WeightedPaybackMonths)
}

func buildCitationsSection(md *strings.Builder, b research.Brief) {
	if len(b.Citations) == 0 {
		return
	}
	fmt.Fprintf(md, "## Sources\n\n")
	for _, c := range b.Citations {
		fmt.Fprintf(md, "- %s\n", c)
	}
	md.WriteString("\n")
}

func buildProvenanceSection(md *strings.Builder, b research.Brief) {
	if !b.Synthesis.Any() {
		return
	}
	fmt.Fprintf(md, "## Synthesized Content\n\n")
	fmt.Fprintf(md, "Some sections were padded with synthesized placeholders where research returned too little material:\n\n")
	if b.Synthesis.UseCasesSynthesized > 0 {
		fmt.Fprintf(md, "- Use cases synthesized: %d\n", b.Synthesis.UseCasesSynthesized)
	}
	if b.Synthesis.CompetitorsSynthesized > 0 {
		fmt.Fprintf(md, "- Competitors synthesized: %d\n", b.Synthesis.CompetitorsSynthesized)
	}
	if b.Synthesis.CompetitorsBackfilled > 0 {
		fmt.Fprintf(md, "- Competitor fields backfilled: %d\n", b.Synthesis.CompetitorsBackfilled)
	}
	if b.Synthesis.TrendsPadded > 0 {
		fmt.Fprintf(md, "- Trends padded: %d\n", b.Synthesis.TrendsPadded)
	}
	if b.Synthesis.MovesPadded > 0 {
		fmt.Fprintf(md, "- Strategic moves padded: %d\n", b.Synthesis.MovesPadded)
	}
	if b.Synthesis.SummaryPadded {
		fmt.Fprintf(md, "- Company summary padded to minimum length\n")
	}
	md.WriteString("\n")
}

func horizonLabel(quarters int) string {
	if quarters == 1 {
		return "1 quarter"
	}
	return fmt.Sprintf("%d quarters", quarters)
}

func usd(v float64) string {
	return "$" + groupThousands(fmt.Sprintf("%.0f", v))
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(ch)
	}
	if neg {
		return "-" + out.String()
	}
	return out.String()
}

func safe(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unknown)"
	}
	return s
}
