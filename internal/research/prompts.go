package research

import (
	"fmt"
	"strings"
)

const candidateSchemaPrompt = `Required JSON schema:
{
  "company": {
    "name": "string",
    "website": "string",
    "summary": "string, at least 100 characters",
    "size": "string|null, e.g. '250 employees'",
    "industry": "string|null",
    "headquarters": "string|null",
    "founding_year": "string|null",
    "ceo": "string|null, current chief executive only",
    "market_position": "string|null",
    "latest_news": "string|null"
  },
  "industry": {
    "summary": "string, 20-300 characters",
    "trends": ["string, 4-6 entries, each under 200 characters"]
  },
  "strategic_moves": [
    {"move": "string", "owner": "string", "horizon_quarters": "integer 1-4", "rationale": "string"}
  ],
  "competitors": [
    {
      "name": "string", "website": "url", "positioning": "string",
      "ai_maturity": "string", "innovation_focus": "string",
      "employee_band": "string", "geo_fit": "string", "headquarters": "string|null",
      "evidence_pages": ["url, at least 2, on the competitor's own domain"],
      "citations": ["url"]
    }
  ],
  "use_cases": [
    {
      "title": "string", "description": "string",
      "value_driver": "revenue|cost|risk|speed",
      "complexity": "integer 1-5", "effort": "integer 1-5",
      "annual_benefit_usd": "number > 0", "one_time_cost_usd": "number >= 0",
      "ongoing_cost_usd": "number >= 0", "payback_months": "integer >= 1",
      "data_requirements": ["string"], "risks": ["string"],
      "next_steps": ["string"], "citations": ["url"]
    }
  ],
  "citations": ["url supporting top-level claims"]
}`

// buildResearchPrompt is the single composite prompt: one round-trip for the
// full candidate shape, accepting that the first shot may be
// schema-incomplete. The reconciler repairs the rest.
func buildResearchPrompt(name, website string, facts CrawledFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research the company %q (website: %s) and produce an AI opportunity brief.\n\n", name, website)
	b.WriteString("Cover: company profile, industry summary with 4-6 current trends, 3-5 strategic moves, ")
	b.WriteString("2-6 named competitors with evidence pages on their own domains, and exactly 5 prioritized AI use cases ")
	b.WriteString("with conservative annual benefit, one-time cost, ongoing cost and payback estimates in USD.\n\n")

	if known := knownFactsBlock(facts); known != "" {
		b.WriteString("Verified facts from the company's own website (treat as ground truth):\n")
		b.WriteString(known)
		b.WriteString("\n")
	}

	b.WriteString(candidateSchemaPrompt)
	b.WriteString("\n\nReturn strict JSON only, no prose around it.")
	return b.String()
}

func knownFactsBlock(facts CrawledFacts) string {
	var b strings.Builder
	write := func(label, v string) {
		if strings.TrimSpace(v) != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, v)
		}
	}
	write("CEO", facts.CEO)
	write("Founded", facts.FoundingYear)
	write("Size", facts.Size)
	write("Headquarters", facts.Headquarters)
	write("Industry", facts.Industry)
	write("Description", facts.Description)
	if len(facts.Products) > 0 {
		write("Products", strings.Join(facts.Products, ", "))
	}
	if len(facts.Services) > 0 {
		write("Services", strings.Join(facts.Services, ", "))
	}
	if len(facts.Markets) > 0 {
		write("Markets", strings.Join(facts.Markets, ", "))
	}
	write("Market position", facts.MarketPosition)
	write("Latest news", facts.LatestNews)
	return b.String()
}
