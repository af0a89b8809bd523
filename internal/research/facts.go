package research

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

const factsPromptHeader = `Extract the following fields about the company from the website text below.
Use null for any field the text does not state. Do not infer or invent.

Required JSON schema:
{
  "ceo": "string|null",
  "founding_year": "string|null",
  "size": "string|null, e.g. '250 employees'",
  "headquarters": "string|null",
  "industry": "string|null",
  "description": "string|null",
  "products": ["string"]|null,
  "services": ["string"]|null,
  "capabilities": ["string"]|null,
  "markets": ["string"]|null,
  "market_position": "string|null",
  "latest_news": "string|null"
}

Website text:
`

var (
	foundingYearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	// A size string must contain a number followed by an employee-count noun,
	// English or German.
	sizeRe = regexp.MustCompile(`(?i)\d[\d.,]*\s*\+?\s*(employees?|staff|people|mitarbeiter\w*|besch(ä|ae)ftigte\w*|angestellte\w*)`)
)

// ceoDenylist holds placeholder strings models emit when a page names nobody.
var ceoDenylist = map[string]struct{}{
	"john doe":       {},
	"jane doe":       {},
	"max mustermann": {},
	"unknown":        {},
	"n/a":            {},
	"none":           {},
	"not available":  {},
	"not found":      {},
	"not stated":     {},
	"ceo name":       {},
	"the ceo":        {},
	"name":           {},
}

// extractFacts asks the structured-extraction adapter for the fields the
// reconciler expects and promotes only the ones that pass validation.
func (c *Crawler) extractFacts(ctx context.Context, facts *CrawledFacts) error {
	var raw map[string]any
	if err := c.extractor.GenerateJSON(ctx, extractSystemPrompt, factsPromptHeader+facts.Corpus, &raw); err != nil {
		return err
	}
	if ceo := str(raw["ceo"]); validCEOName(ceo) {
		facts.CEO = strings.TrimSpace(ceo)
	}
	if year := normalizeFoundingYear(raw["founding_year"]); year != "" {
		facts.FoundingYear = year
	}
	if size := str(raw["size"]); validSizeString(size) {
		facts.Size = strings.TrimSpace(size)
	}
	facts.Headquarters = strings.TrimSpace(str(raw["headquarters"]))
	facts.Industry = strings.TrimSpace(str(raw["industry"]))
	facts.Description = strings.TrimSpace(str(raw["description"]))
	facts.Products = strList(raw["products"])
	facts.Services = strList(raw["services"])
	facts.Capabilities = strList(raw["capabilities"])
	facts.Markets = strList(raw["markets"])
	facts.MarketPosition = strings.TrimSpace(str(raw["market_position"]))
	facts.LatestNews = strings.TrimSpace(str(raw["latest_news"]))
	return nil
}

// validCEOName requires at least two name tokens, no placeholder string, and
// no former-executive marker.
func validCEOName(name string) bool {
	name = strings.TrimSpace(name)
	if len(strings.Fields(name)) < 2 {
		return false
	}
	if _, deny := ceoDenylist[strings.ToLower(name)]; deny {
		return false
	}
	return !hasFormerMarker(name)
}

// normalizeFoundingYear accepts a string or number and returns a 4-digit year
// in [1900,2099], or "".
func normalizeFoundingYear(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.Itoa(int(t))
	default:
		return ""
	}
	m := foundingYearRe.FindString(s)
	if m == "" {
		return ""
	}
	year, err := strconv.Atoi(m)
	if err != nil || year < 1900 || year > 2099 {
		return ""
	}
	return m
}

func validSizeString(s string) bool {
	return sizeRe.MatchString(s)
}

// Defensive accessors for loosely shaped provider JSON.

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s := strings.TrimSpace(str(item))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func num(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(t, ",", "")), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func intVal(v any) (int, bool) {
	f, ok := num(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func mapVal(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func mapList(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
