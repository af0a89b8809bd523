package research

import (
	"fmt"
	"log"
	"math"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Fixed fallback content used when providers under-deliver. Order matters:
// entries are appended front to back until the floor is met.
var defaultTrends = []string{
	"Generative AI adoption is moving from pilots to production workflows across the sector",
	"Customers increasingly expect self-service and instant, personalized responses",
	"Margin pressure is pushing incumbents toward automation of back-office processes",
	"Data privacy and AI governance requirements are tightening in major markets",
	"Talent scarcity is accelerating investment in augmentation tooling",
	"Industry consolidation is raising the bar for digital differentiation",
}

var defaultMoves = []StrategicMove{
	{Move: "Stand up an AI opportunity review board", Owner: "Executive team", HorizonQuarters: 1,
		Rationale: "Creates a single owner for prioritizing and funding the use cases in this brief"},
	{Move: "Consolidate customer and operational data for AI readiness", Owner: "IT / Data lead", HorizonQuarters: 2,
		Rationale: "Most high-value use cases depend on clean, accessible data"},
	{Move: "Pilot the highest-ROI use case with a measurable baseline", Owner: "Operations lead", HorizonQuarters: 2,
		Rationale: "A contained pilot de-risks the larger program and builds internal evidence"},
}

var synthUseCaseTitles = []string{
	"Customer service response automation",
	"Document processing automation",
	"Demand forecasting and planning",
	"Marketing content personalization",
	"Internal knowledge assistant",
}

const (
	defaultGeoFit       = "Global"
	summaryPadSentence  = " Publicly available detail on this company is limited; this brief supplements it with conservative, clearly marked assumptions."
	industryPadSentence = " The sector is undergoing rapid AI-driven change."
	defaultIndustryLine = "Operates in a competitive market undergoing rapid AI-driven change."

	synthBenefitBase   = 250000.0
	synthBenefitStep   = 25000.0
	synthOneTimeCost   = 100000.0
	synthOngoingCost   = 20000.0
	synthComplexity    = 3
	synthEffort        = 3
	fallbackPaybackMon = 12
)

var (
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9 ]+`)
	titleSuffixRe = regexp.MustCompile(`(?i)\s*[—–-]+\s*for\s+.+$`)
)

// Reconcile turns a loosely shaped provider candidate into a schema-valid
// Brief. It is deterministic, pure, and never touches the network: every
// field follows exactly one of synthesize / clamp-or-discard /
// drop-keep-first / pad / truncate.
func Reconcile(raw map[string]any, companyName, companyWebsite string) (Brief, error) {
	if raw == nil {
		return Brief{}, fmt.Errorf("%w: candidate is structurally absent", ErrInternalConsistency)
	}
	synth := SynthesisInfo{}

	brief := Brief{
		Company:        reconcileCompany(mapVal(raw["company"]), companyName, companyWebsite, &synth),
		Industry:       reconcileIndustry(mapVal(raw["industry"]), &synth),
		StrategicMoves: reconcileMoves(mapList(raw["strategic_moves"]), &synth),
		Competitors:    reconcileCompetitors(mapList(raw["competitors"]), companyName, companyWebsite, &synth),
		Citations:      dedupStrings(strList(raw["citations"])),
	}

	useCases, err := reconcileUseCases(mapList(raw["use_cases"]), companyName, &synth)
	if err != nil {
		return Brief{}, err
	}
	brief.UseCases = useCases
	brief.ROI = computeROI(useCases)
	brief.Synthesis = synth

	if brief.Citations == nil {
		brief.Citations = []string{}
	}
	return brief, nil
}

func reconcileCompany(raw map[string]any, name, website string, synth *SynthesisInfo) Company {
	c := Company{
		Name:           firstNonEmpty(str(raw["name"]), name),
		Website:        website,
		Summary:        strings.TrimSpace(str(raw["summary"])),
		Size:           strings.TrimSpace(str(raw["size"])),
		Industry:       strings.TrimSpace(str(raw["industry"])),
		Headquarters:   strings.TrimSpace(str(raw["headquarters"])),
		FoundingYear:   normalizeFoundingYear(raw["founding_year"]),
		MarketPosition: strings.TrimSpace(str(raw["market_position"])),
		LatestNews:     strings.TrimSpace(str(raw["latest_news"])),
	}
	if ceo := strings.TrimSpace(str(raw["ceo"])); validCEOName(ceo) {
		c.CEO = ceo
	}
	if c.Summary == "" {
		c.Summary = fmt.Sprintf("%s is a company operating at %s.", c.Name, website)
		synth.SummaryPadded = true
	}
	// Short summaries are padded, never truncated: the original text is
	// always preserved verbatim at the front.
	for len(c.Summary) < MinSummaryChars {
		c.Summary += summaryPadSentence
		synth.SummaryPadded = true
	}
	return c
}

func reconcileIndustry(raw map[string]any, synth *SynthesisInfo) Industry {
	ind := Industry{Summary: strings.TrimSpace(str(raw["summary"]))}
	if ind.Summary == "" {
		ind.Summary = defaultIndustryLine
	}
	for len(ind.Summary) < MinIndustryChars {
		ind.Summary += industryPadSentence
	}
	if len(ind.Summary) > MaxIndustryChars {
		ind.Summary = strings.TrimSpace(ind.Summary[:MaxIndustryChars])
	}

	for _, t := range strList(raw["trends"]) {
		if len(t) > MaxTrendChars {
			t = strings.TrimSpace(t[:MaxTrendChars])
		}
		ind.Trends = append(ind.Trends, t)
	}
	for _, def := range defaultTrends {
		if len(ind.Trends) >= MinTrends {
			break
		}
		if containsNormalized(ind.Trends, def) {
			continue
		}
		ind.Trends = append(ind.Trends, def)
		synth.TrendsPadded++
	}
	if len(ind.Trends) > MaxTrends {
		ind.Trends = ind.Trends[:MaxTrends]
	}
	return ind
}

func reconcileMoves(raw []map[string]any, synth *SynthesisInfo) []StrategicMove {
	moves := make([]StrategicMove, 0, MaxStrategicMoves)
	for _, m := range raw {
		move := strings.TrimSpace(str(m["move"]))
		if move == "" {
			continue
		}
		horizon, ok := intVal(m["horizon_quarters"])
		if !ok {
			horizon = 2
		}
		moves = append(moves, StrategicMove{
			Move:            move,
			Owner:           firstNonEmpty(str(m["owner"]), "Executive team"),
			HorizonQuarters: clampInt(horizon, 1, 4),
			Rationale:       strings.TrimSpace(str(m["rationale"])),
		})
		if len(moves) == MaxStrategicMoves {
			break
		}
	}
	for _, def := range defaultMoves {
		if len(moves) >= MinStrategicMoves {
			break
		}
		dup := false
		for _, m := range moves {
			if normalizeName(m.Move) == normalizeName(def.Move) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		moves = append(moves, def)
		synth.MovesPadded++
	}
	return moves
}

func reconcileCompetitors(raw []map[string]any, companyName, companyWebsite string, synth *SynthesisInfo) []Competitor {
	selfKey := normalizeName(companyName)
	seen := map[string]struct{}{}
	out := make([]Competitor, 0, MaxCompetitors)

	for _, m := range raw {
		name := strings.TrimSpace(str(m["name"]))
		website := ensureScheme(strings.TrimSpace(str(m["website"])))
		if name == "" || website == "" {
			continue
		}
		if normalizeName(name) == selfKey {
			continue
		}
		key := normalizeName(name) + "|" + registrableDomain(website)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		comp := Competitor{
			Name:            name,
			Website:         website,
			Positioning:     strings.TrimSpace(str(m["positioning"])),
			AIMaturity:      strings.TrimSpace(str(m["ai_maturity"])),
			InnovationFocus: strings.TrimSpace(str(m["innovation_focus"])),
			EmployeeBand:    strings.TrimSpace(str(m["employee_band"])),
			GeoFit:          strings.TrimSpace(str(m["geo_fit"])),
			EvidencePages:   dedupStrings(strList(m["evidence_pages"])),
			Citations:       dedupStrings(strList(m["citations"])),
		}
		if comp.GeoFit == "" {
			comp.GeoFit = firstNonEmpty(str(m["headquarters"]), defaultGeoFit)
			synth.CompetitorsBackfilled++
		}
		if len(comp.EvidencePages) < MinEvidencePages {
			comp.EvidencePages = backfillEvidence(comp.EvidencePages, comp.Website)
			synth.CompetitorsBackfilled++
		}
		if comp.Citations == nil {
			comp.Citations = []string{}
		}
		out = append(out, comp)
		if len(out) == MaxCompetitors {
			break
		}
	}

	if len(out) < MinCompetitors {
		log.Printf("research reconcile_competitors_below_floor have=%d floor=%d", len(out), MinCompetitors)
	}
	for i := 1; len(out) < MinCompetitors; i++ {
		website := fmt.Sprintf("https://market-peer-%d.example.com", i)
		out = append(out, Competitor{
			Name:            fmt.Sprintf("Industry peer %d", i),
			Website:         website,
			Positioning:     "Comparable offering in the same market segment",
			AIMaturity:      "emerging",
			InnovationFocus: "process automation",
			EmployeeBand:    "unknown",
			GeoFit:          defaultGeoFit,
			EvidencePages:   []string{website, website + "/about"},
			Citations:       []string{},
		})
		synth.CompetitorsSynthesized++
	}
	return out
}

func backfillEvidence(pages []string, website string) []string {
	for _, candidate := range []string{website, strings.TrimRight(website, "/") + "/about"} {
		if len(pages) >= MinEvidencePages {
			break
		}
		dup := false
		for _, p := range pages {
			if p == candidate {
				dup = true
				break
			}
		}
		if !dup {
			pages = append(pages, candidate)
		}
	}
	return pages
}

func reconcileUseCases(raw []map[string]any, companyName string, synth *SynthesisInfo) ([]UseCase, error) {
	seen := map[string]struct{}{}
	cases := make([]UseCase, 0, UseCaseCount)
	for _, m := range raw {
		title := titleSuffixRe.ReplaceAllString(strings.TrimSpace(str(m["title"])), "")
		if title == "" {
			continue
		}
		key := normalizeName(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		benefit := clampMoney(m["annual_benefit_usd"])
		oneTime := clampMoney(m["one_time_cost_usd"])
		ongoing := clampMoney(m["ongoing_cost_usd"])
		payback, ok := intVal(m["payback_months"])
		if !ok || payback < 1 {
			payback = computePaybackMonths(benefit, oneTime, ongoing)
		}
		complexity, ok := intVal(m["complexity"])
		if !ok {
			complexity = 3
		}
		effort, ok := intVal(m["effort"])
		if !ok {
			effort = 3
		}
		cases = append(cases, UseCase{
			Title:            title,
			Description:      strings.TrimSpace(str(m["description"])),
			ValueDriver:      normalizeDriver(str(m["value_driver"])),
			Complexity:       clampInt(complexity, 1, 5),
			Effort:           clampInt(effort, 1, 5),
			AnnualBenefitUSD: benefit,
			OneTimeCostUSD:   oneTime,
			OngoingCostUSD:   ongoing,
			PaybackMonths:    payback,
			DataRequirements: orEmpty(strList(m["data_requirements"])),
			Risks:            orEmpty(strList(m["risks"])),
			NextSteps:        orEmpty(strList(m["next_steps"])),
			Citations:        orEmpty(strList(m["citations"])),
		})
	}

	cases = padUseCases(cases, seen, companyName, synth)

	// Second pass: a use case that survived with a non-positive benefit is
	// dropped and replaced, so all five carry strictly positive economics.
	kept := cases[:0]
	for _, uc := range cases {
		if uc.AnnualBenefitUSD > 0 {
			kept = append(kept, uc)
		} else {
			delete(seen, normalizeName(uc.Title))
		}
	}
	cases = padUseCases(kept, seen, companyName, synth)

	if len(cases) != UseCaseCount {
		return nil, fmt.Errorf("%w: use_cases count %d after reconciliation", ErrInternalConsistency, len(cases))
	}
	return cases, nil
}

func padUseCases(cases []UseCase, seen map[string]struct{}, companyName string, synth *SynthesisInfo) []UseCase {
	if len(cases) > UseCaseCount {
		return cases[:UseCaseCount]
	}
	for i := 0; len(cases) < UseCaseCount && i < len(synthUseCaseTitles)*2; i++ {
		uc := synthUseCase(i, companyName)
		key := normalizeName(uc.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cases = append(cases, uc)
		synth.UseCasesSynthesized++
	}
	return cases
}

// synthUseCase builds a placeholder use case with deterministic default
// economics; the index offsets the benefit so no two are exact duplicates.
func synthUseCase(i int, companyName string) UseCase {
	title := synthUseCaseTitles[i%len(synthUseCaseTitles)]
	if i >= len(synthUseCaseTitles) {
		title = fmt.Sprintf("%s (phase %d)", title, i/len(synthUseCaseTitles)+1)
	}
	benefit := synthBenefitBase + synthBenefitStep*float64(i)
	return UseCase{
		Title:            title,
		Description:      fmt.Sprintf("Apply AI-assisted automation to %s workflows at %s to reduce manual effort and error rates.", strings.ToLower(title), companyName),
		ValueDriver:      DriverCost,
		Complexity:       synthComplexity,
		Effort:           synthEffort,
		AnnualBenefitUSD: benefit,
		OneTimeCostUSD:   synthOneTimeCost,
		OngoingCostUSD:   synthOngoingCost,
		PaybackMonths:    computePaybackMonths(benefit, synthOneTimeCost, synthOngoingCost),
		DataRequirements: []string{"Historical process records", "Access to the relevant line-of-business system"},
		Risks:            []string{"Adoption depends on staff training and change management"},
		NextSteps:        []string{"Scope a 6-8 week pilot with a measurable baseline"},
		Citations:        []string{},
	}
}

// computePaybackMonths is the derived payback: round((one_time + ongoing) /
// benefit * 12), floored at 1; non-positive benefit falls back to 12.
func computePaybackMonths(benefit, oneTime, ongoing float64) int {
	if benefit <= 0 {
		return fallbackPaybackMon
	}
	m := int(math.Round((oneTime + ongoing) / benefit * 12))
	if m < 1 {
		m = 1
	}
	return m
}

func computeROI(cases []UseCase) *ROISummary {
	var totalBenefit, totalInvestment, weighted float64
	for _, uc := range cases {
		totalBenefit += uc.AnnualBenefitUSD
		totalInvestment += uc.OneTimeCostUSD + uc.OngoingCostUSD
		weighted += float64(uc.PaybackMonths) * uc.AnnualBenefitUSD
	}
	roi := &ROISummary{
		TotalBenefitUSD:    totalBenefit,
		TotalInvestmentUSD: totalInvestment,
	}
	if totalInvestment > 0 {
		roi.OverallROIPct = round1((totalBenefit - totalInvestment) / totalInvestment * 100)
	}
	if totalBenefit > 0 {
		roi.WeightedPaybackMonths = round1(weighted / totalBenefit)
	}
	return roi
}

// normalizeName is the dedup/self-match key: lowercased with punctuation
// stripped and whitespace collapsed.
func normalizeName(s string) string {
	s = nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(s), " ")
}

// registrableDomain returns the eTLD+1 of a URL's host, falling back to the
// bare host when the public suffix list has no answer.
func registrableDomain(rawURL string) string {
	u, err := url.Parse(ensureScheme(rawURL))
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

func ensureScheme(website string) string {
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		return "https://" + website
	}
	return website
}

func normalizeDriver(s string) ValueDriver {
	switch ValueDriver(strings.ToLower(strings.TrimSpace(s))) {
	case DriverRevenue:
		return DriverRevenue
	case DriverRisk:
		return DriverRisk
	case DriverSpeed:
		return DriverSpeed
	default:
		return DriverCost
	}
}

func clampMoney(v any) float64 {
	f, ok := num(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

func containsNormalized(items []string, v string) bool {
	key := normalizeName(v)
	for _, item := range items {
		if normalizeName(item) == key {
			return true
		}
	}
	return false
}

func dedupStrings(items []string) []string {
	if items == nil {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
