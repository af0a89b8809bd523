package research

import "time"

const Disclaimer = "This is an automated, citation-backed opportunity assessment, not investment or consulting advice. " +
	"Figures for under-reported companies may rely on conservative default assumptions."

const (
	// Crawler bounds.
	DefaultMaxPages     = 6
	DefaultPageTimeout  = 9 * time.Second
	MinPageChars        = 200
	MaxPageChars        = 12000
	MaxCorpusChars      = 50000
	DefaultCrawlerAgent = "Mozilla/5.0 (compatible; OpportunityBrief/1.0)"

	// Provider bounds.
	DefaultSearchTimeout  = 60 * time.Second
	DefaultExtractTimeout = 45 * time.Second
	DefaultMaxRetries     = 2

	// Brief cardinality.
	UseCaseCount       = 5
	MinCompetitors     = 2
	MaxCompetitors     = 6
	MinTrends          = 4
	MaxTrends          = 6
	MinStrategicMoves  = 3
	MaxStrategicMoves  = 5
	MinSummaryChars    = 100
	MinIndustryChars   = 20
	MaxIndustryChars   = 300
	MaxTrendChars      = 200
	MinEvidencePages   = 2
	DefaultSearchModel = "claude-sonnet-4-20250514"
)

// ValueDriver classifies where a use case creates value.
type ValueDriver string

const (
	DriverRevenue ValueDriver = "revenue"
	DriverCost    ValueDriver = "cost"
	DriverRisk    ValueDriver = "risk"
	DriverSpeed   ValueDriver = "speed"
)

type Company struct {
	Name           string `json:"name"`
	Website        string `json:"website"`
	Summary        string `json:"summary"`
	Size           string `json:"size,omitempty"`
	Industry       string `json:"industry,omitempty"`
	Headquarters   string `json:"headquarters,omitempty"`
	FoundingYear   string `json:"founding_year,omitempty"`
	CEO            string `json:"ceo,omitempty"`
	MarketPosition string `json:"market_position,omitempty"`
	LatestNews     string `json:"latest_news,omitempty"`
}

type Industry struct {
	Summary string   `json:"summary"`
	Trends  []string `json:"trends"`
}

type StrategicMove struct {
	Move            string `json:"move"`
	Owner           string `json:"owner"`
	HorizonQuarters int    `json:"horizon_quarters"`
	Rationale       string `json:"rationale"`
}

type Competitor struct {
	Name            string   `json:"name"`
	Website         string   `json:"website"`
	Positioning     string   `json:"positioning"`
	AIMaturity      string   `json:"ai_maturity"`
	InnovationFocus string   `json:"innovation_focus"`
	EmployeeBand    string   `json:"employee_band"`
	GeoFit          string   `json:"geo_fit"`
	EvidencePages   []string `json:"evidence_pages"`
	Citations       []string `json:"citations"`
}

type UseCase struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	ValueDriver      ValueDriver `json:"value_driver"`
	Complexity       int         `json:"complexity"`
	Effort           int         `json:"effort"`
	AnnualBenefitUSD float64     `json:"annual_benefit_usd"`
	OneTimeCostUSD   float64     `json:"one_time_cost_usd"`
	OngoingCostUSD   float64     `json:"ongoing_cost_usd"`
	PaybackMonths    int         `json:"payback_months"`
	DataRequirements []string    `json:"data_requirements"`
	Risks            []string    `json:"risks"`
	NextSteps        []string    `json:"next_steps"`
	Citations        []string    `json:"citations"`
}

// ROISummary is derived from the five use cases, never provider-supplied.
type ROISummary struct {
	TotalBenefitUSD       float64 `json:"total_benefit_usd"`
	TotalInvestmentUSD    float64 `json:"total_investment_usd"`
	OverallROIPct         float64 `json:"overall_roi_pct"`
	WeightedPaybackMonths float64 `json:"weighted_payback_months"`
}

// SynthesisInfo records how much of the brief was repaired or fabricated by
// reconciliation, so downstream consumers can tell a fully sourced brief from
// a padded one without per-field provenance flags.
type SynthesisInfo struct {
	SummaryPadded          bool `json:"summary_padded"`
	TrendsPadded           int  `json:"trends_padded"`
	MovesPadded            int  `json:"moves_padded"`
	CompetitorsSynthesized int  `json:"competitors_synthesized"`
	CompetitorsBackfilled  int  `json:"competitors_backfilled"`
	UseCasesSynthesized    int  `json:"use_cases_synthesized"`
}

func (s SynthesisInfo) Any() bool {
	return s.SummaryPadded || s.TrendsPadded > 0 || s.MovesPadded > 0 ||
		s.CompetitorsSynthesized > 0 || s.CompetitorsBackfilled > 0 || s.UseCasesSynthesized > 0
}

// Brief is the validated output of the pipeline. It is immutable once
// produced; ownership passes to the caller that persists it.
type Brief struct {
	Company        Company         `json:"company"`
	Industry       Industry        `json:"industry"`
	StrategicMoves []StrategicMove `json:"strategic_moves"`
	Competitors    []Competitor    `json:"competitors"`
	UseCases       []UseCase       `json:"use_cases"`
	Citations      []string        `json:"citations"`
	ROI            *ROISummary     `json:"roi,omitempty"`
	Synthesis      SynthesisInfo   `json:"synthesis"`
}

// CrawledFacts is what the site crawler recovered from the company's own
// pages. All fields are optional; a total crawl failure yields the zero value.
type CrawledFacts struct {
	PagesCrawled   []string `json:"pages_crawled"`
	Corpus         string   `json:"-"`
	CEO            string   `json:"ceo,omitempty"`
	FoundingYear   string   `json:"founding_year,omitempty"`
	Size           string   `json:"size,omitempty"`
	Headquarters   string   `json:"headquarters,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	Description    string   `json:"description,omitempty"`
	Products       []string `json:"products,omitempty"`
	Services       []string `json:"services,omitempty"`
	Capabilities   []string `json:"capabilities,omitempty"`
	Markets        []string `json:"markets,omitempty"`
	MarketPosition string   `json:"market_position,omitempty"`
	LatestNews     string   `json:"latest_news,omitempty"`
}

type Request struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

type Metadata struct {
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	DurationMS    int64     `json:"duration_ms"`
	Model         string    `json:"model"`
	PagesCrawled  int       `json:"pages_crawled"`
	CorpusChars   int       `json:"corpus_chars"`
	LLMCalls      int       `json:"llm_calls"`
	SearchRetries int       `json:"search_retries"`
}

type Result struct {
	Request  Request  `json:"request"`
	Brief    Brief    `json:"brief"`
	Metadata Metadata `json:"metadata"`
}
