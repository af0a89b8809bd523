package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

type SearchRunner interface {
	Search(ctx context.Context, prompt string) (string, int, error)
	ModelName() string
}

type SiteCrawler interface {
	Crawl(ctx context.Context, website, companyName string) CrawledFacts
}

// Pipeline drives one research invocation: crawl, search, merge, reconcile,
// validate. Invocations are independent and hold no state across calls.
type Pipeline struct {
	crawler SiteCrawler
	search  SearchRunner
}

func NewPipeline(crawler SiteCrawler, search SearchRunner) *Pipeline {
	return &Pipeline{crawler: crawler, search: search}
}

func (p *Pipeline) ValidateConfig() error {
	if p.crawler == nil {
		return fmt.Errorf("crawler is required")
	}
	if p.search == nil {
		return fmt.Errorf("search runner is required")
	}
	return nil
}

// Run produces a validated Brief or fails as a whole. There is no
// whole-pipeline retry: retries are scoped to individual provider calls, and
// a structural failure after a successful provider call is never silently
// retried.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	res := Result{
		Request:  req,
		Metadata: Metadata{StartedAt: time.Now(), Model: p.search.ModelName()},
	}
	if strings.TrimSpace(req.Name) == "" {
		return res, &PipelineError{Stage: "input", Err: errors.New("company name is required")}
	}
	website, err := NormalizeWebsite(req.Website)
	if err != nil {
		return res, &PipelineError{Stage: "input", Err: err}
	}
	res.Request.Website = website

	facts := p.crawler.Crawl(ctx, website, req.Name)
	res.Metadata.PagesCrawled = len(facts.PagesCrawled)
	res.Metadata.CorpusChars = len(facts.Corpus)
	if facts.Corpus != "" {
		res.Metadata.LLMCalls++
	}
	log.Printf("research crawl_done website=%s pages=%d corpus_chars=%d ceo_found=%t",
		website, len(facts.PagesCrawled), len(facts.Corpus), facts.CEO != "")

	text, retries, err := p.search.Search(ctx, buildResearchPrompt(req.Name, website, facts))
	res.Metadata.SearchRetries = retries
	res.Metadata.LLMCalls += retries + 1
	if err != nil {
		return res, &PipelineError{Stage: "search", Err: err}
	}

	rawJSON, err := extractJSONObject(text)
	if err != nil {
		return res, &PipelineError{Stage: "parse", Err: err}
	}
	var candidate map[string]any
	if err := json.Unmarshal([]byte(rawJSON), &candidate); err != nil {
		return res, &PipelineError{Stage: "parse", Err: err}
	}

	mergeCrawledFacts(candidate, facts)

	brief, err := Reconcile(candidate, req.Name, website)
	if err != nil {
		return res, &PipelineError{Stage: "reconcile", Err: err}
	}
	if err := ValidateBrief(brief); err != nil {
		return res, &PipelineError{Stage: "validate", Err: err}
	}

	res.Brief = brief
	res.Metadata.CompletedAt = time.Now()
	res.Metadata.DurationMS = res.Metadata.CompletedAt.Sub(res.Metadata.StartedAt).Milliseconds()
	log.Printf("research pipeline_done company=%q duration_ms=%d synthesized=%t",
		req.Name, res.Metadata.DurationMS, brief.Synthesis.Any())
	return res, nil
}

// mergeCrawledFacts folds own-site evidence into the search candidate before
// reconciliation. Site-derived identity facts win over searched ones; softer
// fields only backfill gaps.
func mergeCrawledFacts(candidate map[string]any, facts CrawledFacts) {
	company := mapVal(candidate["company"])
	if company == nil {
		company = map[string]any{}
		candidate["company"] = company
	}
	override := func(key, v string) {
		if v != "" {
			company[key] = v
		}
	}
	backfill := func(key, v string) {
		if v != "" && strings.TrimSpace(str(company[key])) == "" {
			company[key] = v
		}
	}
	override("ceo", facts.CEO)
	override("founding_year", facts.FoundingYear)
	override("size", facts.Size)
	backfill("headquarters", facts.Headquarters)
	backfill("industry", facts.Industry)
	backfill("summary", facts.Description)
	backfill("market_position", facts.MarketPosition)
	backfill("latest_news", facts.LatestNews)

	if len(facts.PagesCrawled) > 0 {
		citations := strList(candidate["citations"])
		for _, page := range facts.PagesCrawled {
			dup := false
			for _, c := range citations {
				if c == page {
					dup = true
					break
				}
			}
			if !dup {
				citations = append(citations, page)
			}
		}
		candidate["citations"] = toAnySlice(citations)
	}
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// NormalizeWebsite ensures a scheme, lowercases the host, and strips the
// trailing slash.
func NormalizeWebsite(website string) (string, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return "", errors.New("company website is required")
	}
	u, err := url.Parse(ensureScheme(website))
	if err != nil {
		return "", fmt.Errorf("invalid website %q: %w", website, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid website %q: no host", website)
	}
	u.Host = strings.ToLower(u.Host)
	return strings.TrimRight(u.String(), "/"), nil
}
