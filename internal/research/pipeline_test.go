package research

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type fakeSearch struct {
	text    string
	retries int
	err     error
	seen    string
}

func (f *fakeSearch) ModelName() string { return "fake-model" }

func (f *fakeSearch) Search(ctx context.Context, prompt string) (string, int, error) {
	f.seen = prompt
	return f.text, f.retries, f.err
}

type fakeCrawler struct {
	facts CrawledFacts
}

func (f *fakeCrawler) Crawl(ctx context.Context, website, companyName string) CrawledFacts {
	return f.facts
}

func candidateText(t *testing.T) string {
	t.Helper()
	blob, err := json.Marshal(validCandidate())
	if err != nil {
		t.Fatal(err)
	}
	return "Here is the research result:\n```json\n" + string(blob) + "\n```"
}

func TestPipelineRunFull(t *testing.T) {
	search := &fakeSearch{text: candidateText(t), retries: 1}
	crawler := &fakeCrawler{facts: CrawledFacts{
		PagesCrawled: []string{"https://acme-robotics.com", "https://acme-robotics.com/about"},
		Corpus:       strings.Repeat("site text ", 50),
		CEO:          "Riley Chen",
		FoundingYear: "2015",
		Size:         "250 employees",
	}}
	p := NewPipeline(crawler, search)

	res, err := p.Run(context.Background(), Request{Name: "Acme Robotics", Website: "Acme-Robotics.com/"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Request.Website != "https://acme-robotics.com" {
		t.Fatalf("website = %q", res.Request.Website)
	}
	// Own-site identity facts beat the searched candidate.
	if res.Brief.Company.CEO != "Riley Chen" {
		t.Fatalf("ceo = %q, want crawled value", res.Brief.Company.CEO)
	}
	if res.Brief.Company.FoundingYear != "2015" {
		t.Fatalf("founding year = %q", res.Brief.Company.FoundingYear)
	}
	if res.Brief.Company.Size != "250 employees" {
		t.Fatalf("size = %q", res.Brief.Company.Size)
	}
	// Crawled pages join the citation list.
	found := false
	for _, c := range res.Brief.Citations {
		if c == "https://acme-robotics.com/about" {
			found = true
		}
	}
	if !found {
		t.Fatalf("crawled page missing from citations: %v", res.Brief.Citations)
	}
	if res.Metadata.PagesCrawled != 2 {
		t.Fatalf("pages crawled = %d", res.Metadata.PagesCrawled)
	}
	if res.Metadata.SearchRetries != 1 {
		t.Fatalf("search retries = %d", res.Metadata.SearchRetries)
	}
	if res.Metadata.Model != "fake-model" {
		t.Fatalf("model = %q", res.Metadata.Model)
	}
	if res.Metadata.CompletedAt.Before(res.Metadata.StartedAt) {
		t.Fatal("metadata timestamps out of order")
	}
	if err := ValidateBrief(res.Brief); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(search.seen, "Acme Robotics") {
		t.Fatal("prompt should carry the company name")
	}
}

func TestPipelineRunMissingName(t *testing.T) {
	p := NewPipeline(&fakeCrawler{}, &fakeSearch{})
	_, err := p.Run(context.Background(), Request{Name: "  ", Website: "https://acme.com"})
	if StageFromError(err) != "input" {
		t.Fatalf("stage = %q, err = %v", StageFromError(err), err)
	}
}

func TestPipelineRunBadWebsite(t *testing.T) {
	p := NewPipeline(&fakeCrawler{}, &fakeSearch{})
	_, err := p.Run(context.Background(), Request{Name: "Acme", Website: "   "})
	if StageFromError(err) != "input" {
		t.Fatalf("stage = %q, err = %v", StageFromError(err), err)
	}
}

func TestPipelineRunSearchFailure(t *testing.T) {
	search := &fakeSearch{err: errors.New("search provider failed after 3 attempts: status 500"), retries: 2}
	p := NewPipeline(&fakeCrawler{}, search)
	res, err := p.Run(context.Background(), Request{Name: "Acme", Website: "https://acme.com"})
	if StageFromError(err) != "search" {
		t.Fatalf("stage = %q, err = %v", StageFromError(err), err)
	}
	if res.Metadata.SearchRetries != 2 {
		t.Fatalf("retries not recorded: %d", res.Metadata.SearchRetries)
	}
}

func TestPipelineRunParseFailure(t *testing.T) {
	search := &fakeSearch{text: "I could not find any structured information."}
	p := NewPipeline(&fakeCrawler{}, search)
	_, err := p.Run(context.Background(), Request{Name: "Acme", Website: "https://acme.com"})
	if StageFromError(err) != "parse" {
		t.Fatalf("stage = %q, err = %v", StageFromError(err), err)
	}
	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err type = %T", err)
	}
}

func TestPipelineRunSparseCandidateStillValid(t *testing.T) {
	// A nearly empty but well-formed candidate must reconcile into a valid
	// brief rather than fail.
	search := &fakeSearch{text: `{"company": {"name": "Acme"}}`}
	p := NewPipeline(&fakeCrawler{}, search)
	res, err := p.Run(context.Background(), Request{Name: "Acme", Website: "https://acme.com"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Brief.Synthesis.Any() {
		t.Fatal("sparse candidate should be flagged as synthesized")
	}
	if err := ValidateBrief(res.Brief); err != nil {
		t.Fatal(err)
	}
}

func TestNormalizeWebsite(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"acme.com", "https://acme.com", false},
		{"HTTPS://ACME.com/", "https://acme.com", false},
		{"http://acme.com/path", "http://acme.com/path", false},
		{"", "", true},
		{"https://", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeWebsite(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeWebsite(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeWebsite(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeWebsite(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
