package research

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func validCandidate() map[string]any {
	useCases := make([]any, 0, 5)
	for i := 1; i <= 5; i++ {
		useCases = append(useCases, map[string]any{
			"title":              fmt.Sprintf("Automated quality inspection line %d", i),
			"description":        "Computer vision checks on the packaging line.",
			"value_driver":       "cost",
			"complexity":         float64(2),
			"effort":             float64(3),
			"annual_benefit_usd": float64(100000 * i),
			"one_time_cost_usd":  float64(50000),
			"ongoing_cost_usd":   float64(10000),
			"payback_months":     float64(6),
			"data_requirements":  []any{"Line camera footage"},
			"risks":              []any{"Model drift on new packaging"},
			"next_steps":         []any{"Pilot on one line"},
			"citations":          []any{"https://example.com/report"},
		})
	}
	return map[string]any{
		"company": map[string]any{
			"name":    "Acme Robotics",
			"summary": strings.Repeat("Acme Robotics builds pick-and-place robots for mid-size warehouses. ", 3),
			"ceo":     "Jordan Vale",
		},
		"industry": map[string]any{
			"summary": "Warehouse automation is a fast-growing, consolidating market.",
			"trends": []any{
				"Labor shortages push operators toward robotic picking",
				"Robotics-as-a-service pricing lowers adoption barriers",
				"Vision-language models improve bin-picking generalization",
				"Interoperability standards for fleet orchestration are emerging",
			},
		},
		"strategic_moves": []any{
			map[string]any{"move": "Launch an AI pilot program", "owner": "COO", "horizon_quarters": float64(2), "rationale": "Fastest path to measurable savings"},
			map[string]any{"move": "Hire a data platform lead", "owner": "CTO", "horizon_quarters": float64(1), "rationale": "Unblocks downstream use cases"},
			map[string]any{"move": "Negotiate GPU capacity reservations", "owner": "CFO", "horizon_quarters": float64(3), "rationale": "Cost control for inference workloads"},
		},
		"competitors": []any{
			map[string]any{"name": "Gripper Dynamics", "website": "https://gripperdynamics.com", "positioning": "Premium arm vendor", "ai_maturity": "established", "innovation_focus": "dexterous manipulation", "employee_band": "201-500", "geo_fit": "North America", "evidence_pages": []any{"https://gripperdynamics.com", "https://gripperdynamics.com/products"}, "citations": []any{}},
			map[string]any{"name": "Shelfwise", "website": "https://shelfwise.io", "positioning": "Software-first orchestration", "ai_maturity": "emerging", "innovation_focus": "fleet software", "employee_band": "51-200", "geo_fit": "Europe", "evidence_pages": []any{"https://shelfwise.io", "https://shelfwise.io/about"}, "citations": []any{}},
		},
		"use_cases": useCases,
		"citations": []any{"https://example.com/report", "https://example.com/industry"},
	}
}

func TestReconcileValidCandidate(t *testing.T) {
	b, err := Reconcile(validCandidate(), "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.UseCases) != UseCaseCount {
		t.Fatalf("use cases = %d, want %d", len(b.UseCases), UseCaseCount)
	}
	for _, uc := range b.UseCases {
		if uc.AnnualBenefitUSD <= 0 {
			t.Fatalf("use case %q has non-positive benefit", uc.Title)
		}
		if uc.PaybackMonths < 1 {
			t.Fatalf("use case %q payback = %d", uc.Title, uc.PaybackMonths)
		}
	}
	if len(b.Competitors) != 2 {
		t.Fatalf("competitors = %d, want 2", len(b.Competitors))
	}
	if len(b.Industry.Trends) != 4 {
		t.Fatalf("trends = %d, want 4", len(b.Industry.Trends))
	}
	if len(b.StrategicMoves) != 3 {
		t.Fatalf("moves = %d, want 3", len(b.StrategicMoves))
	}
	if b.Synthesis.Any() {
		t.Fatalf("fully sourced candidate should need no synthesis, got %+v", b.Synthesis)
	}
	if b.ROI == nil {
		t.Fatal("ROI summary missing")
	}
	if b.ROI.TotalBenefitUSD != 1500000 {
		t.Fatalf("total benefit = %v", b.ROI.TotalBenefitUSD)
	}
	if b.Company.CEO != "Jordan Vale" {
		t.Fatalf("ceo = %q", b.Company.CEO)
	}
	if err := ValidateBrief(b); err != nil {
		t.Fatal(err)
	}
}

func TestReconcileNilCandidate(t *testing.T) {
	_, err := Reconcile(nil, "Acme", "https://acme.com")
	if !errors.Is(err, ErrInternalConsistency) {
		t.Fatalf("err = %v, want ErrInternalConsistency", err)
	}
}

func TestReconcileDuplicateUseCases(t *testing.T) {
	raw := validCandidate()
	dups := make([]any, 0, 7)
	for i := 0; i < 7; i++ {
		// Seven entries but only three distinct titles once the trailing
		// audience suffix is stripped.
		title := fmt.Sprintf("Invoice triage %d", i%3)
		if i >= 3 {
			title += " - for Acme Robotics"
		}
		dups = append(dups, map[string]any{
			"title":              title,
			"annual_benefit_usd": float64(120000),
			"one_time_cost_usd":  float64(40000),
			"ongoing_cost_usd":   float64(8000),
		})
	}
	raw["use_cases"] = dups

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.UseCases) != UseCaseCount {
		t.Fatalf("use cases = %d, want %d", len(b.UseCases), UseCaseCount)
	}
	seen := map[string]struct{}{}
	for _, uc := range b.UseCases {
		key := normalizeName(uc.Title)
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate title survived: %q", uc.Title)
		}
		seen[key] = struct{}{}
	}
	if b.Synthesis.UseCasesSynthesized != 2 {
		t.Fatalf("synthesized = %d, want 2", b.Synthesis.UseCasesSynthesized)
	}
}

func TestReconcileDropsNonPositiveBenefit(t *testing.T) {
	raw := validCandidate()
	cases := raw["use_cases"].([]any)
	cases[0].(map[string]any)["annual_benefit_usd"] = float64(0)
	cases[1].(map[string]any)["annual_benefit_usd"] = float64(-5000)

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.UseCases) != UseCaseCount {
		t.Fatalf("use cases = %d, want %d", len(b.UseCases), UseCaseCount)
	}
	for _, uc := range b.UseCases {
		if uc.AnnualBenefitUSD <= 0 {
			t.Fatalf("non-positive benefit survived on %q", uc.Title)
		}
	}
	if b.Synthesis.UseCasesSynthesized != 2 {
		t.Fatalf("synthesized = %d, want 2", b.Synthesis.UseCasesSynthesized)
	}
}

func TestReconcilePreservesProviderPayback(t *testing.T) {
	raw := validCandidate()
	cases := raw["use_cases"].([]any)
	cases[0].(map[string]any)["payback_months"] = float64(9)
	delete(cases[1].(map[string]any), "payback_months")

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if b.UseCases[0].PaybackMonths != 9 {
		t.Fatalf("provider payback overwritten: %d", b.UseCases[0].PaybackMonths)
	}
	// 60000 / 200000 * 12 = 3.6, rounds to 4.
	if b.UseCases[1].PaybackMonths != 4 {
		t.Fatalf("derived payback = %d, want 4", b.UseCases[1].PaybackMonths)
	}
}

func TestComputePaybackMonths(t *testing.T) {
	tests := []struct {
		benefit, oneTime, ongoing float64
		want                      int
	}{
		{0, 50000, 10000, 12},
		{-1, 50000, 10000, 12},
		{1000000, 1000, 0, 1},
		{100000, 50000, 10000, 7},
		{120000, 40000, 8000, 5},
	}
	for _, tt := range tests {
		if got := computePaybackMonths(tt.benefit, tt.oneTime, tt.ongoing); got != tt.want {
			t.Errorf("computePaybackMonths(%v, %v, %v) = %d, want %d", tt.benefit, tt.oneTime, tt.ongoing, got, tt.want)
		}
	}
}

func TestReconcileCompetitorSelfAndDuplicates(t *testing.T) {
	raw := validCandidate()
	raw["competitors"] = []any{
		map[string]any{"name": "Acme Robotics", "website": "https://acme-robotics.com"},
		map[string]any{"name": "Gripper Dynamics", "website": "https://gripperdynamics.com", "geo_fit": "NA", "evidence_pages": []any{"https://gripperdynamics.com", "https://gripperdynamics.com/products"}},
		map[string]any{"name": "Gripper Dynamics", "website": "https://www.gripperdynamics.com/about", "geo_fit": "NA"},
		map[string]any{"name": "Shelfwise", "website": "shelfwise.io", "geo_fit": "EU", "evidence_pages": []any{"https://shelfwise.io", "https://shelfwise.io/about"}},
	}

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Competitors) != 2 {
		t.Fatalf("competitors = %d, want 2", len(b.Competitors))
	}
	for _, c := range b.Competitors {
		if normalizeName(c.Name) == normalizeName("Acme Robotics") {
			t.Fatal("subject company listed as its own competitor")
		}
		if len(c.EvidencePages) < MinEvidencePages {
			t.Fatalf("competitor %q has %d evidence pages", c.Name, len(c.EvidencePages))
		}
	}
	if b.Competitors[1].Website != "https://shelfwise.io" {
		t.Fatalf("scheme not normalized: %q", b.Competitors[1].Website)
	}
}

func TestReconcileCompetitorFloorSynthesis(t *testing.T) {
	raw := validCandidate()
	raw["competitors"] = []any{}

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Competitors) != MinCompetitors {
		t.Fatalf("competitors = %d, want %d", len(b.Competitors), MinCompetitors)
	}
	if b.Synthesis.CompetitorsSynthesized != MinCompetitors {
		t.Fatalf("synthesized = %d, want %d", b.Synthesis.CompetitorsSynthesized, MinCompetitors)
	}
	for _, c := range b.Competitors {
		if len(c.EvidencePages) < MinEvidencePages {
			t.Fatalf("synthesized competitor %q has %d evidence pages", c.Name, len(c.EvidencePages))
		}
	}
}

func TestReconcileCompetitorCap(t *testing.T) {
	raw := validCandidate()
	many := make([]any, 0, 9)
	for i := 0; i < 9; i++ {
		many = append(many, map[string]any{
			"name":    fmt.Sprintf("Rival %d", i),
			"website": fmt.Sprintf("https://rival%d.com", i),
			"geo_fit": "Global",
			"evidence_pages": []any{
				fmt.Sprintf("https://rival%d.com", i),
				fmt.Sprintf("https://rival%d.com/about", i),
			},
		})
	}
	raw["competitors"] = many

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Competitors) != MaxCompetitors {
		t.Fatalf("competitors = %d, want %d", len(b.Competitors), MaxCompetitors)
	}
}

func TestReconcileTrendPadding(t *testing.T) {
	raw := validCandidate()
	raw["industry"].(map[string]any)["trends"] = []any{
		"Robotics-as-a-service pricing lowers adoption barriers",
		"Labor shortages push operators toward robotic picking",
	}

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Industry.Trends) != MinTrends {
		t.Fatalf("trends = %d, want %d", len(b.Industry.Trends), MinTrends)
	}
	if b.Industry.Trends[0] != "Robotics-as-a-service pricing lowers adoption barriers" {
		t.Fatalf("original trend displaced: %q", b.Industry.Trends[0])
	}
	if b.Synthesis.TrendsPadded != 2 {
		t.Fatalf("trends padded = %d, want 2", b.Synthesis.TrendsPadded)
	}
}

func TestReconcileShortSummaryPadded(t *testing.T) {
	raw := validCandidate()
	original := "Acme builds warehouse robots since 2015."
	raw["company"].(map[string]any)["summary"] = original

	b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Company.Summary) < MinSummaryChars {
		t.Fatalf("summary still short: %d chars", len(b.Company.Summary))
	}
	if !strings.HasPrefix(b.Company.Summary, original) {
		t.Fatalf("original summary not preserved verbatim at front: %q", b.Company.Summary)
	}
	if !b.Synthesis.SummaryPadded {
		t.Fatal("summary padding not recorded")
	}
}

func TestReconcileRejectsInvalidCEO(t *testing.T) {
	tests := []string{"", "Madonna", "The CEO", "Jane Doe", "Alex Gray, former CEO"}
	for _, name := range tests {
		raw := validCandidate()
		raw["company"].(map[string]any)["ceo"] = name
		b, err := Reconcile(raw, "Acme Robotics", "https://acme-robotics.com")
		if err != nil {
			t.Fatal(err)
		}
		if b.Company.CEO != "" {
			t.Fatalf("ceo %q should have been discarded, got %q", name, b.Company.CEO)
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	first, err := Reconcile(validCandidate(), "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}

	// Feed the finished brief back through as if a provider had returned it.
	blob, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	var roundTrip map[string]any
	if err := json.Unmarshal(blob, &roundTrip); err != nil {
		t.Fatal(err)
	}
	second, err := Reconcile(roundTrip, "Acme Robotics", "https://acme-robotics.com")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconciliation not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestNormalizeName(t *testing.T) {
	if normalizeName("  Acme, Inc.  ") != normalizeName("acme inc") {
		t.Fatal("punctuation and case should not distinguish names")
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://www.example.com/about", "example.com"},
		{"https://sub.shop.example.co.uk", "example.co.uk"},
		{"example.com", "example.com"},
	}
	for _, tt := range tests {
		if got := registrableDomain(tt.in); got != tt.want {
			t.Errorf("registrableDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
