package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const searchSystemPrompt = "You are a market research analyst with live web access. You cite sources for every claim, " +
	"stay conservative with figures, and never invent companies or URLs. Return strict JSON only."

const extractSystemPrompt = "You extract structured facts from raw website text. You never guess: a field that is not " +
	"stated in the text is null. Return strict JSON only."

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

type providerFailureClass int

const (
	failureTimeout providerFailureClass = iota
	failureRateLimit
	failureServer
	failureClient
)

// TextGenerator is the one-shot LLM contract both adapters are built on.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	ModelName() string
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// AnthropicCaller adapts the Anthropic messages API to TextGenerator.
type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
}

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	model := strings.TrimSpace(os.Getenv("RESEARCH_LLM_MODEL"))
	if model == "" {
		model = DefaultSearchModel
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey), model: model}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   8192,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// SearchProvider wraps a web-search-capable model with retry and backoff.
// Attempts = MaxRetries+1, each bounded by Timeout; backoff between attempts
// is 2^n seconds for the n-th failure.
type SearchProvider struct {
	gen        TextGenerator
	maxRetries int
	timeout    time.Duration
}

func NewSearchProvider(gen TextGenerator) *SearchProvider {
	return &SearchProvider{gen: gen, maxRetries: DefaultMaxRetries, timeout: DefaultSearchTimeout}
}

func (p *SearchProvider) ModelName() string { return p.gen.ModelName() }

// Search returns the raw text of the first successful attempt. Exhausted
// retries escalate to a terminal error embedding the last failure.
func (p *SearchProvider) Search(ctx context.Context, prompt string) (string, int, error) {
	var lastErr error
	retries := 0
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			retries++
			if err := sleepCtx(ctx, backoffDelay(attempt-1)); err != nil {
				return "", retries, err
			}
		}
		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		text, err := p.gen.Generate(attemptCtx, searchSystemPrompt, prompt)
		cancel()
		if err != nil {
			class := classifyTransportError(err)
			log.Printf("research search_attempt_failed attempt=%d class=%d elapsed_ms=%d err=%q",
				attempt+1, class, time.Since(start).Milliseconds(), err.Error())
			lastErr = err
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Printf("research search_attempt_empty attempt=%d elapsed_ms=%d", attempt+1, time.Since(start).Milliseconds())
			lastErr = errors.New("empty response body")
			continue
		}
		log.Printf("research search_attempt_success attempt=%d elapsed_ms=%d response_chars=%d",
			attempt+1, time.Since(start).Milliseconds(), len(text))
		return text, retries, nil
	}
	return "", retries, fmt.Errorf("search provider failed after %d attempts: %w", p.maxRetries+1, lastErr)
}

// JSONExtractor wraps a JSON-mode model. Single attempt per call; retry
// policy, if any, belongs to the orchestrator.
type JSONExtractor struct {
	gen     TextGenerator
	timeout time.Duration
}

func NewJSONExtractor(gen TextGenerator) *JSONExtractor {
	return &JSONExtractor{gen: gen, timeout: DefaultExtractTimeout}
}

func (e *JSONExtractor) ModelName() string { return e.gen.ModelName() }

// GenerateJSON sends a system+user prompt pair and decodes the JSON object in
// the response into out, tolerating markdown fences and surrounding prose.
func (e *JSONExtractor) GenerateJSON(ctx context.Context, system, prompt string, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	text, err := e.gen.Generate(attemptCtx, system, prompt)
	if err != nil {
		return fmt.Errorf("extraction transport failure: %w", err)
	}
	raw, err := extractJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("extraction json parse: %w", err)
	}
	return nil
}

// extractJSONObject pulls a JSON object out of model text. A fenced code
// block wins; otherwise the first balanced top-level {...} span is taken.
// Malformed JSON is a parse error, not retried at this layer.
func extractJSONObject(text string) (string, error) {
	s := stripCodeFences(text)
	if strings.HasPrefix(strings.TrimSpace(s), "{") {
		s = strings.TrimSpace(s)
	} else {
		span, ok := firstObjectSpan(s)
		if !ok {
			return "", fmt.Errorf("no JSON object found in response (%d chars)", len(text))
		}
		s = span
	}
	if !json.Valid([]byte(s)) {
		return "", fmt.Errorf("malformed JSON object in response (%d chars)", len(s))
	}
	return s, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// firstObjectSpan scans for the first balanced {...} span, respecting string
// literals and escapes.
func firstObjectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func classifyTransportError(err error) providerFailureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	msg := strings.ToLower(err.Error())
	if m := statusCodeRe.FindStringSubmatch(msg); len(m) == 2 {
		switch {
		case strings.HasPrefix(m[1], "429"):
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status 4"), strings.Contains(msg, "status=4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(n int) time.Duration {
	return time.Duration(1<<uint(n)) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
