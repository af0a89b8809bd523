package research

import (
	"context"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// candidatePaths is the fixed fan-out list. Only the first maxPages entries
// are fetched; home and about pages carry most of the signal.
var candidatePaths = []string{
	"",
	"/about",
	"/about-us",
	"/company",
	"/leadership",
	"/team",
	"/management",
	"/who-we-are",
	"/news",
	"/ueber-uns",
}

var ceoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:CEO|Chief Executive Officer)\s*[:\-–]\s*([A-ZÄÖÜ][\p{L}.'\-]+(?:\s+[A-ZÄÖÜ][\p{L}.'\-]+){1,3})`),
	regexp.MustCompile(`([A-ZÄÖÜ][\p{L}.'\-]+(?:\s+[A-ZÄÖÜ][\p{L}.'\-]+){1,3})\s*,\s*(?:CEO|Chief Executive Officer)\b`),
	regexp.MustCompile(`Chief Executive Officer\s+([A-ZÄÖÜ][\p{L}.'\-]+(?:\s+[A-ZÄÖÜ][\p{L}.'\-]+){1,3})`),
}

// formerMarkerRe disqualifies a CEO mention when it appears in the
// surrounding window or inside the candidate string itself.
var formerMarkerRe = regexp.MustCompile(`(?i)\b(former|ex-|retired|outgoing|previous|departing|emeritus|ehemalig\w*)`)

const ceoWindowChars = 90

type Crawler struct {
	client      *http.Client
	extractor   *JSONExtractor
	maxPages    int
	pageTimeout time.Duration
	userAgent   string
}

// NewCrawler builds a crawler. extractor may be nil; the crawler then relies
// on the deterministic text pass alone.
func NewCrawler(extractor *JSONExtractor) *Crawler {
	return &Crawler{
		client:      &http.Client{Timeout: DefaultPageTimeout + time.Second},
		extractor:   extractor,
		maxPages:    DefaultMaxPages,
		pageTimeout: DefaultPageTimeout,
		userAgent:   DefaultCrawlerAgent,
	}
}

// Crawl fans out over the candidate paths concurrently, combines successful
// pages into a bounded corpus, and extracts company facts from it. It never
// fails: a total crawl miss returns empty facts.
func (c *Crawler) Crawl(ctx context.Context, website, companyName string) CrawledFacts {
	base := strings.TrimRight(website, "/")
	paths := candidatePaths
	if len(paths) > c.maxPages {
		paths = paths[:c.maxPages]
	}

	texts := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			pageCtx, cancel := context.WithTimeout(gctx, c.pageTimeout)
			defer cancel()
			text, err := c.fetchPage(pageCtx, base+p)
			if err != nil {
				log.Printf("research crawl_page_skipped url=%s err=%q", base+p, err.Error())
				return nil
			}
			if len(text) < MinPageChars {
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()

	facts := CrawledFacts{}
	var corpus strings.Builder
	for i, text := range texts {
		if text == "" {
			continue
		}
		url := base + paths[i]
		room := MaxCorpusChars - corpus.Len()
		if room <= 0 {
			break
		}
		entry := "[" + url + "]\n" + text + "\n\n"
		if len(entry) > room {
			entry = entry[:room]
		}
		corpus.WriteString(entry)
		facts.PagesCrawled = append(facts.PagesCrawled, url)
	}
	facts.Corpus = corpus.String()
	if facts.Corpus == "" {
		log.Printf("research crawl_empty website=%s", website)
		return facts
	}

	regexCEO := ceoFromCorpus(facts.Corpus)

	if c.extractor != nil {
		if err := c.extractFacts(ctx, &facts); err != nil {
			log.Printf("research crawl_extraction_failed website=%s err=%q", website, err.Error())
		}
	}
	// The deterministic pass is a fallback only: it never overrides a valid
	// extracted name, but fills in when extraction found nothing.
	if facts.CEO == "" && regexCEO != "" {
		facts.CEO = regexCEO
	}
	return facts
}

func (c *Crawler) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	res, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", &httpStatusError{status: res.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if err != nil {
		return "", err
	}
	return extractPageText(string(body)), nil
}

type httpStatusError struct{ status int }

func (e *httpStatusError) Error() string { return http.StatusText(e.status) }

var skipElements = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "iframe": {}, "svg": {}, "head": {},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// extractPageText strips non-content markup and returns a bounded-length
// plain-text excerpt.
func extractPageText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(sb.String(), " "))
	if len(text) > MaxPageChars {
		text = text[:MaxPageChars]
	}
	return text
}

// ceoFromCorpus runs the deterministic chief-executive pass: every pattern
// match is classified current vs. former by inspecting a window of
// surrounding text for disqualifying terms. First current match wins.
func ceoFromCorpus(corpus string) string {
	for _, re := range ceoPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(corpus, -1) {
			name := strings.TrimSpace(corpus[m[2]:m[3]])
			if len(strings.Fields(name)) < 2 {
				continue
			}
			lo := m[0] - ceoWindowChars
			if lo < 0 {
				lo = 0
			}
			hi := m[1] + ceoWindowChars
			if hi > len(corpus) {
				hi = len(corpus)
			}
			if hasFormerMarker(corpus[lo:hi]) {
				continue
			}
			return name
		}
	}
	return ""
}

func hasFormerMarker(s string) bool {
	return formerMarkerRe.MatchString(s)
}
