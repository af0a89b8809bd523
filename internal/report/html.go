package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/research"
)

const reportCSS = `
body { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; color: #1f2937; line-height: 1.55; max-width: 860px; margin: 0 auto; padding: 1.25rem; }
h1 { font-size: 1.6rem; border-bottom: 2px solid #92400e; padding-bottom: 0.35rem; }
h2 { font-size: 1.25rem; margin-top: 1.75rem; color: #92400e; }
h3 { font-size: 1.05rem; margin-top: 1.25rem; }
table { border-collapse: collapse; width: 100%; margin: 0.75rem 0; }
th, td { border: 1px solid #d1d5db; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9rem; }
th { background: #fef3c7; }
ul { padding-left: 1.25rem; }
hr { border: none; border-top: 1px solid #d1d5db; margin: 1.5rem 0; }
`

// RenderHTML converts a brief into a standalone HTML document suitable
// for browser viewing or PDF printing.
func RenderHTML(b research.Brief) (string, error) {
	markdown := BuildReportMarkdown(b)

	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	title := html.EscapeString("AI Opportunity Brief: " + b.Company.Name)
	doc := "<!doctype html><html><head><meta charset='utf-8'><title>" + title + "</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		content.String() +
		"</body></html>"
	return doc, nil
}
