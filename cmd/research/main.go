package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/briefstore"
	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/report"
	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/research"
)

func main() {
	_ = godotenv.Load()

	companyName := flag.String("company", "", "Company name to research")
	website := flag.String("website", "", "Company website URL")
	format := flag.String("format", "markdown", "Output format: markdown, json, html")
	outPath := flag.String("out", "", "Write output to file instead of stdout")
	dbPath := flag.String("db", os.Getenv("BRIEF_DB_PATH"), "SQLite path; when set, the brief is persisted and its share slug printed")
	flag.Parse()

	if strings.TrimSpace(*companyName) == "" || strings.TrimSpace(*website) == "" {
		log.Fatal("both -company and -website are required")
	}

	caller, err := research.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	pipeline := research.NewPipeline(
		research.NewCrawler(research.NewJSONExtractor(caller)),
		research.NewSearchProvider(caller),
	)
	if err := pipeline.ValidateConfig(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := pipeline.Run(ctx, research.Request{Name: *companyName, Website: *website})
	if err != nil {
		log.Fatalf("research failed (stage=%s): %v", research.StageFromError(err), err)
	}

	if *dbPath != "" {
		store, err := briefstore.Open(*dbPath)
		if err != nil {
			log.Fatal(err)
		}
		saved, err := store.Save(ctx, result.Brief)
		store.Close()
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("brief saved id=%s share_slug=%s", saved.ID, saved.ShareSlug)
	}

	var out []byte
	switch *format {
	case "markdown", "md":
		out = []byte(report.BuildReportMarkdown(result.Brief))
	case "json":
		out, err = json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
	case "html":
		doc, err := report.RenderHTML(result.Brief)
		if err != nil {
			log.Fatal(err)
		}
		out = []byte(doc)
	default:
		log.Fatalf("unknown format %q", *format)
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s (%d bytes)", *outPath, len(out))
		return
	}
	fmt.Println(string(out))
}
