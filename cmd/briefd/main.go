package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/briefstore"
	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/httpapi"
	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/report"
	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/research"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", ":8080", "Listen address")
	dbPath := flag.String("db", envOr("BRIEF_DB_PATH", "briefs.db"), "SQLite database path")
	flag.Parse()

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

	store, err := briefstore.Open(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	devMode := strings.EqualFold(os.Getenv("APP_ENV"), "development")
	handler := httpapi.NewServer(pipeline, store, report.NewChromiumPDFRenderer(), devMode)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("briefd listening addr=%s db=%s dev=%v", *addr, *dbPath, devMode)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
