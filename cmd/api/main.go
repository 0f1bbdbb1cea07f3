package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"slidecanvas/api/internal/app"
	"slidecanvas/api/internal/assets"
	"slidecanvas/api/internal/config"
	"slidecanvas/api/internal/genai"
	"slidecanvas/api/internal/search"
	"slidecanvas/api/internal/store"
	"slidecanvas/api/internal/thumbnail"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)
	searchService.ReindexAllFromPG(ctx)

	renderer := thumbnail.NewRenderer()
	opts := app.Options{
		Search: searchService,
		Thumbs: renderer,
	}

	if generator := buildGenerator(ctx, cfg); generator != nil {
		opts.Generator = generator
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		assetStore, err := assets.New(ctx, assets.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Printf("WARNING: object storage unavailable, inline payloads stay in the database: %v", err)
		} else {
			opts.Assets = assetStore
			opts.Thumbs = thumbnail.NewCached(renderer, assetStore)
		}
	}

	service := app.NewService(dataStore, opts)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Slide Canvas API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// buildGenerator picks the LLM backend from config and wraps it with the
// Redis prompt cache when one is configured. Returns nil when generation is
// not set up; the generate endpoint then answers 503.
func buildGenerator(ctx context.Context, cfg config.Config) genai.Generator {
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		log.Printf("LLM_API_KEY not set, generation disabled")
		return nil
	}

	var generator genai.Generator
	switch cfg.LLMProvider {
	case "openai":
		chatModel, err := genai.NewChatModel(ctx, cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		if err != nil {
			log.Printf("WARNING: openai chat model init failed, generation disabled: %v", err)
			return nil
		}
		generator = chatModel
	default:
		generator = genai.NewGemini(cfg.LLMAPIKey, cfg.LLMModel)
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		cached, err := genai.NewCachedFromURL(generator, cfg.RedisURL, cfg.GenCacheTTL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, running without prompt cache: %v", err)
			return generator
		}
		log.Printf("Prompt cache enabled (ttl %s)", cfg.GenCacheTTL)
		return cached
	}
	return generator
}
