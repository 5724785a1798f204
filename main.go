package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"proposal-generator/internal/address"
	"proposal-generator/internal/bios"
	"proposal-generator/internal/config"
	"proposal-generator/internal/engine"
	"proposal-generator/internal/extract"
	"proposal-generator/internal/handler"
	"proposal-generator/internal/model"
	"proposal-generator/internal/places"
	"proposal-generator/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repo, closeRepo, err := bios.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeRepo()

	tmpl, err := render.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		return err
	}
	docx, err := render.NewDOCXRenderer(tmpl, cfg.Services)
	if err != nil {
		return err
	}

	var extractor address.Extractor = extract.Unavailable{}
	if cfg.GeminiAPIKey != "" {
		extractor, err = extract.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set; /api/extract is disabled")
	}
	if cfg.PlacesAPIKey == "" {
		logger.Warn("GOOGLE_PLACES_API_KEY not set; address suggestions will fail upstream")
	}

	gen := engine.NewGenerator(repo, render.NewPDFRenderer(), docx, engine.NewAssembler(cfg.Services, nil), logger)
	h := handler.New(gen, repo, places.New(cfg.PlacesURL, cfg.PlacesAPIKey, nil), extractor, logger, handler.Options{
		Production:     cfg.Production(),
		CORSOrigin:     cfg.CORSOrigin,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Catalog:        model.CatalogResponse{Mandates: cfg.Catalog.List(), Services: cfg.Services},
	})

	server := &fasthttp.Server{
		Handler:            h.Handle,
		Name:               "proposal-generator",
		MaxRequestBodySize: cfg.MaxUploadBytes + 1<<20,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       60 * time.Second,
		IdleTimeout:        90 * time.Second,
		Logger:             slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("proposal generator starting", "port", cfg.Port, "env", cfg.Env)
		errc <- server.ListenAndServe(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}
