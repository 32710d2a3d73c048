package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rapid-dispatch/backend/internal/config"
	"github.com/rapid-dispatch/backend/internal/db"
	"github.com/rapid-dispatch/backend/internal/extract"
	"github.com/rapid-dispatch/backend/internal/geocode"
	httpapi "github.com/rapid-dispatch/backend/internal/http"
	"github.com/rapid-dispatch/backend/internal/service"
	"github.com/rapid-dispatch/backend/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "triage-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	extractors := []extract.Extractor{}
	if cfg.OpenAIKey != "" {
		extractors = append(extractors, extract.OpenAIExtractor{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OutboundTimeout,
		})
	} else {
		logger.Info().Msg("no OpenAI key configured, using keyword extractor only")
	}
	extractors = append(extractors, extract.MockExtractor{})
	chain := extract.Chain{Extractors: extractors}

	events := &voice.EventsClient{
		BaseURL: cfg.HumeBaseURL,
		APIKey:  cfg.HumeKey,
		Client:  &http.Client{Timeout: cfg.OutboundTimeout},
	}

	assembler := &service.Assembler{
		Chain:    chain,
		Resolver: geocode.NewGazetteerResolver(),
		Logger:   logger,
	}
	analyzer := &service.ConversationAnalyzer{
		Events:    events,
		Assembler: assembler,
		Logger:    logger,
	}

	router := httpapi.Router(cfg, store, assembler, analyzer, events, chain, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
