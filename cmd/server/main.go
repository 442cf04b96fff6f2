package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/bert143-oss/email-scribe-connect/pkg/ai"
	"github.com/bert143-oss/email-scribe-connect/pkg/config"
	"github.com/bert143-oss/email-scribe-connect/pkg/gmail"
	"github.com/bert143-oss/email-scribe-connect/pkg/prioritizer"
	"github.com/bert143-oss/email-scribe-connect/pkg/server"
)

func main() {
	logger := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           log.DebugLevel,
		TimeFormat:      time.Kitchen,
	})

	cfg, err := config.LoadConfig(true)
	if err != nil {
		panic(errors.Wrap(err, "Failed to load config"))
	}

	if cfg.CompletionsAPIKey == "" {
		logger.Warn("COMPLETIONS_API_KEY is not set, email analysis requests will fail")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	aiService := ai.NewOpenAIService(logger, cfg.CompletionsAPIKey, cfg.CompletionsAPIURL)
	gmailClient := gmail.NewClient(logger, cfg.GmailAPIURL, cfg.BodyCharLimit)
	prioritizerService := prioritizer.NewService(logger, aiService, prioritizer.Config{
		Model:      cfg.CompletionsModel,
		APIKey:     cfg.CompletionsAPIKey,
		BatchLimit: cfg.AnalyzeBatchLimit,
		BodyLimit:  cfg.PromptBodyCharLimit,
	})

	srv := server.New(fmt.Sprintf(":%s", cfg.ServerPort), gmailClient, prioritizerService, cfg.FetchDefaultLimit, logger)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server stopped", "error", err)
	}
}
