package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/rs/cors"

	"github.com/bert143-oss/email-scribe-connect/pkg/gmail"
	"github.com/bert143-oss/email-scribe-connect/pkg/prioritizer"
)

const defaultFetchLimit = 10

type Server struct {
	addr        string
	gmail       *gmail.Client
	prioritizer *prioritizer.Service
	fetchLimit  int
	logger      *log.Logger
}

func New(addr string, gmailClient *gmail.Client, prioritizerService *prioritizer.Service, fetchLimit int, logger *log.Logger) *Server {
	if fetchLimit <= 0 {
		fetchLimit = defaultFetchLimit
	}
	return &Server{
		addr:        addr,
		gmail:       gmailClient,
		prioritizer: prioritizerService,
		fetchLimit:  fetchLimit,
		logger:      logger,
	}
}

func (s *Server) Routes() *chi.Mux {
	router := chi.NewRouter()
	router.Use(cors.New(cors.Options{
		AllowCredentials: true,
		AllowedOrigins:   []string{"*"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		Debug:            false,
	}).Handler)

	router.Get("/health", s.handleHealth)
	router.Post("/api/emails/fetch", s.handleFetchEmails)
	router.Post("/api/emails/analyze", s.handleAnalyzeEmails)

	return router
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Started email service", "addr", s.addr)
	return srv.ListenAndServe()
}
