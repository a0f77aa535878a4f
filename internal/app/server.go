package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/api/handlers"
	appMiddleware "github.com/orgmind-ai/orgmind/internal/api/middlewares"
	"github.com/orgmind-ai/orgmind/internal/config"
	db "github.com/orgmind-ai/orgmind/internal/core/database"
	"github.com/orgmind-ai/orgmind/internal/core/chat_engine"
	"github.com/orgmind-ai/orgmind/internal/core/ingestion_engine"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, dbClient *db.DatabaseClient, ingestor *ingestion_engine.DocumentIngestor, engine *chat_engine.ChatEngine, logger *zap.Logger) *Server {
	docHandler := handlers.NewDocumentHandler(dbClient, ingestor, logger)
	chatHandler := handlers.NewChatHandler(dbClient, engine, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-api-key"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.TenantAuth(dbClient, cfg.JWTSecret))

			// Upload routes carry a request timeout; the chat route must
			// not, it holds an open event stream.
			protected.Group(func(upload chi.Router) {
				upload.Use(chimiddleware.Timeout(60 * time.Second))
				upload.Post("/upload/file", docHandler.UploadDocument)
				upload.Post("/upload/url", docHandler.UploadURL)
				upload.Get("/upload/documents", docHandler.GetDocuments)
				upload.Delete("/upload/documents/{id}", docHandler.DeleteDocument)
				upload.Get("/chat/logs", chatHandler.GetChatLogs)
				upload.Post("/chat/feedback", chatHandler.SaveFeedback)
			})

			protected.Post("/chat", chatHandler.Chat)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: r,
		},
		logger: logger,
	}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
