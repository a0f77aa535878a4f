package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/config"
	"github.com/orgmind-ai/orgmind/internal/core/chat_engine"
	"github.com/orgmind-ai/orgmind/internal/core/chunker"
	db "github.com/orgmind-ai/orgmind/internal/core/database"
	"github.com/orgmind-ai/orgmind/internal/core/extractor_engine"
	"github.com/orgmind-ai/orgmind/internal/core/ingestion_engine"
	"github.com/orgmind-ai/orgmind/internal/core/llm"
	objectclient "github.com/orgmind-ai/orgmind/internal/core/object-client"
	"github.com/orgmind-ai/orgmind/internal/core/vectorstore"
)

const ingestWorkers = 4

type App struct {
	DBClient *db.DatabaseClient
	Ingestor *ingestion_engine.DocumentIngestor
	Engine   *chat_engine.ChatEngine
	Server   *Server

	logger *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("object client initialized and ready")

	index := vectorstore.Shared(dbClient.DB(), logger)
	providers := llm.NewGeminiFactory(cfg.EmbedModel, cfg.GenModel, cfg.EmbedBatchSize)
	extractor := extractor_engine.NewDocExtractor(cfg.ScrapeTimeout, cfg.ScrapeInsecureTLS, logger)
	splitter := chunker.NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	ingestor := ingestion_engine.NewDocumentIngestor(
		dbClient, objClient, index, providers, extractor, splitter,
		cfg.AIAPIKey, nil, logger,
	)
	ingestor.Start(ctx, ingestWorkers)

	engine := chat_engine.NewChatEngine(dbClient, index, providers, cfg.AIAPIKey, logger)

	server := NewServer(cfg, dbClient, ingestor, engine, logger)

	return &App{
		DBClient: dbClient,
		Ingestor: ingestor,
		Engine:   engine,
		Server:   server,
		logger:   logger,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
