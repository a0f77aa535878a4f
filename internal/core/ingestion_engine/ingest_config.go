package ingestion_engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/models"
)

// IngestConfig tunes the pipeline.
//
// ProcessTimeout bounds one document's full run (extract, embed, upsert).
// QueueDepth bounds the in-memory job queue; Enqueue rejects when full.
type IngestConfig struct {
	ProcessTimeout time.Duration
	QueueDepth     int
}

func (c *IngestConfig) withDefaults() IngestConfig {
	out := IngestConfig{ProcessTimeout: 5 * time.Minute, QueueDepth: 64}
	if c == nil {
		return out
	}
	if c.ProcessTimeout > 0 {
		out.ProcessTimeout = c.ProcessTimeout
	}
	if c.QueueDepth > 0 {
		out.QueueDepth = c.QueueDepth
	}
	return out
}

// DocumentIngestor owns the document lifecycle state machine and runs the
// extract -> chunk -> embed -> upsert pipeline for each enqueued document.
// The in-memory job queue is easy to swap for a broker later.
type DocumentIngestor struct {
	db         core.DbClient
	obj        core.ObjectClient
	index      core.VectorIndex
	providers  core.AIProviderFactory
	extractor  core.Extractor
	chunker    core.Chunker
	processKey string // process-wide Gemini key; tenant keys take priority
	cfg        IngestConfig
	jobs       chan string
	logger     *zap.Logger
}

// Ingestor is the produced interface other parts of the system call into.
type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	IntakeFile(ctx context.Context, tenantID, filename string, content []byte, contentType string) (*models.Document, error)
	IntakeURL(ctx context.Context, tenantID, url string) (*models.Document, error)
	Enqueue(docID string) error
	Delete(ctx context.Context, docID, tenantID string) error
}
