package ingestion_engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

var _ Ingestor = (*DocumentIngestor)(nil)

func NewDocumentIngestor(
	db core.DbClient,
	obj core.ObjectClient,
	index core.VectorIndex,
	providers core.AIProviderFactory,
	extractor core.Extractor,
	chunker core.Chunker,
	processKey string,
	cfg *IngestConfig,
	logger *zap.Logger,
) *DocumentIngestor {
	resolved := cfg.withDefaults()
	return &DocumentIngestor{
		db:         db,
		obj:        obj,
		index:      index,
		providers:  providers,
		extractor:  extractor,
		chunker:    chunker,
		processKey: processKey,
		cfg:        resolved,
		jobs:       make(chan string, resolved.QueueDepth),
		logger:     logger,
	}
}

// Start runs numWorkers goroutines reading from the jobs channel.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					i.logger.Info("ingestion worker shutting down", zap.Int("worker", w))
					return
				case docID := <-i.jobs:
					if err := i.processOne(docID); err != nil {
						i.logger.Error("document processing failed",
							zap.String("document_id", docID),
							zap.Int("worker", w),
							zap.Error(err))
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a document for ingestion without blocking. A full queue
// rejects with ErrOverloaded so a stalled worker pool never wedges intake.
func (i *DocumentIngestor) Enqueue(docID string) error {
	select {
	case i.jobs <- docID:
		return nil
	default:
		return fmt.Errorf("%w: ingestion queue is full", errs.ErrOverloaded)
	}
}

// IntakeFile stores the blob, creates the Document in pending and enqueues
// it. The caller gets an id right away; processing runs in the background.
func (i *DocumentIngestor) IntakeFile(ctx context.Context, tenantID, filename string, content []byte, contentType string) (*models.Document, error) {
	if filename == "" || len(content) == 0 {
		return nil, fmt.Errorf("%w: file name and content are required", errs.ErrValidation)
	}

	docID := uuid.NewString()
	// filepath.Base strips any path components a client might smuggle in.
	key := fmt.Sprintf("%s/%s/%s", tenantID, docID, filepath.Base(filename))

	url, err := i.obj.UploadFile(ctx, key, content, contentType)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	doc := &models.Document{
		ID:          docID,
		TenantID:    tenantID,
		FileName:    filename,
		StorageKey:  key,
		StorageURL:  url,
		SourceType:  models.SourceTypeFile,
		ContentType: contentType,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := i.db.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := i.Enqueue(doc.ID); err != nil {
		// Nothing will ever pick the document up, so undo the intake
		// before telling the caller to retry.
		if dbErr := i.db.DeleteDocument(ctx, doc.ID); dbErr != nil {
			i.logger.Warn("failed to remove record after enqueue rejection",
				zap.String("document_id", doc.ID), zap.Error(dbErr))
		}
		if objErr := i.obj.DeleteFile(ctx, key); objErr != nil {
			i.logger.Warn("failed to remove blob after enqueue rejection",
				zap.String("storage_key", key), zap.Error(objErr))
		}
		return nil, err
	}
	return doc, nil
}

// IntakeURL creates the Document in pending and enqueues it; the page is
// fetched during processing, not at intake.
func (i *DocumentIngestor) IntakeURL(ctx context.Context, tenantID, url string) (*models.Document, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", errs.ErrValidation)
	}

	doc := &models.Document{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		FileName:   url,
		StorageURL: url,
		SourceType: models.SourceTypeURL,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := i.db.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := i.Enqueue(doc.ID); err != nil {
		if dbErr := i.db.DeleteDocument(ctx, doc.ID); dbErr != nil {
			i.logger.Warn("failed to remove record after enqueue rejection",
				zap.String("document_id", doc.ID), zap.Error(dbErr))
		}
		return nil, err
	}
	return doc, nil
}
