package ingestion_engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

// VectorID derives the deterministic id of a document's chunk vector.
func VectorID(docID string, index int) string {
	return fmt.Sprintf("%s_%d", docID, index)
}

// processOne runs the full pipeline for a single document: processing ->
// extract -> chunk -> embed -> upsert -> indexed, or failed on any error.
// Stages execute strictly in order; a fresh context bounds the whole run so
// a caller disconnect never aborts ingestion midway.
func (i *DocumentIngestor) processOne(docID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), i.cfg.ProcessTimeout)
	defer cancel()

	doc, err := i.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if err := i.db.UpdateDocumentStatus(ctx, docID, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	chunkCount, err := i.runPipeline(ctx, doc)
	if err != nil {
		i.markFailed(docID)
		return err
	}

	// A failure here leaves the document stuck in processing with its
	// vectors already indexed. There is no reconciliation pass, so make
	// the inconsistency loud for operators.
	if err := i.db.MarkDocumentIndexed(ctx, docID, chunkCount); err != nil {
		i.logger.Error("vectors upserted but status write failed; document stuck in processing",
			zap.String("document_id", docID),
			zap.Int("chunk_count", chunkCount),
			zap.Error(err))
		return fmt.Errorf("mark indexed: %w", err)
	}

	i.logger.Info("document indexed",
		zap.String("document_id", docID),
		zap.String("tenant_id", doc.TenantID),
		zap.Int("chunk_count", chunkCount))
	return nil
}

func (i *DocumentIngestor) runPipeline(ctx context.Context, doc *models.Document) (int, error) {
	tenant, err := i.db.GetTenantByID(ctx, doc.TenantID)
	if err != nil {
		return 0, fmt.Errorf("load tenant: %w", err)
	}
	apiKey, err := core.ResolveAPIKey(tenant, i.processKey)
	if err != nil {
		return 0, err
	}

	text, err := i.extract(ctx, doc)
	if err != nil {
		return 0, err
	}

	chunks := i.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	embedder, err := i.providers.Embedder(ctx, apiKey)
	if err != nil {
		return 0, err
	}
	defer embedder.Close()
	embeddings, err := embedder.EmbedTexts(ctx, chunks, core.EmbedModeDocument)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("%w: %d embeddings for %d chunks", errs.ErrProvider, len(embeddings), len(chunks))
	}

	vectors := make([]models.Vector, len(chunks))
	for idx, chunk := range chunks {
		meta := models.VectorMetadata{
			Text:     chunk,
			DocID:    doc.ID,
			TenantID: doc.TenantID,
			URL:      doc.StorageURL,
			Type:     doc.SourceType,
			Source:   doc.FileName,
		}
		if doc.SourceType == models.SourceTypeFile {
			meta.Filename = doc.FileName
		}
		vectors[idx] = models.Vector{
			ID:       VectorID(doc.ID, idx),
			Values:   embeddings[idx],
			Metadata: meta,
		}
	}

	if err := i.index.Upsert(ctx, doc.TenantID, vectors); err != nil {
		return 0, fmt.Errorf("upsert vectors: %w", err)
	}
	return len(chunks), nil
}

func (i *DocumentIngestor) extract(ctx context.Context, doc *models.Document) (string, error) {
	if doc.SourceType == models.SourceTypeURL {
		return i.extractor.ExtractURL(ctx, doc.StorageURL)
	}
	content, err := i.obj.GetFile(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	return i.extractor.ExtractFile(ctx, content, doc.ContentType)
}

// markFailed records the terminal failed state on a fresh context: the
// pipeline context may already be dead, and a failure must still land.
func (i *DocumentIngestor) markFailed(docID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := i.db.UpdateDocumentStatus(ctx, docID, models.StatusFailed); err != nil {
		i.logger.Error("failed to record failed status",
			zap.String("document_id", docID), zap.Error(err))
	}
}

// Delete removes a document, its derived vectors and its backing blob.
// Vector ids are reconstructed from chunk_count; vector deletion tolerates
// missing ids and blob deletion failures only log a warning, so cleanup is
// never blocked by prior partial failures. The record is removed last: a
// crash mid-deletion leaves a record pointing at nothing rather than
// orphaned vectors with no record.
func (i *DocumentIngestor) Delete(ctx context.Context, docID, tenantID string) error {
	doc, err := i.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.TenantID != tenantID {
		return fmt.Errorf("%w: document %s", errs.ErrNotFound, docID)
	}
	if doc.Status == models.StatusProcessing {
		return fmt.Errorf("%w: document %s is still processing", errs.ErrValidation, docID)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if doc.ChunkCount == 0 {
			return nil
		}
		ids := make([]string, doc.ChunkCount)
		for idx := range ids {
			ids[idx] = VectorID(doc.ID, idx)
		}
		return i.index.DeleteMany(gctx, tenantID, ids)
	})

	if doc.SourceType == models.SourceTypeFile && doc.StorageKey != "" {
		g.Go(func() error {
			if err := i.obj.DeleteFile(gctx, doc.StorageKey); err != nil {
				i.logger.Warn("blob delete failed during document removal",
					zap.String("document_id", doc.ID),
					zap.String("storage_key", doc.StorageKey),
					zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}

	return i.db.DeleteDocument(ctx, docID)
}
