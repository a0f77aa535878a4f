package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

var _ core.VectorIndex = (*PgVectorIndex)(nil)

// PgVectorIndex implements the namespaced vector store on pgvector. A
// namespace is a column, so tenant isolation is a WHERE predicate that every
// statement carries.
type PgVectorIndex struct {
	db     *sql.DB
	logger *zap.Logger
}

var (
	sharedOnce  sync.Once
	sharedIndex *PgVectorIndex
)

// Shared returns the process-wide index handle, creating it on first use.
// Safe to share across requests: the handle holds stateless configuration
// plus the connection pool, nothing mutable per call. Calling it again with
// a different pool is a wiring bug and panics instead of silently handing
// back the first one.
func Shared(db *sql.DB, logger *zap.Logger) *PgVectorIndex {
	sharedOnce.Do(func() {
		sharedIndex = New(db, logger)
	})
	if sharedIndex.db != db {
		panic("vectorstore: Shared called with a different database handle")
	}
	return sharedIndex
}

func New(db *sql.DB, logger *zap.Logger) *PgVectorIndex {
	return &PgVectorIndex{db: db, logger: logger}
}

// Upsert inserts or overwrites vectors by id within the namespace.
func (v *PgVectorIndex) Upsert(ctx context.Context, namespace string, vectors []models.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", errs.ErrProvider, err)
	}

	const q = `
		INSERT INTO rag_vectors (namespace, id, embedding, metadata, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (namespace, id)
		DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: prepare upsert: %v", errs.ErrProvider, err)
	}
	defer stmt.Close()

	for i := range vectors {
		vec := &vectors[i]
		meta, err := json.Marshal(vec.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode metadata for %s: %w", vec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, namespace, vec.ID, pgvector.NewVector(vec.Values), meta); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: upsert vector %s: %v", errs.ErrProvider, vec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", errs.ErrProvider, err)
	}
	return nil
}

// Query returns up to topK nearest vectors by cosine similarity, restricted
// to the namespace.
func (v *PgVectorIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]models.QueryMatch, error) {
	if topK <= 0 {
		topK = core.DefaultTopK
	}

	const q = `
		SELECT id, metadata, 1 - (embedding <=> $2) AS score
		FROM rag_vectors
		WHERE namespace = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := v.db.QueryContext(ctx, q, namespace, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %v", errs.ErrProvider, err)
	}
	defer rows.Close()

	var out []models.QueryMatch
	for rows.Next() {
		var (
			m    models.QueryMatch
			meta []byte
		)
		if err := rows.Scan(&m.ID, &meta, &m.Score); err != nil {
			return nil, fmt.Errorf("%w: scan match: %v", errs.ErrProvider, err)
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			v.logger.Warn("skipping vector with unreadable metadata",
				zap.String("id", m.ID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMany removes vectors by id. Deleting ids that do not exist is a
// no-op success so cleanup paths are never blocked by prior partial
// failures.
func (v *PgVectorIndex) DeleteMany(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	const q = `DELETE FROM rag_vectors WHERE namespace = $1 AND id = ANY($2)`
	res, err := v.db.ExecContext(ctx, q, namespace, ids)
	if err != nil {
		return fmt.Errorf("%w: vector delete: %v", errs.ErrProvider, err)
	}
	if n, err := res.RowsAffected(); err == nil && int(n) < len(ids) {
		v.logger.Debug("vector delete skipped missing ids",
			zap.String("namespace", namespace),
			zap.Int("requested", len(ids)), zap.Int64("deleted", n))
	}
	return nil
}
