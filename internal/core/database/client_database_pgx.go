package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/orgmind-ai/orgmind/internal/config"
	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the underlying pool so the vector index can share it.
func (c *DatabaseClient) DB() *sql.DB {
	return c.db
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Tenants

func (c *DatabaseClient) GetTenantByID(ctx context.Context, id string) (*models.Tenant, error) {
	const q = `
		SELECT id, name, api_key, gemini_api_key, system_instructions, created_at
		FROM tenants WHERE id = $1
	`
	return c.scanTenant(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	const q = `
		SELECT id, name, api_key, gemini_api_key, system_instructions, created_at
		FROM tenants WHERE api_key = $1
	`
	return c.scanTenant(c.db.QueryRowContext(ctx, q, apiKey))
}

func (c *DatabaseClient) scanTenant(row *sql.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.APIKey, &t.GeminiAPIKey, &t.SystemInstructions, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tenant", errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Documents

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, tenant_id, file_name, storage_key, storage_url, source_type, content_type, status, chunk_count, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()), COALESCE($11, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.TenantID, doc.FileName, doc.StorageKey, doc.StorageURL,
		doc.SourceType, doc.ContentType, doc.Status, doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt)
	return err
}

const documentColumns = `id, tenant_id, file_name, storage_key, storage_url, source_type, content_type, status, chunk_count, created_at, updated_at`

func scanDocument(s interface{ Scan(...any) error }, d *models.Document) error {
	return s.Scan(
		&d.ID, &d.TenantID, &d.FileName, &d.StorageKey, &d.StorageURL,
		&d.SourceType, &d.ContentType, &d.Status, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt,
	)
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var d models.Document
	err := scanDocument(c.db.QueryRowContext(ctx, q, id), &d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) GetDocumentsByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = ANY($1)`
	rows, err := c.db.QueryContext(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := scanDocument(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ListDocumentsByTenant(ctx context.Context, tenantID string) ([]models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := c.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := scanDocument(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: document %s", errs.ErrNotFound, id)
	}
	return nil
}

// MarkDocumentIndexed records success: chunk_count is set exactly once,
// only on the processing -> indexed transition.
func (c *DatabaseClient) MarkDocumentIndexed(ctx context.Context, id string, chunkCount int) error {
	const q = `
		UPDATE documents
		SET status = 'indexed', chunk_count = $2, updated_at = now()
		WHERE id = $1 AND status = 'processing'
	`
	res, err := c.db.ExecContext(ctx, q, id, chunkCount)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: document %s not in processing state", errs.ErrNotFound, id)
	}
	return nil
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: document %s", errs.ErrNotFound, id)
	}
	return nil
}

// Chat logs

func (c *DatabaseClient) CreateChatLog(ctx context.Context, logEntry *models.ChatLog) error {
	if logEntry == nil {
		return errors.New("nil chat log")
	}
	chunks, err := json.Marshal(logEntry.RetrievedChunks)
	if err != nil {
		return fmt.Errorf("encode retrieved chunks: %w", err)
	}
	const q = `
		INSERT INTO chat_logs (id, tenant_id, user_question, bot_response, retrieved_chunks, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		logEntry.ID, logEntry.TenantID, logEntry.UserQuestion, logEntry.BotResponse, chunks, logEntry.CreatedAt)
	return err
}

func (c *DatabaseClient) ListChatLogs(ctx context.Context, tenantID string, limit, offset int, since time.Time) ([]models.ChatLog, error) {
	q := `
		SELECT id, tenant_id, user_question, bot_response, retrieved_chunks, created_at
		FROM chat_logs
		WHERE tenant_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := c.db.QueryContext(ctx, q, tenantID, since, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatLog
	for rows.Next() {
		var (
			l      models.ChatLog
			chunks []byte
		)
		if err := rows.Scan(&l.ID, &l.TenantID, &l.UserQuestion, &l.BotResponse, &chunks, &l.CreatedAt); err != nil {
			return nil, err
		}
		if len(chunks) > 0 {
			if err := json.Unmarshal(chunks, &l.RetrievedChunks); err != nil {
				return nil, fmt.Errorf("decode retrieved chunks for %s: %w", l.ID, err)
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CountChatLogs(ctx context.Context, tenantID string, since time.Time) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT count(*) FROM chat_logs WHERE tenant_id = $1 AND created_at >= $2`,
		tenantID, since).Scan(&n)
	return n, err
}
