package core

import (
	"context"
	"time"

	"github.com/orgmind-ai/orgmind/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	GetTenantByID(ctx context.Context, id string) (*models.Tenant, error)
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	GetDocumentsByIDs(ctx context.Context, ids []string) ([]models.Document, error)
	ListDocumentsByTenant(ctx context.Context, tenantID string) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string) error
	MarkDocumentIndexed(ctx context.Context, id string, chunkCount int) error
	DeleteDocument(ctx context.Context, id string) error

	CreateChatLog(ctx context.Context, logEntry *models.ChatLog) error
	ListChatLogs(ctx context.Context, tenantID string, limit, offset int, since time.Time) ([]models.ChatLog, error)
	CountChatLogs(ctx context.Context, tenantID string, since time.Time) (int, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage. Delete
// failures are surfaced so callers can decide whether they block a flow;
// in deletion paths they should not.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// DefaultTopK is the number of nearest vectors retrieved per query.
const DefaultTopK = 10

// VectorIndex is a per-tenant-namespaced similarity store. A namespace is a
// tenant id; no operation ever crosses namespaces.
type VectorIndex interface {
	// Upsert inserts or overwrites vectors by id within the namespace.
	Upsert(ctx context.Context, namespace string, vectors []models.Vector) error
	// Query returns up to topK nearest vectors with metadata and score.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]models.QueryMatch, error)
	// DeleteMany removes vectors by id. Ids that do not exist are a no-op.
	DeleteMany(ctx context.Context, namespace string, ids []string) error
}
