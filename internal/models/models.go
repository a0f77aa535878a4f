package models

import (
	"time"
)

// Document lifecycle statuses. A document moves pending -> processing and
// terminates in indexed or failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusIndexed    = "indexed"
	StatusFailed     = "failed"
)

// Document source types.
const (
	SourceTypeFile = "file"
	SourceTypeURL  = "url"
)

// Tenant represents one isolated organisation account. All documents, vectors
// and chat logs are partitioned by Tenant.ID, which doubles as the vector
// store namespace.
type Tenant struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	APIKey             string    `db:"api_key" json:"-"`
	GeminiAPIKey       string    `db:"gemini_api_key" json:"-"` // per-tenant override; empty means use the process default
	SystemInstructions string    `db:"system_instructions" json:"system_instructions"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Document represents one ingested source (uploaded file or crawled URL).
type Document struct {
	ID          string    `db:"id" json:"id"`
	TenantID    string    `db:"tenant_id" json:"tenant_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StorageKey  string    `db:"storage_key" json:"storage_key"` // object-store key, empty for URL sources
	StorageURL  string    `db:"storage_url" json:"storage_url"` // public blob URL, or the original address for URL sources
	SourceType  string    `db:"source_type" json:"source_type"` // "file" or "url"
	ContentType string    `db:"content_type" json:"content_type"`
	Status      string    `db:"status" json:"status"`
	ChunkCount  int       `db:"chunk_count" json:"chunk_count"` // set exactly once, on the transition to indexed
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ChatLog is an append-only record of one question/answer exchange, written
// only after the full streamed response has been assembled.
type ChatLog struct {
	ID              string           `db:"id" json:"id"`
	TenantID        string           `db:"tenant_id" json:"tenant_id"`
	UserQuestion    string           `db:"user_question" json:"user_question"`
	BotResponse     string           `db:"bot_response" json:"bot_response"`
	RetrievedChunks []VectorMetadata `db:"retrieved_chunks" json:"retrieved_chunks,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// VectorMetadata is the metadata bag attached to every indexed vector. Chunk
// vectors carry text/doc_id/filename/url, feedback vectors carry
// question/answer; both carry the tenant id and a type tag.
type VectorMetadata struct {
	Text      string `json:"text"`
	DocID     string `json:"doc_id,omitempty"`
	TenantID  string `json:"tenant_id"`
	Filename  string `json:"filename,omitempty"`
	URL       string `json:"url,omitempty"`
	Type      string `json:"type"` // "file", "url" or "feedback"
	Source    string `json:"source,omitempty"`
	Question  string `json:"question,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Vector is one retrievable unit of indexed content.
type Vector struct {
	ID       string
	Values   []float32
	Metadata VectorMetadata
}

// QueryMatch is a vector returned from a similarity query.
type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}
