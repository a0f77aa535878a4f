package ingestion_engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

type fakeDB struct {
	core.DbClient

	mu          sync.Mutex
	tenants     map[string]*models.Tenant
	docs        map[string]*models.Document
	transitions map[string][]string
	deleted     []string

	markIndexedErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		tenants:     make(map[string]*models.Tenant),
		docs:        make(map[string]*models.Document),
		transitions: make(map[string][]string),
	}
}

func (f *fakeDB) GetTenantByID(_ context.Context, id string) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: tenant %s", errs.ErrNotFound, id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeDB) CreateDocument(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDB) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", errs.ErrNotFound, id)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDB) UpdateDocumentStatus(_ context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return fmt.Errorf("%w: document %s", errs.ErrNotFound, id)
	}
	d.Status = status
	f.transitions[id] = append(f.transitions[id], status)
	return nil
}

func (f *fakeDB) MarkDocumentIndexed(_ context.Context, id string, chunkCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markIndexedErr != nil {
		return f.markIndexedErr
	}
	d, ok := f.docs[id]
	if !ok || d.Status != models.StatusProcessing {
		return fmt.Errorf("document %s not in processing", id)
	}
	d.Status = models.StatusIndexed
	d.ChunkCount = chunkCount
	f.transitions[id] = append(f.transitions[id], models.StatusIndexed)
	return nil
}

func (f *fakeDB) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDB) doc(id string) models.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.docs[id]
}

// fakeIndex keeps vectors per namespace, mirroring tenant isolation.
type fakeIndex struct {
	mu         sync.Mutex
	namespaces map[string]map[string]models.Vector
	deletes    map[string][][]string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		namespaces: make(map[string]map[string]models.Vector),
		deletes:    make(map[string][][]string),
	}
}

func (f *fakeIndex) Upsert(_ context.Context, namespace string, vectors []models.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ns, ok := f.namespaces[namespace]
	if !ok {
		ns = make(map[string]models.Vector)
		f.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		ns[v.ID] = v
	}
	return nil
}

func (f *fakeIndex) Query(_ context.Context, namespace string, _ []float32, topK int) ([]models.QueryMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueryMatch
	for id, v := range f.namespaces[namespace] {
		if len(out) == topK {
			break
		}
		out = append(out, models.QueryMatch{ID: id, Score: 1, Metadata: v.Metadata})
	}
	return out, nil
}

func (f *fakeIndex) DeleteMany(_ context.Context, namespace string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes[namespace] = append(f.deletes[namespace], ids)
	for _, id := range ids {
		delete(f.namespaces[namespace], id)
	}
	return nil
}

func (f *fakeIndex) size(namespace string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.namespaces[namespace])
}

type fakeObj struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string

	deleteErr error
}

func newFakeObj() *fakeObj {
	return &fakeObj{files: make(map[string][]byte)}
}

func (f *fakeObj) UploadFile(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = data
	return "https://bucket.s3.us-east-1.amazonaws.com/" + key, nil
}

func (f *fakeObj) GetFile(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: object %s", errs.ErrNotFound, key)
	}
	return data, nil
}

func (f *fakeObj) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.files, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeExtractor struct {
	urlText string
	err     error
}

func (f *fakeExtractor) ExtractFile(_ context.Context, content []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return string(content), nil
}

func (f *fakeExtractor) ExtractURL(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.urlText, nil
}

// fakeChunker splits on blank lines, close enough to the real splitter for
// pipeline tests while staying fully predictable.
type fakeChunker struct{}

func (fakeChunker) Split(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type fakeEmbedder struct {
	short  bool // return one embedding fewer than requested
	err    error
	closes atomic.Int32
}

func (f *fakeEmbedder) Close() error {
	f.closes.Add(1)
	return nil
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string, _ core.EmbedMode) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

type fakeFactory struct {
	embedder *fakeEmbedder
}

func (f *fakeFactory) Embedder(_ context.Context, _ string) (core.EmbeddingProvider, error) {
	return f.embedder, nil
}

func (f *fakeFactory) Generator(_ context.Context, _ string) (core.StreamingLLM, error) {
	return nil, fmt.Errorf("not used in ingestion")
}
