package chat_engine

import (
	"context"
	"sync"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/models"
)

// fakeDB embeds the interface so tests only override what they exercise.
type fakeDB struct {
	core.DbClient

	docs    map[string]models.Document
	logged  chan *models.ChatLog
	logErr  error
	docsErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		docs:   make(map[string]models.Document),
		logged: make(chan *models.ChatLog, 4),
	}
}

func (f *fakeDB) GetDocumentsByIDs(_ context.Context, ids []string) ([]models.Document, error) {
	if f.docsErr != nil {
		return nil, f.docsErr
	}
	var out []models.Document
	for _, id := range ids {
		if d, ok := f.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDB) CreateChatLog(_ context.Context, entry *models.ChatLog) error {
	f.logged <- entry
	return f.logErr
}

type fakeIndex struct {
	mu       sync.Mutex
	upserts  map[string][]models.Vector
	matches  []models.QueryMatch
	queryErr error

	lastQueryNS   string
	lastQueryTopK int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserts: make(map[string][]models.Vector)}
}

func (f *fakeIndex) Upsert(_ context.Context, namespace string, vectors []models.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[namespace] = append(f.upserts[namespace], vectors...)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, namespace string, _ []float32, topK int) ([]models.QueryMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQueryNS = namespace
	f.lastQueryTopK = topK
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeIndex) DeleteMany(_ context.Context, _ string, _ []string) error {
	return nil
}

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	closes int
	modes  []core.EmbedMode
	err    error
}

func (f *fakeEmbedder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string, mode core.EmbedMode) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeGenerator struct {
	fragments []string
	err       error // returned after the fragments have been delivered
	prompt    string
	history   []core.ChatTurn
	closes    int
}

func (f *fakeGenerator) Close() error {
	f.closes++
	return nil
}

func (f *fakeGenerator) StreamChat(_ context.Context, prompt string, history []core.ChatTurn, onFragment func(string) error) error {
	f.prompt = prompt
	f.history = history
	for _, fr := range f.fragments {
		if err := onFragment(fr); err != nil {
			return err
		}
	}
	return f.err
}

type fakeFactory struct {
	embedder  *fakeEmbedder
	generator *fakeGenerator

	embedderCalls  int
	generatorCalls int
	lastAPIKey     string
}

func (f *fakeFactory) Embedder(_ context.Context, apiKey string) (core.EmbeddingProvider, error) {
	f.embedderCalls++
	f.lastAPIKey = apiKey
	return f.embedder, nil
}

func (f *fakeFactory) Generator(_ context.Context, apiKey string) (core.StreamingLLM, error) {
	f.generatorCalls++
	f.lastAPIKey = apiKey
	return f.generator, nil
}
