package chat_engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
)

func TestFeedbackIDIsTimeAddressed(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	require.Equal(t, "feedback_tenant-1_1700000000000", FeedbackID("tenant-1", at))
}

func TestSaveFeedbackIndexesCorrection(t *testing.T) {
	index := newFakeIndex()
	embedder := &fakeEmbedder{}
	factory := &fakeFactory{embedder: embedder}
	engine := newTestEngine(newFakeDB(), index, factory)

	at := time.UnixMilli(1700000000000)
	engine.now = func() time.Time { return at }

	id, err := engine.SaveFeedback(context.Background(), testTenant(),
		"What is the return window?", "Returns are accepted within 30 days.")
	require.NoError(t, err)
	require.Equal(t, FeedbackID("tenant-1", at), id)

	// Corrections are matched against future queries, so the question embeds
	// in query mode.
	require.Equal(t, []core.EmbedMode{core.EmbedModeQuery}, embedder.modes)

	vectors := index.upserts["tenant-1"]
	require.Len(t, vectors, 1)
	require.Equal(t, id, vectors[0].ID)
	require.Equal(t, "feedback", vectors[0].Metadata.Type)
	require.Equal(t, "What is the return window?", vectors[0].Metadata.Question)
	require.Equal(t, "Returns are accepted within 30 days.", vectors[0].Metadata.Answer)
	require.Equal(t, "Q: What is the return window?\nA: Returns are accepted within 30 days.", vectors[0].Metadata.Text)
	require.Equal(t, at.UnixMilli(), vectors[0].Metadata.Timestamp)
	require.Equal(t, 1, embedder.closes)
}

func TestSaveFeedbackRepeatedCorrectionsCoexist(t *testing.T) {
	index := newFakeIndex()
	factory := &fakeFactory{embedder: &fakeEmbedder{}}
	engine := newTestEngine(newFakeDB(), index, factory)

	base := time.UnixMilli(1700000000000)
	calls := 0
	engine.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	}

	first, err := engine.SaveFeedback(context.Background(), testTenant(), "q", "first answer")
	require.NoError(t, err)
	second, err := engine.SaveFeedback(context.Background(), testTenant(), "q", "second answer")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Len(t, index.upserts["tenant-1"], 2)
}

func TestSaveFeedbackValidation(t *testing.T) {
	factory := &fakeFactory{embedder: &fakeEmbedder{}}
	engine := newTestEngine(newFakeDB(), newFakeIndex(), factory)

	for _, tc := range []struct{ question, answer string }{
		{"", "answer"},
		{"question", ""},
		{"  ", "  "},
	} {
		_, err := engine.SaveFeedback(context.Background(), testTenant(), tc.question, tc.answer)
		require.ErrorIs(t, err, errs.ErrValidation, fmt.Sprintf("q=%q a=%q", tc.question, tc.answer))
	}
	require.Zero(t, factory.embedderCalls)
}
