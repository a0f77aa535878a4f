package chat_engine

import (
	"context"

	"github.com/orgmind-ai/orgmind/internal/models"
)

// SourceAttribution summarises every retrieved chunk that shares a source.
type SourceAttribution struct {
	Source     string  `json:"source"`
	Filename   string  `json:"filename,omitempty"`
	URL        string  `json:"url,omitempty"`
	Type       string  `json:"type"`
	ChunkCount int     `json:"chunk_count"`
	MaxScore   float32 `json:"max_score"`
}

// buildSources groups matches by source key (filename, else url, else the
// stored source tag), counting chunks and keeping the best score per group.
// Filenames/urls missing from vector metadata are backfilled from the
// Document records. Order follows first appearance in the match list.
func (e *ChatEngine) buildSources(ctx context.Context, matches []models.QueryMatch) []SourceAttribution {
	if len(matches) == 0 {
		return nil
	}

	// Collect referenced documents for backfill; older vectors may predate
	// the filename/url metadata fields.
	docIDs := make([]string, 0, len(matches))
	seenDoc := make(map[string]bool)
	for _, m := range matches {
		if m.Metadata.DocID != "" && !seenDoc[m.Metadata.DocID] {
			seenDoc[m.Metadata.DocID] = true
			docIDs = append(docIDs, m.Metadata.DocID)
		}
	}
	docsByID := make(map[string]models.Document)
	if len(docIDs) > 0 {
		if docs, err := e.db.GetDocumentsByIDs(ctx, docIDs); err == nil {
			for _, d := range docs {
				docsByID[d.ID] = d
			}
		}
	}

	var (
		order  []string
		groups = make(map[string]*SourceAttribution)
	)
	for _, m := range matches {
		meta := m.Metadata

		filename := meta.Filename
		url := meta.URL
		if doc, ok := docsByID[meta.DocID]; ok {
			if filename == "" && doc.SourceType == models.SourceTypeFile {
				filename = doc.FileName
			}
			if url == "" {
				url = doc.StorageURL
			}
		}

		key := filename
		if key == "" {
			key = url
		}
		if key == "" {
			key = meta.Source
		}
		if key == "" {
			key = m.ID
		}

		g, ok := groups[key]
		if !ok {
			g = &SourceAttribution{
				Source:   key,
				Filename: filename,
				URL:      url,
				Type:     meta.Type,
			}
			groups[key] = g
			order = append(order, key)
		}
		g.ChunkCount++
		if m.Score > g.MaxScore {
			g.MaxScore = m.Score
		}
	}

	out := make([]SourceAttribution, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}
