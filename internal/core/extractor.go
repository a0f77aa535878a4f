package core

import "context"

// Extractor converts a stored source into UTF-8 plain text. No retries at
// this layer; retries, if desired, belong to the caller.
type Extractor interface {
	// ExtractFile parses file content according to its declared media type.
	ExtractFile(ctx context.Context, content []byte, contentType string) (string, error)
	// ExtractURL fetches a live page and strips it down to its visible text.
	ExtractURL(ctx context.Context, url string) (string, error)
}

// Chunker splits plain text into an ordered sequence of overlapping segments.
// Output must be deterministic for the same input and parameters: chunk
// positions end up embedded in vector ids.
type Chunker interface {
	Split(text string) []string
}
