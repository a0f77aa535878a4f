package chunker

import (
	"strings"
	"unicode/utf8"
)

// Defaults, measured in characters.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

// defaultSeparators is the boundary ladder: paragraph break, line break,
// sentence break, word break, then hard character cuts.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveSplitter splits text into overlapping chunks, preferring semantic
// boundaries before falling back to hard cuts. Splitting is deterministic:
// the same text and parameters always produce the same ordered output.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split returns the ordered chunk sequence for text. Empty or
// whitespace-only input yields an empty sequence.
func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitText(text, s.separators)
}

func (s *RecursiveSplitter) splitText(text string, separators []string) []string {
	var finalChunks []string

	// Pick the first separator present in the text; "" always matches and
	// degenerates to character-level splitting.
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, separator)

	var good []string
	for _, sp := range splits {
		if utf8.RuneCountInString(sp) < s.chunkSize {
			good = append(good, sp)
			continue
		}
		if len(good) > 0 {
			finalChunks = append(finalChunks, s.merge(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			finalChunks = append(finalChunks, sp)
		} else {
			finalChunks = append(finalChunks, s.splitText(sp, next)...)
		}
	}
	if len(good) > 0 {
		finalChunks = append(finalChunks, s.merge(good, separator)...)
	}
	return finalChunks
}

// merge packs splits into chunks of at most chunkSize characters, carrying
// chunkOverlap characters of tail into the next chunk.
func (s *RecursiveSplitter) merge(splits []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var chunks []string
	var current []string
	total := 0

	joined := func() string {
		return strings.TrimSpace(strings.Join(current, separator))
	}

	for _, sp := range splits {
		spLen := utf8.RuneCountInString(sp)

		if len(current) > 0 && total+spLen+sepLen > s.chunkSize {
			if c := joined(); c != "" {
				chunks = append(chunks, c)
			}
			// Shrink the window until the retained tail fits the overlap
			// budget and leaves room for the incoming split.
			for len(current) > 0 &&
				(total > s.chunkOverlap || total+spLen+sepLen > s.chunkSize) {
				head := utf8.RuneCountInString(current[0])
				total -= head
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}

		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, sp)
		total += spLen
	}

	if c := joined(); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// splitOn splits text on separator, dropping empty pieces. The empty
// separator splits into individual characters.
func splitOn(text, separator string) []string {
	var raw []string
	if separator == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, separator)
	}
	out := raw[:0]
	for _, r := range raw {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
