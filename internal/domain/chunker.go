package domain

import "strings"

// ChunkerVersion identifies the chunking algorithm. Stored alongside the
// handbook so re-ingestion with a newer algorithm is detectable.
type ChunkerVersion string

const (
	// ChunkerVersionV1 is the sliding-window chunker with word-boundary
	// splits and fixed character overlap.
	ChunkerVersionV1 ChunkerVersion = "v1"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1200
	// DefaultChunkOverlap is the number of characters repeated between
	// adjacent chunks of the same document.
	DefaultChunkOverlap = 200
	// minChunkContent drops fragments too short to be a useful passage.
	minChunkContent = 10
)

// TextChunk is a bounded passage of source text produced at ingestion time.
type TextChunk struct {
	Index        int
	SectionTitle string
	Content      string
}

// Chunker splits normalized document text into retrieval units.
// Chunking is deterministic: identical input yields identical chunks.
type Chunker interface {
	Chunk(body string) []TextChunk
	Version() ChunkerVersion
}

type overlapChunker struct {
	size     int
	overlap  int
	sections SectionDetector
}

// NewChunker creates the default sliding-window chunker. Size and overlap
// fall back to the defaults when non-positive.
func NewChunker(size, overlap int, sections SectionDetector) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap <= 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}
	if sections == nil {
		sections = NewSectionDetector()
	}
	return &overlapChunker{size: size, overlap: overlap, sections: sections}
}

func (c *overlapChunker) Version() ChunkerVersion {
	return ChunkerVersionV1
}

// Chunk splits the body at word boundaries into windows of at most size
// characters, carrying roughly overlap characters into the next window.
// Section titles are detected per chunk and carried forward: a chunk without
// its own heading inherits the last seen one.
func (c *overlapChunker) Chunk(body string) []TextChunk {
	tokens := strings.Fields(body)
	if len(tokens) == 0 {
		return nil
	}

	var chunks []TextChunk
	section := "General"

	i := 0
	for i < len(tokens) {
		j := i
		length := 0
		for j < len(tokens) && length+len(tokens[j])+1 <= c.size {
			length += len(tokens[j]) + 1
			j++
		}
		if j == i {
			// Single token longer than the window; emit it alone.
			j = i + 1
		}

		content := strings.Join(tokens[i:j], " ")
		if len(content) >= minChunkContent {
			if detected := c.sections.Detect(content); detected != "" {
				section = detected
			}
			chunks = append(chunks, TextChunk{
				Index:        len(chunks),
				SectionTitle: section,
				Content:      content,
			})
		}

		if j >= len(tokens) {
			break
		}

		// Walk back from the window end to build the overlap, always
		// leaving at least one token of forward progress.
		back := j
		carried := 0
		for back > i+1 && carried+len(tokens[back-1])+1 <= c.overlap {
			back--
			carried += len(tokens[back]) + 1
		}
		i = back
	}

	return chunks
}
