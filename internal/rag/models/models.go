package models

import (
	"math"
	"strconv"
	"strings"
)

// UnknownDocument is the placeholder file name used when no metadata key
// resolves to a document identifier.
const UnknownDocument = "Unknown Document"

// QueryRequest is a single question against the corpus.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// DocumentMetadata is the normalized provenance of a retrieved chunk.
type DocumentMetadata struct {
	FileName string  `json:"file_name"`
	Page     *int    `json:"page,omitempty"`
	Source   *string `json:"source,omitempty"`
}

// SourceDocument is one retrieved chunk with its relevance score.
type SourceDocument struct {
	Content  string           `json:"content"`
	Score    float64          `json:"score"`
	Metadata DocumentMetadata `json:"metadata"`
}

// QueryResponse is the synthesized answer plus its supporting passages,
// ordered by descending relevance.
type QueryResponse struct {
	ChatResponse    string           `json:"chat_response"`
	SourceDocuments []SourceDocument `json:"source_documents"`
}

// Document is a chunk-ready source document loaded from the corpus.
type Document struct {
	Text     string
	Metadata map[string]any
}

// Chunk is one split of a document, ready for embedding.
type Chunk struct {
	Text       string
	TokenCount int
	Metadata   map[string]any
}

// ScoredChunk is a chunk returned by similarity search with its raw
// upstream metadata.
type ScoredChunk struct {
	Text     string
	Score    float64
	Metadata map[string]any
}

// NormalizeMetadata resolves heterogeneous upstream metadata keys into a
// stable DocumentMetadata shape.
func NormalizeMetadata(raw map[string]any) DocumentMetadata {
	metadata := DocumentMetadata{FileName: ResolveFileName(raw)}
	metadata.Page = ResolvePage(raw)
	if filePath, ok := raw["file_path"].(string); ok && filePath != "" {
		metadata.Source = &filePath
	}
	return metadata
}

// ResolveFileName picks a document identifier from a prioritized list of
// alternate keys, falling back to the UnknownDocument placeholder.
func ResolveFileName(raw map[string]any) string {
	if name, ok := raw["file_name"].(string); ok && name != "" {
		return name
	}
	if name, ok := raw["filename"].(string); ok && name != "" {
		return name
	}
	if filePath, ok := raw["file_path"].(string); ok && filePath != "" {
		segments := strings.Split(filePath, "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
	}
	return UnknownDocument
}

// ResolvePage picks a page number from alternate keys. The value is kept
// only if it is already an integer or a digit-only string.
func ResolvePage(raw map[string]any) *int {
	for _, key := range []string{"page", "page_number", "page_label"} {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		if page, ok := coercePage(value); ok {
			return &page
		}
		return nil
	}
	return nil
}

func coercePage(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		// JSON decoding produces float64 for stored integers
		if v == math.Trunc(v) {
			return int(v), true
		}
	case string:
		if page, err := strconv.Atoi(v); err == nil && !strings.HasPrefix(v, "-") && !strings.HasPrefix(v, "+") {
			return page, true
		}
	}
	return 0, false
}
