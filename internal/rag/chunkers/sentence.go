package chunkers

import (
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
	"github.com/tiktoken-go/tokenizer"
)

var (
	ErrContentEmpty     = errors.New("content cannot be empty")
	ErrInvalidChunkSize = errors.New("chunkSize must be positive")
	ErrInvalidOverlap   = errors.New("overlapTokens must be between 0 and chunkSize")
)

const (
	chunkSizeDefault     = 256
	overlapTokensDefault = 20

	sentenceSeparator  = ".\n"
	paragraphSeparator = "\n\n\n"
)

var sentenceBoundary = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// SentenceSplitter splits documents into overlapping chunks on paragraph
// and sentence boundaries, sized by token count.
type SentenceSplitter struct {
	chunkSize     int
	overlapTokens int
	encoding      tokenizer.Codec
	logger        zerolog.Logger
}

// NewSentenceSplitter creates a splitter with the default chunk size and
// overlap.
func NewSentenceSplitter() (*SentenceSplitter, error) {
	return NewSentenceSplitterWithSize(chunkSizeDefault, overlapTokensDefault)
}

// NewSentenceSplitterWithSize creates a splitter with an explicit chunk
// size and overlap, both in tokens.
func NewSentenceSplitterWithSize(chunkSize, overlapTokens int) (*SentenceSplitter, error) {
	logger := util.NewLogger(getLogLevelFromEnv())

	if chunkSize <= 0 {
		logger.Warn().Msg("chunkSize must be positive")
		return nil, ErrInvalidChunkSize
	}
	if overlapTokens < 0 || overlapTokens >= chunkSize {
		logger.Warn().Msg("overlapTokens must be between 0 and chunkSize")
		return nil, ErrInvalidOverlap
	}

	tokenizerName := getTokenizerFromEnv()
	encoding, err := getTokenizerEncoding(tokenizerName)
	if err != nil {
		logger.Error().Err(err).Str("tokenizer", tokenizerName).Msg("failed to get tokenizer")
		return nil, err
	}

	return &SentenceSplitter{
		chunkSize:     chunkSize,
		overlapTokens: overlapTokens,
		encoding:      encoding,
		logger:        logger,
	}, nil
}

// GetChunkingStrategy returns the strategy name used by this chunker.
func (s *SentenceSplitter) GetChunkingStrategy() string {
	return "sentence"
}

// ChunkDocument splits a document into overlapping chunks. Every chunk
// carries a copy of the document's metadata.
func (s *SentenceSplitter) ChunkDocument(document *models.Document) ([]*models.Chunk, error) {
	if strings.TrimSpace(document.Text) == "" {
		s.logger.Warn().Msg("content is empty")
		return nil, ErrContentEmpty
	}

	sentences, err := s.splitToSentences(document.Text)
	if err != nil {
		return nil, err
	}

	var chunks []*models.Chunk
	var current []sentence
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		var builder strings.Builder
		for _, sen := range current {
			builder.WriteString(sen.text)
		}
		chunks = append(chunks, &models.Chunk{
			Text:       builder.String(),
			TokenCount: currentTokens,
			Metadata:   copyMetadata(document.Metadata),
		})
	}

	for _, sen := range sentences {
		if currentTokens+sen.tokens > s.chunkSize && len(current) > 0 {
			flush()
			current, currentTokens = s.carryOverlap(current)
		}
		current = append(current, sen)
		currentTokens += sen.tokens
	}
	flush()

	return chunks, nil
}

// CountTokens returns the number of tokens in the given text.
func (s *SentenceSplitter) CountTokens(text string) (int, error) {
	tokens, _, err := s.encoding.Encode(text)
	if err != nil {
		s.logger.Err(err).Msg("failed to tokenize text")
		return 0, err
	}
	return len(tokens), nil
}

type sentence struct {
	text   string
	tokens int
}

// splitToSentences breaks text on paragraph separators, then the primary
// sentence separator, then generic sentence boundaries. Pieces that still
// exceed the chunk size are hard-split by token count.
func (s *SentenceSplitter) splitToSentences(text string) ([]sentence, error) {
	var sentences []sentence

	for _, paragraph := range strings.Split(text, paragraphSeparator) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		for _, piece := range splitKeepingSeparator(paragraph, sentenceSeparator) {
			tokens, _, err := s.encoding.Encode(piece)
			if err != nil {
				s.logger.Err(err).Msg("failed to tokenize content")
				return nil, err
			}
			if len(tokens) <= s.chunkSize {
				sentences = append(sentences, sentence{text: piece, tokens: len(tokens)})
				continue
			}

			split, err := s.splitOversized(piece)
			if err != nil {
				return nil, err
			}
			sentences = append(sentences, split...)
		}
	}

	return sentences, nil
}

func (s *SentenceSplitter) splitOversized(piece string) ([]sentence, error) {
	parts := sentenceBoundary.FindAllString(piece, -1)
	if len(parts) == 0 {
		parts = []string{piece}
	}

	var sentences []sentence
	for _, part := range parts {
		tokens, _, err := s.encoding.Encode(part)
		if err != nil {
			s.logger.Err(err).Msg("failed to tokenize content")
			return nil, err
		}
		if len(tokens) <= s.chunkSize {
			sentences = append(sentences, sentence{text: part, tokens: len(tokens)})
			continue
		}

		// No usable boundary left, hard-split by tokens
		for i := 0; i < len(tokens); i += s.chunkSize {
			end := i + s.chunkSize
			if end > len(tokens) {
				end = len(tokens)
			}
			text, err := s.encoding.Decode(tokens[i:end])
			if err != nil {
				s.logger.Err(err).Msg("failed to decode chunk tokens")
				return nil, err
			}
			sentences = append(sentences, sentence{text: text, tokens: end - i})
		}
	}

	return sentences, nil
}

// carryOverlap returns the trailing sentences of the previous chunk whose
// combined size fits the overlap budget, seeding the next chunk.
func (s *SentenceSplitter) carryOverlap(previous []sentence) ([]sentence, int) {
	var carried []sentence
	carriedTokens := 0
	for i := len(previous) - 1; i >= 0; i-- {
		if carriedTokens+previous[i].tokens > s.overlapTokens {
			break
		}
		carried = append([]sentence{previous[i]}, carried...)
		carriedTokens += previous[i].tokens
	}
	return carried, carriedTokens
}

func splitKeepingSeparator(text, separator string) []string {
	parts := strings.SplitAfter(text, separator)
	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func copyMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	copied := make(map[string]any, len(metadata))
	for key, value := range metadata {
		copied[key] = value
	}
	return copied
}

// getTokenizerFromEnv returns the tokenizer name from environment or default.
func getTokenizerFromEnv() string {
	tokenizerName := os.Getenv("CHUNKER_TOKENIZER")
	if tokenizerName == "" {
		return "cl100k_base"
	}
	return tokenizerName
}

// getTokenizerEncoding returns the tokenizer encoding for the given name.
func getTokenizerEncoding(name string) (tokenizer.Codec, error) {
	switch strings.ToLower(name) {
	case "cl100k_base":
		return tokenizer.Get(tokenizer.Cl100kBase)
	case "p50k_base":
		return tokenizer.Get(tokenizer.P50kBase)
	case "r50k_base":
		return tokenizer.Get(tokenizer.R50kBase)
	default:
		// Default to cl100k_base for unknown tokenizers
		return tokenizer.Get(tokenizer.Cl100kBase)
	}
}

// getLogLevelFromEnv returns the log level from environment or default.
func getLogLevelFromEnv() zerolog.Level {
	logLevel := os.Getenv("CHUNKER_LOG_LEVEL")
	switch strings.ToLower(logLevel) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.ErrorLevel
	}
}

// getIntFromEnv returns an integer from environment variable or default value.
func getIntFromEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

// GetDefaultChunkSize returns the default chunk size from environment or default.
func GetDefaultChunkSize() int {
	return getIntFromEnv("CHUNKER_DEFAULT_CHUNK_SIZE", chunkSizeDefault)
}
