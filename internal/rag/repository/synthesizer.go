package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/omdiwan06/CricketRAG/internal/rag/interfaces"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
)

// emptyResponse is returned when synthesis has no retrieved context to
// work with.
const emptyResponse = "Empty Response"

const summaryPrompt = `Context information from multiple sources is below.
---------------------
%s
---------------------
Given the information from multiple sources and not prior knowledge, answer the query.
Query: %s
Answer: `

const (
	// contextTokenBudget bounds the packed context per chat call.
	contextTokenBudget = 3000
	// maxSummaryRounds bounds the recursive combination depth.
	maxSummaryRounds = 8
)

// TokenCounter counts tokens for context packing.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// Synthesizer combines retrieved chunks into one coherent answer using
// tree-style summarization: chunk answers are produced per packed batch and
// recursively combined until a single response remains.
type Synthesizer struct {
	chat    interfaces.ChatModel
	counter TokenCounter
	logger  zerolog.Logger
}

func NewSynthesizer(chat interfaces.ChatModel, counter TokenCounter) *Synthesizer {
	return &Synthesizer{
		chat:    chat,
		counter: counter,
		logger:  util.NewLogger(zerolog.ErrorLevel),
	}
}

// Synthesize answers the query from the given context texts.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, texts []string) (string, error) {
	if len(texts) == 0 {
		return emptyResponse, nil
	}

	for round := 0; round < maxSummaryRounds; round++ {
		batches, err := s.packBatches(texts)
		if err != nil {
			return "", err
		}

		if len(batches) == 1 {
			return s.answerBatch(ctx, query, batches[0])
		}

		answers := make([]string, 0, len(batches))
		for _, batch := range batches {
			answer, err := s.answerBatch(ctx, query, batch)
			if err != nil {
				return "", err
			}
			answers = append(answers, answer)
		}
		texts = answers
	}

	// Combination did not converge; answer over whatever remains
	s.logger.Warn().Int("texts", len(texts)).Msg("tree summarization did not converge, answering over remaining context")
	return s.answerBatch(ctx, query, texts)
}

func (s *Synthesizer) answerBatch(ctx context.Context, query string, batch []string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, strings.Join(batch, "\n\n"), query)
	answer, err := s.chat.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// packBatches greedily groups texts so each batch fits the context budget.
// A single oversized text forms its own batch rather than being dropped.
func (s *Synthesizer) packBatches(texts []string) ([][]string, error) {
	var batches [][]string
	var current []string
	currentTokens := 0

	for _, text := range texts {
		tokens, err := s.counter.CountTokens(text)
		if err != nil {
			return nil, err
		}
		if currentTokens+tokens > contextTokenBudget && len(current) > 0 {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, text)
		currentTokens += tokens
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches, nil
}
