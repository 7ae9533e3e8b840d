package binding

import (
	"context"

	"github.com/omdiwan06/CricketRAG/internal/config"
	"github.com/omdiwan06/CricketRAG/internal/rag/interfaces"
	"github.com/omdiwan06/CricketRAG/internal/rag/ollama"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
)

// dimProbe is the fixed string embedded once at bind time to discover the
// model's actual output dimensionality.
const dimProbe = "__dim_probe__"

// ModelBinding binds the chat and embedding capabilities to the configured
// inference endpoint and reconciles the embedding dimension.
type ModelBinding struct {
	chat          interfaces.ChatModel
	embedder      interfaces.Embedder
	configuredDim int
	probedDim     *int
	logger        zerolog.Logger
}

// New binds Ollama chat and embedding models from the configuration and
// probes the embedding dimension. A failed probe is tolerated; the
// configured dimension is used instead.
func New(ctx context.Context, cfg *config.Config) *ModelBinding {
	chat := ollama.NewChatClient(cfg.ChatModel, cfg.OllamaBaseURL)
	embedder := ollama.NewEmbeddingClient(cfg.EmbeddingModel, cfg.OllamaBaseURL)
	return Bind(ctx, chat, embedder, cfg.EmbedDim)
}

// Bind wires the given capabilities together and runs the one-time
// dimension probe.
func Bind(ctx context.Context, chat interfaces.ChatModel, embedder interfaces.Embedder, configuredDim int) *ModelBinding {
	logger := util.NewLogger(zerolog.InfoLevel)

	b := &ModelBinding{
		chat:          chat,
		embedder:      embedder,
		configuredDim: configuredDim,
		logger:        logger,
	}

	logger.Info().
		Str("chat_model", chat.GetModelName()).
		Str("embedding_model", embedder.GetModelName()).
		Msg("Models configured")

	vector, err := embedder.GenerateEmbedding(ctx, dimProbe)
	if err != nil {
		logger.Warn().Err(err).
			Int("configured_dim", configuredDim).
			Msg("Could not determine embedding dimension during setup; proceeding with configured dimension")
		return b
	}

	probed := len(vector)
	b.probedDim = &probed
	if probed != configuredDim {
		logger.Warn().
			Int("configured_dim", configuredDim).
			Int("probed_dim", probed).
			Msg("Configured embedding dimension does not match model output dimension; using model output dimension")
	} else {
		logger.Info().Int("dimension", probed).Msg("Embedding dimension confirmed")
	}

	return b
}

// Chat returns the bound chat capability.
func (b *ModelBinding) Chat() interfaces.ChatModel {
	return b.chat
}

// Embedder returns the bound embedding capability.
func (b *ModelBinding) Embedder() interfaces.Embedder {
	return b.embedder
}

// ConfiguredDim returns the user-supplied embedding dimension.
func (b *ModelBinding) ConfiguredDim() int {
	return b.configuredDim
}

// ProbedDim returns the dimension discovered by the probe, or nil if the
// probe failed.
func (b *ModelBinding) ProbedDim() *int {
	return b.probedDim
}

// EffectiveDim returns the dimension the vector store should use: the
// probed dimension when available, otherwise the configured one.
func (b *ModelBinding) EffectiveDim() int {
	if b.probedDim != nil {
		return *b.probedDim
	}
	return b.configuredDim
}

// IsBound reports whether both capabilities are present.
func (b *ModelBinding) IsBound() bool {
	return b.chat != nil && b.embedder != nil
}
