package ollama

import "errors"

var (
	ErrContentEmpty     = errors.New("content is empty")
	ErrPromptEmpty      = errors.New("prompt is empty")
	ErrAPIRequestFailed = errors.New("API request failed")
	ErrNoEmbeddingData  = errors.New("no embedding data in response")
)
