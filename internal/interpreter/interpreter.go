package interpreter

import (
	"context"

	"agriwater-platform/internal/models"
)

// Interpreter is the language-model boundary: free-text question in,
// best-effort Intent out. Implementations are treated as unreliable; the
// query core validates everything an Interpreter produces. This is the
// only component that calls an external model service.
type Interpreter interface {
	Interpret(ctx context.Context, question string) (*models.Intent, error)
}

// Config holds interpreter settings.
type Config struct {
	// Host is the Ollama server base URL, e.g. "http://localhost:11434".
	Host string
	// Model is the model name, e.g. "gemma3:latest".
	Model string
}

// DefaultConfig returns local-Ollama defaults.
func DefaultConfig() Config {
	return Config{
		Host:  "http://localhost:11434",
		Model: "gemma3:latest",
	}
}
