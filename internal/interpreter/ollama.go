package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/models"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

// OllamaInterpreter implements Interpreter against a local Ollama server.
type OllamaInterpreter struct {
	config  Config
	catalog *catalog.Catalog
	client  *http.Client
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewOllama creates an Ollama-backed interpreter.
func NewOllama(cfg Config, cat *catalog.Catalog, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *OllamaInterpreter {
	if cfg.Host == "" {
		cfg.Host = DefaultConfig().Host
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	return &OllamaInterpreter{
		config:  cfg,
		catalog: cat,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
		metrics: metricsCollector,
	}
}

// chatRequest is the Ollama /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Format   string        `json:"format,omitempty"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Ollama /api/chat response body.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// Interpret sends the question to the model and parses the reply into an
// Intent. Parse failures fall back to keyword inference rather than
// erroring: a bad model answer becomes a sparse Intent that the core
// normalizes and then rejects with a typed failure if it stays unusable.
func (o *OllamaInterpreter) Interpret(ctx context.Context, question string) (*models.Intent, error) {
	startTime := time.Now()
	defer func() {
		o.metrics.InterpreterDuration.Observe(time.Since(startTime).Seconds())
	}()

	o.logger.Debug(ctx, "[INTERPRET_START] Calling language model", logging.Fields{
		"model":    o.config.Model,
		"question": question,
	})

	prompt := BuildPrompt(o.catalog, time.Now().UTC())
	raw, err := o.chat(ctx, prompt, question)
	if err != nil {
		o.metrics.RecordInterpreterError("api_error")
		return nil, fmt.Errorf("language model call failed: %w", err)
	}

	intent := ParseIntent(raw, question)

	o.logger.Info(ctx, "[INTERPRET_COMPLETE] Intent extracted", logging.Fields{
		"task":      intent.Task,
		"dataset":   intent.DatasetHint,
		"location":  intent.Location,
		"variables": intent.Variables,
	})

	return intent, nil
}

func (o *OllamaInterpreter) chat(ctx context.Context, systemPrompt, question string) (string, error) {
	reqBody := chatRequest{
		Model: o.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question},
		},
		Format: "json",
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.config.Host+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned %d: %.200s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse ollama response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", chatResp.Error)
	}
	return chatResp.Message.Content, nil
}
