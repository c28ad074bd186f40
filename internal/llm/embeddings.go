package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/pkg/config"
)

// Embedder computes text embeddings with an ordered model fallback
// list. A model answering 404 or "not found" advances the list; any
// other error propagates, because silently switching models would mix
// vector spaces in the index.
type Embedder struct {
	httpClient *http.Client
	logger     *logrus.Logger

	provider      string
	geminiBase    string
	geminiKey     string
	ollamaBase    string
	fallbackOrder []string
}

func NewEmbedder(cfg *config.Config, logger *logrus.Logger) *Embedder {
	e := &Embedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		provider:   cfg.EmbeddingProvider,
		geminiBase: geminiBaseURL,
		geminiKey:  cfg.GoogleAPIKey,
		ollamaBase: cfg.OllamaURL,
	}
	switch cfg.EmbeddingProvider {
	case "ollama":
		e.fallbackOrder = []string{cfg.OllamaEmbeddingModel, "nomic-embed-text"}
	default:
		e.fallbackOrder = []string{cfg.GeminiEmbeddingModel, "text-embedding-004"}
	}
	return e
}

// SetBaseURLs points the embedder at different hosts. Used by tests.
func (e *Embedder) SetBaseURLs(gemini, ollama string) {
	e.geminiBase = gemini
	e.ollamaBase = ollama
}

// Embed returns the vector for one text using the first available model.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for i, model := range e.fallbackOrder {
		if i > 0 && model == e.fallbackOrder[i-1] {
			continue
		}

		var vec []float32
		var err error
		if e.provider == "ollama" {
			vec, err = e.embedOllama(ctx, model, text)
		} else {
			vec, err = e.embedGemini(ctx, model, text)
		}
		if err == nil {
			return vec, nil
		}
		if !isModelMissing(err) {
			return nil, err
		}
		e.logger.WithError(err).Warnf("Embedding model %s unavailable, trying next", model)
		lastErr = err
	}
	return nil, fmt.Errorf("no embedding model available: %w", lastErr)
}

func isModelMissing(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "status 404") || strings.Contains(msg, "not found")
}

func (e *Embedder) embedGemini(ctx context.Context, model, text string) ([]float32, error) {
	body := map[string]interface{}{
		"content": map[string]interface{}{
			"parts": []map[string]string{{"text": text}},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/models/%s:embedContent?key=%s", e.geminiBase, model, e.geminiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response empty")
	}
	return out.Embedding.Values, nil
}

func (e *Embedder) embedOllama(ctx context.Context, model, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{"model": model, "prompt": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.ollamaBase+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response empty")
	}
	return out.Embedding, nil
}
