// Package llm abstracts the chat and embedding providers behind one
// contract so the agent never branches on vendor.
package llm

import (
	"context"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/pkg/config"
	"github.com/sirupsen/logrus"
)

// Tool choice hints. Providers that do not support ChoiceAny ignore it;
// callers must check SupportsToolChoiceAny before relying on forcing.
const (
	ChoiceAuto = "auto"
	ChoiceAny  = "any"
)

// Tool is a function declaration offered to the model. Parameters is a
// JSON schema object.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// CompletionRequest is one LLM turn. Messages use the internal chat
// shape; providers translate to their wire format.
type CompletionRequest struct {
	System     string
	Messages   []models.ChatMessage
	Tools      []Tool
	ToolChoice string
	JSONMode   bool
}

// Provider is a tool-calling chat model.
type Provider interface {
	Name() string
	Model() string
	SupportsToolChoiceAny() bool
	Complete(ctx context.Context, req CompletionRequest) (*models.ChatMessage, error)
}

// NewProvider selects the chat provider from config. Managed deploys
// force the cloud provider regardless of the local flag.
func NewProvider(cfg *config.Config, logger *logrus.Logger) Provider {
	if cfg.UseLocal() {
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, logger)
	}
	return NewGeminiProvider(cfg.GoogleAPIKey, cfg.GeminiModel, logger)
}
