package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
)

// OllamaProvider talks to a local Ollama server. The served model must
// support tool calling; tool_choice=any is silently ignored, so the
// orchestrator leans on prompt imperatives instead.
type OllamaProvider struct {
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
	model      string
}

func NewOllamaProvider(baseURL, model string, logger *logrus.Logger) *OllamaProvider {
	return &OllamaProvider{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		baseURL:    baseURL,
		model:      model,
	}
}

func (p *OllamaProvider) Name() string                { return "ollama" }
func (p *OllamaProvider) Model() string               { return p.model }
func (p *OllamaProvider) SupportsToolChoiceAny() bool { return false }

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"function"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function Tool   `json:"function"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Format   string          `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*models.ChatMessage, error) {
	body := ollamaRequest{
		Model:    p.model,
		Messages: p.convertMessages(req.System, req.Messages),
		Stream:   false,
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, ollamaTool{Type: "function", Function: tool})
	}
	if req.JSONMode {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(raw))
	}

	var or ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}

	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   or.Message.Content,
		CreatedAt: time.Now().UTC(),
	}
	for _, tc := range or.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
			ID:   uuid.NewString(),
			Name: tc.Function.Name,
			Args: tc.Function.Arguments,
		})
	}
	return msg, nil
}

func (p *OllamaProvider) convertMessages(system string, messages []models.ChatMessage) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, ollamaMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		om := ollamaMessage{Role: m.Role, Content: m.Content}
		for _, tc := range m.ToolCalls {
			var otc ollamaToolCall
			otc.Function.Name = tc.Name
			otc.Function.Arguments = tc.Args
			om.ToolCalls = append(om.ToolCalls, otc)
		}
		out = append(out, om)
	}
	return out
}
