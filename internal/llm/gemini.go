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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider talks to the Generative Language REST API. It is the
// cloud provider and the only one honoring tool_choice=any.
type GeminiProvider struct {
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
	apiKey     string
	model      string
}

func NewGeminiProvider(apiKey, model string, logger *logrus.Logger) *GeminiProvider {
	return &GeminiProvider{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		baseURL:    geminiBaseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// SetBaseURL points the provider at a different host. Used by tests.
func (p *GeminiProvider) SetBaseURL(base string) { p.baseURL = base }

func (p *GeminiProvider) Name() string                { return "gemini" }
func (p *GeminiProvider) Model() string               { return p.model }
func (p *GeminiProvider) SupportsToolChoiceAny() bool { return true }

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type geminiFunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiToolList        `json:"tools,omitempty"`
	ToolConfig        *geminiToolConfig       `json:"toolConfig,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiToolList struct {
	FunctionDeclarations []Tool `json:"functionDeclarations"`
}

type geminiToolConfig struct {
	FunctionCallingConfig struct {
		Mode string `json:"mode"`
	} `json:"functionCallingConfig"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete runs one non-streaming generation turn.
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*models.ChatMessage, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("google api key not configured")
	}

	body := geminiRequest{
		Contents: p.convertMessages(req.Messages),
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		body.Tools = []geminiToolList{{FunctionDeclarations: req.Tools}}
		if req.ToolChoice == ChoiceAny {
			cfg := &geminiToolConfig{}
			cfg.FunctionCallingConfig.Mode = "ANY"
			body.ToolConfig = cfg
		}
	}
	if req.JSONMode {
		body.GenerationConfig = &geminiGenerationConfig{ResponseMIMEType: "application/json"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(raw))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		CreatedAt: time.Now().UTC(),
	}
	for _, part := range gr.Candidates[0].Content.Parts {
		if part.Text != "" {
			msg.Content += part.Text
		}
		if part.FunctionCall != nil {
			msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
				ID:   uuid.NewString(),
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}
	return msg, nil
}

// convertMessages maps internal chat history onto Gemini contents. Tool
// results become functionResponse parts on a user turn; Gemini has no
// dedicated tool role.
func (p *GeminiProvider) convertMessages(messages []models.ChatMessage) []geminiContent {
	toolNames := make(map[string]string)
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleAssistant:
			content := geminiContent{Role: "model"}
			if m.Content != "" {
				content.Parts = append(content.Parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				toolNames[tc.ID] = tc.Name
				content.Parts = append(content.Parts, geminiPart{
					FunctionCall: &geminiFunctionCall{Name: tc.Name, Args: tc.Args},
				})
			}
			contents = append(contents, content)
		case models.RoleTool:
			var response map[string]interface{}
			if err := json.Unmarshal([]byte(m.Content), &response); err != nil {
				response = map[string]interface{}{"result": m.Content}
			}
			contents = append(contents, geminiContent{
				Role: "user",
				Parts: []geminiPart{{
					FunctionResponse: &geminiFunctionResponse{
						Name:     toolNames[m.ToolCallID],
						Response: response,
					},
				}},
			})
		default:
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}
	return contents
}
