package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/agent"
	"github.com/fanvise/fanvise/internal/llm"
	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/optimizer"
	"github.com/fanvise/fanvise/pkg/config"
	"github.com/fanvise/fanvise/pkg/utils"
)

// Routing headers the client may set per request.
const (
	headerProvider = "x-fanvise-ai-provider" // "gemini" or "ollama"
	headerModel    = "x-fanvise-ai-model"
	headerAgent    = "x-fanvise-agent" // "supervisor" (tools) or "classic"
)

const defaultHeartbeat = 30 * time.Second

type chatRequest struct {
	Messages       []models.ChatMessage `json:"messages"`
	ActiveTeamID   string               `json:"activeTeamId"`
	ActiveLeagueID string               `json:"activeLeagueId"`
	TeamName       string               `json:"teamName"`
	Language       string               `json:"language"`
}

// ChatHandler streams agent answers. The response is plain text deltas;
// structured payloads ride along as in-band sentinel tokens.
type ChatHandler struct {
	cfg      *config.Config
	registry *agent.Registry
	engine   *optimizer.Engine
	logger   *logrus.Logger

	// Both overridable in tests.
	providerFactory func(name, model string) (llm.Provider, error)
	heartbeatEvery  time.Duration
}

func NewChatHandler(cfg *config.Config, registry *agent.Registry, engine *optimizer.Engine, logger *logrus.Logger) *ChatHandler {
	h := &ChatHandler{
		cfg:            cfg,
		registry:       registry,
		engine:         engine,
		logger:         logger,
		heartbeatEvery: defaultHeartbeat,
	}
	h.providerFactory = h.buildProvider
	return h
}

func (h *ChatHandler) buildProvider(name, model string) (llm.Provider, error) {
	switch name {
	case "ollama":
		if model == "" {
			model = h.cfg.OllamaModel
		}
		return llm.NewOllamaProvider(h.cfg.OllamaURL, model, h.logger), nil
	case "gemini":
		if model == "" {
			model = h.cfg.GeminiModel
		}
		return llm.NewGeminiProvider(h.cfg.GoogleAPIKey, model, h.logger), nil
	default:
		return llm.NewProvider(h.cfg, h.logger), nil
	}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid chat request", err.Error())
		return
	}

	providerName := c.GetHeader(headerProvider)
	if providerName != "" && providerName != "gemini" && providerName != "ollama" {
		utils.SendValidationError(c, "unknown AI provider", providerName)
		return
	}
	agentMode := c.GetHeader(headerAgent)
	if agentMode != "" && agentMode != "supervisor" && agentMode != "classic" {
		utils.SendValidationError(c, "unknown agent mode", agentMode)
		return
	}

	query, history := splitQuery(req.Messages)
	if query == "" {
		utils.SendValidationError(c, "no user message in request", "")
		return
	}

	provider, err := h.providerFactory(providerName, c.GetHeader(headerModel))
	if err != nil {
		utils.SendUnavailable(c, "AI provider unavailable")
		return
	}

	registry := h.registry
	if agentMode == "classic" {
		// Classic mode answers without the tool surface.
		registry = agent.NewRegistry()
	} else {
		agentMode = "supervisor"
	}
	orch := agent.NewOrchestrator(provider, registry, h.engine, h.logger)

	input := agent.Input{
		Query:    query,
		History:  history,
		TeamID:   req.ActiveTeamID,
		LeagueID: req.ActiveLeagueID,
		Language: req.Language,
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	// Echo back what actually serves this turn so clients can label the
	// answer.
	c.Header(headerProvider, provider.Name())
	c.Header(headerModel, provider.Model())
	c.Header(headerAgent, agentMode)
	c.Status(http.StatusOK)

	resultCh := make(chan *agent.Output, 1)
	go func() { resultCh <- orch.Run(c.Request.Context(), input) }()

	heartbeat := time.NewTicker(h.heartbeatEvery)
	defer heartbeat.Stop()

	var out *agent.Output
wait:
	for {
		select {
		case out = <-resultCh:
			break wait
		case <-heartbeat.C:
			// Keep slow consumers and proxies from dropping the stream
			// while tools are still running.
			if _, err := c.Writer.WriteString(agent.HeartbeatToken); err != nil {
				return
			}
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}

	if out.Err != nil {
		h.logger.WithError(out.Err).WithField("intent", out.Intent).Warn("Chat turn degraded")
	}

	chunks, err := agent.StreamChunks(out)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode moves payload")
		chunks = []string{out.Answer}
	}
	for _, chunk := range chunks {
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return
		}
		c.Writer.Flush()
	}
}

// splitQuery pulls the latest user message out of the transcript; what
// precedes it is the history.
func splitQuery(messages []models.ChatMessage) (string, []models.ChatMessage) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content, messages[:i]
		}
	}
	return "", nil
}
