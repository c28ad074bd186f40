package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fanvise/fanvise/internal/llm"
	"github.com/fanvise/fanvise/internal/models"
)

// Handler executes one tool call. Results are JSON-serialized before
// they re-enter the conversation.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Tool is one registered agent capability. The description is the only
// signal the LLM has for when to pick it, so it spells out the return
// shape and usage hints.
type Tool struct {
	Name          string
	Description   string
	Parameters    map[string]interface{}
	NeedsTeamID   bool
	NeedsLeagueID bool
	Handler       Handler
}

// Registry holds the agent's tools in registration order.
type Registry struct {
	tools  []Tool
	byName map[string]int
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

func (r *Registry) Register(tool Tool) {
	r.byName[tool.Name] = len(r.tools)
	r.tools = append(r.tools, tool)
}

func (r *Registry) Get(name string) (*Tool, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &r.tools[idx], true
}

// Declarations returns the tool list in the provider wire shape.
func (r *Registry) Declarations() []llm.Tool {
	decls := make([]llm.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		decls = append(decls, llm.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return decls
}

// InjectContext merges the orchestrator's active team and league into a
// tool call's args when the tool needs them and the LLM left them out.
func (r *Registry) InjectContext(call *models.ToolCall, teamID, leagueID string) {
	tool, ok := r.Get(call.Name)
	if !ok {
		return
	}
	if call.Args == nil {
		call.Args = make(map[string]interface{})
	}
	if tool.NeedsTeamID && teamID != "" {
		if _, present := call.Args["teamId"]; !present {
			call.Args["teamId"] = teamID
		}
	}
	if tool.NeedsLeagueID && leagueID != "" {
		if _, present := call.Args["leagueId"]; !present {
			call.Args["leagueId"] = leagueID
		}
	}
}

// Execute runs a tool call and returns its result as a JSON string,
// ready to append as a tool message. Unknown tools and handler errors
// come back as error payloads rather than failures so the LLM can
// recover.
func (r *Registry) Execute(ctx context.Context, call models.ToolCall) string {
	tool, ok := r.Get(call.Name)
	if !ok {
		return errorPayload(fmt.Sprintf("unknown tool %q", call.Name))
	}

	result, err := tool.Handler(ctx, call.Args)
	if err != nil {
		return errorPayload(err.Error())
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errorPayload(fmt.Sprintf("failed to serialize %s result: %v", call.Name, err))
	}
	return string(raw)
}

func errorPayload(msg string) string {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return string(raw)
}
