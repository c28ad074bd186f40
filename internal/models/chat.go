package models

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// Reply languages.
const (
	LanguageEnglish = "en"
	LanguageGreek   = "el"
)

// ToolCall is a tool invocation requested by the LLM.
type ToolCall struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// ChatMessage is one turn in a conversation. Tool results carry the
// originating ToolCallID; optimizer answers carry RankedMoves.
type ChatMessage struct {
	ID          string               `json:"id"`
	Role        string               `json:"role"`
	Content     string               `json:"content"`
	CreatedAt   time.Time            `json:"created_at"`
	ToolCalls   []ToolCall           `json:"tool_calls,omitempty"`
	ToolCallID  string               `json:"tool_call_id,omitempty"`
	Feedback    string               `json:"feedback,omitempty"` // "up" or "down"
	RankedMoves []MoveRecommendation `json:"ranked_moves,omitempty"`
	FetchedAt   *time.Time           `json:"fetched_at,omitempty"`
	WindowStart *time.Time           `json:"window_start,omitempty"`
	WindowEnd   *time.Time           `json:"window_end,omitempty"`
}

// Conversation is client-owned durable state; the server is stateless
// across turns except for upstream caches.
type Conversation struct {
	ID            string        `json:"id"`
	ActiveTeamID  string        `json:"active_team_id,omitempty"`
	Language      string        `json:"language"`
	Mode          string        `json:"mode"` // "classic" or "agent"
	Messages      []ChatMessage `json:"messages"`
	LastMessageAt time.Time     `json:"last_message_at"`
}
