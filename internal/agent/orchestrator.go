package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/intent"
	"github.com/fanvise/fanvise/internal/llm"
	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/optimizer"
)

// MaxToolCalls bounds the LLM turns that may request tools in one
// conversation turn. The turn after the cap answers from what it has.
const MaxToolCalls = 15

const systemPrompt = `You are FanVise, an expert fantasy basketball co-manager for ESPN head-to-head points leagues.
You advise one manager about their roster, matchup, free agents, and the NBA schedule.
Ground every claim in tool results from this turn; never invent player stats, injury news, or schedule facts.
When data is missing or a tool fails, say so plainly and answer with what you have.
Be direct and specific: name players, cite averages and games remaining, and state the move you would make.`

// cappedNote is appended to the answer when the tool budget ran out.
const cappedNote = "\n\nNote: the analysis was capped at the tool-call limit, so some data may be missing."

// planPhrases betray a model narrating tool calls instead of making them.
var planPhrases = []string{
	`"name":"get_`,
	`"name": "get_`,
	"i will call",
	"i'll call the",
	"let me call the",
	"i would use the get_",
	"calling the get_",
}

// dataKeywords flags queries that cannot be answered without live data
// even when the intent classifier stayed generic.
var dataKeywords = regexp.MustCompile(`(?i)\b(my (roster|team|lineup|matchup)|standings?|scoreboard|free agents?|waiver)\b`)

// forcedIntents are the intents whose first LLM turn must produce a tool
// call when an active team and league are known.
var forcedIntents = map[string]bool{
	intent.TeamAudit:       true,
	intent.MatchupAnalysis: true,
	intent.FreeAgentScan:   true,
	intent.PlayerResearch:  true,
}

// Input is one conversation turn. History carries prior turns verbatim;
// Query is the user's latest message.
type Input struct {
	Query    string
	History  []models.ChatMessage
	TeamID   string
	LeagueID string
	Language string
}

// Output is the orchestrator's answer plus the structured side channel.
type Output struct {
	Answer        string
	Intent        string
	ToolCallCount int
	RankedMoves   []models.MoveRecommendation
	FetchedAt     time.Time
	WindowStart   time.Time
	WindowEnd     time.Time
	Err           error
}

// Orchestrator runs the agent loop: classify, optionally shortcut to the
// deterministic optimizer, otherwise reason-and-act against the registry.
type Orchestrator struct {
	provider  llm.Provider
	registry  *Registry
	optimizer *optimizer.Engine
	logger    *logrus.Logger
}

func NewOrchestrator(provider llm.Provider, registry *Registry, engine *optimizer.Engine, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		provider:  provider,
		registry:  registry,
		optimizer: engine,
		logger:    logger,
	}
}

// Run answers one turn. Upstream failures come back as a friendly answer
// with Err set for logging; the raw error never reaches the client.
func (o *Orchestrator) Run(ctx context.Context, in Input) *Output {
	label := intent.Classify(in.Query)

	if label == intent.LineupOptimization && in.TeamID != "" && in.LeagueID != "" && o.optimizer != nil {
		return o.runOptimizer(ctx, in, label)
	}
	return o.runLoop(ctx, in, label)
}

// runOptimizer is the deterministic fast path: no agent loop, the ranked
// moves come straight from the pipeline.
func (o *Orchestrator) runOptimizer(ctx context.Context, in Input, label string) *Output {
	teamID, err := strconv.Atoi(in.TeamID)
	if err != nil {
		return o.runLoop(ctx, in, label)
	}

	result, err := o.optimizer.Run(ctx, in.LeagueID, teamID, optimizer.Window{})
	if err != nil {
		o.logger.WithError(err).Error("Optimizer run failed")
		return &Output{
			Answer: "I couldn't run the lineup optimizer right now. " + userFacing(err),
			Intent: label,
			Err:    err,
		}
	}

	return &Output{
		Answer:      result.Recommendation,
		Intent:      label,
		RankedMoves: result.RankedMoves,
		FetchedAt:   result.FetchedAt,
		WindowStart: result.WindowStart,
		WindowEnd:   result.WindowEnd,
	}
}

func (o *Orchestrator) runLoop(ctx context.Context, in Input, label string) *Output {
	out := &Output{Intent: label}
	system := o.buildSystem(in)
	msgs := sanitizeHistory(in.History)
	msgs = append(msgs, models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   in.Query,
		CreatedAt: time.Now().UTC(),
	})

	toolRan := false
	nudged := false
	capped := false
	var answer string

	for {
		req := llm.CompletionRequest{
			System:   system,
			Messages: msgs,
			Tools:    o.registry.Declarations(),
		}
		if !toolRan && out.ToolCallCount == 0 && o.shouldForceTools(in, label) && o.provider.SupportsToolChoiceAny() {
			req.ToolChoice = llm.ChoiceAny
		}

		resp, err := o.provider.Complete(ctx, req)
		if err != nil {
			o.logger.WithError(err).Error("LLM completion failed")
			out.Answer = "I'm having trouble reaching my reasoning model right now. Please try again in a moment."
			out.Err = err
			return out
		}

		if len(resp.ToolCalls) == 0 {
			answer = resp.Content
			if !toolRan && !nudged && looksLikePlan(answer) {
				// The model narrated its plan instead of acting. One nudge.
				nudged = true
				msgs = append(msgs, *resp, models.ChatMessage{
					ID:      uuid.NewString(),
					Role:    models.RoleUser,
					Content: "Do not describe tool calls in text. Invoke the tools now, then answer from their results.",
				})
				continue
			}
			break
		}

		if out.ToolCallCount >= MaxToolCalls {
			capped = true
			out.Err = fmt.Errorf("tool budget of %d exhausted", MaxToolCalls)
			break
		}
		out.ToolCallCount++

		msgs = append(msgs, *resp)
		for _, call := range resp.ToolCalls {
			o.registry.InjectContext(&call, in.TeamID, in.LeagueID)
			result := o.registry.Execute(ctx, call)
			toolRan = true
			msgs = append(msgs, models.ChatMessage{
				ID:         uuid.NewString(),
				Role:       models.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				CreatedAt:  time.Now().UTC(),
			})
		}
	}

	if capped {
		answer = o.synthesizeCapped(ctx, system, msgs)
	}
	if strings.TrimSpace(answer) == "" {
		answer = "I wasn't able to put together an answer from the available data. Could you rephrase the question?"
	}
	out.Answer = answer
	return out
}

// synthesizeCapped forces a final tool-free completion and marks the
// answer as truncated.
func (o *Orchestrator) synthesizeCapped(ctx context.Context, system string, msgs []models.ChatMessage) string {
	msgs = append(msgs, models.ChatMessage{
		ID:      uuid.NewString(),
		Role:    models.RoleUser,
		Content: "You have reached the tool budget for this turn. Answer now using only the data already gathered.",
	})
	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{System: system, Messages: msgs})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			o.logger.WithError(err).Error("Capped synthesis failed")
		}
		return "I gathered a lot of data but ran out of room to finish the analysis." + cappedNote
	}
	return resp.Content + cappedNote
}

func (o *Orchestrator) buildSystem(in Input) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	b.WriteString("\n\n## Session context\n")
	if in.TeamID != "" {
		fmt.Fprintf(&b, "Active fantasy team id: %s\n", in.TeamID)
	}
	if in.LeagueID != "" {
		fmt.Fprintf(&b, "Active league id: %s\n", in.LeagueID)
	}
	if in.TeamID != "" || in.LeagueID != "" {
		b.WriteString("For roster, matchup, or league questions you must INVOKE the tools with these ids, not describe what you would do.\n")
	} else {
		b.WriteString("No active team is selected. Answer general questions; for personalized advice ask the user to select their team.\n")
	}

	if in.Language == models.LanguageGreek {
		b.WriteString("\nReply in Greek. Keep player names, team names, and stat labels in English.\n")
	}
	return b.String()
}

func (o *Orchestrator) shouldForceTools(in Input, label string) bool {
	if in.TeamID == "" || in.LeagueID == "" {
		return false
	}
	return forcedIntents[label] || dataKeywords.MatchString(in.Query)
}

// sanitizeHistory drops empty turns and coerces tool payloads to strings
// so malformed client history cannot poison the provider request.
func sanitizeHistory(history []models.ChatMessage) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" && len(m.ToolCalls) == 0 {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func looksLikePlan(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range planPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// userFacing keeps known sentinel errors verbatim and hides the rest.
func userFacing(err error) string {
	switch {
	case strings.Contains(err.Error(), models.ErrLeagueNotFound.Error()),
		strings.Contains(err.Error(), models.ErrTeamNotFound.Error()),
		strings.Contains(err.Error(), models.ErrRosterUnavailable.Error()):
		return capitalize(lastSentinel(err))
	default:
		return "Please try again shortly."
	}
}

func lastSentinel(err error) string {
	for _, sentinel := range []error{models.ErrLeagueNotFound, models.ErrTeamNotFound, models.ErrRosterUnavailable} {
		if strings.Contains(err.Error(), sentinel.Error()) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
