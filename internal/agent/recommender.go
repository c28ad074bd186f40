package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/fanvise/fanvise/internal/llm"
	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/optimizer"
)

const recommenderSystem = `You are FanVise, a fantasy basketball co-manager.
You receive pre-computed, ranked add/drop moves for the rest of the week.
Write a short recommendation (2-4 sentences) for the top move, mentioning the
runner-up when it is close. Use only the numbers provided. Do not invent
stats or mention any move that is not listed.`

// MovesRecommender narrates ranked optimizer moves through the LLM. It is
// the only non-deterministic step of the optimizer pipeline; callers fall
// back to a template when it errors.
type MovesRecommender struct {
	provider llm.Provider
}

func NewMovesRecommender(provider llm.Provider) *MovesRecommender {
	return &MovesRecommender{provider: provider}
}

func (r *MovesRecommender) Recommend(ctx context.Context, moves []models.MoveRecommendation, window optimizer.Window) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Window: %s through %s\n\nRanked moves:\n",
		window.Start.Format("Mon Jan 2"), window.End.Format("Mon Jan 2"))
	for _, m := range moves {
		fmt.Fprintf(&b, "%d. Drop %s, add %s: %.1f -> %.1f projected fpts (net %+.1f), confidence %s\n",
			m.Rank, m.DropPlayerName, m.AddPlayerName,
			m.BaselineWindowFpts, m.ProjectedWindowFpts, m.NetGain, m.Confidence)
		for _, w := range m.Warnings {
			fmt.Fprintf(&b, "   warning: %s\n", w)
		}
	}

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		System: recommenderSystem,
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recommendation completion failed: %w", err)
	}
	return resp.Content, nil
}
