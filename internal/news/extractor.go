package news

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fanvise/fanvise/internal/llm"
	"github.com/fanvise/fanvise/internal/models"
)

// Extraction is the structured intelligence pulled from one article.
type Extraction struct {
	PlayerName         string   `json:"playerName,omitempty"`
	Sentiment          string   `json:"sentiment"`
	Category           string   `json:"category"`
	ImpactBackup       string   `json:"impactBackup,omitempty"`
	IsInjuryReport     bool     `json:"isInjuryReport"`
	InjuryStatus       string   `json:"injuryStatus,omitempty"`
	ExpectedReturnDate string   `json:"expectedReturnDate,omitempty"`
	ImpactedPlayerIDs  []string `json:"impactedPlayerIds,omitempty"`
}

// Extractor turns raw article text into an Extraction via one JSON-mode
// LLM call.
type Extractor struct {
	provider llm.Provider
}

func NewExtractor(provider llm.Provider) *Extractor {
	return &Extractor{provider: provider}
}

const extractorSystemPrompt = `You analyze NBA news articles for a fantasy basketball assistant.
Respond with a single JSON object, no prose, with these fields:
playerName (string, main player the article is about, omit if none),
sentiment ("POSITIVE"|"NEGATIVE"|"NEUTRAL"),
category ("Injury"|"Trade"|"Lineup"|"Performance"|"Other"),
impactBackup (string, backup player who benefits, omit if none),
isInjuryReport (bool),
injuryStatus (string like "OUT"|"DTD"|"GTD"|"QUESTIONABLE", omit if not injury related),
expectedReturnDate (ISO date string, omit if unknown),
impactedPlayerIds (array of player name strings affected by the news).`

// Extract analyzes one article. The extraction defaults to a neutral
// Other classification when the model returns malformed JSON.
func (e *Extractor) Extract(ctx context.Context, title, content string) (*Extraction, error) {
	msg, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: extractorSystemPrompt,
		Messages: []models.ChatMessage{{
			Role:    models.RoleUser,
			Content: fmt.Sprintf("Title: %s\n\nArticle:\n%s", title, content),
		}},
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var ex Extraction
	text := strings.TrimSpace(msg.Content)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(text), &ex); err != nil {
		return &Extraction{Sentiment: models.SentimentNeutral, Category: models.CategoryOther}, nil
	}

	if ex.Sentiment == "" {
		ex.Sentiment = models.SentimentNeutral
	}
	if ex.Category == "" {
		ex.Category = models.CategoryOther
	}
	return &ex, nil
}
