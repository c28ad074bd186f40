package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"empty", "", GeneralAdvice},
		{"whitespace only", "   \t  ", GeneralAdvice},
		{"small talk", "hey what's up", GeneralAdvice},

		{"other sport", "Who should I start at quarterback this week?", GeneralAdvice},
		{"other sport hockey", "Best goalie streamers tonight?", GeneralAdvice},
		{"nba mention overrides sport guard", "Forget football, who are the best NBA pickups?", FreeAgentScan},

		{"audit", "Run a full audit of my roster", TeamAudit},
		{"comprehensive", "Give me a comprehensive breakdown of my team", TeamAudit},
		{"ir slot", "Who should go in my IR slot?", TeamAudit},
		{"return timeline", "What's the return timeline for my injured guys and how do I plan around it?", TeamAudit},
		{"trade decision", "Help me with this trade decision", TeamAudit},

		{"matchup", "How does my matchup look this week?", MatchupAnalysis},
		{"winning", "Am I winning right now?", MatchupAnalysis},
		{"points behind", "How many points behind am I?", MatchupAnalysis},

		{"optimize", "Optimize my lineup for this week.", LineupOptimization},
		{"optimal", "What's the optimal roster move?", LineupOptimization},
		{"start sit", "Start/sit advice for tonight", LineupOptimization},
		{"drop add", "Should I drop Reid and add Walker?", LineupOptimization},
		{"waiver pickup", "Best waiver pickup for my squad?", LineupOptimization},

		{"bare stream goes to scan", "Who can I stream tomorrow night?", FreeAgentScan},
		{"streaming goes to scan", "Best streaming options for Friday", FreeAgentScan},
		{"waiver wire", "What's on the waiver wire?", FreeAgentScan},
		{"free agents", "Show me the top free agents", FreeAgentScan},

		{"injury", "Is Haliburton injured?", PlayerResearch},
		{"gtd", "Embiid is GTD, what do we know?", PlayerResearch},
		{"is playing", "Is Luka playing tonight?", PlayerResearch},
		{"how has been", "How has Sengun been lately?", PlayerResearch},
		{"news", "Any news on Kawhi?", PlayerResearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

// Intent is always one of the six known values, whatever the input.
func TestClassifyClosedSet(t *testing.T) {
	valid := map[string]bool{
		TeamAudit: true, MatchupAnalysis: true, LineupOptimization: true,
		FreeAgentScan: true, PlayerResearch: true, GeneralAdvice: true,
	}
	queries := []string{
		"", "???", "optimize", "STREAM", "drop everyone",
		"Assume my center is ruled out, what now?", "tell me a joke",
		"Is the NBA season over?", "waiver wire + matchup + stream",
	}
	for _, q := range queries {
		assert.True(t, valid[Classify(q)], "query %q produced unknown intent", q)
	}
}

func TestClassifyMatchupBeatsStreaming(t *testing.T) {
	q := "Provide a deep-dive review of my current matchup. Based on the scores, suggest available healthy free agents to stream to secure the win."
	assert.Equal(t, MatchupAnalysis, Classify(q))
}

func TestClassifyRumorDropSafetyExclusion(t *testing.T) {
	q := "Breaking rumor on X says Giannis broke his leg. Should I drop him right now?"
	assert.Equal(t, PlayerResearch, Classify(q))

	// The exclusion needs both halves: a verified-sounding drop question
	// still routes to the optimizer branch.
	assert.Equal(t, LineupOptimization, Classify("Should I drop Reid and add Walker?"))
}

func TestClassifyHypotheticalGuard(t *testing.T) {
	assert.Equal(t, TeamAudit, Classify("Assuming my starting center is ruled out, how does my lineup look?"))
	assert.Equal(t, TeamAudit, Classify("Hypothetically, if I bench Murray, what happens?"))
}

func TestClassifyCaseInsensitive(t *testing.T) {
	assert.Equal(t, LineupOptimization, Classify("  OPTIMIZE MY LINEUP  "))
	assert.Equal(t, MatchupAnalysis, Classify("AM I WINNING?"))
}
