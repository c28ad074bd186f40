// Package intent routes user queries to agent behaviors with a pure,
// deterministic rule table. No LLM call happens here; misrouting is
// recoverable downstream, so the table favors precision over recall.
package intent

import (
	"regexp"
	"strings"
)

// Intents the router can emit.
const (
	TeamAudit          = "team_audit"
	MatchupAnalysis    = "matchup_analysis"
	LineupOptimization = "lineup_optimization"
	FreeAgentScan      = "free_agent_scan"
	PlayerResearch     = "player_research"
	GeneralAdvice      = "general_advice"
)

// nonNBASport catches queries about other sports. Only an explicit "nba"
// mention overrides it.
var nonNBASport = regexp.MustCompile(`\b(nfl|football|quarterback|touchdown|mlb|baseball|pitcher|nhl|hockey|goalie|soccer|premier league|golf|tennis|cricket|ufc|mma|nascar)\b`)

var nbaWord = regexp.MustCompile(`\bnba\b`)

// rumorPattern flags unverified catastrophic-injury chatter. Combined
// with "drop" it must never reach the optimizer; the agent has to fetch
// real status data first.
var rumorPattern = regexp.MustCompile(`\brumor(s)?\b|\btore\b|career[- ]ending|group chat says|unverified|social media|posted that|\bbreaking\b`)

var dropWord = regexp.MustCompile(`\bdrop\b`)

// Hypothetical lineup questions are audits of a constructed scenario,
// not optimizer runs.
var (
	hypotheticalLead  = regexp.MustCompile(`\bassume\b|\bassuming\b|\bhypothetical(ly)?\b|\bgiven that\b`)
	hypotheticalTopic = regexp.MustCompile(`\blineup\b|\bstart(ing)?\b|\bslot\b|\bbench\b|ruled out|out tonight`)
)

// patternTable is evaluated in order; the first hit wins. team_audit
// outranks the narrower intents because comprehensive requests usually
// mention matchup or streaming language in passing. Bare "stream" is
// deliberately absent from lineup_optimization so it falls through to
// free_agent_scan; only optim* triggers the optimizer.
var patternTable = []struct {
	intent  string
	pattern *regexp.Regexp
}{
	{TeamAudit, regexp.MustCompile(`\baudit\b|comprehensive|full (team )?(overview|review|analysis)|overview of my (team|roster)|\bir slot\b|return timeline|game ?plan|trade decision`)},
	{MatchupAnalysis, regexp.MustCompile(`\bmatchup\b|current score|am i (winning|losing)|points (behind|ahead)|score this week|\bopponent('s)? (team|roster|score)\b`)},
	{LineupOptimization, regexp.MustCompile(`optim[a-z]+|start[ /]?sit|start or sit|who should i (start|sit|drop)|\bdrop\b.*\badd\b|\badd\b.*\bdrop\b|waiver pickup|daily lineup|roster decision`)},
	{FreeAgentScan, regexp.MustCompile(`waiver wire|free agent(s)?|best available|stream[a-z]*|\bpickups?\b`)},
	{PlayerResearch, regexp.MustCompile(`injur[a-z]*|\bgtd\b|\bdtd\b|questionable|\bnews\b|\bstatus\b|\breturn(ing)?\b|is [a-z.' -]+ playing|how has [a-z.' -]+ been|game log|ruled out`)},
}

// Classify maps a free-text query to one of the six intents. It is pure
// and never fails; anything unmatched is general_advice.
func Classify(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return GeneralAdvice
	}

	if nonNBASport.MatchString(q) && !nbaWord.MatchString(q) {
		return GeneralAdvice
	}

	if dropWord.MatchString(q) && rumorPattern.MatchString(q) {
		return PlayerResearch
	}

	if hypotheticalLead.MatchString(q) && hypotheticalTopic.MatchString(q) {
		return TeamAudit
	}

	for _, entry := range patternTable {
		if entry.pattern.MatchString(q) {
			return entry.intent
		}
	}
	return GeneralAdvice
}
