package optimizer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fanvise/fanvise/internal/models"
)

// DefaultLeagueAvgFpts is assumed when the roster is too small to compute
// a real league average.
const DefaultLeagueAvgFpts = 25.0

// maxStreamWindowFpts normalizes stream scores: 3 games at 30 fpts.
const maxStreamWindowFpts = 3 * 30.0

// Window is the date range a score or simulation covers. All times UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow spans from now through next Sunday 23:59:59.999 UTC.
func DefaultWindow(now time.Time) Window {
	now = now.UTC()
	daysUntilSunday := (7 - int(now.Weekday())) % 7
	sunday := now.AddDate(0, 0, daysUntilSunday)
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 999000000, time.UTC)
	return Window{Start: now, End: end}
}

func (w Window) contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && !t.After(w.End)
}

// ConfidenceFor returns the projection confidence tier for a player.
// Injury uncertainty dominates sample size.
func ConfidenceFor(injuryStatus string, gamesPlayed int) string {
	switch injuryStatus {
	case models.InjuryDTD, models.InjuryGTD, models.InjuryQuestionable:
		return models.ConfidenceLow
	}
	switch {
	case gamesPlayed >= 15:
		return models.ConfidenceHigh
	case gamesPlayed >= 7:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// gameDatesForTeam returns the distinct date keys inside the window on
// which the pro team plays, sorted ascending.
func gameDatesForTeam(proTeamID int, window Window, games []models.NBAGame) []string {
	seen := make(map[string]bool)
	for _, g := range games {
		if !g.Involves(proTeamID) || !window.contains(g.Date) {
			continue
		}
		seen[g.DateKey()] = true
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// ScoreDroppingCandidate rates how droppable a roster player is (0-100).
// Higher means drop. Pure; games must be preloaded for the window.
func ScoreDroppingCandidate(p models.RosterPlayer, window Window, leagueAvgFpts float64, games []models.NBAGame) models.DropScore {
	if leagueAvgFpts <= 0 {
		leagueAvgFpts = DefaultLeagueAvgFpts
	}

	dates := gameDatesForTeam(p.ProTeamID, window, games)
	gamesRemaining := len(dates)

	score := 0
	var reasons []string

	switch {
	case p.AvgFpts < 0.6*leagueAvgFpts:
		score += 40
		reasons = append(reasons, fmt.Sprintf("Production well below league avg (%.1f vs %.1f)", p.AvgFpts, leagueAvgFpts))
	case p.AvgFpts < 0.8*leagueAvgFpts:
		score += 20
		reasons = append(reasons, fmt.Sprintf("Production below league avg (%.1f vs %.1f)", p.AvgFpts, leagueAvgFpts))
	}

	switch gamesRemaining {
	case 0:
		score += 40
		reasons = append(reasons, "No games remaining in window")
	case 1:
		score += 20
		reasons = append(reasons, "Only 1 game remaining in window")
	}

	switch p.InjuryStatus {
	case models.InjuryOut:
		score += 30
		reasons = append(reasons, "Currently OUT")
	case models.InjuryDTD, models.InjuryGTD, models.InjuryQuestionable:
		score += 15
		reasons = append(reasons, "Injury uncertainty")
	}

	if p.GamesPlayed < 5 {
		score += 10
		reasons = append(reasons, "Low sample size")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return models.DropScore{
		PlayerID:            p.PlayerID,
		PlayerName:          p.PlayerName,
		Score:               score,
		GamesRemaining:      gamesRemaining,
		ProjectedWindowFpts: round1(p.AvgFpts * float64(gamesRemaining)),
		Reasons:             reasons,
	}
}

// ScoreStreamingCandidate rates a free agent's projected window value
// (0-100), normalized against 3 games of elite production.
func ScoreStreamingCandidate(fa models.FreeAgent, window Window, games []models.NBAGame) models.StreamScore {
	dates := gameDatesForTeam(fa.ProTeamID, window, games)
	gamesRemaining := len(dates)
	projected := fa.AvgFpts * float64(gamesRemaining)

	score := int(math.Round(math.Min(projected, maxStreamWindowFpts) / maxStreamWindowFpts * 100))

	return models.StreamScore{
		PlayerID:            fa.PlayerID,
		PlayerName:          fa.PlayerName,
		Score:               score,
		GamesRemaining:      gamesRemaining,
		GameDates:           dates,
		ProjectedWindowFpts: round1(projected),
		Confidence:          ConfidenceFor(fa.InjuryStatus, fa.GamesPlayed),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
