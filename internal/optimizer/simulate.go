package optimizer

import (
	"fmt"
	"sort"

	"github.com/fanvise/fanvise/internal/models"
)

// SimulateMove projects the fantasy-point delta of dropping one roster
// player for a free agent over every game date in the window. Both the
// baseline roster (still holding the drop) and the post-move roster are
// run through the daily lineup builder for each date.
func SimulateMove(drop models.RosterPlayer, add models.FreeAgent, currentRoster []models.RosterPlayer, rosterSlots models.RosterSlots, window Window, games []models.NBAGame) models.SimulateMoveResult {
	projectedRoster := make([]models.RosterPlayer, 0, len(currentRoster))
	for _, p := range currentRoster {
		if p.PlayerID == drop.PlayerID {
			continue
		}
		projectedRoster = append(projectedRoster, p)
	}
	projectedRoster = append(projectedRoster, add.AsRosterPlayer())

	dateKeys, teamsByDate := gameDays(window, games)

	var baseline, projected float64
	breakdown := make([]models.DayBreakdown, 0, len(dateKeys))

	for _, date := range dateKeys {
		playing := teamsByDate[date]

		baseLineup := BuildDailyLineup(currentRoster, rosterSlots, playing)
		projLineup := BuildDailyLineup(projectedRoster, rosterSlots, playing)

		baseline += startersFpts(baseLineup)
		projected += startersFpts(projLineup)

		var slots []string
		for _, a := range projLineup {
			if a.Slot != models.SlotBE {
				slots = append(slots, a.Slot)
			}
		}
		breakdown = append(breakdown, models.DayBreakdown{Date: date, SlotsUsed: slots})
	}

	isLegal := false
	for _, slot := range StartingSlots(rosterSlots) {
		if CanFillSlot(add.EligibleSlots, slot) {
			isLegal = true
			break
		}
	}

	var warnings []string
	switch add.InjuryStatus {
	case models.InjuryDTD, models.InjuryGTD:
		warnings = append(warnings, fmt.Sprintf("%s availability uncertain (%s)", add.PlayerName, add.InjuryStatus))
	}
	if !isLegal {
		warnings = append(warnings, fmt.Sprintf("%s cannot fill any starting slot in this league", add.PlayerName))
	}

	return models.SimulateMoveResult{
		IsLegal:             isLegal,
		DropID:              drop.PlayerID,
		DropName:            drop.PlayerName,
		AddID:               add.PlayerID,
		AddName:             add.PlayerName,
		BaselineWindowFpts:  round1(baseline),
		ProjectedWindowFpts: round1(projected),
		NetGain:             round1(projected - baseline),
		DailyBreakdown:      breakdown,
		Confidence:          ConfidenceFor(add.InjuryStatus, add.GamesPlayed),
		Warnings:            warnings,
	}
}

// gameDays collapses the window's games into sorted date keys with the
// set of pro teams playing each day.
func gameDays(window Window, games []models.NBAGame) ([]string, map[string]map[int]bool) {
	teamsByDate := make(map[string]map[int]bool)
	for _, g := range games {
		if !window.contains(g.Date) {
			continue
		}
		key := g.DateKey()
		if teamsByDate[key] == nil {
			teamsByDate[key] = make(map[int]bool)
		}
		teamsByDate[key][g.HomeTeamID] = true
		teamsByDate[key][g.AwayTeamID] = true
	}
	dates := make([]string, 0, len(teamsByDate))
	for d := range teamsByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, teamsByDate
}

func startersFpts(assignments []models.SlotAssignment) float64 {
	var sum float64
	for _, a := range assignments {
		if a.Slot != models.SlotBE {
			sum += a.AvgFpts
		}
	}
	return sum
}
