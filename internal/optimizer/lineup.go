package optimizer

import (
	"fmt"
	"sort"

	"github.com/fanvise/fanvise/internal/models"
)

// BuildDailyLineup greedily assigns the roster to starting slots for one
// game date. Only players whose pro team plays that day and who are not
// OUT or on IR are considered. Specific slots fill before flex slots;
// within a slot the highest-average available player wins, with input
// order breaking ties. Leftover players take bench spots in roster order.
func BuildDailyLineup(roster []models.RosterPlayer, rosterSlots models.RosterSlots, playingProTeamIDs map[int]bool) []models.SlotAssignment {
	available := make([]models.RosterPlayer, 0, len(roster))
	for _, p := range roster {
		if !playingProTeamIDs[p.ProTeamID] {
			continue
		}
		if p.InjuryStatus == models.InjuryOut || p.InjuryStatus == models.InjuryIR {
			continue
		}
		available = append(available, p)
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].AvgFpts > available[j].AvgFpts
	})

	assigned := make(map[int]bool)
	var assignments []models.SlotAssignment

	for _, slot := range startingSlotOrder(rosterSlots) {
		for opening := 0; opening < rosterSlots[slot]; opening++ {
			for _, p := range available {
				if assigned[p.PlayerID] || !CanFillSlot(p.EligibleSlots, slot) {
					continue
				}
				assigned[p.PlayerID] = true
				assignments = append(assignments, models.SlotAssignment{
					Slot:       slot,
					PlayerID:   p.PlayerID,
					PlayerName: p.PlayerName,
					AvgFpts:    p.AvgFpts,
				})
				break
			}
		}
	}

	benchSeats := rosterSlots[models.SlotBE]
	for _, p := range available {
		if benchSeats == 0 {
			break
		}
		if assigned[p.PlayerID] {
			continue
		}
		assigned[p.PlayerID] = true
		benchSeats--
		assignments = append(assignments, models.SlotAssignment{
			Slot:       models.SlotBE,
			PlayerID:   p.PlayerID,
			PlayerName: p.PlayerName,
			AvgFpts:    p.AvgFpts,
		})
	}

	return assignments
}

// ValidateLineupLegality checks whether the playing subset of the roster
// can legally fill every starting slot for a single day.
func ValidateLineupLegality(roster []models.RosterPlayer, rosterSlots models.RosterSlots, playingPlayerIDs map[int]bool) models.LineupValidation {
	playing := make([]models.RosterPlayer, 0, len(roster))
	playingTeams := make(map[int]bool)
	for _, p := range roster {
		if playingPlayerIDs[p.PlayerID] {
			playing = append(playing, p)
			playingTeams[p.ProTeamID] = true
		}
	}

	assignments := BuildDailyLineup(playing, rosterSlots, playingTeams)

	filled := make(map[string]int)
	starters := make(map[int]bool)
	for _, a := range assignments {
		if a.Slot == models.SlotBE {
			continue
		}
		filled[a.Slot]++
		starters[a.PlayerID] = true
	}

	var unfilled []string
	for _, slot := range startingSlotOrder(rosterSlots) {
		for missing := rosterSlots[slot] - filled[slot]; missing > 0; missing-- {
			unfilled = append(unfilled, slot)
		}
	}

	var benched []string
	for _, p := range playing {
		if p.InjuryStatus == models.InjuryOut || p.InjuryStatus == models.InjuryIR {
			continue
		}
		if !starters[p.PlayerID] {
			benched = append(benched, p.PlayerName)
		}
	}

	var warnings []string
	if len(unfilled) > 0 {
		warnings = append(warnings, fmt.Sprintf("Unfilled starting slots: %v", unfilled))
	}
	if len(benched) > 0 {
		warnings = append(warnings, fmt.Sprintf("Players with games stuck on the bench: %v", benched))
	}

	return models.LineupValidation{
		IsLegal:          len(unfilled) == 0,
		Assignments:      assignments,
		UnfilledSlots:    unfilled,
		BenchedWithGames: benched,
		Warnings:         warnings,
	}
}
