package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanvise/fanvise/internal/models"
)

func freeAgent(id int, name string, eligible []string, team int, avg float64) models.FreeAgent {
	return models.FreeAgent{
		PlayerID:      id,
		PlayerName:    name,
		EligibleSlots: eligible,
		ProTeamID:     team,
		InjuryStatus:  models.InjuryActive,
		AvgFpts:       avg,
		GamesPlayed:   20,
	}
}

func TestSimulateMovePositiveGain(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")

	// Player A's team has no games; Free Agent B's team plays twice.
	games := []models.NBAGame{
		mkGame("g1", "2026-01-06", 13, 2),
		mkGame("g2", "2026-01-09", 7, 13),
	}

	drop := player(1, "Player A", "PG", []string{models.SlotPG}, 25, 10)
	add := freeAgent(2, "Free Agent B", []string{models.SlotPG}, 13, 25)
	roster := []models.RosterPlayer{drop}
	slots := models.RosterSlots{models.SlotPG: 1, models.SlotBE: 1}

	result := SimulateMove(drop, add, roster, slots, window, games)

	assert.True(t, result.IsLegal)
	assert.Equal(t, "Player A", result.DropName)
	assert.Equal(t, "Free Agent B", result.AddName)
	assert.Equal(t, 0.0, result.BaselineWindowFpts)
	assert.Equal(t, 50.0, result.ProjectedWindowFpts)
	assert.Greater(t, result.NetGain, 0.0)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.DailyBreakdown, 2)
	assert.Equal(t, "2026-01-06", result.DailyBreakdown[0].Date)
	assert.Equal(t, []string{models.SlotPG}, result.DailyBreakdown[0].SlotsUsed)
}

func TestSimulateMoveNetGainMatchesTotals(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	games := []models.NBAGame{
		mkGame("g1", "2026-01-06", 13, 2),
		mkGame("g2", "2026-01-07", 13, 9),
		mkGame("g3", "2026-01-09", 2, 7),
	}

	drop := player(1, "Fading", "SF", []string{models.SlotSF}, 2, 17.3)
	add := freeAgent(2, "Rising", []string{models.SlotSF}, 13, 21.7)
	roster := []models.RosterPlayer{
		drop,
		player(3, "Anchor", "C", []string{models.SlotC}, 13, 33.1),
	}
	slots := models.RosterSlots{models.SlotSF: 1, models.SlotC: 1, models.SlotBE: 2}

	result := SimulateMove(drop, add, roster, slots, window, games)

	assert.InDelta(t, result.ProjectedWindowFpts-result.BaselineWindowFpts, result.NetGain, 0.051)
	assert.Equal(t, round1(result.NetGain), result.NetGain)
}

func TestSimulateMoveIllegalWhenNoStartingSlotFits(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	games := []models.NBAGame{mkGame("g1", "2026-01-06", 13, 2)}

	drop := player(1, "Guard", "PG", []string{models.SlotPG}, 2, 10)
	add := freeAgent(2, "Big Only", []string{models.SlotC}, 13, 30)
	roster := []models.RosterPlayer{drop}
	slots := models.RosterSlots{models.SlotPG: 1, models.SlotG: 1, models.SlotBE: 1}

	result := SimulateMove(drop, add, roster, slots, window, games)

	assert.False(t, result.IsLegal)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "cannot fill any starting slot")
}

func TestSimulateMoveWarnsOnUncertainAdd(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	games := []models.NBAGame{mkGame("g1", "2026-01-06", 13, 2)}

	drop := player(1, "Guard", "PG", []string{models.SlotPG}, 2, 10)
	add := freeAgent(2, "Banged Up", []string{models.SlotPG}, 13, 30)
	add.InjuryStatus = models.InjuryDTD
	roster := []models.RosterPlayer{drop}
	slots := models.RosterSlots{models.SlotPG: 1, models.SlotBE: 1}

	result := SimulateMove(drop, add, roster, slots, window, games)

	assert.True(t, result.IsLegal)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "availability uncertain")
	assert.Equal(t, models.ConfidenceLow, result.Confidence)
}
