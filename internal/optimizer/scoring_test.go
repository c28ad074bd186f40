package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanvise/fanvise/internal/models"
)

func mkGame(id, day string, home, away int) models.NBAGame {
	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return models.NBAGame{ID: id, Date: date.Add(19 * time.Hour), HomeTeamID: home, AwayTeamID: away}
}

func testWindow(t *testing.T, start, end string) Window {
	t.Helper()
	s, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	e, err := time.Parse("2006-01-02", end)
	require.NoError(t, err)
	return Window{Start: s, End: e.Add(24*time.Hour - time.Millisecond)}
}

func TestDefaultWindowEndsNextSunday(t *testing.T) {
	// 2026-01-07 is a Wednesday; the following Sunday is 2026-01-11.
	now := time.Date(2026, 1, 7, 15, 30, 0, 0, time.UTC)
	w := DefaultWindow(now)

	assert.Equal(t, now, w.Start)
	assert.Equal(t, time.Date(2026, 1, 11, 23, 59, 59, 999000000, time.UTC), w.End)
}

func TestDefaultWindowOnSunday(t *testing.T) {
	// A Sunday window ends the same day.
	now := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)
	w := DefaultWindow(now)

	assert.Equal(t, time.Sunday, w.End.Weekday())
	assert.Equal(t, now.Day(), w.End.Day())
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		gamesPlayed int
		want        string
	}{
		{"injury dominates sample", models.InjuryDTD, 40, models.ConfidenceLow},
		{"gtd is low", models.InjuryGTD, 20, models.ConfidenceLow},
		{"questionable is low", models.InjuryQuestionable, 30, models.ConfidenceLow},
		{"healthy veteran", models.InjuryActive, 15, models.ConfidenceHigh},
		{"healthy mid sample", models.InjuryActive, 7, models.ConfidenceMedium},
		{"zero games is low regardless", models.InjuryActive, 0, models.ConfidenceLow},
		{"out but large sample", models.InjuryOut, 40, models.ConfidenceHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfidenceFor(tt.status, tt.gamesPlayed))
		})
	}
}

func TestScoreDroppingCandidateCeiling(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	p := models.RosterPlayer{
		PlayerID:     1,
		PlayerName:   "Deep Bench Guy",
		ProTeamID:    9,
		InjuryStatus: models.InjuryOut,
		AvgFpts:      5,
		GamesPlayed:  2,
	}

	// No games for team 9 in the window.
	games := []models.NBAGame{mkGame("g1", "2026-01-06", 2, 13)}

	ds := ScoreDroppingCandidate(p, window, 30, games)

	assert.Equal(t, 100, ds.Score)
	assert.GreaterOrEqual(t, ds.Score, 70)
	assert.LessOrEqual(t, ds.Score, 100)
	assert.Equal(t, 0, ds.GamesRemaining)
	require.Len(t, ds.Reasons, 4)
	assert.Contains(t, ds.Reasons[0], "below league avg")
	assert.Contains(t, ds.Reasons[1], "No games remaining")
	assert.Contains(t, ds.Reasons[2], "Currently OUT")
	assert.Contains(t, ds.Reasons[3], "Low sample size")
}

func TestScoreDroppingCandidateBounds(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	games := []models.NBAGame{
		mkGame("g1", "2026-01-06", 2, 13),
		mkGame("g2", "2026-01-08", 13, 9),
		mkGame("g3", "2026-01-10", 2, 9),
	}

	players := []models.RosterPlayer{
		{PlayerID: 1, ProTeamID: 2, InjuryStatus: models.InjuryActive, AvgFpts: 45, GamesPlayed: 30},
		{PlayerID: 2, ProTeamID: 13, InjuryStatus: models.InjuryDTD, AvgFpts: 20, GamesPlayed: 3},
		{PlayerID: 3, ProTeamID: 7, InjuryStatus: models.InjuryOut, AvgFpts: 1, GamesPlayed: 0},
	}
	for _, p := range players {
		ds := ScoreDroppingCandidate(p, window, 25, games)
		assert.GreaterOrEqual(t, ds.Score, 0)
		assert.LessOrEqual(t, ds.Score, 100)
	}

	// Healthy stud with two games keeps a zero score.
	stud := ScoreDroppingCandidate(players[0], window, 25, games)
	assert.Equal(t, 0, stud.Score)
	assert.Empty(t, stud.Reasons)
	assert.Equal(t, 2, stud.GamesRemaining)
}

func TestScoreStreamingCandidate(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	games := []models.NBAGame{
		mkGame("g1", "2026-01-06", 2, 13),
		mkGame("g2", "2026-01-08", 13, 9),
	}

	fa := models.FreeAgent{
		PlayerID:     77,
		PlayerName:   "Streamer",
		ProTeamID:    13,
		InjuryStatus: models.InjuryActive,
		AvgFpts:      30,
		GamesPlayed:  20,
	}

	ss := ScoreStreamingCandidate(fa, window, games)

	assert.Equal(t, 2, ss.GamesRemaining)
	assert.Equal(t, []string{"2026-01-06", "2026-01-08"}, ss.GameDates)
	assert.Equal(t, 60.0, ss.ProjectedWindowFpts)
	// round(min(60, 90) / 90 * 100) = 67
	assert.Equal(t, 67, ss.Score)
	assert.Equal(t, models.ConfidenceHigh, ss.Confidence)
}

func TestScoreStreamingCandidateNoGamesIsZero(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	fa := models.FreeAgent{PlayerID: 77, ProTeamID: 13, AvgFpts: 50, GamesPlayed: 20}

	ss := ScoreStreamingCandidate(fa, window, nil)

	assert.Equal(t, 0, ss.GamesRemaining)
	assert.Equal(t, 0, ss.Score)
	assert.Empty(t, ss.GameDates)
}

func TestScoreStreamingCandidateCapsAtElite(t *testing.T) {
	window := testWindow(t, "2026-01-05", "2026-01-11")
	games := []models.NBAGame{
		mkGame("g1", "2026-01-05", 13, 2),
		mkGame("g2", "2026-01-07", 13, 9),
		mkGame("g3", "2026-01-09", 13, 7),
		mkGame("g4", "2026-01-11", 13, 6),
	}
	fa := models.FreeAgent{PlayerID: 9, ProTeamID: 13, AvgFpts: 40, GamesPlayed: 25}

	ss := ScoreStreamingCandidate(fa, window, games)

	assert.Equal(t, 100, ss.Score)
	assert.Equal(t, 160.0, ss.ProjectedWindowFpts)
}
