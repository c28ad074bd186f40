package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fanvise/fanvise/internal/models"
)

// testDB opens an in-memory database with every non-vector table. The
// news store needs a pgvector column and is exercised against postgres.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.LeagueRow{},
		&models.NBAGame{},
		&models.PlayerStatusSnapshot{},
		&models.DailyLeader{},
	))
	return db
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d.Add(19 * time.Hour)
}

func TestScheduleStoreUpsertAndRange(t *testing.T) {
	ctx := context.Background()
	s := NewScheduleStore(testDB(t))

	games := []models.NBAGame{
		{ID: "g1", Date: day(t, "2026-01-05"), HomeTeamID: 13, AwayTeamID: 2},
		{ID: "g2", Date: day(t, "2026-01-07"), HomeTeamID: 7, AwayTeamID: 13},
		{ID: "g3", Date: day(t, "2026-01-12"), HomeTeamID: 2, AwayTeamID: 9},
	}
	require.NoError(t, s.UpsertGames(ctx, games))

	// Re-upserting the same ID replaces instead of duplicating.
	require.NoError(t, s.UpsertGames(ctx, []models.NBAGame{
		{ID: "g1", Date: day(t, "2026-01-05"), HomeTeamID: 13, AwayTeamID: 4},
	}))

	inRange, err := s.GamesInRange(ctx, day(t, "2026-01-05"), day(t, "2026-01-11"))
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "g1", inRange[0].ID)
	assert.Equal(t, 4, inRange[0].AwayTeamID)
	assert.Equal(t, "g2", inRange[1].ID)

	forTeam, err := s.GamesForTeam(ctx, 13, day(t, "2026-01-05"), day(t, "2026-01-11"))
	require.NoError(t, err)
	require.Len(t, forTeam, 2)

	forTeam, err = s.GamesForTeam(ctx, 9, day(t, "2026-01-05"), day(t, "2026-01-11"))
	require.NoError(t, err)
	assert.Empty(t, forTeam)

	require.NoError(t, s.UpsertGames(ctx, nil))
}

func TestLeagueStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLeagueStore(testDB(t))

	_, err := s.GetLeague(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrLeagueNotFound)

	row := &models.LeagueRow{
		LeagueID:        "L1",
		SeasonID:        "2026",
		Name:            "Hellas Hoops",
		ScoringSettings: models.ScoringSettings{"PTS": 1, "REB": 1.2},
		RosterSettings:  models.RosterSlots{models.SlotPG: 1, models.SlotBE: 3},
		Teams:           datatypes.JSON(`[{"id":"13","name":"Syntagma Spartans"}]`),
		LastUpdatedAt:   time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertLeague(ctx, row))

	got, err := s.GetLeague(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, "Hellas Hoops", got.Name)
	assert.Equal(t, 1.2, got.ScoringSettings["REB"])

	league, err := got.ToLeague()
	require.NoError(t, err)
	require.Len(t, league.Teams, 1)
	assert.Equal(t, "Syntagma Spartans", league.Teams[0].Name)
	assert.Equal(t, 3, league.RosterSlots[models.SlotBE])

	// Second sync replaces the row in place.
	row.Name = "Hellas Hoops Renamed"
	require.NoError(t, s.UpsertLeague(ctx, row))

	var count int64
	require.NoError(t, s.db.Model(&models.LeagueRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err = s.GetLeague(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, "Hellas Hoops Renamed", got.Name)
}

func TestStatusStoreUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewStatusStore(testDB(t))

	missing, err := s.GetByName(ctx, "Nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dtd := models.InjuryDTD
	require.NoError(t, s.Upsert(ctx, &models.PlayerStatusSnapshot{
		PlayerID:     3945274,
		PlayerName:   "Luka Doncic",
		ProTeamID:    25,
		Injured:      true,
		InjuryStatus: &dtd,
		Source:       "ESPN",
		LastSyncedAt: time.Now().UTC(),
	}))

	got, err := s.GetByName(ctx, "lUKA dONCIC")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Injured)
	require.NotNil(t, got.InjuryStatus)
	assert.Equal(t, models.InjuryDTD, *got.InjuryStatus)

	// A later sync for the same player overwrites the snapshot.
	require.NoError(t, s.Upsert(ctx, &models.PlayerStatusSnapshot{
		PlayerID:     3945274,
		PlayerName:   "Luka Doncic",
		ProTeamID:    25,
		Source:       "ESPN",
		LastSyncedAt: time.Now().UTC(),
	}))

	got, err = s.GetByID(ctx, 3945274)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Injured)
	assert.Nil(t, got.InjuryStatus)
}

func TestLeadersStoreQueries(t *testing.T) {
	ctx := context.Background()
	s := NewLeadersStore(testDB(t))

	fpts := func(v float64) *float64 { return &v }
	rows := []models.DailyLeader{
		{LeagueID: "L1", SeasonID: "2026", ScoringPeriodID: 70, PlayerID: 1, PeriodDate: "2026-01-04", PlayerName: "Alpha", FantasyPoints: fpts(41.5)},
		{LeagueID: "L1", SeasonID: "2026", ScoringPeriodID: 70, PlayerID: 2, PeriodDate: "2026-01-04", PlayerName: "Beta", FantasyPoints: fpts(55.0)},
		{LeagueID: "L1", SeasonID: "2026", ScoringPeriodID: 71, PlayerID: 1, PeriodDate: "2026-01-05", PlayerName: "Alpha", FantasyPoints: fpts(28.0)},
		{LeagueID: "L2", SeasonID: "2026", ScoringPeriodID: 70, PlayerID: 1, PeriodDate: "2026-01-04", PlayerName: "Alpha", FantasyPoints: fpts(99.0)},
	}
	require.NoError(t, s.UpsertLeaders(ctx, rows))
	require.NoError(t, s.UpsertLeaders(ctx, nil))

	// Re-sync with corrected points updates in place.
	require.NoError(t, s.UpsertLeaders(ctx, []models.DailyLeader{
		{LeagueID: "L1", SeasonID: "2026", ScoringPeriodID: 70, PlayerID: 1, PeriodDate: "2026-01-04", PlayerName: "Alpha", FantasyPoints: fpts(43.0)},
	}))

	leaders, err := s.LeadersForDate(ctx, "L1", "2026", "2026-01-04", 10)
	require.NoError(t, err)
	require.Len(t, leaders, 2)
	assert.Equal(t, "Beta", leaders[0].PlayerName)
	assert.Equal(t, 43.0, *leaders[1].FantasyPoints)

	top1, err := s.LeadersForDate(ctx, "L1", "2026", "2026-01-04", 1)
	require.NoError(t, err)
	require.Len(t, top1, 1)
	assert.Equal(t, "Beta", top1[0].PlayerName)

	gamelog, err := s.RecentForPlayer(ctx, "L1", "2026", 1, 5)
	require.NoError(t, err)
	require.Len(t, gamelog, 2)
	assert.Equal(t, 71, gamelog[0].ScoringPeriodID)
	assert.Equal(t, 70, gamelog[1].ScoringPeriodID)

	gamelog, err = s.RecentForPlayer(ctx, "L1", "2026", 1, 1)
	require.NoError(t, err)
	require.Len(t, gamelog, 1)
	assert.Equal(t, 71, gamelog[0].ScoringPeriodID)
}
