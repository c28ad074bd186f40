package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/providers"
)

// memCache is an in-process stand-in for the redis cache-aside wrapper.
type memCache struct {
	data  map[string][]byte
	loads int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error {
	if raw, ok := c.data[key]; ok {
		return json.Unmarshal(raw, dest)
	}
	c.loads++
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return json.Unmarshal(raw, dest)
}

type stubLeagues struct {
	rows map[string]*models.LeagueRow
}

func (s stubLeagues) GetLeague(ctx context.Context, leagueID string) (*models.LeagueRow, error) {
	row, ok := s.rows[leagueID]
	if !ok {
		return nil, models.ErrLeagueNotFound
	}
	return row, nil
}

type stubSchedule struct {
	games []models.NBAGame
}

func (s stubSchedule) GamesInRange(ctx context.Context, start, end time.Time) ([]models.NBAGame, error) {
	return s.games, nil
}

type stubESPN struct {
	matchups   *providers.MatchupData
	matchupErr error
	freeAgents []models.FreeAgent
	txs        []providers.Transaction
}

func (s stubESPN) GetMatchups(ctx context.Context) (*providers.MatchupData, error) {
	return s.matchups, s.matchupErr
}

func (s stubESPN) GetFreeAgents(ctx context.Context, limit, positionID int) ([]models.FreeAgent, error) {
	return s.freeAgents, nil
}

func (s stubESPN) GetTransactions(ctx context.Context, size int) ([]providers.Transaction, error) {
	return s.txs, nil
}

func leagueRow(t *testing.T, leagueID string, teams []models.Team) *models.LeagueRow {
	t.Helper()
	raw, err := json.Marshal(teams)
	require.NoError(t, err)
	return &models.LeagueRow{
		LeagueID: leagueID,
		SeasonID: "2026",
		Name:     "Test League",
		RosterSettings: models.RosterSlots{
			models.SlotPG: 1, models.SlotC: 1, models.SlotBE: 2,
		},
		Teams: raw,
	}
}

func rp(id int, name string, team int) models.RosterPlayer {
	return models.RosterPlayer{
		PlayerID: id, PlayerName: name, Position: models.SlotPG,
		EligibleSlots: []string{models.SlotPG}, ProTeamID: team,
		InjuryStatus: models.InjuryActive, AvgFpts: 20, GamesPlayed: 20,
	}
}

func testBuilder(leagues LeagueSource, espn ESPNSource, games []models.NBAGame) (*Builder, *memCache) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cache := newMemCache()
	b := NewBuilder(leagues, stubSchedule{games: games}, espn, cache, logger)
	b.SetNow(func() time.Time { return time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC) })
	return b, cache
}

func matchupFixture(myScore, oppScore float64) *providers.MatchupData {
	return &providers.MatchupData{
		CurrentPeriod: 12,
		TeamNames:     map[string]string{"13": "Fresh Name", "4": "Opponent Live"},
		Entries: []providers.MatchupEntry{
			{
				MatchupPeriodID: 12,
				Winner:          "UNDECIDED",
				Home:            providers.MatchupTeam{TeamID: "13", TotalPoints: myScore, Roster: []models.RosterPlayer{rp(1, "Mine", 2)}},
				Away:            providers.MatchupTeam{TeamID: "4", TotalPoints: oppScore, Roster: []models.RosterPlayer{rp(2, "Theirs", 13)}},
			},
		},
	}
}

func TestBuildComposesSnapshot(t *testing.T) {
	teams := []models.Team{
		{ID: "13", Name: "Stale Name", Roster: []models.RosterPlayer{rp(1, "Mine", 2)}},
		{ID: "4", Name: "Opponent Stale"},
	}
	leagues := stubLeagues{rows: map[string]*models.LeagueRow{"L1": leagueRow(t, "L1", teams)}}
	espn := stubESPN{
		matchups: matchupFixture(101.5, 88),
		freeAgents: []models.FreeAgent{
			{PlayerID: 50, PlayerName: "Available", InjuryStatus: models.InjuryActive, AvgFpts: 22},
		},
		txs: []providers.Transaction{
			{ID: "t1", Type: "WAIVER", Status: "EXECUTED", TeamID: "4", ProcessDate: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
				Items: []providers.TransactionItem{{PlayerID: 99, Type: "ADD"}}},
			{ID: "t2", Type: "TRADE", Status: "PENDING", TeamID: "13"},
		},
	}

	b, _ := testBuilder(leagues, espn, []models.NBAGame{
		{ID: "g1", Date: time.Date(2026, 1, 8, 19, 0, 0, 0, time.UTC), HomeTeamID: 2, AwayTeamID: 13},
	})

	snap, err := b.Build(context.Background(), "L1", 13)
	require.NoError(t, err)

	assert.Equal(t, "13", snap.MyTeam.ID)
	assert.Equal(t, "Fresh Name", snap.MyTeam.Name)
	require.NotNil(t, snap.Opponent)
	assert.Equal(t, "Opponent Live", snap.Opponent.Name)

	require.NotNil(t, snap.Matchup)
	assert.Equal(t, 101.5, snap.Matchup.MyScore)
	assert.Equal(t, 88.0, snap.Matchup.OpponentScore)
	assert.InDelta(t, snap.Matchup.MyScore-snap.Matchup.OpponentScore, snap.Matchup.Differential, 0.0001)
	assert.Equal(t, "in_progress", snap.Matchup.Status)

	require.NotNil(t, snap.Schedule)
	assert.Equal(t, 1, snap.Schedule.ByPlayer[1].Games)
	assert.Equal(t, []string{"2026-01-08"}, snap.Schedule.ByPlayer[1].Dates)

	require.Len(t, snap.FreeAgents, 1)
	assert.Equal(t, "Available", snap.FreeAgents[0].PlayerName)

	require.Len(t, snap.Transactions, 1)
	assert.Contains(t, snap.Transactions[0], "added player 99")
}

func TestBuildUnknownLeague(t *testing.T) {
	b, _ := testBuilder(stubLeagues{rows: map[string]*models.LeagueRow{}}, stubESPN{}, nil)

	_, err := b.Build(context.Background(), "missing", 13)
	assert.ErrorIs(t, err, models.ErrLeagueNotFound)
}

func TestBuildUnknownTeam(t *testing.T) {
	leagues := stubLeagues{rows: map[string]*models.LeagueRow{
		"L1": leagueRow(t, "L1", []models.Team{{ID: "13", Name: "Only Team"}}),
	}}
	b, _ := testBuilder(leagues, stubESPN{}, nil)

	_, err := b.Build(context.Background(), "L1", 99)
	assert.ErrorIs(t, err, models.ErrTeamNotFound)
}

func TestBuildDegradesWhenMatchupFails(t *testing.T) {
	teams := []models.Team{
		{ID: "13", Name: "Cached Name", Roster: []models.RosterPlayer{rp(1, "Mine", 2)}},
	}
	leagues := stubLeagues{rows: map[string]*models.LeagueRow{"L1": leagueRow(t, "L1", teams)}}
	espn := stubESPN{matchupErr: errors.New("espn returned status 503")}

	b, _ := testBuilder(leagues, espn, nil)

	snap, err := b.Build(context.Background(), "L1", 13)
	require.NoError(t, err)

	assert.Nil(t, snap.Matchup)
	assert.Nil(t, snap.Opponent)
	assert.Equal(t, "Cached Name", snap.MyTeam.Name)
	require.Len(t, snap.MyTeam.Roster, 1)
	assert.Equal(t, "Mine", snap.MyTeam.Roster[0].PlayerName)
}

func TestBuildFiltersOwnedAndInjuredFreeAgents(t *testing.T) {
	teams := []models.Team{
		{ID: "13", Roster: []models.RosterPlayer{rp(1, "Mine", 2)}},
		{ID: "4"},
	}
	leagues := stubLeagues{rows: map[string]*models.LeagueRow{"L1": leagueRow(t, "L1", teams)}}

	pool := []models.FreeAgent{
		{PlayerID: 1, PlayerName: "Already Mine", InjuryStatus: models.InjuryActive},
		{PlayerID: 2, PlayerName: "Already Theirs", InjuryStatus: models.InjuryActive},
		{PlayerID: 3, PlayerName: "Hurt", InjuryStatus: models.InjuryOut},
		{PlayerID: 4, PlayerName: "Questionable", InjuryStatus: models.InjuryQuestionable},
	}
	for i := 0; i < 20; i++ {
		pool = append(pool, models.FreeAgent{
			PlayerID: 100 + i, PlayerName: "Healthy " + strconv.Itoa(i), InjuryStatus: models.InjuryActive,
		})
	}
	espn := stubESPN{matchups: matchupFixture(50, 40), freeAgents: pool}

	b, _ := testBuilder(leagues, espn, nil)

	snap, err := b.Build(context.Background(), "L1", 13)
	require.NoError(t, err)

	assert.Len(t, snap.FreeAgents, 15)
	for _, fa := range snap.FreeAgents {
		assert.NotContains(t, []int{1, 2, 3, 4}, fa.PlayerID)
		assert.Equal(t, models.InjuryActive, fa.InjuryStatus)
	}
}

func TestBuildCrossTenantIsolation(t *testing.T) {
	mkLeague := func(id string) *models.LeagueRow {
		return leagueRow(t, id, []models.Team{
			{ID: "13", Name: "Team " + id, Roster: []models.RosterPlayer{rp(1, "Mine", 2)}},
			{ID: "4"},
		})
	}
	leagues := stubLeagues{rows: map[string]*models.LeagueRow{
		"L1": mkLeague("L1"),
		"L2": mkLeague("L2"),
	}}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cache := newMemCache()

	b1 := NewBuilder(leagues, stubSchedule{}, stubESPN{matchups: matchupFixture(100, 90)}, cache, logger)
	b2 := NewBuilder(leagues, stubSchedule{}, stubESPN{matchups: matchupFixture(55, 70)}, cache, logger)

	snap1, err := b1.Build(context.Background(), "L1", 13)
	require.NoError(t, err)
	snap2, err := b2.Build(context.Background(), "L2", 13)
	require.NoError(t, err)

	require.NotNil(t, snap1.Matchup)
	require.NotNil(t, snap2.Matchup)
	assert.Equal(t, 100.0, snap1.Matchup.MyScore)
	assert.Equal(t, 55.0, snap2.Matchup.MyScore)
}

func TestBuildSecondCallHitsCache(t *testing.T) {
	teams := []models.Team{{ID: "13", Roster: []models.RosterPlayer{rp(1, "Mine", 2)}}, {ID: "4"}}
	leagues := stubLeagues{rows: map[string]*models.LeagueRow{"L1": leagueRow(t, "L1", teams)}}
	espn := stubESPN{matchups: matchupFixture(100, 90)}

	b, cache := testBuilder(leagues, espn, nil)

	first, err := b.Build(context.Background(), "L1", 13)
	require.NoError(t, err)
	loadsAfterFirst := cache.loads

	second, err := b.Build(context.Background(), "L1", 13)
	require.NoError(t, err)

	assert.Equal(t, loadsAfterFirst, cache.loads)
	assert.Equal(t, first.Matchup, second.Matchup)
}
