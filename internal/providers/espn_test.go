package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanvise/fanvise/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(t *testing.T, handler http.Handler) *ESPNClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewESPNClient("fba", "1883300247", "2026", "{SWID-1}", "s2token", testLogger())
	client.SetBaseURL(srv.URL)
	client.SetRetryBase(time.Millisecond)
	return client
}

const leagueFixture = `{
	"id": 1883300247,
	"seasonId": 2026,
	"status": {"currentMatchupPeriod": 12, "latestScoringPeriod": 70},
	"settings": {
		"name": "Hellas Hoops",
		"scoringSettings": {"scoringItems": [
			{"statId": 0, "points": 1},
			{"statId": 6, "points": 1.2}
		]},
		"rosterSettings": {"lineupSlotCounts": {"0": 1, "4": 1, "6": 0, "11": 2, "12": 3, "13": 1, "99": 4}}
	},
	"members": [{"id": "{OWNER-1}", "displayName": "Giorgos"}],
	"teams": [
		{
			"id": 13,
			"abbrev": "SYN",
			"location": "Syntagma",
			"nickname": "Spartans",
			"owners": ["{OWNER-1}"],
			"record": {"overall": {"wins": 7, "losses": 4, "ties": 0, "pointsFor": 1180.5, "pointsAgainst": 1101.2}},
			"roster": {"entries": [
				{"lineupSlotId": 0, "playerPoolEntry": {"player": {
					"id": 3945274,
					"fullName": "Luka Doncic",
					"defaultPositionId": 1,
					"proTeamId": 6,
					"injuryStatus": "DAY_TO_DAY",
					"eligibleSlots": [0, 5, 11, 12, 99],
					"stats": [
						{"seasonId": 2026, "statSourceId": 0, "statSplitTypeId": 0, "appliedTotal": 840.0, "appliedAverage": 42.0, "stats": {"42": 20}},
						{"seasonId": 2026, "statSourceId": 1, "statSplitTypeId": 0, "appliedTotal": 999.0, "appliedAverage": 55.0, "stats": {}},
						{"seasonId": 2025, "statSourceId": 0, "statSplitTypeId": 0, "appliedTotal": 100.0, "appliedAverage": 50.0, "stats": {}}
					]
				}}}
			]}
		},
		{
			"id": 2,
			"abbrev": "OPP",
			"name": "Cached Name Only",
			"owners": [],
			"record": {"overall": {"wins": 4, "losses": 7, "ties": 1, "pointsFor": 1000, "pointsAgainst": 1050}},
			"roster": {"entries": []}
		}
	]
}`

func TestGetLeagueConvertsPayload(t *testing.T) {
	var gotPath string
	var gotViews []string
	var gotSwid, gotS2 string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotViews = r.URL.Query()["view"]
		if c, err := r.Cookie("SWID"); err == nil {
			gotSwid = c.Value
		}
		if c, err := r.Cookie("espn_s2"); err == nil {
			gotS2 = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(leagueFixture))
	}))

	data, err := client.GetLeague(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/fba/seasons/2026/segments/0/leagues/1883300247", gotPath)
	assert.ElementsMatch(t, []string{ViewSettings, ViewTeam, ViewRoster}, gotViews)
	assert.Equal(t, "{SWID-1}", gotSwid)
	assert.Equal(t, "s2token", gotS2)

	assert.Equal(t, "Hellas Hoops", data.League.Name)
	assert.Equal(t, "2026", data.League.SeasonID)
	assert.Equal(t, 12, data.CurrentMatchupPeriod)
	assert.Equal(t, 70, data.LatestScoringPeriod)
	assert.Equal(t, 1.2, data.League.ScoringSettings["6"])

	// Zero-count and unknown slot IDs are dropped.
	assert.Equal(t, models.RosterSlots{
		models.SlotPG: 1, models.SlotC: 1, models.SlotUtil: 2,
		models.SlotBE: 3, models.SlotIR: 1,
	}, data.League.RosterSlots)

	require.Len(t, data.League.Teams, 2)
	home := data.League.Teams[0]
	assert.Equal(t, "Syntagma Spartans", home.Name)
	assert.Equal(t, "Giorgos", home.Manager)
	assert.Equal(t, 7, home.Record.Wins)
	// Without a live (location, nickname) pair the cached name survives.
	assert.Equal(t, "Cached Name Only", data.League.Teams[1].Name)

	require.Len(t, home.Roster, 1)
	luka := home.Roster[0]
	assert.Equal(t, models.SlotPG, luka.Position)
	assert.Equal(t, models.InjuryDTD, luka.InjuryStatus)
	assert.Equal(t, []string{models.SlotPG, models.SlotG, models.SlotUtil, models.SlotBE}, luka.EligibleSlots)
	// Actuals line wins over the projection and the prior season.
	assert.Equal(t, 42.0, luka.AvgFpts)
	assert.Equal(t, 840.0, luka.TotalFpts)
	assert.Equal(t, 20, luka.GamesPlayed)

	assert.Equal(t, []int{3945274}, data.RosterPlayerIDs)
	require.Len(t, data.SeasonStats, 2)
	assert.Equal(t, 1180.5, data.SeasonStats[0].PointsFor)
}

func TestDoRequestRetriesOn5xx(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))

	_, err := client.GetLeague(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestDoRequestGivesUpAfterThreeAttempts(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.GetLeague(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after retries")
	assert.Equal(t, int32(3), hits.Load())
}

func TestDoRequestDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GetLeague(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), hits.Load())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 5; i++ {
		_, err := client.GetLeague(context.Background())
		require.Error(t, err)
	}
	served := hits.Load()

	_, err := client.GetLeague(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	// The open breaker short-circuits before any request goes out.
	assert.Equal(t, served, hits.Load())
}

func TestGetFreeAgentsFilterAndPositionRestriction(t *testing.T) {
	var gotFilter string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.Header.Get("X-Fantasy-Filter")
		w.Write([]byte(`{"players": [
			{"player": {"id": 10, "fullName": "Guard Option", "defaultPositionId": 1, "proTeamId": 4, "eligibleSlots": [0], "ownership": {"percentOwned": 44.5}, "stats": []}},
			{"player": {"id": 11, "fullName": "Center Option", "defaultPositionId": 5, "proTeamId": 9, "eligibleSlots": [4], "ownership": {"percentOwned": 12.25}, "stats": []}}
		]}`))
	}))

	agents, err := client.GetFreeAgents(context.Background(), 2, 5)
	require.NoError(t, err)

	assert.Contains(t, gotFilter, `"filterStatus":{"value":["FREEAGENT","WAIVERS"]}`)
	assert.Contains(t, gotFilter, `"limit":2`)

	require.Len(t, agents, 1)
	assert.Equal(t, "Center Option", agents[0].PlayerName)
	assert.Equal(t, models.SlotC, agents[0].Position)
	assert.Equal(t, 12.25, agents[0].PercentOwned)
}

func TestGetPlayerCardNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("X-Fantasy-Filter"), `"filterIds":{"value":[42]}`)
		w.Write([]byte(`{"players": []}`))
	}))

	_, err := client.GetPlayerCard(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "player 42 not found")
}

func TestGetMatchupsLiveScoresAndRosterFallback(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": {"currentMatchupPeriod": 12},
			"teams": [
				{"id": 13, "location": "Syntagma", "nickname": "Spartans", "roster": {"entries": [
					{"playerPoolEntry": {"player": {"id": 1, "fullName": "Season Roster Guy", "defaultPositionId": 1, "eligibleSlots": [0], "stats": []}}}
				]}},
				{"id": 2, "name": "Opponent", "roster": {"entries": [
					{"playerPoolEntry": {"player": {"id": 2, "fullName": "Opp Season Guy", "defaultPositionId": 5, "eligibleSlots": [4], "stats": []}}}
				]}}
			],
			"schedule": [{
				"matchupPeriodId": 12,
				"winner": "UNDECIDED",
				"home": {
					"teamId": 13,
					"totalPoints": 100.5,
					"totalPointsLive": 112.25,
					"rosterForCurrentScoringPeriod": {"entries": [
						{"playerPoolEntry": {"player": {"id": 3, "fullName": "Live Roster Guy", "defaultPositionId": 2, "eligibleSlots": [1], "stats": []}}}
					]}
				},
				"away": {"teamId": 2, "totalPoints": 98.0}
			}]
		}`))
	}))

	data, err := client.GetMatchups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, data.CurrentPeriod)
	assert.Equal(t, "Syntagma Spartans", data.TeamNames["13"])
	require.Len(t, data.Entries, 1)

	home := data.Entries[0].Home
	assert.Equal(t, 112.25, home.TotalPoints)
	require.Len(t, home.Roster, 1)
	assert.Equal(t, "Live Roster Guy", home.Roster[0].PlayerName)

	away := data.Entries[0].Away
	assert.Equal(t, 98.0, away.TotalPoints)
	require.Len(t, away.Roster, 1)
	assert.Equal(t, "Opp Season Guy", away.Roster[0].PlayerName)
}

func TestGetScoreboardFiltersByPeriod(t *testing.T) {
	var gotPeriod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPeriod = r.URL.Query().Get("scoringPeriodId")
		w.Write([]byte(`{
			"status": {"currentMatchupPeriod": 12},
			"teams": [{"id": 13, "name": "A"}, {"id": 2, "name": "B"}],
			"schedule": [
				{"matchupPeriodId": 11, "winner": "HOME", "home": {"teamId": 13, "totalPoints": 90}, "away": {"teamId": 2, "totalPoints": 80}},
				{"matchupPeriodId": 12, "winner": "UNDECIDED", "home": {"teamId": 2, "totalPoints": 50}, "away": {"teamId": 13, "totalPoints": 60}}
			]
		}`))
	}))

	data, err := client.GetScoreboard(context.Background(), 12)
	require.NoError(t, err)

	assert.Equal(t, "12", gotPeriod)
	require.Len(t, data.Entries, 1)
	assert.Equal(t, 12, data.Entries[0].MatchupPeriodID)
	assert.Equal(t, "2", data.Entries[0].Home.TeamID)
}

func TestGetTransactionsHonorsSize(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "view=mTransactions2")
		w.Write([]byte(`{"transactions": [
			{"id": "t1", "type": "WAIVER", "status": "EXECUTED", "teamId": 13, "processDate": 1767600000000,
			 "items": [{"playerId": 10, "type": "ADD", "fromTeamId": 0, "toTeamId": 13}]},
			{"id": "t2", "type": "TRADE", "status": "EXECUTED", "teamId": 2, "processDate": 1767500000000, "items": []},
			{"id": "t3", "type": "FREEAGENT", "status": "PENDING", "teamId": 13, "processDate": 1767400000000, "items": []}
		]}`))
	}))

	txs, err := client.GetTransactions(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "13", txs[0].TeamID)
	assert.Equal(t, time.UnixMilli(1767600000000).UTC(), txs[0].ProcessDate)
	require.Len(t, txs[0].Items, 1)
	assert.Equal(t, "ADD", txs[0].Items[0].Type)
	assert.Equal(t, "13", txs[0].Items[0].ToTeamID)
}

func TestGetProScheduleDedupesGames(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "proTeamSchedules_wl")
		w.Write([]byte(`{"settings": {"proTeams": [
			{"id": 13, "proGamesByScoringPeriod": {"70": [
				{"id": 401700001, "date": 1767646800000, "homeProTeamId": 13, "awayProTeamId": 2, "scoringPeriodId": 70}
			]}},
			{"id": 2, "proGamesByScoringPeriod": {
				"70": [{"id": 401700001, "date": 1767646800000, "homeProTeamId": 13, "awayProTeamId": 2, "scoringPeriodId": 70}],
				"71": [{"id": 401700002, "date": 1767733200000, "homeProTeamId": 2, "awayProTeamId": 9, "scoringPeriodId": 71}]
			}}
		]}}`))
	}))

	games, err := client.GetProSchedule(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)

	byID := make(map[string]models.NBAGame, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}

	g1, ok := byID["401700001"]
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1767646800000).UTC(), g1.Date)
	assert.Equal(t, 13, g1.HomeTeamID)
	assert.Equal(t, 2, g1.AwayTeamID)
	assert.Equal(t, "2026", g1.SeasonID)
	require.NotNil(t, g1.ScoringPeriodID)
	assert.Equal(t, 70, *g1.ScoringPeriodID)

	_, ok = byID["401700002"]
	assert.True(t, ok)
}

func TestGetDailyLeadersSelectsActualLine(t *testing.T) {
	var gotFilter, gotPeriod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.Header.Get("X-Fantasy-Filter")
		gotPeriod = r.URL.Query().Get("scoringPeriodId")
		w.Write([]byte(`{"players": [
			{"player": {
				"id": 3112335, "fullName": "Nikola Jokic", "defaultPositionId": 5, "proTeamId": 7,
				"ownership": {"percentOwned": 99.9},
				"stats": [
					{"seasonId": 2026, "scoringPeriodId": 70, "statSourceId": 1, "appliedTotal": 70.0, "stats": {}},
					{"seasonId": 2026, "scoringPeriodId": 70, "statSourceId": 0, "appliedTotal": 58.0, "stats": {"0": 26}},
					{"seasonId": 2026, "scoringPeriodId": 69, "statSourceId": 0, "appliedTotal": 30.0, "stats": {}}
				]
			}}
		]}`))
	}))

	leaders, err := client.GetDailyLeaders(context.Background(), 70, 25)
	require.NoError(t, err)

	assert.Contains(t, gotFilter, `"sortAppliedStatTotalForScoringPeriodId"`)
	assert.Contains(t, gotFilter, `"value":70`)
	assert.Equal(t, "70", gotPeriod)

	require.Len(t, leaders, 1)
	jokic := leaders[0]
	assert.Equal(t, 3112335, jokic.PlayerID)
	assert.Equal(t, 70, jokic.ScoringPeriodID)
	require.NotNil(t, jokic.FantasyPoints)
	assert.Equal(t, 58.0, *jokic.FantasyPoints)
	assert.Equal(t, 26.0, jokic.Stats["0"])
	require.NotNil(t, jokic.OwnershipPct)
	assert.Equal(t, 99.9, *jokic.OwnershipPct)
}

func TestNormalizeInjuryStatus(t *testing.T) {
	cases := map[string]string{
		"":                   models.InjuryActive,
		"ACTIVE":             models.InjuryActive,
		"DAY_TO_DAY":         models.InjuryDTD,
		"GAME_TIME_DECISION": models.InjuryGTD,
		"questionable":       models.InjuryQuestionable,
		"OUT":                models.InjuryOut,
		"SUSPENSION":         models.InjurySuspended,
		"INJURY_RESERVE":     models.InjuryIR,
		"something_else":     "SOMETHING_ELSE",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeInjuryStatus(input), "input %q", input)
	}
}
