package agent

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/news"
	"github.com/fanvise/fanvise/internal/optimizer"
	"github.com/fanvise/fanvise/internal/providers"
)

// SnapshotSource builds the per-request league intelligence artifact.
type SnapshotSource interface {
	Build(ctx context.Context, leagueID string, teamID int) (*models.Snapshot, error)
}

// ScheduleSource serves NBA games for a date range.
type ScheduleSource interface {
	GamesInRange(ctx context.Context, start, end time.Time) ([]models.NBAGame, error)
}

// ESPNSource is the live upstream surface the tools read from.
type ESPNSource interface {
	GetLeague(ctx context.Context) (*providers.LeagueData, error)
	GetFreeAgents(ctx context.Context, limit, positionID int) ([]models.FreeAgent, error)
	GetPlayerCard(ctx context.Context, playerID int) (*providers.PlayerCard, error)
	GetTransactions(ctx context.Context, size int) ([]providers.Transaction, error)
	GetScoreboard(ctx context.Context, matchupPeriod int) (*providers.MatchupData, error)
}

// StatusSource is the cached availability fallback when ESPN is down.
type StatusSource interface {
	GetByName(ctx context.Context, playerName string) (*models.PlayerStatusSnapshot, error)
}

// NewsSearcher runs semantic queries over the news index.
type NewsSearcher interface {
	Search(ctx context.Context, query string, limit, daysBack int) ([]models.NewsMatch, error)
	SearchPlayer(ctx context.Context, playerName string, limit int) ([]models.NewsMatch, error)
}

// NewsRefresher pulls fresh player-specific items on demand.
type NewsRefresher interface {
	FetchPlayerSpecificNews(ctx context.Context, playerName string) (*news.RefreshResult, error)
}

// GameLogSource serves a player's recent scored periods.
type GameLogSource interface {
	RecentForPlayer(ctx context.Context, leagueID, seasonID string, playerID, lastN int) ([]models.DailyLeader, error)
}

// ToolDeps wires the registry to the rest of the system. Nil optional
// fields degrade the affected tools to their fallback path.
type ToolDeps struct {
	Snapshots   SnapshotSource
	Schedule    ScheduleSource
	ESPN        ESPNSource
	Status      StatusSource
	NewsSearch  NewsSearcher
	NewsRefresh NewsRefresher
	GameLog     GameLogSource

	LeagueID string
	SeasonID string
	Logger   *logrus.Logger
	Now      func() time.Time
}

func (d *ToolDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// NewToolset registers the full agent tool surface.
func NewToolset(deps ToolDeps) *Registry {
	r := NewRegistry()

	r.Register(Tool{
		Name: "get_espn_player_status",
		Description: "Get a player's current availability (ACTIVE, DTD, GTD, QUESTIONABLE, OUT, SUSPENDED, IR) " +
			"from the live ESPN player card, falling back to the most recent synced snapshot. " +
			"Use this FIRST for any 'is X playing / is X hurt' question. " +
			"Returns {playerName, injuryStatus, injured, droppable, source} or {status:\"UNKNOWN\"} when nothing is known.",
		Parameters: objectSchema(map[string]interface{}{
			"playerName": stringProp("Full player name, e.g. \"Anthony Davis\""),
		}, "playerName"),
		Handler: deps.playerStatus,
	})

	r.Register(Tool{
		Name: "get_player_news",
		Description: "Semantic search of the ingested news index scoped to one player. " +
			"Returns recent articles with sentiment, category, and extracted injury intelligence. " +
			"Use refresh_player_news first if the user implies breaking news.",
		Parameters: objectSchema(map[string]interface{}{
			"playerName": stringProp("Full player name"),
			"limit":      intProp("Max articles to return (default 5)"),
		}, "playerName"),
		Handler: deps.playerNews,
	})

	r.Register(Tool{
		Name: "refresh_player_news",
		Description: "Re-poll the configured feeds for items mentioning this player, ingest anything new, " +
			"and return what was found. Slower than get_player_news; use only when freshness matters.",
		Parameters: objectSchema(map[string]interface{}{
			"playerName": stringProp("Full player name"),
		}, "playerName"),
		Handler: deps.refreshPlayerNews,
	})

	r.Register(Tool{
		Name: "get_player_game_log",
		Description: "Get a player's last N scored fantasy periods (newest first) with the average over that span. " +
			"Use for 'how has X been playing lately' questions.",
		Parameters: objectSchema(map[string]interface{}{
			"playerName": stringProp("Full player name"),
			"lastN":      intProp("Number of recent periods (default 5)"),
		}, "playerName"),
		Handler: deps.playerGameLog,
	})

	r.Register(Tool{
		Name: "get_my_roster",
		Description: "Get the user's current roster with per-player injury status, season averages, " +
			"games remaining this week, and a 0-100 drop score with reasons. " +
			"Returns {teamName, source, roster}. Call this before any roster advice.",
		Parameters: objectSchema(map[string]interface{}{
			"teamId": stringProp("Fantasy team id; injected from the active session when omitted"),
		}, "teamId"),
		NeedsTeamID: true,
		Handler:     deps.myRoster,
	})

	r.Register(Tool{
		Name: "get_free_agents",
		Description: "List available free agents sorted by ownership. " +
			"Set includeSchedule=true to annotate each player with games remaining this week and a " +
			"0-100 stream score (then sorted by stream score); do that for any streaming or pickup question.",
		Parameters: objectSchema(map[string]interface{}{
			"limit":           intProp("Max players to return (default 25)"),
			"positionId":      intProp("ESPN position filter: 1=PG 2=SG 3=SF 4=PF 5=C (0 = any)"),
			"includeSchedule": boolProp("Annotate with schedule density and stream scores"),
		}),
		Handler: deps.freeAgents,
	})

	r.Register(Tool{
		Name: "get_matchup_details",
		Description: "Get the user's current head-to-head matchup: live scores, differential, status, " +
			"opponent, and both teams' remaining games this window. " +
			"Returns a matchup object or an explanation when no matchup is live.",
		Parameters: objectSchema(map[string]interface{}{
			"teamId": stringProp("Fantasy team id; injected from the active session when omitted"),
		}, "teamId"),
		NeedsTeamID: true,
		Handler:     deps.matchupDetails,
	})

	r.Register(Tool{
		Name: "get_league_standings",
		Description: "Get the league table sorted by wins (then fewest losses). " +
			"Returns one row per team with record and points for/against.",
		Parameters: objectSchema(map[string]interface{}{
			"leagueId": stringProp("League id; injected from the active session when omitted"),
		}),
		NeedsLeagueID: true,
		Handler:       deps.leagueStandings,
	})

	r.Register(Tool{
		Name: "search_news_by_topic",
		Description: "Semantic search of the ingested news index by free-form topic " +
			"(e.g. \"centers returning from injury\", \"trade deadline rumors\"). " +
			"Returns matching articles with similarity scores.",
		Parameters: objectSchema(map[string]interface{}{
			"query":    stringProp("Free-form topic"),
			"limit":    intProp("Max articles (default 5)"),
			"daysBack": intProp("Lookback window in days (default 14)"),
		}, "query"),
		Handler: deps.searchNewsByTopic,
	})

	r.Register(Tool{
		Name: "get_league_scoreboard",
		Description: "Get every matchup in the league for a period with both sides' live fantasy points. " +
			"Omit matchupPeriod for the current one.",
		Parameters: objectSchema(map[string]interface{}{
			"matchupPeriod": intProp("Matchup period number (default: current)"),
		}),
		Handler: deps.leagueScoreboard,
	})

	r.Register(Tool{
		Name: "get_league_activity",
		Description: "Get recent executed league transactions (adds, drops, trades), newest first. " +
			"Use for 'what moves have other managers made' questions.",
		Parameters: objectSchema(map[string]interface{}{
			"size": intProp("Max transactions (default 10)"),
			"type": stringProp("Optional filter: WAIVER, FREEAGENT, or TRADE"),
		}),
		Handler: deps.leagueActivity,
	})

	r.Register(Tool{
		Name: "get_team_season_stats",
		Description: "Get season aggregates for every fantasy team (record, points for, points against), " +
			"sorted by points for. Use for 'highest scoring team' style questions.",
		Parameters: objectSchema(map[string]interface{}{}),
		Handler:    deps.teamSeasonStats,
	})

	r.Register(Tool{
		Name: "simulate_move",
		Description: "Simulate dropping one rostered player for one free agent over the rest of the week. " +
			"Returns baseline vs projected lineup points, net gain, legality, daily breakdown, and warnings. " +
			"Always run this before recommending a specific add/drop.",
		Parameters: objectSchema(map[string]interface{}{
			"teamId":         stringProp("Fantasy team id; injected from the active session when omitted"),
			"dropPlayerName": stringProp("Rostered player to drop"),
			"addPlayerName":  stringProp("Free agent to add"),
		}, "teamId", "dropPlayerName", "addPlayerName"),
		NeedsTeamID: true,
		Handler:     deps.simulateMove,
	})

	r.Register(Tool{
		Name: "validate_lineup_legality",
		Description: "Check whether the roster can field a full legal starting lineup on a given date: " +
			"slot assignments, unfilled slots, and players with games stuck on the bench.",
		Parameters: objectSchema(map[string]interface{}{
			"teamId":     stringProp("Fantasy team id; injected from the active session when omitted"),
			"targetDate": stringProp("Date as YYYY-MM-DD (default: today)"),
		}, "teamId"),
		NeedsTeamID: true,
		Handler:     deps.validateLineup,
	})

	return r
}

func (d *ToolDeps) playerStatus(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name := argString(args, "playerName")
	if name == "" {
		return nil, fmt.Errorf("playerName is required")
	}

	if d.ESPN != nil {
		if result := d.liveStatus(ctx, name); result != nil {
			return result, nil
		}
	}

	if d.Status != nil {
		snap, err := d.Status.GetByName(ctx, name)
		if err != nil && d.Logger != nil {
			d.Logger.WithError(err).Warn("Status snapshot lookup failed")
		}
		if snap != nil {
			status := models.InjuryActive
			if snap.InjuryStatus != nil {
				status = *snap.InjuryStatus
			}
			return map[string]interface{}{
				"playerName":   snap.PlayerName,
				"injuryStatus": status,
				"injured":      snap.Injured,
				"outForSeason": snap.OutForSeason,
				"droppable":    snap.Droppable,
				"fantasyTeam":  snap.FantasyTeamID,
				"source":       "DB",
				"lastSyncedAt": snap.LastSyncedAt,
			}, nil
		}
	}

	return map[string]interface{}{
		"playerName": name,
		"status":     "UNKNOWN",
		"note":       "no live or cached availability data for this player",
	}, nil
}

// liveStatus resolves a name against live rosters, then pulls the player
// card. Returns nil on any failure so the caller can fall back.
func (d *ToolDeps) liveStatus(ctx context.Context, name string) map[string]interface{} {
	league, err := d.ESPN.GetLeague(ctx)
	if err != nil {
		if d.Logger != nil {
			d.Logger.WithError(err).Warn("ESPN league fetch failed, falling back to cached status")
		}
		return nil
	}

	player, teamName := findRosteredPlayer(league.League.Teams, name)
	if player == nil {
		return nil
	}

	card, err := d.ESPN.GetPlayerCard(ctx, player.PlayerID)
	if err != nil {
		if d.Logger != nil {
			d.Logger.WithError(err).Warnf("ESPN player card failed for %s", player.PlayerName)
		}
		return map[string]interface{}{
			"playerName":   player.PlayerName,
			"injuryStatus": player.InjuryStatus,
			"injured":      player.IsInjured(),
			"fantasyTeam":  teamName,
			"source":       "ESPN",
		}
	}

	return map[string]interface{}{
		"playerName":   card.Player.PlayerName,
		"injuryStatus": card.Player.InjuryStatus,
		"injured":      card.Injured,
		"droppable":    card.Droppable,
		"fantasyTeam":  teamName,
		"source":       "ESPN",
	}
}

func (d *ToolDeps) playerNews(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name := argString(args, "playerName")
	if name == "" {
		return nil, fmt.Errorf("playerName is required")
	}
	limit := argInt(args, "limit", 5)

	matches, err := d.NewsSearch.SearchPlayer(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("news search failed: %w", err)
	}
	return map[string]interface{}{
		"playerName": name,
		"count":      len(matches),
		"articles":   newsDigest(matches),
	}, nil
}

func (d *ToolDeps) refreshPlayerNews(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name := argString(args, "playerName")
	if name == "" {
		return nil, fmt.Errorf("playerName is required")
	}

	result, err := d.NewsRefresh.FetchPlayerSpecificNews(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("news refresh failed: %w", err)
	}
	return map[string]interface{}{
		"playerName": name,
		"refreshed":  result.Refreshed,
		"articles":   result.Items,
	}, nil
}

func (d *ToolDeps) playerGameLog(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name := argString(args, "playerName")
	if name == "" {
		return nil, fmt.Errorf("playerName is required")
	}
	lastN := argInt(args, "lastN", 5)

	playerID, resolvedName, err := d.resolvePlayerID(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := d.GameLog.RecentForPlayer(ctx, d.LeagueID, d.SeasonID, playerID, lastN)
	if err != nil {
		return nil, fmt.Errorf("game log lookup failed: %w", err)
	}
	if len(rows) == 0 {
		return map[string]interface{}{
			"playerName": resolvedName,
			"games":      []interface{}{},
			"note":       "no scored periods recorded for this player yet",
		}, nil
	}

	type logEntry struct {
		Date          string   `json:"date"`
		FantasyPoints *float64 `json:"fantasyPoints"`
	}
	entries := make([]logEntry, 0, len(rows))
	var sum float64
	var scored int
	for _, row := range rows {
		entries = append(entries, logEntry{Date: row.PeriodDate, FantasyPoints: row.FantasyPoints})
		if row.FantasyPoints != nil {
			sum += *row.FantasyPoints
			scored++
		}
	}
	var avg float64
	if scored > 0 {
		avg = sum / float64(scored)
	}

	return map[string]interface{}{
		"playerName":  resolvedName,
		"games":       entries,
		"averageFpts": avg,
	}, nil
}

// resolvePlayerID maps a display name onto an ESPN player id via live
// rosters, then the status snapshot table.
func (d *ToolDeps) resolvePlayerID(ctx context.Context, name string) (int, string, error) {
	if d.ESPN != nil {
		if league, err := d.ESPN.GetLeague(ctx); err == nil {
			if player, _ := findRosteredPlayer(league.League.Teams, name); player != nil {
				return player.PlayerID, player.PlayerName, nil
			}
		}
	}
	if d.Status != nil {
		snap, err := d.Status.GetByName(ctx, name)
		if err == nil && snap != nil {
			return snap.PlayerID, snap.PlayerName, nil
		}
	}
	return 0, "", fmt.Errorf("could not resolve player %q to an id", name)
}

func (d *ToolDeps) myRoster(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	teamID, err := argTeamID(args)
	if err != nil {
		return nil, err
	}

	snap, err := d.Snapshots.Build(ctx, leagueIDFromArgs(args, d.LeagueID), teamID)
	if err != nil {
		return nil, err
	}
	if snap.MyTeam == nil {
		return nil, models.ErrRosterUnavailable
	}

	window := optimizer.DefaultWindow(d.now())
	games, err := d.Schedule.GamesInRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("schedule lookup failed: %w", err)
	}
	leagueAvg := optimizer.LeagueAvgFpts(snap.MyTeam.Roster)

	type rosterEntry struct {
		models.RosterPlayer
		DropScore      int      `json:"dropScore"`
		GamesRemaining int      `json:"gamesRemaining"`
		DropReasons    []string `json:"dropReasons,omitempty"`
	}
	entries := make([]rosterEntry, 0, len(snap.MyTeam.Roster))
	for _, p := range snap.MyTeam.Roster {
		score := optimizer.ScoreDroppingCandidate(p, window, leagueAvg, games)
		entries = append(entries, rosterEntry{
			RosterPlayer:   p,
			DropScore:      score.Score,
			GamesRemaining: score.GamesRemaining,
			DropReasons:    score.Reasons,
		})
	}

	return map[string]interface{}{
		"teamName": snap.MyTeam.Name,
		"source":   "ESPN",
		"roster":   entries,
	}, nil
}

func (d *ToolDeps) freeAgents(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	limit := argInt(args, "limit", 25)
	positionID := argInt(args, "positionId", 0)
	includeSchedule := argBool(args, "includeSchedule")

	agents, err := d.ESPN.GetFreeAgents(ctx, limit, positionID)
	if err != nil {
		return nil, fmt.Errorf("free agent fetch failed: %w", err)
	}

	if includeSchedule {
		window := optimizer.DefaultWindow(d.now())
		games, err := d.Schedule.GamesInRange(ctx, window.Start, window.End)
		if err != nil {
			return nil, fmt.Errorf("schedule lookup failed: %w", err)
		}
		for i := range agents {
			ss := optimizer.ScoreStreamingCandidate(agents[i], window, games)
			score := ss.Score
			remaining := ss.GamesRemaining
			agents[i].StreamScore = &score
			agents[i].GamesRemaining = &remaining
			agents[i].GamesRemainingDates = ss.GameDates
			agents[i].Confidence = ss.Confidence
		}
		sort.SliceStable(agents, func(i, j int) bool {
			return *agents[i].StreamScore > *agents[j].StreamScore
		})
	}

	return map[string]interface{}{
		"count":      len(agents),
		"freeAgents": agents,
	}, nil
}

func (d *ToolDeps) matchupDetails(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	teamID, err := argTeamID(args)
	if err != nil {
		return nil, err
	}

	snap, err := d.Snapshots.Build(ctx, leagueIDFromArgs(args, d.LeagueID), teamID)
	if err != nil {
		return nil, err
	}
	if snap.Matchup == nil {
		return map[string]interface{}{
			"note": "no live matchup data available right now; try again shortly",
		}, nil
	}

	result := map[string]interface{}{
		"matchup": snap.Matchup,
		"myTeam": map[string]interface{}{
			"id":             snap.MyTeam.ID,
			"name":           snap.MyTeam.Name,
			"gamesRemaining": rosterGamesRemaining(snap.MyTeam.Roster, snap.Schedule),
		},
	}
	if snap.Opponent != nil {
		result["opponent"] = map[string]interface{}{
			"id":             snap.Opponent.ID,
			"name":           snap.Opponent.Name,
			"gamesRemaining": rosterGamesRemaining(snap.Opponent.Roster, snap.Schedule),
		}
	}
	return result, nil
}

func (d *ToolDeps) leagueStandings(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	league, err := d.ESPN.GetLeague(ctx)
	if err != nil {
		return nil, fmt.Errorf("league fetch failed: %w", err)
	}

	standings := append([]providers.TeamSeasonStats(nil), league.SeasonStats...)
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Wins != standings[j].Wins {
			return standings[i].Wins > standings[j].Wins
		}
		return standings[i].Losses < standings[j].Losses
	})
	return map[string]interface{}{
		"leagueName": league.League.Name,
		"standings":  standings,
	}, nil
}

func (d *ToolDeps) searchNewsByTopic(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query := argString(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	limit := argInt(args, "limit", 5)
	daysBack := argInt(args, "daysBack", 0)

	matches, err := d.NewsSearch.Search(ctx, query, limit, daysBack)
	if err != nil {
		return nil, fmt.Errorf("news search failed: %w", err)
	}
	return map[string]interface{}{
		"query":    query,
		"count":    len(matches),
		"articles": newsDigest(matches),
	}, nil
}

func (d *ToolDeps) leagueScoreboard(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	period := argInt(args, "matchupPeriod", 0)

	data, err := d.ESPN.GetScoreboard(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("scoreboard fetch failed: %w", err)
	}

	type side struct {
		TeamID string  `json:"teamId"`
		Name   string  `json:"name"`
		Points float64 `json:"points"`
	}
	type row struct {
		Period int    `json:"matchupPeriod"`
		Home   side   `json:"home"`
		Away   side   `json:"away"`
		Winner string `json:"winner,omitempty"`
	}
	rows := make([]row, 0, len(data.Entries))
	for _, entry := range data.Entries {
		rows = append(rows, row{
			Period: entry.MatchupPeriodID,
			Home:   side{TeamID: entry.Home.TeamID, Name: data.TeamNames[entry.Home.TeamID], Points: entry.Home.TotalPoints},
			Away:   side{TeamID: entry.Away.TeamID, Name: data.TeamNames[entry.Away.TeamID], Points: entry.Away.TotalPoints},
			Winner: entry.Winner,
		})
	}
	return map[string]interface{}{
		"currentPeriod": data.CurrentPeriod,
		"matchups":      rows,
	}, nil
}

func (d *ToolDeps) leagueActivity(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	size := argInt(args, "size", 10)
	typeFilter := strings.ToUpper(argString(args, "type"))

	txs, err := d.ESPN.GetTransactions(ctx, 25)
	if err != nil {
		return nil, fmt.Errorf("transactions fetch failed: %w", err)
	}

	type activity struct {
		Date   string                      `json:"date"`
		Type   string                      `json:"type"`
		TeamID string                      `json:"teamId"`
		Items  []providers.TransactionItem `json:"items"`
	}
	entries := make([]activity, 0, size)
	for _, tx := range txs {
		if tx.Status != "EXECUTED" {
			continue
		}
		if typeFilter != "" && tx.Type != typeFilter {
			continue
		}
		entries = append(entries, activity{
			Date:   tx.ProcessDate.Format("2006-01-02"),
			Type:   tx.Type,
			TeamID: tx.TeamID,
			Items:  tx.Items,
		})
		if len(entries) >= size {
			break
		}
	}
	return map[string]interface{}{
		"count":        len(entries),
		"transactions": entries,
	}, nil
}

func (d *ToolDeps) teamSeasonStats(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	league, err := d.ESPN.GetLeague(ctx)
	if err != nil {
		return nil, fmt.Errorf("league fetch failed: %w", err)
	}

	stats := append([]providers.TeamSeasonStats(nil), league.SeasonStats...)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].PointsFor > stats[j].PointsFor
	})
	return map[string]interface{}{
		"leagueName": league.League.Name,
		"teams":      stats,
	}, nil
}

func (d *ToolDeps) simulateMove(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	teamID, err := argTeamID(args)
	if err != nil {
		return nil, err
	}
	dropName := argString(args, "dropPlayerName")
	addName := argString(args, "addPlayerName")
	if dropName == "" || addName == "" {
		return nil, fmt.Errorf("dropPlayerName and addPlayerName are required")
	}

	snap, err := d.Snapshots.Build(ctx, leagueIDFromArgs(args, d.LeagueID), teamID)
	if err != nil {
		return nil, err
	}
	if snap.MyTeam == nil {
		return nil, models.ErrRosterUnavailable
	}

	var drop *models.RosterPlayer
	for i := range snap.MyTeam.Roster {
		if nameMatches(dropName, snap.MyTeam.Roster[i].PlayerName) {
			drop = &snap.MyTeam.Roster[i]
			break
		}
	}
	if drop == nil {
		return nil, fmt.Errorf("%q is not on the roster", dropName)
	}

	add, err := d.findFreeAgent(ctx, snap, addName)
	if err != nil {
		return nil, err
	}

	window := optimizer.DefaultWindow(d.now())
	games, err := d.Schedule.GamesInRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("schedule lookup failed: %w", err)
	}

	result := optimizer.SimulateMove(*drop, *add, snap.MyTeam.Roster, snap.League.RosterSlots, window, games)
	return result, nil
}

// findFreeAgent searches the snapshot's injury-watch list first, then the
// wider live pool.
func (d *ToolDeps) findFreeAgent(ctx context.Context, snap *models.Snapshot, name string) (*models.FreeAgent, error) {
	for i := range snap.FreeAgents {
		if nameMatches(name, snap.FreeAgents[i].PlayerName) {
			return &snap.FreeAgents[i], nil
		}
	}
	if d.ESPN != nil {
		agents, err := d.ESPN.GetFreeAgents(ctx, 150, 0)
		if err != nil {
			return nil, fmt.Errorf("free agent fetch failed: %w", err)
		}
		for i := range agents {
			if nameMatches(name, agents[i].PlayerName) {
				return &agents[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%q was not found among available free agents", name)
}

func (d *ToolDeps) validateLineup(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	teamID, err := argTeamID(args)
	if err != nil {
		return nil, err
	}

	target := d.now().UTC()
	if raw := argString(args, "targetDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("targetDate must be YYYY-MM-DD: %w", err)
		}
		target = parsed
	}
	dayStart := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Millisecond)

	snap, err := d.Snapshots.Build(ctx, leagueIDFromArgs(args, d.LeagueID), teamID)
	if err != nil {
		return nil, err
	}
	if snap.MyTeam == nil {
		return nil, models.ErrRosterUnavailable
	}

	games, err := d.Schedule.GamesInRange(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule lookup failed: %w", err)
	}
	playing := make(map[int]bool)
	for _, p := range snap.MyTeam.Roster {
		for _, g := range games {
			if g.Involves(p.ProTeamID) {
				playing[p.PlayerID] = true
				break
			}
		}
	}

	validation := optimizer.ValidateLineupLegality(snap.MyTeam.Roster, snap.League.RosterSlots, playing)
	return map[string]interface{}{
		"date":       dayStart.Format("2006-01-02"),
		"validation": validation,
	}, nil
}

// newsDigest trims matches down to what the LLM needs in context.
func newsDigest(matches []models.NewsMatch) []map[string]interface{} {
	digest := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		entry := map[string]interface{}{
			"title":       m.Title,
			"summary":     m.Summary,
			"source":      m.Source,
			"trustLevel":  m.TrustLevel,
			"publishedAt": m.PublishedAt.Format("2006-01-02"),
			"sentiment":   m.Sentiment,
			"category":    m.Category,
			"similarity":  m.Similarity,
		}
		if m.PlayerName != nil {
			entry["playerName"] = *m.PlayerName
		}
		if m.IsInjuryReport {
			entry["isInjuryReport"] = true
			if m.InjuryStatus != nil {
				entry["injuryStatus"] = *m.InjuryStatus
			}
			if m.ExpectedReturnDate != nil {
				entry["expectedReturnDate"] = *m.ExpectedReturnDate
			}
		}
		digest = append(digest, entry)
	}
	return digest
}

func rosterGamesRemaining(roster []models.RosterPlayer, density *models.ScheduleDensity) int {
	if density == nil {
		return 0
	}
	var total int
	for _, p := range roster {
		total += density.ByPlayer[p.PlayerID].Games
	}
	return total
}

// findRosteredPlayer scans all team rosters for a name match. Matching is
// case-insensitive and accepts a bare surname.
func findRosteredPlayer(teams []models.Team, name string) (*models.RosterPlayer, string) {
	for t := range teams {
		for p := range teams[t].Roster {
			if nameMatches(name, teams[t].Roster[p].PlayerName) {
				return &teams[t].Roster[p], teams[t].Name
			}
		}
	}
	return nil, ""
}

func nameMatches(query, candidate string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(candidate)
	if q == "" {
		return false
	}
	if q == c || strings.Contains(c, q) {
		return true
	}
	// Bare surname: last token of the query against the candidate's.
	qTokens := strings.Fields(q)
	cTokens := strings.Fields(c)
	if len(qTokens) > 0 && len(cTokens) > 0 {
		return qTokens[len(qTokens)-1] == cTokens[len(cTokens)-1]
	}
	return false
}

// Argument helpers. JSON numbers arrive as float64; ids sometimes arrive
// as strings.

func argString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func argInt(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func argBool(args map[string]interface{}, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

func argTeamID(args map[string]interface{}) (int, error) {
	id := argInt(args, "teamId", -1)
	if id < 0 {
		return 0, fmt.Errorf("teamId is required")
	}
	return id, nil
}

func leagueIDFromArgs(args map[string]interface{}, fallback string) string {
	if id := argString(args, "leagueId"); id != "" {
		return id
	}
	return fallback
}

// JSON schema builders for tool parameter declarations.

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func boolProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": desc}
}
