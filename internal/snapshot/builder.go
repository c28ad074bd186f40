// Package snapshot composes the per-request intelligence artifact the
// agent and optimizer consume. A snapshot is built fresh for every
// (league, team) request; only its ingredients are cached.
package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/providers"
	"github.com/fanvise/fanvise/internal/services"
)

const (
	freeAgentFetchLimit = 150
	freeAgentKeep       = 15
	transactionsKeep    = 10
	scheduleDays        = 7
)

// LeagueSource loads the synced league row.
type LeagueSource interface {
	GetLeague(ctx context.Context, leagueID string) (*models.LeagueRow, error)
}

// ScheduleSource serves NBA games by date range.
type ScheduleSource interface {
	GamesInRange(ctx context.Context, start, end time.Time) ([]models.NBAGame, error)
}

// ESPNSource is the live-league slice of the ESPN client.
type ESPNSource interface {
	GetMatchups(ctx context.Context) (*providers.MatchupData, error)
	GetFreeAgents(ctx context.Context, limit, positionID int) ([]models.FreeAgent, error)
	GetTransactions(ctx context.Context, size int) ([]providers.Transaction, error)
}

// Cache is the cache-aside surface the builder needs.
type Cache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error
}

// Builder assembles snapshots. ESPN failures degrade the snapshot
// instead of failing it; only missing league or team data is fatal.
type Builder struct {
	leagues  LeagueSource
	schedule ScheduleSource
	espn     ESPNSource
	cache    Cache
	logger   *logrus.Logger
	now      func() time.Time
}

func NewBuilder(leagues LeagueSource, schedule ScheduleSource, espn ESPNSource, cache Cache, logger *logrus.Logger) *Builder {
	return &Builder{
		leagues:  leagues,
		schedule: schedule,
		espn:     espn,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNow overrides the clock for tests.
func (b *Builder) SetNow(now func() time.Time) { b.now = now }

// Build composes the snapshot for one team.
func (b *Builder) Build(ctx context.Context, leagueID string, teamID int) (*models.Snapshot, error) {
	var row models.LeagueRow
	err := b.cache.GetOrLoad(ctx, services.LeagueCacheKey(leagueID), services.TTLLeague, &row, func(ctx context.Context) (interface{}, error) {
		return b.leagues.GetLeague(ctx, leagueID)
	})
	if err != nil {
		return nil, err
	}

	league, err := row.ToLeague()
	if err != nil {
		return nil, err
	}

	teamKey := strconv.Itoa(teamID)
	myTeam := findTeam(league.Teams, teamKey)
	if myTeam == nil {
		return nil, models.ErrTeamNotFound
	}

	snap := &models.Snapshot{
		League:  league,
		MyTeam:  myTeam,
		BuiltAt: b.now().UTC(),
	}

	matchups, err := b.loadMatchups(ctx, leagueID, teamKey, league.SeasonID)
	if err != nil {
		b.logger.WithError(err).WithField("league_id", leagueID).Warn("Matchup fetch failed, continuing with cached rosters")
	} else {
		b.applyMatchup(snap, matchups, teamKey, league.Teams)
	}

	if density, err := b.loadScheduleDensity(ctx, snap); err != nil {
		b.logger.WithError(err).Warn("Schedule density unavailable")
	} else {
		snap.Schedule = density
	}

	if fas, err := b.loadFreeAgents(ctx, leagueID, league.SeasonID, snap); err != nil {
		b.logger.WithError(err).Warn("Free agent fetch failed")
	} else {
		snap.FreeAgents = fas
	}

	snap.Transactions = b.loadTransactions(ctx, league.Teams)

	return snap, nil
}

func (b *Builder) loadMatchups(ctx context.Context, leagueID, teamKey, seasonID string) (*providers.MatchupData, error) {
	var data providers.MatchupData
	err := b.cache.GetOrLoad(ctx, services.MatchupCacheKey(leagueID, teamKey, seasonID), services.TTLMatchup, &data, func(ctx context.Context) (interface{}, error) {
		return b.espn.GetMatchups(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// applyMatchup overlays live matchup state onto the snapshot: fresh
// rosters, live team names, and the head-to-head score.
func (b *Builder) applyMatchup(snap *models.Snapshot, data *providers.MatchupData, teamKey string, cachedTeams []models.Team) {
	entry := currentEntry(data, teamKey)
	if entry == nil {
		return
	}

	mine, theirs := entry.Home, entry.Away
	if theirs.TeamID == teamKey {
		mine, theirs = theirs, mine
	}

	if len(mine.Roster) > 0 {
		snap.MyTeam.Roster = mine.Roster
	}
	if name, ok := data.TeamNames[teamKey]; ok && name != "" {
		snap.MyTeam.Name = name
	}

	opponent := findTeam(cachedTeams, theirs.TeamID)
	if opponent == nil {
		opponent = &models.Team{ID: theirs.TeamID}
	}
	if len(theirs.Roster) > 0 {
		opponent.Roster = theirs.Roster
	}
	if name, ok := data.TeamNames[theirs.TeamID]; ok && name != "" {
		opponent.Name = name
	}
	snap.Opponent = opponent

	status := "completed"
	if entry.Winner == "" || strings.EqualFold(entry.Winner, "UNDECIDED") {
		status = "in_progress"
	}
	snap.Matchup = &models.Matchup{
		MyScore:       mine.TotalPoints,
		OpponentScore: theirs.TotalPoints,
		Differential:  mine.TotalPoints - theirs.TotalPoints,
		Status:        status,
		ScoringPeriod: data.CurrentPeriod,
	}
}

// currentEntry picks the team's matchup for the current period, falling
// back to any matchup containing the team.
func currentEntry(data *providers.MatchupData, teamKey string) *providers.MatchupEntry {
	var fallback *providers.MatchupEntry
	for i := range data.Entries {
		entry := &data.Entries[i]
		if entry.Home.TeamID != teamKey && entry.Away.TeamID != teamKey {
			continue
		}
		if entry.MatchupPeriodID == data.CurrentPeriod {
			return entry
		}
		if fallback == nil {
			fallback = entry
		}
	}
	return fallback
}

func (b *Builder) loadScheduleDensity(ctx context.Context, snap *models.Snapshot) (*models.ScheduleDensity, error) {
	now := b.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, scheduleDays-1).Add(24*time.Hour - time.Second)

	var games []models.NBAGame
	err := b.cache.GetOrLoad(ctx, services.ScheduleCacheKey(start, end), services.TTLSchedule, &games, func(ctx context.Context) (interface{}, error) {
		return b.schedule.GamesInRange(ctx, start, end)
	})
	if err != nil {
		return nil, err
	}

	density := &models.ScheduleDensity{
		WindowStart: start,
		WindowEnd:   end,
		ByPlayer:    make(map[int]models.PlayerSchedule),
	}
	addRoster := func(roster []models.RosterPlayer) {
		for _, p := range roster {
			var sched models.PlayerSchedule
			seen := make(map[string]bool)
			for _, g := range games {
				if !g.Involves(p.ProTeamID) || seen[g.DateKey()] {
					continue
				}
				seen[g.DateKey()] = true
				sched.Games++
				sched.Dates = append(sched.Dates, g.DateKey())
			}
			density.ByPlayer[p.PlayerID] = sched
		}
	}
	addRoster(snap.MyTeam.Roster)
	if snap.Opponent != nil {
		addRoster(snap.Opponent.Roster)
	}
	return density, nil
}

func (b *Builder) loadFreeAgents(ctx context.Context, leagueID, seasonID string, snap *models.Snapshot) ([]models.FreeAgent, error) {
	myIDs := rosterIDs(snap.MyTeam.Roster)
	var oppIDs []int
	if snap.Opponent != nil {
		oppIDs = rosterIDs(snap.Opponent.Roster)
	}

	var pool []models.FreeAgent
	key := services.FreeAgentsCacheKey(leagueID, seasonID, myIDs, oppIDs)
	err := b.cache.GetOrLoad(ctx, key, services.TTLFreeAgents, &pool, func(ctx context.Context) (interface{}, error) {
		return b.espn.GetFreeAgents(ctx, freeAgentFetchLimit, 0)
	})
	if err != nil {
		return nil, err
	}

	owned := make(map[int]bool, len(myIDs)+len(oppIDs))
	for _, id := range myIDs {
		owned[id] = true
	}
	for _, id := range oppIDs {
		owned[id] = true
	}

	kept := make([]models.FreeAgent, 0, freeAgentKeep)
	for _, fa := range pool {
		if owned[fa.PlayerID] || fa.InjuryStatus != models.InjuryActive {
			continue
		}
		kept = append(kept, fa)
		if len(kept) >= freeAgentKeep {
			break
		}
	}
	return kept, nil
}

// loadTransactions formats recent executed moves. Failures degrade to an
// empty list.
func (b *Builder) loadTransactions(ctx context.Context, teams []models.Team) []string {
	txs, err := b.espn.GetTransactions(ctx, 25)
	if err != nil {
		b.logger.WithError(err).Warn("Transaction fetch failed")
		return nil
	}

	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	var lines []string
	for _, tx := range txs {
		if tx.Status != "EXECUTED" {
			continue
		}
		switch tx.Type {
		case "WAIVER", "FREEAGENT", "TRADE":
		default:
			continue
		}
		lines = append(lines, formatTransaction(tx, names))
		if len(lines) >= transactionsKeep {
			break
		}
	}
	return lines
}

func formatTransaction(tx providers.Transaction, names map[string]string) string {
	team := names[tx.TeamID]
	if team == "" {
		team = "Team " + tx.TeamID
	}
	var actions []string
	for _, item := range tx.Items {
		switch item.Type {
		case "ADD":
			actions = append(actions, fmt.Sprintf("added player %d", item.PlayerID))
		case "DROP":
			actions = append(actions, fmt.Sprintf("dropped player %d", item.PlayerID))
		case "TRADE":
			actions = append(actions, fmt.Sprintf("traded player %d", item.PlayerID))
		}
	}
	detail := strings.Join(actions, ", ")
	if detail == "" {
		detail = strings.ToLower(tx.Type)
	}
	return fmt.Sprintf("[%s] %s %s (%s)", tx.ProcessDate.Format("Jan 2"), team, detail, strings.ToLower(tx.Type))
}

func findTeam(teams []models.Team, id string) *models.Team {
	for i := range teams {
		if teams[i].ID == id {
			team := teams[i]
			return &team
		}
	}
	return nil
}

func rosterIDs(roster []models.RosterPlayer) []int {
	ids := make([]int, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.PlayerID)
	}
	return ids
}
