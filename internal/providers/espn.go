package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/fanvise/fanvise/internal/models"
)

const defaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games"

// ESPNClient is the typed accessor to the ESPN fantasy read API.
type ESPNClient struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger

	baseURL  string
	sport    string // "fba", "ffl", ...
	leagueID string
	seasonID string
	swid     string
	espnS2   string

	// Base wait for the retry backoff. Shortened in tests.
	retryBase time.Duration
}

// NewESPNClient creates a client for one league. swid/espnS2 are required
// only for private leagues.
func NewESPNClient(sport, leagueID, seasonID, swid, espnS2 string, logger *logrus.Logger) *ESPNClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "espn",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})

	return &ESPNClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker:   breaker,
		logger:    logger,
		baseURL:   defaultBaseURL,
		sport:     sport,
		leagueID:  leagueID,
		seasonID:  seasonID,
		swid:      swid,
		espnS2:    espnS2,
		retryBase: time.Second,
	}
}

// SetBaseURL points the client at a different host. Used by tests.
func (c *ESPNClient) SetBaseURL(base string) {
	c.baseURL = base
}

// SetRetryBase shortens the backoff base. Used by tests.
func (c *ESPNClient) SetRetryBase(d time.Duration) {
	c.retryBase = d
}

func (c *ESPNClient) leagueURL(views []string, extra url.Values) string {
	q := url.Values{}
	for _, v := range views {
		q.Add("view", v)
	}
	for key, vals := range extra {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	return fmt.Sprintf("%s/%s/seasons/%s/segments/0/leagues/%s?%s",
		c.baseURL, c.sport, c.seasonID, c.leagueID, q.Encode())
}

// doRequest performs a GET with up to 3 retries on 5xx/429, exponential
// backoff (1s, 2s, 4s) with jitter, behind the circuit breaker.
func (c *ESPNClient) doRequest(ctx context.Context, requestURL, fantasyFilter string, target interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var lastErr error
		for attempt := 0; attempt < 3; attempt++ {
			if attempt > 0 {
				wait := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryBase
				wait += time.Duration(rand.Int63n(int64(c.retryBase / 4)))
				c.logger.Warnf("ESPN request retry %d after %v: %v", attempt, wait, lastErr)
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")
			if fantasyFilter != "" {
				req.Header.Set("X-Fantasy-Filter", fantasyFilter)
			}
			if c.swid != "" && c.espnS2 != "" {
				req.AddCookie(&http.Cookie{Name: "SWID", Value: c.swid})
				req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.espnS2})
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = err
				continue
			}

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				lastErr = fmt.Errorf("espn returned status %d", resp.StatusCode)
				continue
			}
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				return nil, fmt.Errorf("espn returned status %d: %s", resp.StatusCode, string(body))
			}

			err = json.NewDecoder(resp.Body).Decode(target)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to decode espn response: %w", err)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("espn request failed after retries: %w", lastErr)
	})
	return err
}

// LeagueData is the typed league payload used for syncing and standings.
type LeagueData struct {
	League               models.League
	CurrentMatchupPeriod int
	LatestScoringPeriod  int
	SeasonStats          []TeamSeasonStats
	RosterPlayerIDs      []int
}

// TeamSeasonStats are the season aggregates per fantasy team.
type TeamSeasonStats struct {
	TeamID        string  `json:"team_id"`
	Name          string  `json:"name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
}

// GetLeague fetches settings, teams, and rosters.
func (c *ESPNClient) GetLeague(ctx context.Context) (*LeagueData, error) {
	var resp ESPNLeagueResponse
	requestURL := c.leagueURL([]string{ViewSettings, ViewTeam, ViewRoster}, nil)
	if err := c.doRequest(ctx, requestURL, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch league: %w", err)
	}

	memberNames := make(map[string]string)
	for _, m := range resp.Members {
		memberNames[m.ID] = m.DisplayName
	}

	data := &LeagueData{
		CurrentMatchupPeriod: resp.Status.CurrentMatchupPeriod,
		LatestScoringPeriod:  resp.Status.LatestScoringPeriod,
		League: models.League{
			ID:              c.leagueID,
			SeasonID:        strconv.Itoa(resp.SeasonID),
			Name:            resp.Settings.Name,
			ScoringSettings: make(models.ScoringSettings),
			RosterSlots:     make(models.RosterSlots),
		},
	}
	if data.League.SeasonID == "0" {
		data.League.SeasonID = c.seasonID
	}

	for _, item := range resp.Settings.ScoringSettings.ScoringItems {
		data.League.ScoringSettings[strconv.Itoa(item.StatID)] = item.Points
	}
	for slotID, count := range resp.Settings.RosterSettings.LineupSlotCounts {
		id, err := strconv.Atoi(slotID)
		if err != nil {
			continue
		}
		if name := SlotName(id); name != "" && count > 0 {
			data.League.RosterSlots[name] = count
		}
	}

	for _, t := range resp.Teams {
		manager := ""
		if len(t.Owners) > 0 {
			manager = memberNames[t.Owners[0]]
		}
		team := models.Team{
			ID:      strconv.Itoa(t.ID),
			Name:    t.DisplayName(),
			Abbrev:  t.Abbrev,
			Manager: manager,
			Record: &models.TeamRecord{
				Wins:   t.Record.Overall.Wins,
				Losses: t.Record.Overall.Losses,
				Ties:   t.Record.Overall.Ties,
			},
			Roster: c.convertRoster(t.Roster),
		}
		data.League.Teams = append(data.League.Teams, team)
		data.SeasonStats = append(data.SeasonStats, TeamSeasonStats{
			TeamID:        team.ID,
			Name:          team.Name,
			Wins:          t.Record.Overall.Wins,
			Losses:        t.Record.Overall.Losses,
			Ties:          t.Record.Overall.Ties,
			PointsFor:     t.Record.Overall.PointsFor,
			PointsAgainst: t.Record.Overall.PointsAgainst,
		})
		for _, entry := range t.Roster.Entries {
			data.RosterPlayerIDs = append(data.RosterPlayerIDs, entry.PlayerPoolEntry.Player.ID)
		}
	}

	return data, nil
}

// MatchupTeam is one side of a head-to-head matchup.
type MatchupTeam struct {
	TeamID      string
	TotalPoints float64
	Roster      []models.RosterPlayer
}

// MatchupEntry is one schedule row from the matchup views.
type MatchupEntry struct {
	MatchupPeriodID int
	Winner          string
	Home            MatchupTeam
	Away            MatchupTeam
}

// MatchupData carries the current period plus all schedule entries and the
// live team display names.
type MatchupData struct {
	CurrentPeriod int
	Entries       []MatchupEntry
	TeamNames     map[string]string
}

// GetMatchups fetches the live matchup state with current-period rosters.
func (c *ESPNClient) GetMatchups(ctx context.Context) (*MatchupData, error) {
	var resp ESPNLeagueResponse
	requestURL := c.leagueURL([]string{ViewMatchupScore, ViewScoreboard, ViewRoster, ViewCurrentRoster}, nil)
	if err := c.doRequest(ctx, requestURL, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch matchups: %w", err)
	}

	data := &MatchupData{
		CurrentPeriod: resp.Status.CurrentMatchupPeriod,
		TeamNames:     make(map[string]string),
	}
	rosters := make(map[int][]models.RosterPlayer)
	for _, t := range resp.Teams {
		data.TeamNames[strconv.Itoa(t.ID)] = t.DisplayName()
		rosters[t.ID] = c.convertRoster(t.Roster)
	}

	for _, entry := range resp.Schedule {
		me := MatchupEntry{
			MatchupPeriodID: entry.MatchupPeriodID,
			Winner:          entry.Winner,
			Home:            c.convertSide(entry.Home, rosters),
			Away:            c.convertSide(entry.Away, rosters),
		}
		data.Entries = append(data.Entries, me)
	}

	return data, nil
}

func (c *ESPNClient) convertSide(side espnMatchupSide, rosters map[int][]models.RosterPlayer) MatchupTeam {
	team := MatchupTeam{
		TeamID:      strconv.Itoa(side.TeamID),
		TotalPoints: side.TotalPoints,
	}
	if side.TotalPointsLive > 0 {
		team.TotalPoints = side.TotalPointsLive
	}
	if len(side.RosterForCurrentScoringPeriod.Entries) > 0 {
		team.Roster = c.convertRoster(side.RosterForCurrentScoringPeriod)
	} else {
		team.Roster = rosters[side.TeamID]
	}
	return team
}

// GetFreeAgents fetches available players sorted by ownership, most owned
// first. positionID filters on the ESPN default position (0 = any).
func (c *ESPNClient) GetFreeAgents(ctx context.Context, limit, positionID int) ([]models.FreeAgent, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := fmt.Sprintf(`{"players":{"filterStatus":{"value":["FREEAGENT","WAIVERS"]},"limit":%d,"sortPercOwned":{"sortAsc":false,"sortPriority":1}}}`, limit)

	var resp espnPlayersResponse
	requestURL := c.leagueURL([]string{ViewKonaPlayerInfo}, nil)
	if err := c.doRequest(ctx, requestURL, filter, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch free agents: %w", err)
	}

	agents := make([]models.FreeAgent, 0, len(resp.Players))
	for _, p := range resp.Players {
		if positionID > 0 && p.Player.DefaultPositionID != positionID {
			continue
		}
		agents = append(agents, c.convertFreeAgent(p.Player))
	}
	return agents, nil
}

// PlayerCard is the single-player payload used for status refreshes.
type PlayerCard struct {
	Player    models.RosterPlayer
	Injured   bool
	Droppable *bool
}

// GetPlayerCard fetches one player by ID.
func (c *ESPNClient) GetPlayerCard(ctx context.Context, playerID int) (*PlayerCard, error) {
	filter := fmt.Sprintf(`{"players":{"filterIds":{"value":[%d]}}}`, playerID)

	var resp espnPlayersResponse
	requestURL := c.leagueURL([]string{ViewKonaPlayerInfo}, nil)
	if err := c.doRequest(ctx, requestURL, filter, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch player card: %w", err)
	}
	if len(resp.Players) == 0 {
		return nil, fmt.Errorf("player %d not found", playerID)
	}

	p := resp.Players[0].Player
	return &PlayerCard{
		Player:    c.convertPlayer(p),
		Injured:   p.Injured,
		Droppable: p.Droppable,
	}, nil
}

// Transaction is one processed league transaction.
type Transaction struct {
	ID          string
	Type        string // "WAIVER", "FREEAGENT", "TRADE"
	Status      string // "EXECUTED", ...
	TeamID      string
	ProcessDate time.Time
	Items       []TransactionItem
}

type TransactionItem struct {
	PlayerID   int
	Type       string // "ADD", "DROP", "TRADE"
	FromTeamID string
	ToTeamID   string
}

// GetTransactions fetches recent league transactions, newest first.
func (c *ESPNClient) GetTransactions(ctx context.Context, size int) ([]Transaction, error) {
	if size <= 0 {
		size = 25
	}

	var resp espnTransactionsResponse
	requestURL := c.leagueURL([]string{ViewTransactions}, nil)
	if err := c.doRequest(ctx, requestURL, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	txs := make([]Transaction, 0, len(resp.Transactions))
	for _, t := range resp.Transactions {
		tx := Transaction{
			ID:          t.ID,
			Type:        t.Type,
			Status:      t.Status,
			TeamID:      strconv.Itoa(t.TeamID),
			ProcessDate: time.UnixMilli(t.ProcessDate).UTC(),
		}
		for _, item := range t.Items {
			tx.Items = append(tx.Items, TransactionItem{
				PlayerID:   item.PlayerID,
				Type:       item.Type,
				FromTeamID: strconv.Itoa(item.FromTeamID),
				ToTeamID:   strconv.Itoa(item.ToTeamID),
			})
		}
		txs = append(txs, tx)
		if len(txs) >= size {
			break
		}
	}
	return txs, nil
}

// GetScoreboard fetches all matchups, optionally restricted to one period.
func (c *ESPNClient) GetScoreboard(ctx context.Context, matchupPeriod int) (*MatchupData, error) {
	extra := url.Values{}
	if matchupPeriod > 0 {
		extra.Set("scoringPeriodId", strconv.Itoa(matchupPeriod))
	}

	var resp ESPNLeagueResponse
	requestURL := c.leagueURL([]string{ViewMatchupScore, ViewScoreboard, ViewTeam}, extra)
	if err := c.doRequest(ctx, requestURL, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}

	data := &MatchupData{
		CurrentPeriod: resp.Status.CurrentMatchupPeriod,
		TeamNames:     make(map[string]string),
	}
	for _, t := range resp.Teams {
		data.TeamNames[strconv.Itoa(t.ID)] = t.DisplayName()
	}
	period := matchupPeriod
	if period <= 0 {
		period = resp.Status.CurrentMatchupPeriod
	}
	for _, entry := range resp.Schedule {
		if entry.MatchupPeriodID != period {
			continue
		}
		data.Entries = append(data.Entries, MatchupEntry{
			MatchupPeriodID: entry.MatchupPeriodID,
			Winner:          entry.Winner,
			Home:            MatchupTeam{TeamID: strconv.Itoa(entry.Home.TeamID), TotalPoints: entry.Home.TotalPoints},
			Away:            MatchupTeam{TeamID: strconv.Itoa(entry.Away.TeamID), TotalPoints: entry.Away.TotalPoints},
		})
	}
	return data, nil
}

// GetProSchedule fetches the full NBA schedule for the season. Games are
// deduplicated; ESPN lists each one under both participating teams.
func (c *ESPNClient) GetProSchedule(ctx context.Context) ([]models.NBAGame, error) {
	var resp espnProScheduleResponse
	requestURL := fmt.Sprintf("%s/%s/seasons/%s?view=proTeamSchedules_wl", c.baseURL, c.sport, c.seasonID)
	if err := c.doRequest(ctx, requestURL, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch pro schedule: %w", err)
	}

	seen := make(map[int64]bool)
	var games []models.NBAGame
	for _, team := range resp.Settings.ProTeams {
		for _, periodGames := range team.ProGamesByScoringPeriod {
			for _, g := range periodGames {
				if seen[g.ID] {
					continue
				}
				seen[g.ID] = true
				period := g.ScoringPeriodID
				games = append(games, models.NBAGame{
					ID:              strconv.FormatInt(g.ID, 10),
					Date:            time.UnixMilli(g.Date).UTC(),
					HomeTeamID:      g.HomeProTeamID,
					AwayTeamID:      g.AwayProTeamID,
					SeasonID:        c.seasonID,
					ScoringPeriodID: &period,
				})
			}
		}
	}
	return games, nil
}

// GetDailyLeaders fetches the top scorers for one scoring period. The
// caller fills in league-level fields before persisting.
func (c *ESPNClient) GetDailyLeaders(ctx context.Context, scoringPeriodID, limit int) ([]models.DailyLeader, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := fmt.Sprintf(
		`{"players":{"limit":%d,"sortAppliedStatTotalForScoringPeriodId":{"sortAsc":false,"sortPriority":1,"value":%d}}}`,
		limit, scoringPeriodID)

	var resp espnPlayersResponse
	extra := url.Values{}
	extra.Set("scoringPeriodId", strconv.Itoa(scoringPeriodID))
	requestURL := c.leagueURL([]string{ViewKonaPlayerInfo}, extra)
	if err := c.doRequest(ctx, requestURL, filter, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch daily leaders: %w", err)
	}

	leaders := make([]models.DailyLeader, 0, len(resp.Players))
	for _, entry := range resp.Players {
		p := entry.Player
		leader := models.DailyLeader{
			ScoringPeriodID: scoringPeriodID,
			PlayerID:        p.ID,
			PlayerName:      p.FullName,
		}
		posID := p.DefaultPositionID
		proTeam := p.ProTeamID
		owned := p.Ownership.PercentOwned
		leader.PositionID = &posID
		leader.ProTeamID = &proTeam
		leader.OwnershipPct = &owned

		for _, line := range p.Stats {
			if line.ScoringPeriodID != scoringPeriodID || line.StatSourceID != 0 {
				continue
			}
			points := line.AppliedTotal
			leader.FantasyPoints = &points
			leader.Stats = models.StringMap(line.Stats)
			break
		}
		leaders = append(leaders, leader)
	}
	return leaders, nil
}

func (c *ESPNClient) convertRoster(roster espnRoster) []models.RosterPlayer {
	players := make([]models.RosterPlayer, 0, len(roster.Entries))
	for _, entry := range roster.Entries {
		players = append(players, c.convertPlayer(entry.PlayerPoolEntry.Player))
	}
	return players
}

func (c *ESPNClient) convertPlayer(p espnPlayer) models.RosterPlayer {
	avg, total, games := c.selectSeasonStats(p.Stats)
	return models.RosterPlayer{
		PlayerID:      p.ID,
		PlayerName:    p.FullName,
		Position:      PositionName(p.DefaultPositionID),
		EligibleSlots: convertSlots(p.EligibleSlots),
		ProTeamID:     p.ProTeamID,
		InjuryStatus:  NormalizeInjuryStatus(p.InjuryStatus),
		AvgFpts:       avg,
		TotalFpts:     total,
		GamesPlayed:   games,
	}
}

func (c *ESPNClient) convertFreeAgent(p espnPlayer) models.FreeAgent {
	avg, _, games := c.selectSeasonStats(p.Stats)
	return models.FreeAgent{
		PlayerID:      p.ID,
		PlayerName:    p.FullName,
		Position:      PositionName(p.DefaultPositionID),
		EligibleSlots: convertSlots(p.EligibleSlots),
		ProTeamID:     p.ProTeamID,
		InjuryStatus:  NormalizeInjuryStatus(p.InjuryStatus),
		AvgFpts:       avg,
		GamesPlayed:   games,
		PercentOwned:  p.Ownership.PercentOwned,
	}
}

// selectSeasonStats picks the actuals line for the target season
// (statSourceId=0, statSplitTypeId=0).
func (c *ESPNClient) selectSeasonStats(lines []espnStatLine) (avg, total float64, games int) {
	season, _ := strconv.Atoi(c.seasonID)
	for _, line := range lines {
		if line.SeasonID != season || line.StatSourceID != 0 || line.StatSplitTypeID != 0 {
			continue
		}
		avg = line.AppliedAverage
		total = line.AppliedTotal
		if gp, ok := line.Stats["42"]; ok && gp > 0 {
			games = int(gp)
		} else if avg > 0 {
			games = int(math.Round(total / avg))
		}
		return avg, total, games
	}
	return 0, 0, 0
}

func convertSlots(slotIDs []int) []string {
	slots := make([]string, 0, len(slotIDs))
	for _, id := range slotIDs {
		if name := SlotName(id); name != "" {
			slots = append(slots, name)
		}
	}
	return slots
}

// NormalizeInjuryStatus maps ESPN status strings onto the internal enum.
func NormalizeInjuryStatus(status string) string {
	switch strings.ToUpper(status) {
	case "", "ACTIVE", "NORMAL":
		return models.InjuryActive
	case "DAY_TO_DAY":
		return models.InjuryDTD
	case "GAME_TIME_DECISION", "GTD":
		return models.InjuryGTD
	case "QUESTIONABLE":
		return models.InjuryQuestionable
	case "OUT":
		return models.InjuryOut
	case "SUSPENSION", "SUSPENDED":
		return models.InjurySuspended
	case "INJURY_RESERVE", "IR":
		return models.InjuryIR
	default:
		return strings.ToUpper(status)
	}
}
