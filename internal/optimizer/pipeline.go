package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
)

const (
	maxDropCandidates   = 5
	maxStreamCandidates = 10
	maxRankedMoves      = 3
)

// SnapshotSource provides the league intelligence the pipeline runs on.
type SnapshotSource interface {
	Build(ctx context.Context, leagueID string, teamID int) (*models.Snapshot, error)
}

// ScheduleSource loads NBA games for a date range.
type ScheduleSource interface {
	GamesInRange(ctx context.Context, start, end time.Time) ([]models.NBAGame, error)
}

// Recommender composes a natural-language recommendation from ranked
// moves. Implementations may call an LLM; failures fall back to a
// templated string.
type Recommender interface {
	Recommend(ctx context.Context, moves []models.MoveRecommendation, window Window) (string, error)
}

// Result is the optimizer graph output.
type Result struct {
	Recommendation string                      `json:"recommendation"`
	RankedMoves    []models.MoveRecommendation `json:"rankedMoves"`
	FetchedAt      time.Time                   `json:"fetchedAt"`
	WindowStart    time.Time                   `json:"windowStart"`
	WindowEnd      time.Time                   `json:"windowEnd"`
}

// Engine runs the deterministic optimizer pipeline. The only
// non-deterministic step is the optional recommender call at the end.
type Engine struct {
	snapshots   SnapshotSource
	schedule    ScheduleSource
	recommender Recommender
	logger      *logrus.Logger
	now         func() time.Time
}

func NewEngine(snapshots SnapshotSource, schedule ScheduleSource, recommender Recommender, logger *logrus.Logger) *Engine {
	return &Engine{
		snapshots:   snapshots,
		schedule:    schedule,
		recommender: recommender,
		logger:      logger,
		now:         time.Now,
	}
}

// SetNow overrides the clock for tests.
func (e *Engine) SetNow(now func() time.Time) { e.now = now }

// Run executes the full pipeline for a team. A zero window defaults to
// [now, next Sunday end-of-day UTC].
func (e *Engine) Run(ctx context.Context, leagueID string, teamID int, window Window) (*Result, error) {
	if window.Start.IsZero() {
		window = DefaultWindow(e.now())
	}

	snap, err := e.snapshots.Build(ctx, leagueID, teamID)
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}
	if snap.MyTeam == nil {
		return nil, models.ErrRosterUnavailable
	}

	roster := snap.MyTeam.Roster
	rosterSlots := snap.League.RosterSlots
	leagueAvg := LeagueAvgFpts(roster)

	games, err := e.schedule.GamesInRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}

	drops := make([]models.DropScore, 0, len(roster))
	for _, p := range roster {
		drops = append(drops, ScoreDroppingCandidate(p, window, leagueAvg, games))
	}
	sort.SliceStable(drops, func(i, j int) bool { return drops[i].Score > drops[j].Score })

	streams := make([]models.StreamScore, 0, len(snap.FreeAgents))
	faByID := make(map[int]models.FreeAgent, len(snap.FreeAgents))
	for _, fa := range snap.FreeAgents {
		streams = append(streams, ScoreStreamingCandidate(fa, window, games))
		faByID[fa.PlayerID] = fa
	}
	sort.SliceStable(streams, func(i, j int) bool { return streams[i].Score > streams[j].Score })

	rosterByID := make(map[int]models.RosterPlayer, len(roster))
	for _, p := range roster {
		rosterByID[p.PlayerID] = p
	}
	dropScoreByID := make(map[int]int, len(drops))
	for _, d := range drops {
		dropScoreByID[d.PlayerID] = d.Score
	}

	type pairResult struct {
		sim         models.SimulateMoveResult
		dropScore   int
		streamScore int
		addAvg      float64
		addOwned    float64
	}

	var results []pairResult
	for i := 0; i < len(drops) && i < maxDropCandidates; i++ {
		dropPlayer, ok := rosterByID[drops[i].PlayerID]
		if !ok {
			continue
		}
		for j := 0; j < len(streams) && j < maxStreamCandidates; j++ {
			addPlayer, ok := faByID[streams[j].PlayerID]
			if !ok {
				continue
			}
			if !shareStartingSlot(dropPlayer.EligibleSlots, addPlayer.EligibleSlots, rosterSlots) {
				continue
			}
			sim := SimulateMove(dropPlayer, addPlayer, roster, rosterSlots, window, games)
			results = append(results, pairResult{
				sim:         sim,
				dropScore:   drops[i].Score,
				streamScore: streams[j].Score,
				addAvg:      addPlayer.AvgFpts,
				addOwned:    addPlayer.PercentOwned,
			})
		}
	}

	legal := results[:0:0]
	for _, r := range results {
		if r.sim.IsLegal {
			legal = append(legal, r)
		}
	}
	allIllegal := len(legal) == 0
	if !allIllegal {
		results = legal
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].sim.NetGain != results[j].sim.NetGain {
			return results[i].sim.NetGain > results[j].sim.NetGain
		}
		if results[i].addAvg != results[j].addAvg {
			return results[i].addAvg > results[j].addAvg
		}
		return results[i].addOwned < results[j].addOwned
	})

	if len(results) > maxRankedMoves {
		results = results[:maxRankedMoves]
	}

	moves := make([]models.MoveRecommendation, 0, len(results))
	for i, r := range results {
		moves = append(moves, models.MoveRecommendation{
			Rank:                i + 1,
			DropPlayerName:      r.sim.DropName,
			AddPlayerName:       r.sim.AddName,
			DropScore:           r.dropScore,
			StreamScore:         r.streamScore,
			BaselineWindowFpts:  r.sim.BaselineWindowFpts,
			ProjectedWindowFpts: r.sim.ProjectedWindowFpts,
			NetGain:             r.sim.NetGain,
			Confidence:          r.sim.Confidence,
			Warnings:            r.sim.Warnings,
		})
	}

	recommendation := e.compose(ctx, moves, window, allIllegal)

	return &Result{
		Recommendation: recommendation,
		RankedMoves:    moves,
		FetchedAt:      e.now().UTC(),
		WindowStart:    window.Start,
		WindowEnd:      window.End,
	}, nil
}

func (e *Engine) compose(ctx context.Context, moves []models.MoveRecommendation, window Window, allIllegal bool) string {
	if allIllegal || len(moves) == 0 {
		return templateIllegal(moves)
	}
	if e.recommender != nil {
		text, err := e.recommender.Recommend(ctx, moves, window)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil && e.logger != nil {
			e.logger.WithError(err).Warn("Recommendation LLM call failed, using template")
		}
	}
	return templateMoves(moves)
}

// LeagueAvgFpts is the mean of positive roster averages, defaulting when
// the sample is too thin to be meaningful.
func LeagueAvgFpts(roster []models.RosterPlayer) float64 {
	var sum float64
	var n int
	for _, p := range roster {
		if p.AvgFpts > 0 {
			sum += p.AvgFpts
			n++
		}
	}
	if n < 3 {
		return DefaultLeagueAvgFpts
	}
	return sum / float64(n)
}

// shareStartingSlot reports whether the add can cover for the drop:
// either a directly shared eligible position or a common starting slot
// in this league's configuration.
func shareStartingSlot(dropEligible, addEligible []string, rosterSlots models.RosterSlots) bool {
	for _, d := range dropEligible {
		for _, a := range addEligible {
			if d == a {
				return true
			}
		}
	}
	for _, slot := range StartingSlots(rosterSlots) {
		if CanFillSlot(dropEligible, slot) && CanFillSlot(addEligible, slot) {
			return true
		}
	}
	return false
}

func templateMoves(moves []models.MoveRecommendation) string {
	var b strings.Builder
	b.WriteString("Recommended moves for the current window:\n")
	for _, m := range moves {
		fmt.Fprintf(&b, "%d. Drop %s, add %s (net gain %+.1f fpts, confidence %s)\n",
			m.Rank, m.DropPlayerName, m.AddPlayerName, m.NetGain, m.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

func templateIllegal(moves []models.MoveRecommendation) string {
	if len(moves) == 0 {
		return "no legal moves available in the current window"
	}
	var b strings.Builder
	b.WriteString("no legal moves available in the current window; top candidates and why they fail:\n")
	for _, m := range moves {
		reason := "no starting slot fit"
		if len(m.Warnings) > 0 {
			reason = strings.Join(m.Warnings, "; ")
		}
		fmt.Fprintf(&b, "%d. Drop %s, add %s: %s\n", m.Rank, m.DropPlayerName, m.AddPlayerName, reason)
	}
	return strings.TrimRight(b.String(), "\n")
}
