package models

import "time"

// Matchup is the current fantasy head-to-head state. Scores are fantasy
// points, never NBA game scores.
type Matchup struct {
	MyScore       float64 `json:"my_score"`
	OpponentScore float64 `json:"opponent_score"`
	Differential  float64 `json:"differential"`
	Status        string  `json:"status"` // "in_progress" or "completed"
	ScoringPeriod int     `json:"scoring_period"`
}

// PlayerSchedule is the per-player game density over the snapshot window.
type PlayerSchedule struct {
	Games int      `json:"games"`
	Dates []string `json:"dates"`
}

// ScheduleDensity aggregates per-player upcoming games for both rosters.
type ScheduleDensity struct {
	WindowStart time.Time              `json:"window_start"`
	WindowEnd   time.Time              `json:"window_end"`
	ByPlayer    map[int]PlayerSchedule `json:"by_player"`
}

// Snapshot is the immutable intelligence artifact composed per
// (leagueId, teamId) request. Not persisted.
type Snapshot struct {
	League       *League          `json:"league"`
	MyTeam       *Team            `json:"my_team"`
	Opponent     *Team            `json:"opponent,omitempty"`
	Matchup      *Matchup         `json:"matchup,omitempty"`
	Schedule     *ScheduleDensity `json:"schedule,omitempty"`
	FreeAgents   []FreeAgent      `json:"free_agents"`
	Transactions []string         `json:"transactions"`
	BuiltAt      time.Time        `json:"built_at"`
}
