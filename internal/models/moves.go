package models

import "time"

// Confidence tiers for projections.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// DropScore rates how strongly a roster player should be dropped (0-100).
type DropScore struct {
	PlayerID            int      `json:"player_id"`
	PlayerName          string   `json:"player_name"`
	Score               int      `json:"score"`
	GamesRemaining      int      `json:"games_remaining"`
	ProjectedWindowFpts float64  `json:"projected_window_fpts"`
	Reasons             []string `json:"reasons"`
}

// StreamScore rates a free agent's projected contribution over the window (0-100).
type StreamScore struct {
	PlayerID            int      `json:"player_id"`
	PlayerName          string   `json:"player_name"`
	Score               int      `json:"score"`
	GamesRemaining      int      `json:"games_remaining"`
	GameDates           []string `json:"game_dates"`
	ProjectedWindowFpts float64  `json:"projected_window_fpts"`
	Confidence          string   `json:"confidence"`
}

// SlotAssignment places one player into one starting slot for a day.
type SlotAssignment struct {
	Slot       string  `json:"slot"`
	PlayerID   int     `json:"player_id"`
	PlayerName string  `json:"player_name"`
	AvgFpts    float64 `json:"avg_fpts"`
}

// DayBreakdown records the slots used on one date of a simulated window.
type DayBreakdown struct {
	Date      string   `json:"date"`
	SlotsUsed []string `json:"slots_used"`
}

// SimulateMoveResult is the outcome of a drop/add simulation over a window.
type SimulateMoveResult struct {
	IsLegal             bool           `json:"is_legal"`
	DropID              int            `json:"drop_id"`
	DropName            string         `json:"drop_name"`
	AddID               int            `json:"add_id"`
	AddName             string         `json:"add_name"`
	BaselineWindowFpts  float64        `json:"baseline_window_fpts"`
	ProjectedWindowFpts float64        `json:"projected_window_fpts"`
	NetGain             float64        `json:"net_gain"`
	DailyBreakdown      []DayBreakdown `json:"daily_breakdown"`
	Confidence          string         `json:"confidence"`
	Warnings            []string       `json:"warnings"`
}

// LineupValidation is the legality check result for a single day.
type LineupValidation struct {
	IsLegal          bool             `json:"is_legal"`
	Assignments      []SlotAssignment `json:"assignments"`
	UnfilledSlots    []string         `json:"unfilled_slots"`
	BenchedWithGames []string         `json:"benched_with_games"`
	Warnings         []string         `json:"warnings"`
}

// MoveRecommendation is one ranked drop/add suggestion.
type MoveRecommendation struct {
	Rank               int      `json:"rank"`
	DropPlayerName     string   `json:"dropPlayerName"`
	AddPlayerName      string   `json:"addPlayerName"`
	DropScore          int      `json:"dropScore"`
	StreamScore        int      `json:"streamScore"`
	BaselineWindowFpts float64  `json:"baselineWindowFpts"`
	ProjectedWindowFpts float64 `json:"projectedWindowFpts"`
	NetGain            float64  `json:"netGain"`
	Confidence         string   `json:"confidence"`
	Warnings           []string `json:"warnings"`
}

// MovesPayload is the structured side-channel payload appended to the
// assistant text stream as a base64 sentinel token.
type MovesPayload struct {
	Moves       []MoveRecommendation `json:"moves"`
	FetchedAt   time.Time            `json:"fetchedAt"`
	WindowStart time.Time            `json:"windowStart"`
	WindowEnd   time.Time            `json:"windowEnd"`
}
