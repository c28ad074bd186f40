package models

// Injury status values as reported by ESPN player cards.
const (
	InjuryActive       = "ACTIVE"
	InjuryGTD          = "GTD"
	InjuryDTD          = "DTD"
	InjuryQuestionable = "QUESTIONABLE"
	InjuryOut          = "OUT"
	InjurySuspended    = "SUSPENDED"
	InjuryIR           = "IR"
)

// Roster slot labels recognized by the optimizer.
const (
	SlotPG   = "PG"
	SlotSG   = "SG"
	SlotSF   = "SF"
	SlotPF   = "PF"
	SlotC    = "C"
	SlotG    = "G"
	SlotF    = "F"
	SlotGF   = "GF"
	SlotFC   = "FC"
	SlotUtil = "UTIL"
	SlotBE   = "BE"
	SlotIR   = "IR"
)

// RosterPlayer is a player owned by a fantasy team for the lifetime of a
// snapshot build.
type RosterPlayer struct {
	PlayerID      int      `json:"player_id"`
	PlayerName    string   `json:"player_name"`
	Position      string   `json:"position"`
	EligibleSlots []string `json:"eligible_slots"`
	ProTeamID     int      `json:"pro_team_id"`
	InjuryStatus  string   `json:"injury_status"`
	AvgFpts       float64  `json:"avg_fpts"`
	TotalFpts     float64  `json:"total_fpts"`
	GamesPlayed   int      `json:"games_played"`
}

// IsInjured reports whether the player carries any availability risk.
func (p RosterPlayer) IsInjured() bool {
	return p.InjuryStatus != "" && p.InjuryStatus != InjuryActive
}

// FreeAgent is an unowned player, optionally annotated with upcoming
// schedule info by the snapshot builder.
type FreeAgent struct {
	PlayerID      int      `json:"player_id"`
	PlayerName    string   `json:"player_name"`
	Position      string   `json:"position"`
	EligibleSlots []string `json:"eligible_slots"`
	ProTeamID     int      `json:"pro_team_id"`
	InjuryStatus  string   `json:"injury_status"`
	AvgFpts       float64  `json:"avg_fpts"`
	GamesPlayed   int      `json:"games_played"`
	PercentOwned  float64  `json:"percent_owned"`

	// Schedule annotation, present when the caller asked for it.
	GamesRemaining      *int     `json:"games_remaining,omitempty"`
	GamesRemainingDates []string `json:"games_remaining_dates,omitempty"`
	StreamScore         *int     `json:"stream_score,omitempty"`
	Confidence          string   `json:"confidence,omitempty"`
}

// AsRosterPlayer synthesizes a roster entry for move simulation. Totals and
// games played reset because the player has no history on the new roster.
func (fa FreeAgent) AsRosterPlayer() RosterPlayer {
	return RosterPlayer{
		PlayerID:      fa.PlayerID,
		PlayerName:    fa.PlayerName,
		Position:      fa.Position,
		EligibleSlots: fa.EligibleSlots,
		ProTeamID:     fa.ProTeamID,
		InjuryStatus:  fa.InjuryStatus,
		AvgFpts:       fa.AvgFpts,
		TotalFpts:     0,
		GamesPlayed:   0,
	}
}
