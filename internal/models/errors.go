package models

import "errors"

// User-facing, recoverable errors. Callers surface these verbatim.
var (
	ErrLeagueNotFound     = errors.New("no league data cached for this league - try syncing first")
	ErrTeamNotFound       = errors.New("team not found in this league")
	ErrNoMatchupForPeriod = errors.New("no matchup found for the current scoring period")
	ErrRosterUnavailable  = errors.New("roster data is unavailable right now")
	ErrNoLegalMoves       = errors.New("no legal moves available in the current window")
)
