package news

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/providers"
)

const (
	statusSyncMaxPlayers = 200
	// One player card every ~120ms keeps us under ESPN's informal limits.
	statusSyncInterval = 120 * time.Millisecond
)

// StatusESPN is the ESPN slice the status sync needs.
type StatusESPN interface {
	GetLeague(ctx context.Context) (*providers.LeagueData, error)
	GetPlayerCard(ctx context.Context, playerID int) (*providers.PlayerCard, error)
}

// StatusStore persists player availability snapshots.
type StatusStore interface {
	Upsert(ctx context.Context, snap *models.PlayerStatusSnapshot) error
}

// StatusSyncer refreshes player_status_snapshots from ESPN player cards.
type StatusSyncer struct {
	espn    StatusESPN
	store   StatusStore
	logger  *logrus.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

func NewStatusSyncer(espn StatusESPN, store StatusStore, logger *logrus.Logger) *StatusSyncer {
	return &StatusSyncer{
		espn:    espn,
		store:   store,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(statusSyncInterval), 1),
		now:     time.Now,
	}
}

// SetInterval overrides the throttle. Used by tests.
func (s *StatusSyncer) SetInterval(d time.Duration) {
	s.limiter = rate.NewLimiter(rate.Every(d), 1)
}

// Sync fetches the league, walks up to 200 rostered players, and upserts
// one snapshot per player card. Individual card failures are skipped.
func (s *StatusSyncer) Sync(ctx context.Context) (int, error) {
	league, err := s.espn.GetLeague(ctx)
	if err != nil {
		return 0, err
	}

	teamByPlayer := make(map[int]string)
	for _, team := range league.League.Teams {
		for _, p := range team.Roster {
			teamByPlayer[p.PlayerID] = team.ID
		}
	}

	ids := league.RosterPlayerIDs
	if len(ids) > statusSyncMaxPlayers {
		ids = ids[:statusSyncMaxPlayers]
	}

	synced := 0
	for _, playerID := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			return synced, err
		}

		card, err := s.espn.GetPlayerCard(ctx, playerID)
		if err != nil {
			s.logger.WithError(err).WithField("player_id", playerID).Warn("Player card fetch failed")
			continue
		}

		snap := &models.PlayerStatusSnapshot{
			PlayerID:     card.Player.PlayerID,
			PlayerName:   card.Player.PlayerName,
			ProTeamID:    card.Player.ProTeamID,
			Injured:      card.Injured,
			OutForSeason: card.Player.InjuryStatus == models.InjuryIR,
			Droppable:    card.Droppable,
			Source:       "ESPN",
			LastSyncedAt: s.now().UTC(),
		}
		if card.Player.InjuryStatus != "" && card.Player.InjuryStatus != models.InjuryActive {
			status := card.Player.InjuryStatus
			snap.InjuryStatus = &status
		}
		if teamID, ok := teamByPlayer[playerID]; ok {
			snap.FantasyTeamID = &teamID
		}

		if err := s.store.Upsert(ctx, snap); err != nil {
			s.logger.WithError(err).WithField("player_id", playerID).Warn("Status upsert failed")
			continue
		}
		synced++
	}

	s.logger.WithField("synced", synced).Info("Player status sync complete")
	return synced, nil
}
