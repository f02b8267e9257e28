package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Issier/lad-watch/internal/metrics"
	"github.com/Issier/lad-watch/internal/riot"
	"github.com/Issier/lad-watch/internal/storage"
	"golang.org/x/sync/errgroup"
)

// RunPostGameCheck scans records still awaiting a post-game update,
// correlates each with the player's most recent completed match, and
// publishes a threaded follow-up when they line up. Returns the
// records closed this cycle. The error is non-nil only when the open
// records cannot be loaded at all; per-record failures are logged and
// leave the record open for the next cycle.
func (t *Tracker) RunPostGameCheck(ctx context.Context, log *slog.Logger) ([]*storage.GameRecord, error) {
	records, err := t.store.GetOpenGameRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open game records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	log.Debug("Checking open games", "count", len(records))

	var (
		mu     sync.Mutex
		closed []*storage.GameRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.maxConcurrent)
	for _, rec := range records {
		g.Go(func() error {
			done, err := t.checkRecord(gctx, log, rec)
			if err != nil {
				metrics.UpstreamErrors.WithLabelValues("post_game").Inc()
				log.Error("Failed post game check", "player", rec.PUUID, "gameID", rec.GameID, "error", err)
				return nil
			}
			if done {
				mu.Lock()
				closed = append(closed, rec)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return closed, nil
}

// checkRecord resolves one open record. Reports true when the record
// was closed.
func (t *Tracker) checkRecord(ctx context.Context, log *slog.Logger, rec *storage.GameRecord) (bool, error) {
	matchIDs, err := t.source.GetMatchIDs(ctx, rec.PUUID, 1)
	if errors.Is(err, riot.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(matchIDs) == 0 {
		log.Debug("No completed games", "player", rec.PUUID)
		return false, nil
	}

	matchID := matchIDs[0]
	if riot.GameID(matchID) != rec.GameID {
		// The player finished a different, newer game first. Match
		// history only exposes the most recent games, so the tracked
		// one is treated as permanently stale rather than paged after.
		metrics.StaleRecords.Inc()
		log.Info("Most recent game is not the tracked game",
			"player", rec.PUUID, "tracked", rec.GameID, "latest", riot.GameID(matchID))
		return false, nil
	}

	match, err := t.source.GetMatch(ctx, matchID)
	if err != nil {
		return false, err
	}

	participant := match.FindParticipant(rec.PUUID)
	if participant == nil {
		return false, fmt.Errorf("player %s not found in match %s", rec.PUUID, matchID)
	}

	update := buildPostGameUpdate(match, participant)

	if err := t.publishPostGame(ctx, log, rec, update); err != nil {
		metrics.PublishErrors.Inc()
		return false, err
	}

	// The flag flips only after a successful publish; overlapping
	// cycles may both observe it false, which is the accepted
	// at-least-once window.
	if err := t.store.MarkPostGameSent(ctx, rec.PUUID, rec.GameID); err != nil {
		return false, fmt.Errorf("failed to close record: %w", err)
	}
	rec.PostGameSent = true
	metrics.PostGameUpdates.Inc()
	log.Info("Published post game update", "player", update.SummonerName, "gameID", rec.GameID, "win", update.Win)
	return true, nil
}

// publishPostGame delivers the update into the alert's thread,
// creating the thread on first use. Records whose live alert never
// published have no message to thread under; those updates go out as
// standalone channel messages instead of being skipped.
func (t *Tracker) publishPostGame(ctx context.Context, log *slog.Logger, rec *storage.GameRecord, update PostGameUpdate) error {
	if rec.MessageID == "" {
		log.Warn("No live alert message for game, sending standalone update",
			"player", update.SummonerName, "gameID", rec.GameID)
		return t.publisher.PublishStandalone(ctx, update)
	}

	threadID := rec.ThreadID
	if threadID == "" {
		var err error
		threadID, err = t.publisher.EnsureThread(ctx, rec.MessageID, threadName(update))
		if err != nil {
			return fmt.Errorf("failed to create thread: %w", err)
		}
		if err := t.store.SetGameRecordThread(ctx, rec.PUUID, rec.GameID, threadID); err != nil {
			// The thread exists; worst case the next attempt resolves
			// it again through EnsureThread.
			log.Error("Failed to store thread id", "player", rec.PUUID, "gameID", rec.GameID, "error", err)
		}
		rec.ThreadID = threadID
	}

	return t.publisher.PublishPostGame(ctx, threadID, update)
}

func buildPostGameUpdate(match *riot.Match, p *riot.Participant) PostGameUpdate {
	return PostGameUpdate{
		SummonerName: p.RiotIdGameName,
		Champion:     p.ChampionName,
		Win:          p.Win,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
		Assists:      p.Assists,
		ChampLevel:   p.ChampLevel,
		Duration:     formatDuration(match.Info.GameDuration),
		Position:     formatPosition(p.TeamPosition),
		GameVersion:  majorMinorVersion(match.Info.GameVersion),
		DoubleKills:  p.DoubleKills,
		TripleKills:  p.TripleKills,
		QuadraKills:  p.QuadraKills,
		PentaKills:   p.PentaKills,
	}
}

func threadName(update PostGameUpdate) string {
	emoji := "\U0001F480" // skull
	if update.Win {
		emoji = "\U0001F3C6" // trophy
	}
	return fmt.Sprintf("%s %s as %s", emoji, update.SummonerName, update.Champion)
}

// formatPosition turns Riot's SCREAMING position into title case.
func formatPosition(position string) string {
	if position == "" {
		return "Unknown"
	}
	return strings.ToUpper(position[:1]) + strings.ToLower(position[1:])
}

// majorMinorVersion reduces a full game version like "14.23.572.1234"
// to "14.23".
func majorMinorVersion(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
