package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Issier/lad-watch/internal/metrics"
	"github.com/Issier/lad-watch/internal/riot"
	"github.com/Issier/lad-watch/internal/storage"
	"golang.org/x/sync/errgroup"
)

// liveGame is one tracked player observed in a live match.
type liveGame struct {
	summoner *storage.Summoner
	gameID   string
	alert    LiveAlert
}

// RunLiveCheck polls every tracked player for a live match and
// announces matches not yet alerted. Players sharing a match are
// batched into a single published message with one embed each.
// Returns the records created this cycle.
func (t *Tracker) RunLiveCheck(ctx context.Context, log *slog.Logger, players []storage.TrackedPlayer) []*storage.GameRecord {
	var (
		mu    sync.Mutex
		lives []liveGame
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.maxConcurrent)
	for _, player := range players {
		g.Go(func() error {
			live, err := t.checkPlayer(gctx, log, player)
			if err != nil {
				metrics.UpstreamErrors.WithLabelValues("live_check").Inc()
				log.Error("Failed to check player", "player", player.RiotID(), "error", err)
				return nil
			}
			if live == nil {
				return nil
			}
			mu.Lock()
			lives = append(lives, *live)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// One published message per distinct match, no matter how many
	// tracked players are in it.
	byGame := make(map[string][]liveGame)
	for _, live := range lives {
		byGame[live.gameID] = append(byGame[live.gameID], live)
	}

	var created []*storage.GameRecord
	for gameID, group := range byGame {
		created = append(created, t.announceGame(ctx, log, gameID, group)...)
	}
	return created
}

// checkPlayer resolves a player's identity and fetches their live
// game. Returns nil when the player is not in a match.
func (t *Tracker) checkPlayer(ctx context.Context, log *slog.Logger, player storage.TrackedPlayer) (*liveGame, error) {
	summoner, err := t.resolveIdentity(ctx, log, player)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", player.RiotID(), err)
	}

	game, err := t.source.GetActiveGame(ctx, summoner.PUUID)
	if errors.Is(err, riot.ErrNotFound) {
		log.Debug("Not in game", "player", player.RiotID())
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live game for %s: %w", player.RiotID(), err)
	}

	// Rank is display data; a failed lookup degrades to Unranked
	// rather than losing the alert.
	rank, err := t.fetchRank(ctx, summoner.PUUID)
	if err != nil {
		log.Warn("Failed to fetch rank", "player", player.RiotID(), "error", err)
		rank = nil
	}

	champion := "Unknown"
	if participant := game.FindParticipant(summoner.PUUID); participant != nil {
		champion = t.champions.Name(participant.ChampionID)
	}

	return &liveGame{
		summoner: summoner,
		gameID:   strconv.FormatInt(game.GameID, 10),
		alert: LiveAlert{
			SummonerName: summoner.GameName,
			TagLine:      summoner.TagLine,
			Champion:     champion,
			QueueName:    riot.GetQueueName(game.GameQueueConfigID),
			Rank:         rank,
			GameTime:     elapsedGameTime(game, time.Now()),
		},
	}, nil
}

// resolveIdentity returns the player's stable identifiers, consulting
// the cache before the Riot API. Resolutions are written through to
// the cache and never refreshed afterwards.
func (t *Tracker) resolveIdentity(ctx context.Context, log *slog.Logger, player storage.TrackedPlayer) (*storage.Summoner, error) {
	cached, err := t.store.GetSummoner(ctx, player.GameName, player.TagLine)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	log.Info("Summoner not found in cache", "player", player.RiotID())

	account, err := t.source.GetAccountByRiotID(ctx, player.GameName, player.TagLine)
	if err != nil {
		return nil, err
	}
	riotSummoner, err := t.source.GetSummonerByPUUID(ctx, account.PUUID)
	if err != nil {
		return nil, err
	}

	summoner := &storage.Summoner{
		GameName:   player.GameName,
		TagLine:    player.TagLine,
		PUUID:      account.PUUID,
		SummonerID: riotSummoner.ID,
	}
	if err := t.store.CreateSummoner(ctx, summoner); err != nil {
		return nil, err
	}
	return summoner, nil
}

func (t *Tracker) fetchRank(ctx context.Context, puuid string) (*Rank, error) {
	entry, err := t.source.GetSoloQueueEntry(ctx, puuid)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	return &Rank{
		Tier:         entry.Tier,
		Division:     entry.Rank,
		LeaguePoints: entry.LeaguePoints,
		HotStreak:    entry.HotStreak,
		Wins:         entry.Wins,
		Losses:       entry.Losses,
	}, nil
}

// announceGame creates dedup records for every tracked participant of
// one match and, if any are new, publishes a single alert listing the
// new ones. The record is created first; the message id is stored only
// after the publish succeeds, so a failed publish leaves the record
// without a handle rather than unrecorded.
func (t *Tracker) announceGame(ctx context.Context, log *slog.Logger, gameID string, group []liveGame) []*storage.GameRecord {
	var (
		records []*storage.GameRecord
		alerts  []LiveAlert
	)
	for _, live := range group {
		rec := &storage.GameRecord{
			PUUID:     live.summoner.PUUID,
			GameID:    gameID,
			Champion:  live.alert.Champion,
			QueueName: live.alert.QueueName,
		}
		created, err := t.store.CreateGameRecordIfAbsent(ctx, rec)
		if err != nil {
			log.Error("Failed to record game", "player", live.summoner.GameName, "gameID", gameID, "error", err)
			continue
		}
		if !created {
			log.Debug("Already alerted", "player", live.summoner.GameName, "gameID", gameID)
			continue
		}
		records = append(records, rec)
		alerts = append(alerts, live.alert)
	}

	if len(records) == 0 {
		return nil
	}

	messageID, err := t.publisher.PublishLiveAlert(ctx, alerts)
	if err != nil {
		// Records stay without a message handle; the post-game phase
		// falls back to a standalone update for them.
		metrics.PublishErrors.Inc()
		log.Error("Failed to publish live alert", "gameID", gameID, "error", err)
		return records
	}
	metrics.LiveAlerts.Add(float64(len(records)))
	log.Info("Published live alert", "gameID", gameID, "players", len(records), "messageID", messageID)

	for _, rec := range records {
		rec.MessageID = messageID
		if err := t.store.SetGameRecordMessage(ctx, rec.PUUID, rec.GameID, messageID); err != nil {
			log.Error("Failed to store message id", "player", rec.PUUID, "gameID", gameID, "error", err)
		}
	}
	return records
}

// elapsedGameTime formats how long a live game has been running.
func elapsedGameTime(game *riot.CurrentGame, now time.Time) string {
	var elapsed time.Duration
	if game.GameStartTime > 0 {
		elapsed = now.Sub(time.UnixMilli(game.GameStartTime))
	} else {
		// Start time is zero during loading screens; fall back to the
		// reported game length.
		elapsed = time.Duration(game.GameLength) * time.Second
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return formatDuration(int64(elapsed.Seconds()))
}

func formatDuration(seconds int64) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
