// Package tracker holds the notification core: the live-check phase
// that announces new matches and the post-game phase that correlates
// announced matches with their completed results. All external systems
// are reached through the narrow interfaces declared here.
package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Issier/lad-watch/internal/metrics"
	"github.com/Issier/lad-watch/internal/riot"
	"github.com/Issier/lad-watch/internal/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// MatchSource provides player identity and match data. Implemented by
// *riot.Client.
type MatchSource interface {
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.Account, error)
	GetSummonerByPUUID(ctx context.Context, puuid string) (*riot.Summoner, error)
	GetActiveGame(ctx context.Context, puuid string) (*riot.CurrentGame, error)
	GetSoloQueueEntry(ctx context.Context, puuid string) (*riot.LeagueEntry, error)
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.Match, error)
}

// Store is the durable bookkeeping required by both phases.
// Implemented by *storage.Repository.
type Store interface {
	GetSummoner(ctx context.Context, gameName, tagLine string) (*storage.Summoner, error)
	CreateSummoner(ctx context.Context, s *storage.Summoner) error
	CreateGameRecordIfAbsent(ctx context.Context, rec *storage.GameRecord) (bool, error)
	GetOpenGameRecords(ctx context.Context) ([]*storage.GameRecord, error)
	SetGameRecordMessage(ctx context.Context, puuid, gameID, messageID string) error
	SetGameRecordThread(ctx context.Context, puuid, gameID, threadID string) error
	MarkPostGameSent(ctx context.Context, puuid, gameID string) error
}

// Publisher sends notifications to the chat channel. Implemented by
// *discord.Publisher.
type Publisher interface {
	// PublishLiveAlert sends one message containing one embed per
	// alert and returns the message id used for threading.
	PublishLiveAlert(ctx context.Context, alerts []LiveAlert) (string, error)
	// EnsureThread creates a thread under the given message, or
	// returns the existing one if it was already created.
	EnsureThread(ctx context.Context, messageID, name string) (string, error)
	PublishPostGame(ctx context.Context, threadID string, update PostGameUpdate) error
	// PublishStandalone sends a post-game update as a plain channel
	// message, used when no live alert message exists to thread under.
	PublishStandalone(ctx context.Context, update PostGameUpdate) error
}

// Rank is a player's solo queue standing. A nil *Rank means unranked;
// formatting goes through the nil-safe methods rather than letting
// missing data leak into message text.
type Rank struct {
	Tier         string
	Division     string
	LeaguePoints int
	HotStreak    bool
	Wins         int
	Losses       int
}

// String renders the standing as "TIER DIVISION NNLP", or "Unranked".
func (r *Rank) String() string {
	if r == nil {
		return "Unranked"
	}
	return fmt.Sprintf("%s %s %dLP", r.Tier, r.Division, r.LeaguePoints)
}

// Color returns the embed color for the standing's tier.
func (r *Rank) Color() int {
	if r == nil {
		return riot.DefaultRankColor
	}
	return riot.RankColor(r.Tier)
}

// LiveAlert is the render payload for one tracked player's live-game
// announcement.
type LiveAlert struct {
	SummonerName string
	TagLine      string
	Champion     string
	QueueName    string
	Rank         *Rank
	GameTime     string // elapsed time, m:ss
}

// PostGameUpdate is the render payload for a completed-match follow-up.
type PostGameUpdate struct {
	SummonerName string
	Champion     string
	Win          bool
	Kills        int
	Deaths       int
	Assists      int
	ChampLevel   int
	Duration     string // m:ss
	Position     string
	GameVersion  string // major.minor
	DoubleKills  int
	TripleKills  int
	QuadraKills  int
	PentaKills   int
}

// Tracker runs the two phases of a cycle.
type Tracker struct {
	source    MatchSource
	store     Store
	publisher Publisher
	champions *riot.ChampionIndex

	maxConcurrent int
}

// New creates a Tracker. maxConcurrent bounds the per-player and
// per-record fan-out within a phase.
func New(source MatchSource, store Store, publisher Publisher, champions *riot.ChampionIndex, maxConcurrent int) *Tracker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Tracker{
		source:        source,
		store:         store,
		publisher:     publisher,
		champions:     champions,
		maxConcurrent: maxConcurrent,
	}
}

// RunCycle runs the live-check and post-game phases concurrently and
// waits for both. Per-item failures inside a phase are logged and
// isolated, so a cycle only errors when a phase cannot run at all.
func (t *Tracker) RunCycle(ctx context.Context, players []storage.TrackedPlayer) error {
	log := slog.With("cycle", uuid.NewString())
	log.Info("Beginning lad check", "players", len(players))

	timer := prometheus.NewTimer(metrics.CycleDuration)
	defer timer.ObserveDuration()
	metrics.Cycles.Inc()

	var g errgroup.Group
	g.Go(func() error {
		t.RunLiveCheck(ctx, log, players)
		return nil
	})
	g.Go(func() error {
		_, err := t.RunPostGameCheck(ctx, log)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Completed lad check")
	return nil
}
