package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/Issier/lad-watch/internal/riot"
	"github.com/Issier/lad-watch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned Riot API responses keyed by player.
type fakeSource struct {
	mu sync.Mutex

	accounts    map[string]*riot.Account     // keyed by GameName
	activeGames map[string]*riot.CurrentGame // keyed by PUUID
	activeErrs  map[string]error             // keyed by PUUID
	ranks       map[string]*riot.LeagueEntry // keyed by PUUID
	rankErr     error
	matchIDs    map[string][]string          // keyed by PUUID
	matches     map[string]*riot.Match       // keyed by match id

	matchFetches []string
}

func (f *fakeSource) GetAccountByRiotID(_ context.Context, gameName, _ string) (*riot.Account, error) {
	if acc, ok := f.accounts[gameName]; ok {
		return acc, nil
	}
	return nil, riot.ErrNotFound
}

func (f *fakeSource) GetSummonerByPUUID(_ context.Context, puuid string) (*riot.Summoner, error) {
	return &riot.Summoner{ID: "summ-" + puuid, PUUID: puuid}, nil
}

func (f *fakeSource) GetActiveGame(_ context.Context, puuid string) (*riot.CurrentGame, error) {
	if err, ok := f.activeErrs[puuid]; ok {
		return nil, err
	}
	if game, ok := f.activeGames[puuid]; ok {
		return game, nil
	}
	return nil, riot.ErrNotFound
}

func (f *fakeSource) GetSoloQueueEntry(_ context.Context, puuid string) (*riot.LeagueEntry, error) {
	if f.rankErr != nil {
		return nil, f.rankErr
	}
	return f.ranks[puuid], nil
}

func (f *fakeSource) GetMatchIDs(_ context.Context, puuid string, _ int) ([]string, error) {
	return f.matchIDs[puuid], nil
}

func (f *fakeSource) GetMatch(_ context.Context, matchID string) (*riot.Match, error) {
	f.mu.Lock()
	f.matchFetches = append(f.matchFetches, matchID)
	f.mu.Unlock()
	if match, ok := f.matches[matchID]; ok {
		return match, nil
	}
	return nil, riot.ErrNotFound
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	summoners map[string]*storage.Summoner  // keyed by GameName#TagLine
	records   map[string]*storage.GameRecord // keyed by puuid/gameID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		summoners: make(map[string]*storage.Summoner),
		records:   make(map[string]*storage.GameRecord),
	}
}

func recordKey(puuid, gameID string) string { return puuid + "/" + gameID }

func (f *fakeStore) GetSummoner(_ context.Context, gameName, tagLine string) (*storage.Summoner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.summoners[gameName+"#"+tagLine]; ok {
		return s, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) CreateSummoner(_ context.Context, s *storage.Summoner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := s.GameName + "#" + s.TagLine
	if _, ok := f.summoners[key]; !ok {
		f.summoners[key] = s
	}
	return nil
}

func (f *fakeStore) CreateGameRecordIfAbsent(_ context.Context, rec *storage.GameRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := recordKey(rec.PUUID, rec.GameID)
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	clone := *rec
	f.records[key] = &clone
	return true, nil
}

func (f *fakeStore) GetOpenGameRecords(_ context.Context) ([]*storage.GameRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var open []*storage.GameRecord
	for _, rec := range f.records {
		if !rec.PostGameSent {
			clone := *rec
			open = append(open, &clone)
		}
	}
	return open, nil
}

func (f *fakeStore) SetGameRecordMessage(_ context.Context, puuid, gameID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[recordKey(puuid, gameID)]; ok {
		rec.MessageID = messageID
	}
	return nil
}

func (f *fakeStore) SetGameRecordThread(_ context.Context, puuid, gameID, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[recordKey(puuid, gameID)]; ok {
		rec.ThreadID = threadID
	}
	return nil
}

func (f *fakeStore) MarkPostGameSent(_ context.Context, puuid, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[recordKey(puuid, gameID)]; ok {
		rec.PostGameSent = true
	}
	return nil
}

func (f *fakeStore) record(puuid, gameID string) *storage.GameRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[recordKey(puuid, gameID)]
}

// fakePublisher records every publish.
type fakePublisher struct {
	mu sync.Mutex

	liveErr error

	liveAlerts  [][]LiveAlert
	threads     map[string]string // messageID -> threadID
	threadPosts map[string][]PostGameUpdate
	standalone  []PostGameUpdate
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		threads:     make(map[string]string),
		threadPosts: make(map[string][]PostGameUpdate),
	}
}

func (f *fakePublisher) PublishLiveAlert(_ context.Context, alerts []LiveAlert) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.liveErr != nil {
		return "", f.liveErr
	}
	f.liveAlerts = append(f.liveAlerts, alerts)
	return fmt.Sprintf("msg-%d", len(f.liveAlerts)), nil
}

func (f *fakePublisher) EnsureThread(_ context.Context, messageID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if threadID, ok := f.threads[messageID]; ok {
		return threadID, nil
	}
	threadID := "thread-" + messageID
	f.threads[messageID] = threadID
	return threadID, nil
}

func (f *fakePublisher) PublishPostGame(_ context.Context, threadID string, update PostGameUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadPosts[threadID] = append(f.threadPosts[threadID], update)
	return nil
}

func (f *fakePublisher) PublishStandalone(_ context.Context, update PostGameUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.standalone = append(f.standalone, update)
	return nil
}

func (f *fakePublisher) totalLivePublishes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.liveAlerts)
}

var testChampions = func() *riot.ChampionIndex {
	index, err := riot.ParseChampionIndex([]byte(`{"data":{
		"Annie": {"key": "1", "name": "Annie"},
		"Olaf": {"key": "2", "name": "Olaf"}
	}}`))
	if err != nil {
		panic(err)
	}
	return index
}()

func testLogger() *slog.Logger {
	return slog.Default()
}

func newTestTracker(source *fakeSource, store *fakeStore, publisher *fakePublisher) *Tracker {
	return New(source, store, publisher, testChampions, 4)
}

func seedSummoner(store *fakeStore, gameName, tagLine, puuid string) {
	store.summoners[gameName+"#"+tagLine] = &storage.Summoner{
		GameName: gameName, TagLine: tagLine, PUUID: puuid, SummonerID: "summ-" + puuid,
	}
}

func liveGameFixture(gameID int64, participants ...riot.CurrentGameParticipant) *riot.CurrentGame {
	return &riot.CurrentGame{
		GameID:            gameID,
		GameQueueConfigID: 420,
		GameLength:        600,
		Participants:      participants,
	}
}

func TestLiveCheckAnnouncesNewGame(t *testing.T) {
	source := &fakeSource{
		activeGames: map[string]*riot.CurrentGame{
			"puuid-ada": liveGameFixture(555, riot.CurrentGameParticipant{PUUID: "puuid-ada", ChampionID: 1}),
		},
	}
	store := newFakeStore()
	seedSummoner(store, "Ada", "NA1", "puuid-ada")
	seedSummoner(store, "Grace", "NA1", "puuid-grace")
	publisher := newFakePublisher()
	trk := newTestTracker(source, store, publisher)

	players := []storage.TrackedPlayer{
		{GameName: "Ada", TagLine: "NA1"},
		{GameName: "Grace", TagLine: "NA1"},
	}
	created := trk.RunLiveCheck(context.Background(), testLogger(), players)

	require.Len(t, created, 1)
	assert.Equal(t, "puuid-ada", created[0].PUUID)
	assert.Equal(t, "555", created[0].GameID)
	assert.Equal(t, "Annie", created[0].Champion)

	require.Equal(t, 1, publisher.totalLivePublishes())
	require.Len(t, publisher.liveAlerts[0], 1)
	assert.Equal(t, "Ada", publisher.liveAlerts[0][0].SummonerName)

	// Grace was not in a game: no record for her
	assert.Nil(t, store.record("puuid-grace", "555"))

	// Message handle stored after publish
	rec := store.record("puuid-ada", "555")
	require.NotNil(t, rec)
	assert.Equal(t, "msg-1", rec.MessageID)
	assert.False(t, rec.PostGameSent)
}

func TestLiveCheckDoesNotDuplicateAlerts(t *testing.T) {
	source := &fakeSource{
		activeGames: map[string]*riot.CurrentGame{
			"puuid-ada": liveGameFixture(555, riot.CurrentGameParticipant{PUUID: "puuid-ada", ChampionID: 1}),
		},
	}
	store := newFakeStore()
	seedSummoner(store, "Ada", "NA1", "puuid-ada")
	publisher := newFakePublisher()
	trk := newTestTracker(source, store, publisher)

	players := []storage.TrackedPlayer{{GameName: "Ada", TagLine: "NA1"}}

	first := trk.RunLiveCheck(context.Background(), testLogger(), players)
	second := trk.RunLiveCheck(context.Background(), testLogger(), players)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Equal(t, 1, publisher.totalLivePublishes())
}

func TestLiveCheckBatchesSharedGame(t *testing.T) {
	game := liveGameFixture(777,
		riot.CurrentGameParticipant{PUUID: "puuid-ada", ChampionID: 1},
		riot.CurrentGameParticipant{PUUID: "puuid-grace", ChampionID: 2},
	)
	source := &fakeSource{
		activeGames: map[string]*riot.CurrentGame{
			"puuid-ada":   game,
			"puuid-grace": game,
		},
	}
	store := newFakeStore()
	seedSummoner(store, "Ada", "NA1", "puuid-ada")
	seedSummoner(store, "Grace", "NA1", "puuid-grace")
	publisher := newFakePublisher()
	trk := newTestTracker(source, store, publisher)

	created := trk.RunLiveCheck(context.Background(), testLogger(), []storage.TrackedPlayer{
		{GameName: "Ada", TagLine: "NA1"},
		{GameName: "Grace", TagLine: "NA1"},
	})

	// Two records, one publish containing both embeds
	require.Len(t, created, 2)
	require.Equal(t, 1, publisher.totalLivePublishes())
	assert.Len(t, publisher.liveAlerts[0], 2)
	assert.NotNil(t, store.record("puuid-ada", "777"))
	assert.NotNil(t, store.record("puuid-grace", "777"))
}

func TestLiveCheckIsolatesPlayerFailures(t *testing.T) {
	source := &fakeSource{
		activeGames: map[string]*riot.CurrentGame{
			"puuid-grace": liveGameFixture(888, riot.CurrentGameParticipant{PUUID: "puuid-grace", ChampionID: 2}),
		},
		activeErrs: map[string]error{
			"puuid-ada": &riot.APIError{StatusCode: 500, Body: "server error"},
		},
	}
	store := newFakeStore()
	seedSummoner(store, "Ada", "NA1", "puuid-ada")
	seedSummoner(store, "Grace", "NA1", "puuid-grace")
	publisher := newFakePublisher()
	trk := newTestTracker(source, store, publisher)

	created := trk.RunLiveCheck(context.Background(), testLogger(), []storage.TrackedPlayer{
		{GameName: "Ada", TagLine: "NA1"},
		{GameName: "Grace", TagLine: "NA1"},
	})

	require.Len(t, created, 1)
	assert.Equal(t, "puuid-grace", created[0].PUUID)
	assert.Equal(t, 1, publisher.totalLivePublishes())
}

func TestLiveCheckPublishFailureLeavesRecordWithoutHandle(t *testing.T) {
	source := &fakeSource{
		activeGames: map[string]*riot.CurrentGame{
			"puuid-ada": liveGameFixture(555, riot.CurrentGameParticipant{PUUID: "puuid-ada", ChampionID: 1}),
		},
	}
	store := newFakeStore()
	seedSummoner(store, "Ada", "NA1", "puuid-ada")
	publisher := newFakePublisher()
	publisher.liveErr = errors.New("discord down")
	trk := newTestTracker(source, store, publisher)

	created := trk.RunLiveCheck(context.Background(), testLogger(), []storage.TrackedPlayer{{GameName: "Ada", TagLine: "NA1"}})

	// Record exists so the game is not re-alerted, but it has no handle
	require.Len(t, created, 1)
	rec := store.record("puuid-ada", "555")
	require.NotNil(t, rec)
	assert.Empty(t, rec.MessageID)
}

func TestLiveCheckResolvesIdentityThroughCache(t *testing.T) {
	source := &fakeSource{
		accounts: map[string]*riot.Account{
			"Ada": {PUUID: "puuid-ada", GameName: "Ada", TagLine: "NA1"},
		},
		activeGames: map[string]*riot.CurrentGame{
			"puuid-ada": liveGameFixture(555, riot.CurrentGameParticipant{PUUID: "puuid-ada", ChampionID: 1}),
		},
	}
	store := newFakeStore()
	publisher := newFakePublisher()
	trk := newTestTracker(source, store, publisher)

	created := trk.RunLiveCheck(context.Background(), testLogger(), []storage.TrackedPlayer{{GameName: "Ada", TagLine: "NA1"}})

	require.Len(t, created, 1)

	// Resolution was written through to the cache
	cached, err := store.GetSummoner(context.Background(), "Ada", "NA1")
	require.NoError(t, err)
	assert.Equal(t, "puuid-ada", cached.PUUID)
	assert.Equal(t, "summ-puuid-ada", cached.SummonerID)
}

func TestLiveCheckRankFailureDegradesToUnranked(t *testing.T) {
	source := &fakeSource{
		activeGames: map[string]*riot.CurrentGame{
			"puuid-ada": liveGameFixture(555, riot.CurrentGameParticipant{PUUID: "puuid-ada", ChampionID: 1}),
		},
		rankErr: &riot.APIError{StatusCode: 503, Body: "league unavailable"},
	}
	store := newFakeStore()
	seedSummoner(store, "Ada", "NA1", "puuid-ada")
	publisher := newFakePublisher()
	trk := newTestTracker(source, store, publisher)

	created := trk.RunLiveCheck(context.Background(), testLogger(), []storage.TrackedPlayer{{GameName: "Ada", TagLine: "NA1"}})

	require.Len(t, created, 1)
	require.Equal(t, 1, publisher.totalLivePublishes())
	assert.Nil(t, publisher.liveAlerts[0][0].Rank)
	assert.Equal(t, "Unranked", publisher.liveAlerts[0][0].Rank.String())
}
