package storage

import "time"

// TrackedPlayer identifies a player to poll. The set of tracked
// players is loaded from the players file at the start of each cycle.
type TrackedPlayer struct {
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// RiotID returns the canonical GameName#TagLine form.
func (p TrackedPlayer) RiotID() string {
	return p.GameName + "#" + p.TagLine
}

// Summoner is a cached player identity resolution. Entries are
// immutable once written; a player who changes their Riot ID upstream
// resolves fresh under the new name.
type Summoner struct {
	GameName   string
	TagLine    string
	PUUID      string
	SummonerID string
	CreatedAt  time.Time
}

// GameRecord is the dedup bookkeeping row for one tracked player in
// one match. Created at most once per (puuid, game id); MessageID is
// set after the live alert publishes, ThreadID when the post-game
// thread is created, and PostGameSent flips true exactly once when
// the follow-up publishes.
type GameRecord struct {
	PUUID        string
	GameID       string
	Champion     string
	QueueName    string
	MessageID    string
	ThreadID     string
	PostGameSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
