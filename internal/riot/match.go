package riot

import (
	"context"
	"fmt"
	"strings"
)

// Match represents match data from the Match-V5 API
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

// MatchMetadata contains match metadata
type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

// MatchInfo contains detailed match information
type MatchInfo struct {
	GameDuration     int64         `json:"gameDuration"` // in seconds
	GameVersion      string        `json:"gameVersion"`
	QueueID          int           `json:"queueId"`
	GameCreation     int64         `json:"gameCreation"`     // Unix timestamp in ms
	GameEndTimestamp int64         `json:"gameEndTimestamp"` // Unix timestamp in ms
	Participants     []Participant `json:"participants"`
}

// Participant represents a player in a completed match
type Participant struct {
	PUUID          string `json:"puuid"`
	RiotIdGameName string `json:"riotIdGameName"`
	RiotIdTagline  string `json:"riotIdTagline"`
	ChampionName   string `json:"championName"`
	ChampionID     int    `json:"championId"`
	ChampLevel     int    `json:"champLevel"`
	TeamPosition   string `json:"teamPosition"`
	TeamID         int    `json:"teamId"`
	Win            bool   `json:"win"`
	Kills          int    `json:"kills"`
	Deaths         int    `json:"deaths"`
	Assists        int    `json:"assists"`
	DoubleKills    int    `json:"doubleKills"`
	TripleKills    int    `json:"tripleKills"`
	QuadraKills    int    `json:"quadraKills"`
	PentaKills     int    `json:"pentaKills"`
}

// GetMatchIDs retrieves recent match IDs for a player, most recent first
func (c *Client) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	if count <= 0 {
		count = 1
	}
	if count > 100 {
		count = 100
	}

	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d",
		c.regionalBaseURL, puuid, count)

	var matchIDs []string
	if err := c.get(ctx, endpoint, &matchIDs); err != nil {
		return nil, fmt.Errorf("failed to get match IDs: %w", err)
	}

	return matchIDs, nil
}

// GetMatch retrieves detailed match information
func (c *Client) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalBaseURL, matchID)

	var match Match
	if err := c.get(ctx, endpoint, &match); err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return &match, nil
}

// GameID returns the numeric portion of a match id. Match ids are
// formatted as PLATFORM_GAMEID (e.g. "NA1_555"); spectator game ids
// carry only the numeric part.
func GameID(matchID string) string {
	if i := strings.IndexByte(matchID, '_'); i >= 0 {
		return matchID[i+1:]
	}
	return matchID
}

// FindParticipant finds a participant in the match by PUUID
func (m *Match) FindParticipant(puuid string) *Participant {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}
