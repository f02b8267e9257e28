package riot

import (
	"context"
	"fmt"
)

const soloQueue = "RANKED_SOLO_5x5"

// LeagueEntry represents a ranked standing from the League-V4 API
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	HotStreak    bool   `json:"hotStreak"`
}

// GetSoloQueueEntry retrieves a player's solo queue ranked standing.
// Returns nil with no error when the player is unranked.
func (c *Client) GetSoloQueueEntry(ctx context.Context, puuid string) (*LeagueEntry, error) {
	endpoint := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s",
		c.platformBaseURL, puuid)

	var entries []LeagueEntry
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("failed to get league entries: %w", err)
	}

	for i := range entries {
		if entries[i].QueueType == soloQueue {
			return &entries[i], nil
		}
	}
	return nil, nil
}
