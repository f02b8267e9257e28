package riot

import (
	"context"
	"errors"
	"fmt"
)

// CurrentGame represents a live game from the Spectator-V5 API
type CurrentGame struct {
	GameID            int64                    `json:"gameId"`
	GameQueueConfigID int                      `json:"gameQueueConfigId"`
	GameStartTime     int64                    `json:"gameStartTime"` // Unix timestamp in ms
	GameLength        int64                    `json:"gameLength"`    // in seconds
	Participants      []CurrentGameParticipant `json:"participants"`
}

// CurrentGameParticipant is a player in a live game
type CurrentGameParticipant struct {
	PUUID      string `json:"puuid"`
	ChampionID int64  `json:"championId"`
	TeamID     int64  `json:"teamId"`
	RiotID     string `json:"riotId"`
}

// GetActiveGame retrieves the live game a player is currently in.
// Returns ErrNotFound when the player is not in a game.
func (c *Client) GetActiveGame(ctx context.Context, puuid string) (*CurrentGame, error) {
	endpoint := fmt.Sprintf("%s/lol/spectator/v5/active-games/by-summoner/%s",
		c.platformBaseURL, puuid)

	var game CurrentGame
	if err := c.get(ctx, endpoint, &game); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active game: %w", err)
	}

	return &game, nil
}

// FindParticipant finds a live-game participant by PUUID
func (g *CurrentGame) FindParticipant(puuid string) *CurrentGameParticipant {
	for i := range g.Participants {
		if g.Participants[i].PUUID == puuid {
			return &g.Participants[i]
		}
	}
	return nil
}
