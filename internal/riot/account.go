package riot

import (
	"context"
	"fmt"
	"net/url"
)

// Account represents a Riot account from the Account-V1 API
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// Summoner represents a summoner from the Summoner-V4 API
type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	SummonerLevel int    `json:"summonerLevel"`
}

// GetAccountByRiotID retrieves account information by Riot ID
// using the regionally-routed Account-V1 API
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalBaseURL, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account Account
	if err := c.get(ctx, endpoint, &account); err != nil {
		return nil, fmt.Errorf("failed to get account by Riot ID: %w", err)
	}

	return &account, nil
}

// GetSummonerByPUUID retrieves summoner information on the platform route
func (c *Client) GetSummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	endpoint := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s",
		c.platformBaseURL, puuid)

	var summoner Summoner
	if err := c.get(ctx, endpoint, &summoner); err != nil {
		return nil, fmt.Errorf("failed to get summoner by PUUID: %w", err)
	}

	return &summoner, nil
}
