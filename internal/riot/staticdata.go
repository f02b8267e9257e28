package riot

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// GetQueueName returns a human-readable queue name
func GetQueueName(queueID int) string {
	queueNames := map[int]string{
		420:  "Ranked Solo/Duo",
		440:  "Ranked Flex",
		400:  "Normal Draft",
		430:  "Normal Blind",
		450:  "ARAM",
		490:  "Quickplay",
		900:  "URF",
		1020: "One for All",
		1300: "Nexus Blitz",
		1400: "Ultimate Spellbook",
		1700: "Arena",
	}

	if name, ok := queueNames[queueID]; ok {
		return name
	}
	return "Custom Game"
}

// Rank tier to embed color. Unknown tiers fall back to white.
var rankColors = map[string]int{
	"CHALLENGER":  0xF4C874,
	"GRANDMASTER": 0xCD4545,
	"MASTER":      0x9D48E0,
	"DIAMOND":     0xB9F2FF,
	"EMERALD":     0x50C878,
	"PLATINUM":    0x0AC8B9,
	"GOLD":        0xFFD700,
	"SILVER":      0xC0C0C0,
	"BRONZE":      0xCD7F32,
	"IRON":        0x964B00,
}

// DefaultRankColor is used for unranked players and unmapped tiers.
const DefaultRankColor = 0xFFFFFF

// RankColor returns the embed color for a ranked tier.
func RankColor(tier string) int {
	if color, ok := rankColors[tier]; ok {
		return color
	}
	return DefaultRankColor
}

// ChampionIndex maps numeric champion ids to display names. It is
// built once from a Data Dragon champion.json and looked up per poll.
type ChampionIndex struct {
	byID map[int64]string
}

type championData struct {
	Data map[string]struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"data"`
}

// LoadChampionIndex reads a Data Dragon champion.json file and builds
// the id-to-name index.
func LoadChampionIndex(path string) (*ChampionIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read champion data: %w", err)
	}
	return ParseChampionIndex(data)
}

// ParseChampionIndex builds the index from raw champion.json bytes.
func ParseChampionIndex(data []byte) (*ChampionIndex, error) {
	var parsed championData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse champion data: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("champion data contains no champions")
	}

	index := &ChampionIndex{byID: make(map[int64]string, len(parsed.Data))}
	for _, champ := range parsed.Data {
		id, err := strconv.ParseInt(champ.Key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid champion key %q: %w", champ.Key, err)
		}
		index.byID[id] = champ.Name
	}
	return index, nil
}

// Name returns the champion's display name, or "Unknown" for ids not
// present in the loaded data.
func (ci *ChampionIndex) Name(championID int64) string {
	if name, ok := ci.byID[championID]; ok {
		return name
	}
	return "Unknown"
}
