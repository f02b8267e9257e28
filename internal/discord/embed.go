package discord

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Issier/lad-watch/internal/tracker"
	"github.com/bwmarrin/discordgo"
)

const (
	winColor  = 0x2ECC71
	lossColor = 0xE74C3C
)

// LiveAlertEmbed builds the embed announcing one player's live game.
func LiveAlertEmbed(alert tracker.LiveAlert) *discordgo.MessageEmbed {
	rank := alert.Rank.String()
	if alert.Rank != nil {
		rank = fmt.Sprintf("%s (%dW / %dL)", rank, alert.Rank.Wins, alert.Rank.Losses)
		if alert.Rank.HotStreak {
			rank += " \U0001F525"
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("LadWatch: %s", alert.SummonerName),
		Color:       alert.Rank.Color(),
		Description: fmt.Sprintf("Playing **%s** in %s", alert.Champion, alert.QueueName),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Current Solo Queue Rank", Value: rank, Inline: true},
			{Name: "Game Time", Value: alert.GameTime, Inline: true},
			{Name: "Live Game Pages", Value: liveGamePages(alert.SummonerName, alert.TagLine)},
		},
	}
}

// PostGameEmbed builds the embed for a completed-match follow-up.
func PostGameEmbed(update tracker.PostGameUpdate) *discordgo.MessageEmbed {
	color := lossColor
	result := "Lost"
	if update.Win {
		color = winColor
		result = "Won"
	}

	kda := fmt.Sprintf("%d/%d/%d", update.Kills, update.Deaths, update.Assists)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s a game on %s in %s\n\n", update.SummonerName, result, update.Champion, update.Duration)
	fmt.Fprintf(&b, ">>> KDA: %s\n", kda)
	fmt.Fprintf(&b, "Level at end of Game: %d\n", update.ChampLevel)
	fmt.Fprintf(&b, "Game Duration: %s\n", update.Duration)
	fmt.Fprintf(&b, "Game Version: [%s](%s)\n", update.GameVersion, patchNotesURL(update.GameVersion))
	fmt.Fprintf(&b, "Position: %s\n", update.Position)
	writeMultiKills(&b, update)

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s as %s", resultEmoji(update.Win), update.SummonerName, update.Champion),
		Color:       color,
		Description: b.String(),
	}
}

func resultEmoji(win bool) string {
	if win {
		return "\U0001F3C6" // trophy
	}
	return "\U0001F480" // skull
}

func writeMultiKills(b *strings.Builder, update tracker.PostGameUpdate) {
	kills := []struct {
		count int
		name  string
	}{
		{update.DoubleKills, "Double Kill"},
		{update.TripleKills, "Triple Kill"},
		{update.QuadraKills, "Quadra Kill"},
		{update.PentaKills, "Penta Kill"},
	}
	for _, k := range kills {
		if k.count == 0 {
			continue
		}
		plural := ""
		if k.count > 1 {
			plural = "s"
		}
		fmt.Fprintf(b, "\n⚔️ %d %s%s", k.count, k.name, plural)
	}
}

// liveGamePages links the player's live game on the usual stat sites.
func liveGamePages(gameName, tagLine string) string {
	escaped := url.PathEscape(gameName)
	return fmt.Sprintf("[u.gg](https://u.gg/lol/profile/na1/%s-%s/live-game) | [op.gg](https://www.op.gg/summoners/na/%s-%s/ingame)",
		escaped, tagLine, escaped, tagLine)
}

// patchNotesURL builds the patch notes link for a major.minor version.
func patchNotesURL(version string) string {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) < 2 {
		return "https://www.leagueoflegends.com/en-us/news/game-updates/"
	}
	return fmt.Sprintf("https://www.leagueoflegends.com/en-us/news/game-updates/patch-%s-%s-notes/", parts[0], parts[1])
}
