// Package secrets resolves the credentials the service needs at
// startup: the Riot API token, the Discord bot token, and the channel
// to announce in. Providers are constructed once and handed to the
// rest of the wiring; nothing re-reads secrets mid-cycle.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Names of the three secrets the service resolves.
const (
	RiotToken    = "RIOT_TOKEN"
	DiscordToken = "DISCORD_TOKEN"
	ChannelID    = "CHANNEL_ID"
)

// Provider resolves a named secret to its string value.
type Provider interface {
	Get(name string) (string, error)
}

// Env resolves secrets from environment variables.
type Env struct{}

// Get returns the value of the environment variable with the given name.
func (Env) Get(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("secret %s is not set", name)
	}
	return value, nil
}

// Dir resolves secrets from files in a directory, one file per secret.
// This covers deployments where secrets are mounted as files.
type Dir struct {
	Path string
}

// Get reads the file named after the secret and returns its trimmed contents.
func (d Dir) Get(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.Path, name))
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret %s is empty", name)
	}
	return value, nil
}

// Bundle holds the resolved secrets.
type Bundle struct {
	RiotToken    string
	DiscordToken string
	ChannelID    string
}

// Resolve fetches all three secrets through the provider.
func Resolve(p Provider) (*Bundle, error) {
	riot, err := p.Get(RiotToken)
	if err != nil {
		return nil, err
	}
	discord, err := p.Get(DiscordToken)
	if err != nil {
		return nil, err
	}
	channel, err := p.Get(ChannelID)
	if err != nil {
		return nil, err
	}
	return &Bundle{RiotToken: riot, DiscordToken: discord, ChannelID: channel}, nil
}
