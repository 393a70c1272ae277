package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "grallix"

// DiscordTokenKey is the keyring entry holding the bot token.
const DiscordTokenKey = "discord-token"

// DiscordTokenEnv overrides the keyring entry when set.
const DiscordTokenEnv = "DISCORD_TOKEN"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/grallix/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("grallix-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "Grallix " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// DiscordToken returns the bot token from the environment, falling back
// to the keyring.
func DiscordToken() (string, error) {
	if tok := strings.TrimSpace(os.Getenv(DiscordTokenEnv)); tok != "" {
		return tok, nil
	}
	tok, err := Get(DiscordTokenKey)
	if err != nil {
		return "", fmt.Errorf("no %s set and %w", DiscordTokenEnv, err)
	}
	if tok == "" {
		return "", fmt.Errorf("stored discord token is empty")
	}
	return tok, nil
}
