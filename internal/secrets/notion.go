// Package secrets stores integration credentials in the OS keychain.
package secrets

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups hotleads secrets in the OS keychain.
	KeyringService = "hotleads"

	notionAccount = "notion:integration-token"
)

// ErrNotFound means no secret is stored.
var ErrNotFound = eris.New("secret not found")

// NotionToken returns the configured token if set, else the keychain entry.
func NotionToken(configured string) (string, error) {
	if tok := strings.TrimSpace(configured); tok != "" {
		return tok, nil
	}
	tok, err := keyring.Get(KeyringService, notionAccount)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(tok) == "") {
		return "", eris.Wrap(ErrNotFound, "secrets: notion token (set notion.token or run `hotleads notion-token set`)")
	}
	if err != nil {
		return "", eris.Wrap(err, "secrets: read keychain")
	}
	return tok, nil
}

// SetNotionToken stores token in the keychain.
func SetNotionToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return eris.New("secrets: token is empty")
	}
	return eris.Wrap(keyring.Set(KeyringService, notionAccount, strings.TrimSpace(token)), "secrets: write keychain")
}

// DeleteNotionToken removes the keychain entry. Deleting a missing entry is
// not an error.
func DeleteNotionToken() error {
	err := keyring.Delete(KeyringService, notionAccount)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return eris.Wrap(err, "secrets: delete keychain entry")
}
