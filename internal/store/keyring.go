package store

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const (
	serviceName = "mailmirror"
	tokenUser   = "session"
)

// KeyringTokenStore persists the session token pair in the OS keyring
// (macOS Keychain, Windows Credential Manager, or Linux Secret Service)
// so the session survives restarts without touching the mirror database.
type KeyringTokenStore struct{}

// NewKeyringTokenStore returns a new KeyringTokenStore.
func NewKeyringTokenStore() *KeyringTokenStore {
	return &KeyringTokenStore{}
}

// Save stores the token pair in the OS keyring.
func (k *KeyringTokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := keyring.Set(serviceName, tokenUser, string(data)); err != nil {
		return fmt.Errorf("failed to save token to keyring: %w", err)
	}
	return nil
}

// Load retrieves the token pair from the OS keyring.
func (k *KeyringTokenStore) Load() (*oauth2.Token, error) {
	data, err := keyring.Get(serviceName, tokenUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load token from keyring: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// Delete removes the token pair from the OS keyring.
func (k *KeyringTokenStore) Delete() error {
	if err := keyring.Delete(serviceName, tokenUser); err != nil {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}
