package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "idsession-cli"
)

// ErrNotFound is returned when no credential is stored for a profile
var ErrNotFound = errors.New("not signed in. Please run 'idsession login' first")

// getKeyringKey returns a unique key for storing refresh credentials per profile
func getKeyringKey(profile string) string {
	return fmt.Sprintf("refresh-%s", profile)
}

// SaveCredential persists the refresh credential in the OS keychain/credential manager
func SaveCredential(profile, credential string) error {
	key := getKeyringKey(profile)
	if err := keyring.Set(service, key, credential); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// LoadCredential retrieves the refresh credential from the OS keychain/credential manager
func LoadCredential(profile string) (string, error) {
	key := getKeyringKey(profile)
	credential, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return credential, nil
}

// DeleteCredential removes the refresh credential from the OS keychain/credential manager
func DeleteCredential(profile string) error {
	key := getKeyringKey(profile)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
