package auth

import (
	"fmt"
	"sync"
)

// CredentialStore defines the interface for credential storage operations
// This allows us to mock the keyring in tests
type CredentialStore interface {
	Save(profile, credential string) error
	Load(profile string) (string, error)
	Delete(profile string) error
}

// keyringStore implements CredentialStore using the OS keyring
type keyringStore struct{}

var Default CredentialStore = &keyringStore{}

func (k *keyringStore) Save(profile, credential string) error {
	return SaveCredential(profile, credential)
}

func (k *keyringStore) Load(profile string) (string, error) {
	return LoadCredential(profile)
}

func (k *keyringStore) Delete(profile string) error {
	return DeleteCredential(profile)
}

// MemoryStore keeps credentials in process memory. Used by tests and by
// --no-keyring runs where nothing should outlive the process.
type MemoryStore struct {
	mu          sync.Mutex
	credentials map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{credentials: make(map[string]string)}
}

func (m *MemoryStore) Save(profile, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[profile] = credential
	return nil
}

func (m *MemoryStore) Load(profile string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	credential, exists := m.credentials[profile]
	if !exists {
		return "", fmt.Errorf("profile %s: %w", profile, ErrNotFound)
	}
	return credential, nil
}

func (m *MemoryStore) Delete(profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.credentials, profile)
	return nil
}
