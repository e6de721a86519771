package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "eodmsdds"
	keyringPrefix  = "eodms_"
	accountIndex   = "eodms_accounts"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	err := keyring.Set(keyringService, testKey, "test")
	if err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	key := keyringPrefix + account.Username
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	k.addToIndex(account.Username)

	return nil
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	key := keyringPrefix + username
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// List returns all accounts recorded in the keyring index
func (k *KeyringStore) List() ([]*Account, error) {
	usernames := k.readIndex()

	var accounts []*Account
	for _, username := range usernames {
		if account, err := k.Retrieve(username); err == nil {
			accounts = append(accounts, account)
		}
	}

	return accounts, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	key := keyringPrefix + username
	if err := keyring.Delete(keyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	k.removeFromIndex(username)

	return nil
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(username string) bool {
	_, err := k.Retrieve(username)
	return err == nil
}

// The keyring has no enumeration API, so an index entry tracks stored usernames.

func (k *KeyringStore) readIndex() []string {
	data, err := keyring.Get(keyringService, accountIndex)
	if err != nil || data == "" {
		return nil
	}
	return strings.Split(data, ",")
}

func (k *KeyringStore) addToIndex(username string) {
	usernames := k.readIndex()
	for _, u := range usernames {
		if u == username {
			return
		}
	}
	usernames = append(usernames, username)
	_ = keyring.Set(keyringService, accountIndex, strings.Join(usernames, ","))
}

func (k *KeyringStore) removeFromIndex(username string) {
	usernames := k.readIndex()
	var kept []string
	for _, u := range usernames {
		if u != username {
			kept = append(kept, u)
		}
	}
	if len(kept) == 0 {
		_ = keyring.Delete(keyringService, accountIndex)
		return
	}
	_ = keyring.Set(keyringService, accountIndex, strings.Join(kept, ","))
}
