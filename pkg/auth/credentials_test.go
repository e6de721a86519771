package auth

import (
	"errors"
	"testing"
	"time"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, _ := NewMockManager()

	account := &Account{
		Username: "alice",
		Password: "s3cret",
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	retrieved, err := manager.Retrieve("alice")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if retrieved.Username != "alice" || retrieved.Password != "s3cret" {
		t.Errorf("Retrieved account mismatch: %+v", retrieved)
	}
	if retrieved.LastModified.IsZero() {
		t.Error("Expected LastModified to be set")
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{Password: "x"}); err == nil {
		t.Error("Expected error for missing username")
	}
	if err := manager.Store(&Account{Username: "bob"}); err == nil {
		t.Error("Expected error for missing password")
	}
}

func TestManagerRetrieveNotFound(t *testing.T) {
	manager, _ := NewMockManager()

	if _, err := manager.Retrieve("ghost"); err == nil {
		t.Error("Expected error for unknown account")
	}
}

func TestManagerFallbackStores(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = errors.New("store down")
	failing.RetrieveError = errors.New("store down")

	working := NewMockStore()

	manager := NewMockManagerWithStores(failing, working)

	account := &Account{Username: "carol", Password: "pw"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Expected fallback store to accept credentials: %v", err)
	}

	retrieved, err := manager.Retrieve("carol")
	if err != nil {
		t.Fatalf("Expected fallback retrieve to succeed: %v", err)
	}
	if retrieved.Username != "carol" {
		t.Errorf("Unexpected account: %+v", retrieved)
	}
}

func TestManagerListMostRecent(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()

	_ = older.Store(&Account{Username: "dave", Password: "old", LastModified: time.Now().Add(-time.Hour)})
	_ = newer.Store(&Account{Username: "dave", Password: "new", LastModified: time.Now()})

	manager := NewMockManagerWithStores(older, newer)

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Password != "new" {
		t.Errorf("Expected most recently modified account, got password %q", accounts[0].Password)
	}
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()

	_ = manager.Store(&Account{Username: "erin", Password: "pw"})
	if err := manager.Delete("erin"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists("erin") {
		t.Error("Expected account to be removed")
	}
	if err := manager.Delete("erin"); err == nil {
		t.Error("Expected error deleting missing account")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("EODMS_USER", "frank")
	t.Setenv("EODMS_PASSWORD", "hunter2")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if account.Username != "frank" || account.Password != "hunter2" {
		t.Errorf("Unexpected account: %+v", account)
	}

	// Named lookup must match the environment account
	if _, err := store.Retrieve("frank"); err != nil {
		t.Errorf("Expected named retrieve to succeed: %v", err)
	}
	if _, err := store.Retrieve("other"); err == nil {
		t.Error("Expected named retrieve for other user to fail")
	}

	if err := store.Store(&Account{Username: "x", Password: "y"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestEnvironmentStoreMissing(t *testing.T) {
	t.Setenv("EODMS_USER", "")
	t.Setenv("EODMS_PASSWORD", "")

	store := NewEnvironmentStore()
	if _, err := store.Retrieve(""); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, vaultKeySize)
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte(`{"user":"alice"}`)
	ciphertext, err := encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	decrypted, err := decrypt(ciphertext, key)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("Round trip mismatch: %q", decrypted)
	}

	// Wrong key must fail
	key[0] ^= 0xff
	if _, err := decrypt(ciphertext, key); err == nil {
		t.Error("Expected decryption failure with wrong key")
	}
}
