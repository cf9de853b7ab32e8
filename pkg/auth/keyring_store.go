package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "energystats"

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-based credential store
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

// Store saves the credential to the system keychain as JSON
func (k *KeyringStore) Store(cred *Credential) error {
	if cred == nil || cred.Vendor == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := keyring.Set(k.service, string(cred.Vendor), string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Retrieve gets the credential from the system keychain
func (k *KeyringStore) Retrieve(vendor Vendor) (*Credential, error) {
	if vendor == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(k.service, string(vendor))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// Delete removes the credential from the system keychain
func (k *KeyringStore) Delete(vendor Vendor) error {
	if vendor == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(k.service, string(vendor)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks if a credential exists in the keychain
func (k *KeyringStore) Exists(vendor Vendor) bool {
	if vendor == "" {
		return false
	}
	_, err := keyring.Get(k.service, string(vendor))
	return err == nil
}
