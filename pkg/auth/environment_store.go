package auth

import (
	"os"
	"time"
)

// envNames maps a vendor to its API key and identity variables
var envNames = map[Vendor][2]string{
	VendorOctopus:  {"OCTOPUS_API_KEY", "OCTOPUS_ACCOUNT_NUMBER"},
	VendorMyenergi: {"MYENERGI_API_KEY", "MYENERGI_HUB_SERIAL_NUMBER"},
}

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the credential from environment variables
func (e *EnvironmentStore) Retrieve(vendor Vendor) (*Credential, error) {
	names, ok := envNames[vendor]
	if !ok {
		return nil, ErrInvalidCredentials
	}

	apiKey := os.Getenv(names[0])
	if apiKey == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credential{
		Vendor:       vendor,
		APIKey:       apiKey,
		Identity:     os.Getenv(names[1]),
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(vendor Vendor) error {
	return ErrStoreUnavailable
}

// Exists checks if the API key variable is set
func (e *EnvironmentStore) Exists(vendor Vendor) bool {
	names, ok := envNames[vendor]
	return ok && os.Getenv(names[0]) != ""
}
