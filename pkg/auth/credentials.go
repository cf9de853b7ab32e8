package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"energystats/pkg/config"
)

// Vendor names a data provider whose API key can be stored
type Vendor string

const (
	VendorOctopus  Vendor = "octopus"
	VendorMyenergi Vendor = "myenergi"
)

// Vendors lists every supported vendor
var Vendors = []Vendor{VendorOctopus, VendorMyenergi}

// ParseVendor validates a vendor name
func ParseVendor(name string) (Vendor, error) {
	v := Vendor(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Vendors {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vendor %q (expected octopus or myenergi)", name)
}

// Credential is an API key for one vendor. Identity is the account number
// for Octopus and the hub serial number for myenergi; it may be empty.
type Credential struct {
	Vendor       Vendor    `json:"vendor"`
	APIKey       string    `json:"api_key"`
	Identity     string    `json:"identity,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves the credential for its vendor
	Store(cred *Credential) error

	// Retrieve gets the credential for a vendor
	Retrieve(vendor Vendor) (*Credential, error)

	// Delete removes the credential for a vendor
	Delete(vendor Vendor) error

	// Exists checks if a credential exists for a vendor
	Exists(vendor Vendor) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager consulting stores in order
func NewManager(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// NewDefaultManager reads from the environment, the system keyring and the
// encrypted credentials file, in that order. Writes go to the keyring, or to
// the file when no keyring is available.
func NewDefaultManager() *Manager {
	stores := []CredentialStore{NewEnvironmentStore(), NewKeyringStore()}
	if path, err := DefaultCredentialsPath(); err == nil {
		stores = append(stores, NewEncryptedFileStore(path))
	}
	return NewManager(stores...)
}

// Store saves the credential in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Vendor == "" {
		return errors.New("vendor is required")
	}
	if cred.APIKey == "" {
		return errors.New("API key is required")
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(vendor Vendor) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(vendor); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrCredentialsNotFound, vendor)
}

// Delete removes the credential from every store holding it
func (m *Manager) Delete(vendor Vendor) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete(vendor)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w for %s", ErrCredentialsNotFound, vendor)
}

// FillConfig sets any API key or identity missing from cfg from the stored
// credentials. Missing credentials are left for validation to report.
func (m *Manager) FillConfig(cfg *config.Config) {
	if cfg.Octopus.APIKey == "" || cfg.Octopus.AccountNumber == "" {
		if cred, err := m.Retrieve(VendorOctopus); err == nil {
			if cfg.Octopus.APIKey == "" {
				cfg.Octopus.APIKey = cred.APIKey
			}
			if cfg.Octopus.AccountNumber == "" && cfg.Octopus.MPAN == "" {
				cfg.Octopus.AccountNumber = cred.Identity
			}
		}
	}
	if cfg.Myenergi.APIKey == "" || cfg.Myenergi.HubSerialNumber == "" {
		if cred, err := m.Retrieve(VendorMyenergi); err == nil {
			if cfg.Myenergi.APIKey == "" {
				cfg.Myenergi.APIKey = cred.APIKey
			}
			if cfg.Myenergi.HubSerialNumber == "" {
				cfg.Myenergi.HubSerialNumber = cred.Identity
			}
		}
	}
}

// SanitizeCredential creates a copy of the credential with the key masked
func SanitizeCredential(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}
	masked := *cred
	masked.APIKey = maskString(cred.APIKey)
	return &masked
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
