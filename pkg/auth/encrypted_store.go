package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 32
	keySize  = 32

	// scrypt cost parameters
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1

	// PassphraseEnv overrides the generated passphrase file
	PassphraseEnv = "ENERGYSTATS_PASSPHRASE"

	fileVersion = 1
)

// EncryptedFileStore implements CredentialStore using an AES-GCM encrypted
// file. It serves machines without a system keyring, such as servers running
// exports from cron.
type EncryptedFileStore struct {
	path           string
	passphrasePath string
	mu             sync.RWMutex
}

// encryptedFile is the on-disk layout. Data holds the nonce followed by the
// sealed JSON map of vendor to credential.
type encryptedFile struct {
	Version  int       `json:"version"`
	Salt     string    `json:"salt"`
	Data     string    `json:"data"`
	Modified time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a store at path. The passphrase comes from
// ENERGYSTATS_PASSPHRASE or, failing that, from a generated .passphrase file
// next to path. Nothing is created until the first write.
func NewEncryptedFileStore(path string) *EncryptedFileStore {
	return &EncryptedFileStore{
		path:           path,
		passphrasePath: filepath.Join(filepath.Dir(path), ".passphrase"),
	}
}

// DefaultCredentialsPath returns the credentials file under the user config directory
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "energystats", "credentials.enc"), nil
}

// Path returns the location of the credentials file
func (e *EncryptedFileStore) Path() string {
	return e.path
}

// Store saves the credential, replacing any earlier one for its vendor
func (e *EncryptedFileStore) Store(cred *Credential) error {
	if cred == nil || cred.Vendor == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	creds, err := e.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load existing credentials: %w", err)
	}
	if creds == nil {
		creds = make(map[Vendor]Credential)
	}
	creds[cred.Vendor] = *cred

	return e.save(creds)
}

// Retrieve gets the credential for a vendor
func (e *EncryptedFileStore) Retrieve(vendor Vendor) (*Credential, error) {
	if vendor == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	creds, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	cred, ok := creds[vendor]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &cred, nil
}

// Delete removes the credential for a vendor. The file is removed with the
// last credential.
func (e *EncryptedFileStore) Delete(vendor Vendor) error {
	if vendor == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	creds, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if _, ok := creds[vendor]; !ok {
		return ErrCredentialsNotFound
	}
	delete(creds, vendor)

	if len(creds) == 0 {
		return os.Remove(e.path)
	}
	return e.save(creds)
}

// Exists checks if a credential is stored for a vendor
func (e *EncryptedFileStore) Exists(vendor Vendor) bool {
	cred, err := e.Retrieve(vendor)
	return err == nil && cred != nil
}

// load reads and decrypts the credentials file. A missing file or passphrase
// wraps os.ErrNotExist.
func (e *EncryptedFileStore) load() (map[Vendor]Credential, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var file encryptedFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.path, err)
	}
	if file.Version != fileVersion {
		return nil, fmt.Errorf("unsupported credentials file version %d", file.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(file.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	passphrase, err := e.passphrase(false)
	if err != nil {
		return nil, err
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := decrypt(sealed, key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds map[Vendor]Credential
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds, nil
}

// save encrypts creds under a fresh salt and replaces the file atomically
func (e *EncryptedFileStore) save(creds map[Vendor]Credential) error {
	if err := os.MkdirAll(filepath.Dir(e.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := e.passphrase(true)
	if err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	sealed, err := encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	content, err := json.MarshalIndent(encryptedFile{
		Version:  fileVersion,
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Data:     base64.StdEncoding.EncodeToString(sealed),
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	tempFile := e.path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tempFile, e.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename credentials file: %w", err)
	}
	return nil
}

// passphrase returns the environment passphrase or the one in the passphrase
// file, generating the file when create is set
func (e *EncryptedFileStore) passphrase(create bool) (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	content, err := os.ReadFile(e.passphrasePath)
	if err == nil && len(strings.TrimSpace(string(content))) > 0 {
		return strings.TrimSpace(string(content)), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if !create {
		return "", fmt.Errorf("no passphrase found: %w", os.ErrNotExist)
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(e.passphrasePath, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// encrypt seals plaintext with AES-GCM, prefixing the random nonce
func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens data sealed by encrypt
func decrypt(sealed, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
