// Package credentials provides secure storage for the extraction API key.
// The key is encrypted at rest in ~/.entitime/credentials.yaml; the
// encryption key lives in the system keyring (macOS Keychain, Windows
// Credential Manager, Linux Secret Service).
//
// For CI and headless environments, set ENTITIME_ENCRYPTION_KEY to a
// 64-character hex string (32 bytes), or use a passphrase-derived key.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "entitime"
	// keyringUser is the account name used in the system keyring.
	keyringUser = "encryption-key"
	// keyLength is the encryption key length (256 bits for AES-256).
	keyLength = 32

	// EncryptionKeyEnv overrides the keyring for CI environments.
	EncryptionKeyEnv = "ENTITIME_ENCRYPTION_KEY"
)

// Argon2id parameters for passphrase-based key derivation.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
)

// ErrKeyringUnavailable indicates the system keyring is not available.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// KeyProvider is a source for the 32-byte encryption key.
type KeyProvider interface {
	// GetKey returns the encryption key, generating and storing a new one
	// if none exists.
	GetKey() ([]byte, error)

	// Description returns a human-readable description of the key storage
	// mechanism.
	Description() string
}

// KeyringKeyProvider stores the encryption key in the system keyring.
type KeyringKeyProvider struct {
	mu sync.Mutex
}

// NewKeyringKeyProvider creates a new KeyringKeyProvider.
func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{}
}

// GetKey retrieves the encryption key from the system keyring, generating
// and storing a fresh random key on first use.
func (p *KeyringKeyProvider) GetKey() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keyHex, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, decErr := hex.DecodeString(keyHex)
		if decErr == nil && len(key) == keyLength {
			return key, nil
		}
		// Invalid stored key, regenerate below.
	} else if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating encryption key: %w", err)
	}

	if err := keyring.Set(keyringService, keyringUser, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("storing encryption key: %w", err)
	}

	return key, nil
}

// Description identifies the keyring storage mechanism.
func (p *KeyringKeyProvider) Description() string {
	return "system keyring"
}

// EnvKeyProvider reads the encryption key from ENTITIME_ENCRYPTION_KEY.
type EnvKeyProvider struct{}

// GetKey decodes the key from the environment.
func (p *EnvKeyProvider) GetKey() ([]byte, error) {
	keyHex := os.Getenv(EncryptionKeyEnv)
	if keyHex == "" {
		return nil, fmt.Errorf("%s not set", EncryptionKeyEnv)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid hex: %w", EncryptionKeyEnv, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("%s must be %d hex characters (%d bytes)", EncryptionKeyEnv, keyLength*2, keyLength)
	}
	return key, nil
}

// Description identifies the environment storage mechanism.
func (p *EnvKeyProvider) Description() string {
	return "environment variable " + EncryptionKeyEnv
}

// PassphraseKeyProvider derives the encryption key from a passphrase using
// argon2id with a stored random salt. Used where no keyring exists.
type PassphraseKeyProvider struct {
	passphrase []byte
	saltPath   string
}

// NewPassphraseKeyProvider creates a provider that derives the key from
// passphrase, persisting its salt at saltPath.
func NewPassphraseKeyProvider(passphrase []byte, saltPath string) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{passphrase: passphrase, saltPath: saltPath}
}

// GetKey derives the key, creating the salt file on first use.
func (p *PassphraseKeyProvider) GetKey() ([]byte, error) {
	salt, err := os.ReadFile(p.saltPath)
	if errors.Is(err, os.ErrNotExist) {
		salt = make([]byte, 16)
		if _, randErr := rand.Read(salt); randErr != nil {
			return nil, fmt.Errorf("generating salt: %w", randErr)
		}
		if writeErr := os.WriteFile(p.saltPath, salt, 0o600); writeErr != nil {
			return nil, fmt.Errorf("writing salt: %w", writeErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("reading salt: %w", err)
	}

	return argon2.IDKey(p.passphrase, salt, argon2Time, argon2Memory, argon2Threads, keyLength), nil
}

// Description identifies the passphrase derivation mechanism.
func (p *PassphraseKeyProvider) Description() string {
	return "argon2id passphrase"
}

// DefaultKeyProvider returns the environment provider when
// ENTITIME_ENCRYPTION_KEY is set, otherwise the system keyring provider.
func DefaultKeyProvider() KeyProvider {
	if os.Getenv(EncryptionKeyEnv) != "" {
		return &EnvKeyProvider{}
	}
	return NewKeyringKeyProvider()
}
