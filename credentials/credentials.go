package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
)

// Credential storage constants.
const (
	DefaultCredentialsDir  = ".entitime"
	DefaultCredentialsFile = "credentials.yaml"

	// APIKeyEnv overrides the stored API key for CI environments.
	APIKeyEnv = "ENTITIME_API_KEY"
)

// ErrEncryptionFailed is returned when encryption or decryption fails,
// typically because the encryption key changed.
var ErrEncryptionFailed = errors.New("encryption failed")

// storedCredentials is the on-disk credential format.
type storedCredentials struct {
	// APIKey is the AES-256-GCM encrypted extraction API key.
	APIKey string `yaml:"api_key"`
	// LastUpdated is when the credentials were last written.
	LastUpdated time.Time `yaml:"last_updated"`
}

// Store manages encrypted credential storage.
type Store struct {
	credentialsDir string
	encryptionKey  []byte
	keyProvider    KeyProvider
}

// CredentialsDir returns the credential storage directory, creating it if
// needed.
func CredentialsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, DefaultCredentialsDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

// NewStore creates a credential store using the default key provider.
func NewStore() (*Store, error) {
	return NewStoreWithProvider(DefaultKeyProvider())
}

// NewStoreWithProvider creates a credential store with an explicit key
// provider.
func NewStoreWithProvider(provider KeyProvider) (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(dir, provider)
}

// NewStoreAt creates a credential store rooted at dir. Used by tests to
// avoid touching the real home directory.
func NewStoreAt(dir string, provider KeyProvider) (*Store, error) {
	key, err := provider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key (%s): %w", provider.Description(), err)
	}

	return &Store{
		credentialsDir: dir,
		encryptionKey:  key,
		keyProvider:    provider,
	}, nil
}

// credentialsPath returns the credential file path.
func (s *Store) credentialsPath() string {
	return filepath.Join(s.credentialsDir, DefaultCredentialsFile)
}

// SetAPIKey encrypts and stores the extraction API key.
func (s *Store) SetAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key is empty: %w", eterrors.ErrInvalidInput)
	}

	encrypted, err := s.encrypt(apiKey)
	if err != nil {
		return err
	}

	creds := storedCredentials{
		APIKey:      encrypted,
		LastUpdated: time.Now().UTC(),
	}

	data, err := yaml.Marshal(&creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(s.credentialsPath(), data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// APIKey returns the stored extraction API key. The ENTITIME_API_KEY
// environment variable, when set, takes precedence over the stored value.
func (s *Store) APIKey() (string, error) {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key, nil
	}

	data, err := os.ReadFile(s.credentialsPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", eterrors.ErrNoCredentials
	}
	if err != nil {
		return "", fmt.Errorf("reading credentials: %w", err)
	}

	var creds storedCredentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parsing credentials: %w", err)
	}
	if creds.APIKey == "" {
		return "", eterrors.ErrNoCredentials
	}

	return s.decrypt(creds.APIKey)
}

// LastUpdated reports when the stored credentials were last written.
func (s *Store) LastUpdated() (time.Time, error) {
	data, err := os.ReadFile(s.credentialsPath())
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, eterrors.ErrNoCredentials
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading credentials: %w", err)
	}

	var creds storedCredentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return time.Time{}, fmt.Errorf("parsing credentials: %w", err)
	}
	return creds.LastUpdated, nil
}

// KeyDescription reports where the encryption key lives.
func (s *Store) KeyDescription() string {
	return s.keyProvider.Description()
}

// Clear removes the stored credentials.
func (s *Store) Clear() error {
	err := os.Remove(s.credentialsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// encrypt seals plaintext with AES-256-GCM and encodes it base64.
func (s *Store) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decrypt reverses encrypt.
func (s *Store) decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	if len(sealed) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return string(plaintext), nil
}
