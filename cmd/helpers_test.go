package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/entitime/config"
	"github.com/otherjamesbrown/entitime/credentials"
	"github.com/otherjamesbrown/entitime/pkg/extraction"
	"github.com/otherjamesbrown/entitime/pkg/logging"
	"github.com/otherjamesbrown/entitime/pkg/privateai"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// fakeRecognizer returns canned detection results.
type fakeRecognizer struct {
	entities []privateai.DetectedEntity
	err      error
}

func (f *fakeRecognizer) ProcessText(context.Context, string, []timeline.EntityType) ([]privateai.DetectedEntity, error) {
	return f.entities, f.err
}

// fixedKeyProvider supplies a static encryption key for credential tests.
type fixedKeyProvider struct{}

func (fixedKeyProvider) GetKey() ([]byte, error) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key, nil
}

func (fixedKeyProvider) Description() string { return "test key" }

// newTestDeps builds Deps backed by fakes: default config, no-op logger, the
// given recognizer, and a credential store rooted in a temp dir.
func newTestDeps(t *testing.T, recognizer extraction.EntityRecognizer) *Deps {
	t.Helper()
	t.Setenv(credentials.APIKeyEnv, "")

	store, err := credentials.NewStoreAt(t.TempDir(), fixedKeyProvider{})
	require.NoError(t, err)

	return &Deps{
		Config: func() (*config.CLIConfig, error) {
			return config.DefaultConfig(), nil
		},
		Logger: logging.Nop,
		NewRecognizer: func(*config.CLIConfig) (extraction.EntityRecognizer, error) {
			return recognizer, nil
		},
		NewCredentialStore: func() (*credentials.Store, error) {
			return store, nil
		},
	}
}

// writeTestFile writes content into dir under name and returns the path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func intPtr(v int) *int { return &v }
