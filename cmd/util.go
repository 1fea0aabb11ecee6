// Package cmd provides CLI commands for the entitime tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otherjamesbrown/entitime/config"
	"github.com/otherjamesbrown/entitime/credentials"
	"github.com/otherjamesbrown/entitime/pkg/extraction"
	"github.com/otherjamesbrown/entitime/pkg/logging"
	"github.com/otherjamesbrown/entitime/pkg/privateai"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// Deps supplies the dependencies commands need. Tests substitute fakes;
// DefaultDeps wires the real implementations.
type Deps struct {
	// Config returns the loaded CLI configuration.
	Config func() (*config.CLIConfig, error)

	// Logger returns the CLI logger.
	Logger func() logging.Logger

	// NewRecognizer builds the extraction backend from configuration.
	NewRecognizer func(cfg *config.CLIConfig) (extraction.EntityRecognizer, error)

	// NewCredentialStore opens the credential store.
	NewCredentialStore func() (*credentials.Store, error)
}

// DefaultDeps returns production dependencies.
func DefaultDeps() *Deps {
	return &Deps{
		Config: config.LoadConfig,
		Logger: func() logging.Logger {
			return logging.NewLogger(logging.DefaultConfig())
		},
		NewRecognizer: func(cfg *config.CLIConfig) (extraction.EntityRecognizer, error) {
			store, err := credentials.NewStore()
			if err != nil {
				return nil, err
			}
			apiKey, err := store.APIKey()
			if err != nil {
				return nil, fmt.Errorf("loading API key (run 'entitime auth set-key'): %w", err)
			}
			return privateai.NewClient(privateai.Config{
				Endpoint: cfg.API.Endpoint,
				APIKey:   apiKey,
				Timeout:  cfg.API.Timeout,
			})
		},
		NewCredentialStore: credentials.NewStore,
	}
}

// loadConfigAndTypes loads configuration, applies an --entity-types override,
// and parses the resulting type set.
func loadConfigAndTypes(deps *Deps, typeOverride []string) (*config.CLIConfig, timeline.TypeSet, error) {
	cfg, err := deps.Config()
	if err != nil {
		return nil, nil, err
	}

	typeValues := cfg.EntityTypes
	if len(typeOverride) > 0 {
		typeValues = typeOverride
	}

	types, err := timeline.ParseTypeSet(typeValues)
	if err != nil {
		return nil, nil, err
	}
	return cfg, types, nil
}

// ensureOutputDir creates the output directory if it does not exist.
func ensureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return nil
}

// writeJSONFile writes v as indented JSON to path.
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// maskKey shows only the first and last few characters of a secret.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// commandContext returns the command's context, defaulting to Background.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
