package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/entitime/config"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

func TestLoadConfigAndTypes(t *testing.T) {
	deps := newTestDeps(t, &fakeRecognizer{})

	t.Run("config types by default", func(t *testing.T) {
		_, types, err := loadConfigAndTypes(deps, nil)
		require.NoError(t, err)
		assert.True(t, types.Contains(timeline.EntityTypeName))
		assert.True(t, types.Contains(timeline.EntityTypeOrganization))
		assert.False(t, types.Contains(timeline.EntityTypeLocation))
	})

	t.Run("flag override wins", func(t *testing.T) {
		_, types, err := loadConfigAndTypes(deps, []string{"location"})
		require.NoError(t, err)
		assert.True(t, types.Contains(timeline.EntityTypeLocation))
		assert.False(t, types.Contains(timeline.EntityTypeName))
	})

	t.Run("config load failure surfaces", func(t *testing.T) {
		broken := &Deps{Config: func() (*config.CLIConfig, error) {
			return nil, errors.New("no config")
		}}
		_, _, err := loadConfigAndTypes(broken, nil)
		assert.Error(t, err)
	})
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, writeJSONFile(path, map[string]int{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(data))
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"12345678", "********"},
		{"abcd-secret-wxyz", "abcd********wxyz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskKey(tt.in))
	}
}

func TestCommandContext(t *testing.T) {
	assert.NotNil(t, commandContext(nil))

	ctx := context.WithValue(context.Background(), struct{}{}, "v")
	assert.Equal(t, ctx, commandContext(ctx))
}

func TestDefaultDeps(t *testing.T) {
	deps := DefaultDeps()
	require.NotNil(t, deps)
	assert.NotNil(t, deps.Config)
	assert.NotNil(t, deps.Logger)
	assert.NotNil(t, deps.NewRecognizer)
	assert.NotNil(t, deps.NewCredentialStore)
}
