package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()

	assert.True(t, conf.Completion.ActivateOnTyping)
	assert.True(t, conf.Completion.SelectOnOpen)
	assert.Equal(t, 64, conf.Completion.MaxOptions)
	assert.Equal(t, 20, conf.Dict.MinFreqThreshold)
	assert.Equal(t, 60, conf.Server.MaxPrefix)
}

func TestEngineTranslation(t *testing.T) {
	conf := DefaultConfig()
	conf.Completion.MaxOptions = 16
	conf.Completion.SelectOnOpen = false

	engine := conf.Engine()

	assert.Equal(t, 16, engine.MaxOptions)
	assert.False(t, engine.SelectOnOpen)
	assert.True(t, engine.ActivateOnTyping)
	assert.Nil(t, engine.Override, "sources are wired by the caller")
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	conf, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), conf)
	assert.FileExists(t, path)

	// Second init reads the file it created.
	again, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, conf, again)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[completion]
activate_on_typing = false
max_options = 8

[dict]
min_frequency_threshold = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	conf, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, conf.Completion.ActivateOnTyping)
	assert.Equal(t, 8, conf.Completion.MaxOptions)
	assert.Equal(t, 5, conf.Dict.MinFreqThreshold)
	assert.True(t, conf.Completion.SelectOnOpen, "unset keys keep defaults")
	assert.Equal(t, 64, conf.Server.MaxLimit)
}

func TestPartialParseSalvagesValidSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	// The dict section has a type error; completion should still load.
	content := `
[completion]
max_options = 12

[dict]
max_words = "not a number"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	conf, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12, conf.Completion.MaxOptions)
	assert.Equal(t, 50000, conf.Dict.MaxWords, "bad value falls back to default")
}

func TestUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	conf, err := InitConfig(path)
	require.NoError(t, err)

	maxOptions := 32
	activate := false
	require.NoError(t, conf.Update(path, &maxOptions, &activate, nil))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 32, loaded.Completion.MaxOptions)
	assert.False(t, loaded.Completion.ActivateOnTyping)
	assert.True(t, loaded.Completion.SelectOnOpen)
}
