package workspace

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/enum"
	"github.com/praetorian-inc/testweave/pkg/prefilter"
)

func writeConfig(t *testing.T, ws, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(Dir(ws), 0o755))
	require.NoError(t, os.WriteFile(ConfigPath(ws), []byte(content), 0o644))
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(tempDir(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, enum.DefaultInclude, cfg.Include)
	assert.Equal(t, prefilter.DefaultKeywords, cfg.Headings)
	assert.EqualValues(t, DefaultMaxFileSize, cfg.MaxFileSize)
}

func TestLoadConfig_Empty(t *testing.T) {
	ws := tempDir(t)
	writeConfig(t, ws, "")

	cfg, err := LoadConfig(ws)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	ws := tempDir(t)
	writeConfig(t, ws, `
include:
  - "cases/**/*.feature"
headings:
  - "Case:"
extract: [pdf, docx]
git: true
git_depth: 20
`)

	cfg, err := LoadConfig(ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"cases/**/*.feature"}, cfg.Include)
	assert.Equal(t, enum.DefaultExclude, cfg.Exclude, "unset keys keep defaults")
	assert.Equal(t, []string{"Case:"}, cfg.Headings)
	assert.Equal(t, []string{"pdf", "docx"}, cfg.Extract)
	assert.True(t, cfg.Git)
	assert.Equal(t, 20, cfg.GitDepth)

	ec := cfg.EnumConfig(ws)
	assert.Equal(t, ws, ec.Root)
	assert.Equal(t, cfg.Include, ec.Include)
	assert.Equal(t, 20, ec.GitDepth)
	assert.EqualValues(t, DefaultMaxFileSize, ec.MaxFileSize)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "inclde: [x]\n", "field inclde not found"},
		{"bad yaml", "include: [\n", "parsing"},
		{"bad glob", "include: ['cases/[']\n", `invalid glob "cases/["`},
		{"bad extract", "extract: [rtf]\n", `unsupported extract format "rtf"`},
		{"negative size", "max_file_size: -1\n", "max_file_size must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := tempDir(t)
			writeConfig(t, ws, tt.content)
			_, err := LoadConfig(ws)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSaveConfig(t *testing.T) {
	ws := tempDir(t)
	cfg := DefaultConfig()
	cfg.Git = true
	cfg.Extract = []string{"all"}

	require.NoError(t, SaveConfig(ws, cfg))

	loaded, err := LoadConfig(ws)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	cfg.Extract = []string{"exe"}
	assert.Error(t, SaveConfig(ws, cfg))
}

func TestSaveConfig_DefaultsRoundTrip(t *testing.T) {
	ws := tempDir(t)

	require.NoError(t, SaveConfig(ws, DefaultConfig()))

	data, err := os.ReadFile(ConfigPath(ws))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "extract:")

	loaded, err := LoadConfig(ws)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
	assert.Nil(t, loaded.Extract)
}
