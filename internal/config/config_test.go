package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "auto", c.Delimiter)
	assert.Equal(t, "sentinel", c.ZeroViews)
	assert.Equal(t, "xlsx", c.ChartFormat)
	assert.Equal(t, 5, c.SampleRows)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, videos.DefaultMissingMarkers(), c.MissingMarkers)

	opt := c.LoadOptions()
	assert.Equal(t, rune(0), opt.Delimiter)
	d, err := c.DeriveOptions()
	require.NoError(t, err)
	assert.Equal(t, videos.ZeroViewsSentinel, d.ZeroViews)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delimiter: \";\"\nzero_views: exclude\nsample_rows: 2\n"), 0o644))
	t.Setenv("VIDSTATS_CHART_FORMAT", "vegalite")
	t.Setenv("VIDSTATS_MISSING_MARKERS", "NA, -")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "semicolon", c.Delimiter)
	assert.Equal(t, ';', c.LoadOptions().Delimiter)
	assert.Equal(t, "exclude", c.ZeroViews)
	assert.Equal(t, 2, c.SampleRows)
	assert.Equal(t, "vegalite", c.ChartFormat)
	assert.Equal(t, []string{"NA", "-"}, c.MissingMarkers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chart_format: png\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chart_format must be one of: xlsx vegalite")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config path must exist")
}

func TestSetGetSave(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("zero_views", "EXCLUDE"))
	require.NoError(t, c.Set("delimiter", "tab"))
	require.NoError(t, c.Set("allow_extra_columns", "true"))
	require.NoError(t, c.Set("missing_markers", "NA,,null"))
	assert.Error(t, c.Set("chart_format", "svg"))
	c.ChartFormat = "xlsx"
	assert.Error(t, c.Set("sample_rows", "many"))
	assert.Error(t, c.Set("colour", "red"))

	v, err := c.Get("missing_markers")
	require.NoError(t, err)
	assert.Equal(t, "NA,null", v)
	v, err = c.Get("zero_views")
	require.NoError(t, err)
	assert.Equal(t, "exclude", v)

	require.NoError(t, Save(c, ""))
	_, err = os.Stat(filepath.Join(home, ".vidstats", "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tab", again.Delimiter)
	assert.True(t, again.AllowExtraColumns)
	assert.Equal(t, []string{"NA", "null"}, again.MissingMarkers)
	assert.Equal(t, '\t', again.LoadOptions().Delimiter)
}

func TestParseDelimiter(t *testing.T) {
	tests := map[string]rune{
		"":          0,
		"auto":      0,
		",":         ',',
		"Semicolon": ';',
		"\t":        '\t',
		`\t`:        '\t',
		"|":         '|',
	}
	for in, want := range tests {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDelimiter("::")
	assert.Error(t, err)
}
