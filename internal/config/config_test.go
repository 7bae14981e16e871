package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))

	norm, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	require.Equal(t, cfg.Submission.DefaultMethod, norm.Submission.DefaultMethod)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := Defaults()
	cfg.App.Port = 9911
	cfg.Scraping.Enabled = true
	cfg.Scraping.Boards = []string{"acme", "globex"}

	require.NoError(t, SaveAtomic(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9911, got.App.Port)
	require.Equal(t, []string{"acme", "globex"}, got.Scraping.Boards)
	require.Equal(t, cfg.Matching.MinScore, got.Matching.MinScore)
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	first := Defaults()
	require.NoError(t, SaveAtomic(path, first))

	second := first
	second.App.Port = 9000
	require.NoError(t, SaveAtomic(path, second))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9000, got.App.Port)

	bak, err := Load(path + ".bak")
	require.NoError(t, err)
	require.Equal(t, first.App.Port, bak.App.Port)
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := Defaults()
	cfg.App.Port = -1
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "app.port")
}

func TestNormalizeCleansLists(t *testing.T) {
	cfg := Defaults()
	cfg.Scraping.Boards = []string{" acme ", "", "ACME", "globex"}
	cfg.Outreach.Tone = " Warm "
	cfg.Submission.DefaultMethod = "Direct_Form"

	norm, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	require.Equal(t, []string{"acme", "globex"}, norm.Scraping.Boards)
	require.Equal(t, "warm", norm.Outreach.Tone)
	require.Equal(t, "direct_form", norm.Submission.DefaultMethod)
}

func TestNormalizeFlagsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Matching.MinScore = 1.5
	cfg.DailyLimits.Applications = 0
	cfg.Email.Enabled = true
	cfg.Email.IMAPHost = ""

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	require.GreaterOrEqual(t, len(res.Errors), 3)
}

func TestEnsureUserConfigWritesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	// No shipped default file: built-in defaults are materialized.
	path, err := EnsureUserConfig(dataDir, filepath.Join(dataDir, "missing", "config.yml"))
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Defaults().App.Port, got.App.Port)

	// Existing file wins over the default on the next call.
	got.App.Port = 7001
	require.NoError(t, SaveAtomic(path, got))
	path2, err := EnsureUserConfig(dataDir, filepath.Join(dataDir, "missing", "config.yml"))
	require.NoError(t, err)
	require.Equal(t, path, path2)

	again, err := Load(path2)
	require.NoError(t, err)
	require.Equal(t, 7001, again.App.Port)
}

func TestEnsureUserConfigCopiesShippedDefault(t *testing.T) {
	dataDir := t.TempDir()
	shipped := filepath.Join(t.TempDir(), "config.yml")

	def := Defaults()
	def.App.Port = 8123
	require.NoError(t, SaveAtomic(shipped, def))

	path, err := EnsureUserConfig(dataDir, shipped)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8123, got.App.Port)

	_, err = os.Stat(filepath.Join(dataDir, "config.yml"))
	require.NoError(t, err)
}
