package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagedeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  path: from-file.db
image:
  max_side: 640
  quality: 70
review:
  count: 5
`), 0o644))

	t.Setenv("IMAGEDECK_IMAGE_QUALITY", "60")
	t.Setenv("IMAGEDECK_REVIEW_COUNT", "7")

	cfg, err := Load(newFlags(t, "--config", path, "--review.count", "20"))
	require.NoError(t, err)

	require.Equal(t, "from-file.db", cfg.DB.Path)
	require.Equal(t, 640, cfg.Image.MaxSide)
	// env beats file, flag beats env
	require.Equal(t, 60, cfg.Image.Quality)
	require.Equal(t, 20, cfg.Review.Count)
	require.Equal(t, "repos", cfg.Repos.Dir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(newFlags(t, "--image.quality", "0"))
	require.Error(t, err)

	_, err = Load(newFlags(t, "--log.level", "chatty"))
	require.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, LogConfig{Level: "debug"}.SlogLevel())
	require.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	require.Equal(t, slog.LevelInfo, LogConfig{Level: "bogus"}.SlogLevel())
}
