package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BLAST_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3, cfg.Explosion.FireChance)
	assert.Equal(t, 50*time.Millisecond, cfg.World.TickInterval())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blast.yaml")
	data := []byte(`
world:
  id: nether
  height: 128
explosion:
  step_decay: 0.225
  optimize_explosions: true
eventbus:
  backend: jetstream
  retention_hours: 2
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("BLAST_CONFIG", path)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nether", cfg.World.ID)
	assert.Equal(t, 128, cfg.World.Height)
	assert.Equal(t, -64, cfg.World.MinY, "Незаданные поля берутся по умолчанию")
	assert.Equal(t, 0.225, cfg.Explosion.StepDecay)
	assert.True(t, cfg.Explosion.OptimizeExplosions)
	assert.Equal(t, 3, cfg.Explosion.FireChance)
	assert.Equal(t, "jetstream", cfg.EventBus.Backend)
	assert.Equal(t, 2*time.Hour, cfg.EventBus.RetentionDuration())
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("eventbus:\n  backend: kafka\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "kafka")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("world: [1, 2"), 0o644))
	_, err = Load(broken)
	assert.Error(t, err)
}

func TestGetRESTPort(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("BLAST_REST_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort())

	t.Setenv("BLAST_REST_PORT", "9090")
	assert.Equal(t, 9090, s.GetRESTPort())

	t.Setenv("BLAST_REST_PORT", "oops")
	assert.Equal(t, 8088, s.GetRESTPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}

func TestLoad_Store(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	assert.False(t, cfg.Store.Enabled())

	path := filepath.Join(dir, "redis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: redis\n  redis_db: 3\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Store.Enabled())
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 3, cfg.Store.RedisDB)

	maria := filepath.Join(dir, "maria.yaml")
	require.NoError(t, os.WriteFile(maria, []byte("store:\n  backend: mariadb\n"), 0o644))
	_, err = Load(maria)
	assert.ErrorContains(t, err, "maria_dsn")

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("store:\n  backend: etcd\n"), 0o644))
	_, err = Load(unknown)
	assert.ErrorContains(t, err, "etcd")
}
