package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func parseFlags(t *testing.T, args ...string) Flags {
	t.Helper()
	fset := flag.NewFlagSet("forumdb", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	flags, err := ParseConfigFlags(fset, args)
	require.NoError(t, err)
	return flags
}

func TestSizeAndDurationYAML(t *testing.T) {
	var v struct {
		Size  SizeBytes `yaml:"size"`
		Plain SizeBytes `yaml:"plain"`
		Poll  Duration  `yaml:"poll"`
		Secs  Duration  `yaml:"secs"`
	}
	err := yaml.Unmarshal([]byte("size: 64MB\nplain: 4096\npoll: 250ms\nsecs: 1.5\n"), &v)
	require.NoError(t, err)
	assert.Equal(t, int64(64_000_000), v.Size.Int64())
	assert.Equal(t, int64(4096), v.Plain.Int64())
	assert.Equal(t, 250*time.Millisecond, v.Poll.Duration())
	assert.Equal(t, 1500*time.Millisecond, v.Secs.Duration())

	err = yaml.Unmarshal([]byte("size: lots\n"), &v)
	assert.Error(t, err)
	err = yaml.Unmarshal([]byte("poll: soon\n"), &v)
	assert.Error(t, err)
}

func TestValidateFillsDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.ValidateConfig())

	assert.Equal(t, defaultDBPath, cfg.Server.DBPath)
	assert.Equal(t, int64(defaultCacheSize), cfg.Server.CacheSize.Int64())
	assert.Equal(t, defaultSweeperCron, cfg.Sweeper.Cron)
	assert.Equal(t, defaultSweeperBatchSize, cfg.Sweeper.BatchSize)
	assert.Equal(t, defaultSensorPollInterval, cfg.Sensor.PollInterval.Duration())
	assert.Equal(t, defaultSensorDiskHighPct, cfg.Sensor.DiskHighPct)
	assert.Equal(t, "127.0.0.1:7070", cfg.Addr())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad cron":       func(c *Config) { c.Sweeper.Cron = "every tuesday" },
		"high over 100":  func(c *Config) { c.Sensor.DiskHighPct = 120 },
		"low above high": func(c *Config) { c.Sensor.DiskHighPct = 50; c.Sensor.DiskLowPct = 70 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			var cfg Config
			mutate(&cfg)
			assert.Error(t, cfg.ValidateConfig())
		})
	}
}

func TestValidateEffective(t *testing.T) {
	eff := LoadEffectiveConfig(Flags{Set: map[string]bool{}}, nil, false, nil, false)
	require.NoError(t, ValidateConfig(&eff))
	assert.Equal(t, []string{"defaults"}, eff.Sources)
	assert.Equal(t, defaultDBPath, eff.DBPath)

	eff.Config.Logging.Sink = "syslog"
	assert.Error(t, ValidateConfig(&eff))

	eff.Config.Logging.Sink = "file:/tmp/forumdb.log"
	eff.Config.Sweeper.Namespaces = []string{"sessions", ""}
	assert.Error(t, ValidateConfig(&eff))
}

func TestParseConfigFile(t *testing.T) {
	p := writeFile(t, `
server:
  db_path: /var/lib/forumdb
  cache_size: 128MiB
  port: 9000
sweeper:
  enabled: true
  namespaces: [sessions]
sensor:
  poll_interval: 2s
`)
	cfg, found, err := ParseConfigFile(parseFlags(t, "--config", p))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "/var/lib/forumdb", cfg.Server.DBPath)
	assert.Equal(t, int64(128<<20), cfg.Server.CacheSize.Int64())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, []string{"sessions"}, cfg.Sweeper.Namespaces)
	assert.Equal(t, 2*time.Second, cfg.Sensor.PollInterval.Duration())
}

func TestParseConfigFileMissing(t *testing.T) {
	t.Setenv("FORUMDB_CONFIG", "")
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	// the default path may be absent
	fset := flag.NewFlagSet("forumdb", flag.ContinueOnError)
	flags, err := ParseConfigFlags(fset, nil)
	require.NoError(t, err)
	flags.Config = missing
	_, found, err := ParseConfigFile(flags)
	require.NoError(t, err)
	assert.False(t, found)

	// an explicit one may not
	_, _, err = ParseConfigFile(parseFlags(t, "--config", missing))
	assert.Error(t, err)
}

func TestParseConfigEnvs(t *testing.T) {
	t.Setenv("FORUMDB_ADDR", "0.0.0.0:9100")
	t.Setenv("FORUMDB_DB_PATH", "/srv/forum")
	t.Setenv("FORUMDB_CACHE_SIZE", "1GiB")
	t.Setenv("FORUMDB_SWEEPER_ENABLED", "yes")
	t.Setenv("FORUMDB_SWEEPER_NAMESPACES", "sessions, captcha,")
	t.Setenv("FORUMDB_SWEEPER_RATE", "2.5")
	t.Setenv("FORUMDB_SENSOR_POLL_INTERVAL", "3")

	cfg, used, err := ParseConfigEnvs()
	require.NoError(t, err)
	require.True(t, used)
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/srv/forum", cfg.Server.DBPath)
	assert.Equal(t, int64(1<<30), cfg.Server.CacheSize.Int64())
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, []string{"sessions", "captcha"}, cfg.Sweeper.Namespaces)
	assert.Equal(t, 2.5, cfg.Sweeper.Rate)
	assert.Equal(t, 3*time.Second, cfg.Sensor.PollInterval.Duration())
}

func TestParseConfigEnvsReportsBadValues(t *testing.T) {
	t.Setenv("FORUMDB_SWEEPER_BATCH_SIZE", "many")
	t.Setenv("FORUMDB_SENSOR_RECOVERY_WINDOW", "later")
	_, used, err := ParseConfigEnvs()
	assert.True(t, used)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORUMDB_SWEEPER_BATCH_SIZE")
	assert.Contains(t, err.Error(), "FORUMDB_SENSOR_RECOVERY_WINDOW")
}

func TestLoadEffectiveConfigLayers(t *testing.T) {
	file := &Config{}
	file.Server.DBPath = "/from/file"
	file.Server.Port = 9000
	file.Sweeper.Cron = "0 * * * *"
	file.Sweeper.BatchSize = 50

	env := &Config{}
	env.Server.DBPath = "/from/env"
	env.Sweeper.BatchSize = 75

	flags := parseFlags(t, "--addr", "10.0.0.1:9500")
	eff := LoadEffectiveConfig(flags, file, true, env, true)

	assert.Equal(t, []string{"config", "env", "flags"}, eff.Sources)
	assert.Equal(t, "/from/env", eff.DBPath)
	assert.Equal(t, "10.0.0.1:9500", eff.Addr)
	assert.Equal(t, "0 * * * *", eff.Config.Sweeper.Cron)
	assert.Equal(t, 75, eff.Config.Sweeper.BatchSize)

	flags = parseFlags(t, "--db", "/from/flag")
	eff = LoadEffectiveConfig(flags, file, true, env, true)
	assert.Equal(t, "/from/flag", eff.DBPath)
	assert.Equal(t, "127.0.0.1:9000", eff.Addr)
}
