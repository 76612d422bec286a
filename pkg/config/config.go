package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"

	"forumdb/pkg/logger"
)

const (
	defaultAddress   = "127.0.0.1"
	defaultPort      = 7070
	defaultDBPath    = "./data/forumdb"
	defaultCacheSize = 64 << 20
	defaultLogLevel  = "info"

	// sweeper defaults
	defaultSweeperCron      = "*/10 * * * *"
	defaultSweeperBatchSize = 1000

	// sensor defaults
	defaultSensorPollInterval   = 5 * time.Second
	defaultSensorDiskHighPct    = 80
	defaultSensorDiskLowPct     = 60
	defaultSensorRecoveryWindow = 30 * time.Second
)

// Addr returns the admin listen address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ValidateConfig fills missing defaults in place and rejects values the
// runtime cannot work with.
func (c *Config) ValidateConfig() error {
	if c.Server.DBPath == "" {
		c.Server.DBPath = defaultDBPath
	}
	if c.Server.CacheSize.Int64() <= 0 {
		c.Server.CacheSize = SizeBytes(defaultCacheSize)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Sweeper.Cron == "" {
		c.Sweeper.Cron = defaultSweeperCron
	}
	if c.Sweeper.BatchSize <= 0 {
		c.Sweeper.BatchSize = defaultSweeperBatchSize
	}
	if c.Sweeper.Rate < 0 {
		logger.Warn("sweeper_rate_negative", "rate", c.Sweeper.Rate)
		c.Sweeper.Rate = 0
	}

	s := &c.Sensor
	if s.PollInterval.Duration() <= 0 {
		s.PollInterval = Duration(defaultSensorPollInterval)
	}
	if s.DiskHighPct == 0 {
		s.DiskHighPct = defaultSensorDiskHighPct
	}
	if s.DiskLowPct == 0 {
		s.DiskLowPct = defaultSensorDiskLowPct
	}
	if s.RecoveryWindow.Duration() <= 0 {
		s.RecoveryWindow = Duration(defaultSensorRecoveryWindow)
	}
	if s.DiskHighPct > 100 || s.DiskLowPct < 0 || s.DiskLowPct > s.DiskHighPct {
		return fmt.Errorf("invalid sensor thresholds: low %d%%, high %d%%", s.DiskLowPct, s.DiskHighPct)
	}

	if !gronx.IsValid(c.Sweeper.Cron) {
		return fmt.Errorf("invalid sweeper cron expression: %s", c.Sweeper.Cron)
	}
	return nil
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("FORUMDB_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
