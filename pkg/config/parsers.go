package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config  *Config
	Addr    string
	DBPath  string
	Sources []string // layers that contributed, lowest precedence first
}

// parses --addr, --db and --config from args into a Flags struct
func ParseConfigFlags(fset *flag.FlagSet, args []string) (Flags, error) {
	addrPtr := fset.String("addr", net.JoinHostPort(defaultAddress, strconv.Itoa(defaultPort)), "admin listen address")
	dbPtr := fset.String("db", defaultDBPath, "pebble DB path")
	cfgPtr := fset.String("config", "./config.yaml", "path to config file")
	if err := fset.Parse(args); err != nil {
		return Flags{}, err
	}

	// record which flags were set explicitly
	setFlags := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}, nil
}

// loads config from file, returns config, found bool, and error. a missing
// default file is not an error; a missing explicit one is.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !flags.Set["config"] {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// loads FORUMDB_* environment variables into a new Config. the bool reports
// whether any of them was set.
func ParseConfigEnvs() (*Config, bool, error) {
	envs := map[string]string{
		"ADDR":        os.Getenv("FORUMDB_ADDR"),
		"DB_PATH":     os.Getenv("FORUMDB_DB_PATH"),
		"CACHE_SIZE":  os.Getenv("FORUMDB_CACHE_SIZE"),
		"DISABLE_WAL": os.Getenv("FORUMDB_DISABLE_WAL"),
		"NO_ADMIN":    os.Getenv("FORUMDB_NO_ADMIN"),

		"LOG_LEVEL": os.Getenv("FORUMDB_LOG_LEVEL"),
		"LOG_SINK":  os.Getenv("FORUMDB_LOG_SINK"),

		"SWEEPER_ENABLED":    os.Getenv("FORUMDB_SWEEPER_ENABLED"),
		"SWEEPER_CRON":       os.Getenv("FORUMDB_SWEEPER_CRON"),
		"SWEEPER_NAMESPACES": os.Getenv("FORUMDB_SWEEPER_NAMESPACES"),
		"SWEEPER_BATCH_SIZE": os.Getenv("FORUMDB_SWEEPER_BATCH_SIZE"),
		"SWEEPER_RATE":       os.Getenv("FORUMDB_SWEEPER_RATE"),

		"SENSOR_POLL_INTERVAL":   os.Getenv("FORUMDB_SENSOR_POLL_INTERVAL"),
		"SENSOR_DISK_HIGH_PCT":   os.Getenv("FORUMDB_SENSOR_DISK_HIGH_PCT"),
		"SENSOR_DISK_LOW_PCT":    os.Getenv("FORUMDB_SENSOR_DISK_LOW_PCT"),
		"SENSOR_RECOVERY_WINDOW": os.Getenv("FORUMDB_SENSOR_RECOVERY_WINDOW"),
	}

	envUsed := false
	for _, v := range envs {
		if v != "" {
			envUsed = true
			break
		}
	}
	envCfg := &Config{}
	var errs []error

	parseList := func(v string) []string {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}
	parseBool := func(v string) bool {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}
	parseInt := func(name, v string) int {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("FORUMDB_%s: %w", name, err))
		}
		return n
	}

	if v := envs["ADDR"]; v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			envCfg.Server.Port = parseInt("ADDR", p)
		} else {
			envCfg.Server.Address = v
		}
	}
	if v := envs["DB_PATH"]; v != "" {
		envCfg.Server.DBPath = v
	}
	if v := envs["CACHE_SIZE"]; v != "" {
		size, err := parseSize(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORUMDB_CACHE_SIZE: %w", err))
		}
		envCfg.Server.CacheSize = size
	}
	if v := envs["DISABLE_WAL"]; v != "" {
		envCfg.Server.DisableWAL = parseBool(v)
	}
	if v := envs["NO_ADMIN"]; v != "" {
		envCfg.Server.NoAdmin = parseBool(v)
	}

	if v := envs["LOG_LEVEL"]; v != "" {
		envCfg.Logging.Level = strings.TrimSpace(v)
	}
	if v := envs["LOG_SINK"]; v != "" {
		envCfg.Logging.Sink = strings.TrimSpace(v)
	}

	if v := envs["SWEEPER_ENABLED"]; v != "" {
		envCfg.Sweeper.Enabled = parseBool(v)
	}
	if v := envs["SWEEPER_CRON"]; v != "" {
		envCfg.Sweeper.Cron = v
	}
	if v := envs["SWEEPER_NAMESPACES"]; v != "" {
		envCfg.Sweeper.Namespaces = parseList(v)
	}
	if v := envs["SWEEPER_BATCH_SIZE"]; v != "" {
		envCfg.Sweeper.BatchSize = parseInt("SWEEPER_BATCH_SIZE", v)
	}
	if v := envs["SWEEPER_RATE"]; v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORUMDB_SWEEPER_RATE: %w", err))
		}
		envCfg.Sweeper.Rate = f
	}

	if v := envs["SENSOR_POLL_INTERVAL"]; v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORUMDB_SENSOR_POLL_INTERVAL: %w", err))
		}
		envCfg.Sensor.PollInterval = d
	}
	if v := envs["SENSOR_DISK_HIGH_PCT"]; v != "" {
		envCfg.Sensor.DiskHighPct = parseInt("SENSOR_DISK_HIGH_PCT", v)
	}
	if v := envs["SENSOR_DISK_LOW_PCT"]; v != "" {
		envCfg.Sensor.DiskLowPct = parseInt("SENSOR_DISK_LOW_PCT", v)
	}
	if v := envs["SENSOR_RECOVERY_WINDOW"]; v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORUMDB_SENSOR_RECOVERY_WINDOW: %w", err))
		}
		envCfg.Sensor.RecoveryWindow = d
	}

	return envCfg, envUsed, errors.Join(errs...)
}

// LoadEffectiveConfig layers the sources: file, then env, then explicitly
// set flags. Only non-zero values of a higher layer override a lower one.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envUsed bool) EffectiveConfigResult {
	out := &Config{}
	var sources []string
	if fileExists && fileCfg != nil {
		overlay(out, fileCfg)
		sources = append(sources, "config")
	}
	if envUsed && envCfg != nil {
		overlay(out, envCfg)
		sources = append(sources, "env")
	}
	if flags.Set["addr"] || flags.Set["db"] {
		if flags.Set["addr"] {
			if h, p, err := net.SplitHostPort(flags.Addr); err == nil {
				out.Server.Address = h
				out.Server.Port, _ = strconv.Atoi(p)
			} else {
				out.Server.Address = flags.Addr
			}
		}
		if flags.Set["db"] {
			out.Server.DBPath = flags.DB
		}
		sources = append(sources, "flags")
	}
	if len(sources) == 0 {
		sources = append(sources, "defaults")
	}
	return EffectiveConfigResult{
		Config:  out,
		Addr:    out.Addr(),
		DBPath:  out.Server.DBPath,
		Sources: sources,
	}
}

// copies every non-zero field of src onto dst
func overlay(dst, src *Config) {
	if src.Server.Address != "" {
		dst.Server.Address = src.Server.Address
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.DBPath != "" {
		dst.Server.DBPath = src.Server.DBPath
	}
	if src.Server.CacheSize != 0 {
		dst.Server.CacheSize = src.Server.CacheSize
	}
	if src.Server.DisableWAL {
		dst.Server.DisableWAL = true
	}
	if src.Server.NoAdmin {
		dst.Server.NoAdmin = true
	}

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Sink != "" {
		dst.Logging.Sink = src.Logging.Sink
	}

	if src.Sweeper.Enabled {
		dst.Sweeper.Enabled = true
	}
	if src.Sweeper.Cron != "" {
		dst.Sweeper.Cron = src.Sweeper.Cron
	}
	if len(src.Sweeper.Namespaces) > 0 {
		dst.Sweeper.Namespaces = append([]string(nil), src.Sweeper.Namespaces...)
	}
	if src.Sweeper.BatchSize != 0 {
		dst.Sweeper.BatchSize = src.Sweeper.BatchSize
	}
	if src.Sweeper.Rate != 0 {
		dst.Sweeper.Rate = src.Sweeper.Rate
	}

	if src.Sensor.PollInterval != 0 {
		dst.Sensor.PollInterval = src.Sensor.PollInterval
	}
	if src.Sensor.DiskHighPct != 0 {
		dst.Sensor.DiskHighPct = src.Sensor.DiskHighPct
	}
	if src.Sensor.DiskLowPct != 0 {
		dst.Sensor.DiskLowPct = src.Sensor.DiskLowPct
	}
	if src.Sensor.RecoveryWindow != 0 {
		dst.Sensor.RecoveryWindow = src.Sensor.RecoveryWindow
	}
}
