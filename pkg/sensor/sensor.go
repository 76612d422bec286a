package sensor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"forumdb/pkg/logger"
	"forumdb/pkg/metrics"
)

// Sensor polls disk usage of the filesystem holding the store and raises a
// log alert when it crosses the high watermark.
type Sensor struct {
	config   MonitorConfig
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// swapped in tests
	usage func(path string) (float64, error)
	now   func() time.Time

	mu         sync.Mutex
	diskAlert  bool
	belowSince time.Time
}

type MonitorConfig struct {
	Path           string
	PollInterval   time.Duration
	DiskHighPct    int
	DiskLowPct     int
	RecoveryWindow time.Duration
}

func NewSensor(config MonitorConfig) *Sensor {
	if config.Path == "" {
		config.Path = "/"
	}
	return &Sensor{
		config: config,
		stopCh: make(chan struct{}),
		usage:  diskUsedPct,
		now:    time.Now,
	}
}

// Start polls in the background until Stop.
func (s *Sensor) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Sensor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Alerting reports whether disk usage is currently above the high mark.
func (s *Sensor) Alerting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diskAlert
}

func (s *Sensor) run() {
	defer s.wg.Done()
	s.checkDisk()
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.checkDisk()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sensor) checkDisk() {
	usedPct, err := s.usage(s.config.Path)
	if err != nil {
		logger.Warn("disk_stat_failed", "path", s.config.Path, "error", err)
		return
	}
	metrics.DiskUsedPct.Set(usedPct)

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case usedPct > float64(s.config.DiskHighPct):
		s.belowSince = time.Time{}
		if !s.diskAlert {
			logger.Warn("disk_usage_high", "path", s.config.Path, "used_pct", usedPct, "threshold_pct", s.config.DiskHighPct)
			s.diskAlert = true
		}
	case s.diskAlert && usedPct < float64(s.config.DiskLowPct):
		// must stay below the low mark for the whole window
		if s.belowSince.IsZero() {
			s.belowSince = now
		}
		if now.Sub(s.belowSince) >= s.config.RecoveryWindow {
			logger.Info("disk_usage_recovered", "path", s.config.Path, "used_pct", usedPct, "low_pct", s.config.DiskLowPct, "window", s.config.RecoveryWindow)
			s.diskAlert = false
			s.belowSince = time.Time{}
		}
	default:
		s.belowSince = time.Time{}
	}
}

func diskUsedPct(path string) (float64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	if total == 0 {
		return 0, nil
	}
	available := stat.Bavail * uint64(stat.Bsize)
	return float64(total-available) / float64(total) * 100, nil
}
