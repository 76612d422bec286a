package metrics

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forumdb"

var (
	CounterAllocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_allocations_total",
			Help:      "Ids and cursors handed out by the allocator.",
		},
		[]string{"namespace"},
	)

	BatchCommits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_commits_total",
			Help:      "Atomic batches applied to the store.",
		},
	)

	BatchOps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_ops_total",
			Help:      "Mutations applied through batches.",
		},
	)

	RecordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records left out of a batch read because they were missing or undecodable.",
		},
		[]string{"namespace", "reason"},
	)

	SweeperRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_runs_total",
			Help:      "Completed expiring-key sweeps.",
		},
	)

	SweeperRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_removed_total",
			Help:      "Expired keys removed by the sweeper.",
		},
		[]string{"namespace"},
	)

	DiskUsedPct = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_used_percent",
			Help:      "Used space on the filesystem holding the store.",
		},
	)
)

// PebbleSource is anything exposing engine metrics, e.g. *db.Store.
type PebbleSource interface {
	Metrics() *pebble.Metrics
}

// Register adds the package collectors, plus engine gauges when src is set.
// Registering twice on the same registry is not an error.
func Register(reg prometheus.Registerer, src PebbleSource) error {
	cs := []prometheus.Collector{
		CounterAllocations,
		BatchCommits,
		BatchOps,
		RecordsSkipped,
		SweeperRuns,
		SweeperRemoved,
		DiskUsedPct,
	}
	if src != nil {
		cs = append(cs, pebbleGauges(src)...)
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func pebbleGauges(src PebbleSource) []prometheus.Collector {
	gauge := func(name, help string, fn func(m *pebble.Metrics) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "pebble", Name: name, Help: help},
			func() float64 {
				m := src.Metrics()
				if m == nil {
					return 0
				}
				return fn(m)
			},
		)
	}
	return []prometheus.Collector{
		gauge("disk_usage_bytes", "Bytes used by the store on disk.", func(m *pebble.Metrics) float64 {
			return float64(m.DiskSpaceUsage())
		}),
		gauge("memtable_bytes", "Bytes held in memtables.", func(m *pebble.Metrics) float64 {
			return float64(m.MemTable.Size)
		}),
		gauge("l0_files", "Sstables in level 0.", func(m *pebble.Metrics) float64 {
			return float64(m.Levels[0].NumFiles)
		}),
		gauge("compactions", "Compactions since open.", func(m *pebble.Metrics) float64 {
			return float64(m.Compact.Count)
		}),
	}
}
