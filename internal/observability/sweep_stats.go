package observability

import (
	"sync/atomic"
	"time"
)

// SweepStats is a lock-free running tally the sweeper exposes on its
// readiness endpoint.
type SweepStats struct {
	runs    atomic.Uint64
	deleted atomic.Uint64
	kept    atomic.Uint64
	failed  atomic.Uint64

	lastRunUnix  atomic.Int64
	lastDuration atomic.Int64
	maxDuration  atomic.Int64
}

func NewSweepStats() *SweepStats {
	return &SweepStats{}
}

func (s *SweepStats) Record(deleted, kept, failed int, d time.Duration) {
	s.runs.Add(1)
	s.deleted.Add(uint64(deleted))
	s.kept.Add(uint64(kept))
	s.failed.Add(uint64(failed))

	ns := d.Nanoseconds()
	s.lastDuration.Store(ns)
	s.lastRunUnix.Store(time.Now().Unix())

	for {
		curr := s.maxDuration.Load()

		if ns <= curr {
			return
		}

		if s.maxDuration.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type SweepStatsSnapshot struct {
	Runs         uint64        `json:"runs"`
	Deleted      uint64        `json:"deleted"`
	Kept         uint64        `json:"kept"`
	Failed       uint64        `json:"failed"`
	LastRunAt    time.Time     `json:"lastRunAt"`
	LastDuration time.Duration `json:"lastDurationNs"`
	MaxDuration  time.Duration `json:"maxDurationNs"`
}

func (s *SweepStats) Snapshot() SweepStatsSnapshot {
	var last time.Time
	if unix := s.lastRunUnix.Load(); unix > 0 {
		last = time.Unix(unix, 0).UTC()
	}

	return SweepStatsSnapshot{
		Runs:         s.runs.Load(),
		Deleted:      s.deleted.Load(),
		Kept:         s.kept.Load(),
		Failed:       s.failed.Load(),
		LastRunAt:    last,
		LastDuration: time.Duration(s.lastDuration.Load()),
		MaxDuration:  time.Duration(s.maxDuration.Load()),
	}
}
