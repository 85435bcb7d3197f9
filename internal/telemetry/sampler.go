package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/prometheus/procfs"
)

const DefaultSampleInterval = 30 * time.Second

type ProcessStats struct {
	CPUPercent  float64
	MemoryBytes uint64
	Threads     int
}

// ProcessGauges receives sampled process statistics.
type ProcessGauges interface {
	SetProcessStats(stats ProcessStats)
}

// ProcessSampler periodically refreshes the process gauges.
type ProcessSampler struct {
	gauges   ProcessGauges
	interval time.Duration
	logger   *slog.Logger

	cpuTime func() (float64, error)
	now     func() time.Time

	lastCPU float64
	lastAt  time.Time
}

func NewProcessSampler(gauges ProcessGauges, interval time.Duration, logger *slog.Logger) *ProcessSampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}

	return &ProcessSampler{
		gauges:   gauges,
		interval: interval,
		logger:   logger,
		cpuTime:  procCPUTime,
		now:      time.Now,
	}
}

// Run samples once immediately and then on every tick until ctx is cancelled.
func (s *ProcessSampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sample(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sample(ctx)
		}
	}
}

// Sample reads the current statistics and pushes them to the gauges.
// CPU usage is derived from the CPU time consumed since the previous sample.
func (s *ProcessSampler) Sample(ctx context.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := ProcessStats{
		MemoryBytes: mem.Sys,
		Threads:     pprof.Lookup("threadcreate").Count(),
	}

	now := s.now()
	cpu, err := s.cpuTime()
	if err != nil {
		s.logger.DebugContext(ctx, "process cpu time unavailable", "error", err)
	} else {
		if !s.lastAt.IsZero() {
			if elapsed := now.Sub(s.lastAt).Seconds(); elapsed > 0 {
				stats.CPUPercent = (cpu - s.lastCPU) / elapsed * 100
			}
		}
		s.lastCPU, s.lastAt = cpu, now
	}

	s.gauges.SetProcessStats(stats)
}

func procCPUTime() (float64, error) {
	proc, err := procfs.Self()
	if err != nil {
		return 0, err
	}

	stat, err := proc.Stat()
	if err != nil {
		return 0, err
	}

	return stat.CPUTime(), nil
}
