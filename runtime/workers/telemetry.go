package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"direct-chat/contract"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker logs a periodic health line: online connections plus the
// process's own memory and CPU figures.
type TelemetryWorker struct {
	registry contract.IRegistry
	interval time.Duration
	log      *slog.Logger
}

func NewTelemetryWorker(registry contract.IRegistry, interval time.Duration, log *slog.Logger) *TelemetryWorker {
	return &TelemetryWorker{registry: registry, interval: interval, log: log}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping telemetry worker")
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("Telemetry",
				"online", w.registry.Count(),
				"ram_mb", rss/(1024*1024),
				"cpu_percent", cpu)
		}
	}
}

// selfStats retrieves memory and CPU figures for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
