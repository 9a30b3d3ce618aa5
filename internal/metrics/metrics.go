// Package metrics persists per-run latency data and summarizes round-trip
// times, mirroring the original generator's save_metrics.c CSV sink and
// rtt_measurement.c aggregate statistics.
package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const latencyDir = "latencies"

// WriteCSV writes one row per packet id to latencies/latency_<timestamp>.csv
// and returns the path written. recvNS entries of 0 mean no reply arrived,
// and are written as 0, same as the original tool's uninitialized
// timestamp column.
func WriteCSV(sendNS, recvNS []int64, now time.Time) (string, error) {
	if len(sendNS) == 0 || len(sendNS) != len(recvNS) {
		return "", fmt.Errorf("metrics: invalid timestamp arrays (send=%d recv=%d)", len(sendNS), len(recvNS))
	}
	if err := ensureDir(latencyDir); err != nil {
		return "", err
	}
	path := filepath.Join(latencyDir, fmt.Sprintf("latency_%s.csv", now.Format("2006-01-02_15-04-05")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("metrics: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ID", "send_timestamp", "recv_timestamp"}); err != nil {
		return "", fmt.Errorf("metrics: write header: %w", err)
	}
	for i := range sendNS {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(sendNS[i], 10),
			strconv.FormatInt(recvNS[i], 10),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("metrics: write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("metrics: flush %s: %w", path, err)
	}
	return path, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("metrics: %q exists but is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("metrics: stat %s: %w", dir, err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("metrics: mkdir %s: %w", dir, err)
	}
	return nil
}

// Summary aggregates round-trip latency across every packet that received
// a reply.
type Summary struct {
	Samples int
	MinNS   int64
	AvgNS   float64
	MaxNS   int64
}

// Summarize computes round-trip latency (recv - send) over every id that
// got a reply; ids with no reply on either side are excluded.
func Summarize(sendNS, recvNS []int64) Summary {
	var s Summary
	var total int64
	for i := range sendNS {
		if sendNS[i] == 0 || recvNS[i] == 0 {
			continue
		}
		rtt := recvNS[i] - sendNS[i]
		if s.Samples == 0 || rtt < s.MinNS {
			s.MinNS = rtt
		}
		if rtt > s.MaxNS {
			s.MaxNS = rtt
		}
		total += rtt
		s.Samples++
	}
	if s.Samples > 0 {
		s.AvgNS = float64(total) / float64(s.Samples)
	}
	return s
}

// LogSummary emits the RTT summary at run end, the structured-logging
// equivalent of the original tool's end-of-run stats printout.
func LogSummary(log *zap.Logger, s Summary) {
	if s.Samples == 0 {
		log.Warn("rtt summary: no replies received")
		return
	}
	log.Info("rtt summary",
		zap.Int("samples", s.Samples),
		zap.Duration("min", time.Duration(s.MinNS)),
		zap.Duration("avg", time.Duration(s.AvgNS)),
		zap.Duration("max", time.Duration(s.MaxNS)),
	)
}
