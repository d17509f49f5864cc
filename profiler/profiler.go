// Package profiler - Stage timing for the hand detection path.
package profiler

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
)

// Stage names recorded by the detector.
const (
	StagePrepare     = "prepare"
	StageInference   = "inference"
	StagePostprocess = "postprocess"
)

// TimeTracker tracks operation timing statistics over a sliding window.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// Stats is a snapshot of one operation's timings.
type Stats struct {
	Count int64
	Mean  time.Duration
	Min   time.Duration
	Max   time.Duration
}

// RuntimeProfiler records how long each named stage takes. It is safe for
// concurrent use, and a nil *RuntimeProfiler records nothing.
type RuntimeProfiler struct {
	mu         sync.Mutex
	startTime  time.Time
	maxSamples int
	operations map[string]*TimeTracker
}

// NewRuntimeProfiler creates a profiler that averages over the last maxSamples
// durations of each stage.
//
// Arguments:
// - maxSamples: Window size per stage (default: 600).
//
// Returns:
// - A configured RuntimeProfiler instance
func NewRuntimeProfiler(maxSamples int) *RuntimeProfiler {
	if maxSamples <= 0 {
		maxSamples = 600
	}
	return &RuntimeProfiler{
		startTime:  time.Now(),
		maxSamples: maxSamples,
		operations: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	if rp == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		rp.Record(name, time.Since(start))
	}
}

// Record adds one duration for an operation.
func (rp *RuntimeProfiler) Record(name string, duration time.Duration) {
	if rp == nil {
		return
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	tracker, exists := rp.operations[name]
	if !exists {
		tracker = &TimeTracker{minTime: duration, maxTime: duration}
		rp.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	tracker.totalTime += duration
	if len(tracker.durations) > rp.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Stats returns a snapshot of every recorded operation. Mean covers the sliding
// window; Count, Min and Max cover the profiler's lifetime.
func (rp *RuntimeProfiler) Stats() map[string]Stats {
	if rp == nil {
		return map[string]Stats{}
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	stats := make(map[string]Stats, len(rp.operations))
	for name, t := range rp.operations {
		s := Stats{Count: t.count, Min: t.minTime, Max: t.maxTime}
		if len(t.durations) > 0 {
			s.Mean = t.totalTime / time.Duration(len(t.durations))
		}
		stats[name] = s
	}
	return stats
}

// Report logs the operation timings and memory usage.
func (rp *RuntimeProfiler) Report(log logs.Log) {
	if rp == nil || log == nil {
		return
	}

	stats := rp.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := stats[name]
		log.Infof("%s: avg=%v, min=%v, max=%v, count=%d", name,
			s.Mean.Truncate(time.Microsecond), s.Min.Truncate(time.Microsecond),
			s.Max.Truncate(time.Microsecond), s.Count)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.Infof("Uptime %v, heap %s, goroutines %d, GC cycles %d",
		time.Since(rp.startTime).Truncate(time.Millisecond), formatBytes(mem.HeapAlloc),
		runtime.NumGoroutine(), mem.NumGC)
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
