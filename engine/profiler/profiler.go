package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-passes/common"
)

// Profiler tracks frame rate, per-pass timings and memory statistics.
// Stats are reported through the module logger at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	passes map[string]time.Duration
	order  []string

	now func() time.Time
}

// NewProfiler creates a new Profiler with any provided options applied.
// Update interval defaults to 1 second.
//
// Parameters:
//   - opts: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		passes:         make(map[string]time.Duration),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// RecordPass adds the duration of one render pass to the current interval.
//
// Parameters:
//   - name: the pass name, e.g. "shadow" or "resolve"
//   - d: time spent in the pass this frame
func (p *Profiler) RecordPass(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.passes[name]; !ok {
		p.order = append(p.order, name)
	}
	p.passes[name] += d
}

// PassAverage returns the mean per-frame duration of a pass over the frames
// ticked so far in the current interval.
//
// Parameters:
//   - name: the pass name
//
// Returns:
//   - time.Duration: the average, zero when no frame has been ticked
func (p *Profiler) PassAverage(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frameCount == 0 {
		return 0
	}
	return p.passes[name] / time.Duration(p.frameCount)
}

// Tick should be called once per frame, after the frame's passes have been
// recorded. Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, average pass times, heap usage, allocation rate,
// GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	attrs := []any{
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	}
	for _, name := range p.order {
		attrs = append(attrs, "pass_"+name, p.passes[name]/time.Duration(p.frameCount))
	}
	common.Logger().Info("profiler", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.passes)
	return true
}
