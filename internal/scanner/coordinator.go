package scanner

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"magda/internal/config"
	"magda/internal/exclusions"
	"magda/internal/plugin"
)

// ProgressFunc receives scan progress in [0,1] plus a label for the plugin
// most recently touched.
type ProgressFunc func(progress float64, label string)

// CompletionFunc receives the final outcome of a scan. It fires exactly once
// per scan that runs to completion; an aborted scan never completes.
type CompletionFunc func(success bool, found []plugin.Descriptor, failed []string)

// Candidate is one discovered plugin file awaiting a scan.
type Candidate struct {
	FormatName string
	Path       string
}

// scanWorker is the slice of Worker the coordinator needs; tests substitute
// scripted implementations.
type scanWorker interface {
	ScanPlugin(formatName, pluginPath string)
	Abort()
	Busy() bool
}

type workerFactory func(index int, deliver func(int, Result)) scanWorker

type workerEvent struct {
	index  int
	result Result
}

// Coordinator discovers candidate plugins, owns the worker pool, and runs the
// scan to completion. All public methods are safe for concurrent use, but all
// per-scan state is owned by a single goroutine: the scan event loop.
type Coordinator struct {
	logger     *slog.Logger
	store      *exclusions.Store
	poolSize   int
	formats    []string
	extraDirs  []string
	binary     string
	reportPath string

	newWorker workerFactory
	tick      time.Duration

	mu       sync.Mutex
	scanning bool
	timeout  time.Duration
	events   chan workerEvent
	abortReq chan chan struct{}
	scanDone chan struct{}
}

// Option configures optional Coordinator behavior.
type Option func(*Coordinator)

// WithTickInterval overrides the timeout-check cadence (tests).
func WithTickInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.tick = d
		}
	}
}

func withWorkerFactory(factory workerFactory) Option {
	return func(c *Coordinator) { c.newWorker = factory }
}

// New builds a coordinator from application config. The exclusion store must
// already be loaded; the coordinator is its sole writer during a scan.
func New(cfg *config.Config, store *exclusions.Store, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Coordinator{
		logger:     logger.With("component", "scan-coordinator"),
		store:      store,
		poolSize:   cfg.Scan.Workers,
		formats:    append([]string(nil), cfg.Scan.Formats...),
		extraDirs:  append([]string(nil), cfg.Scan.ExtraDirs...),
		binary:     cfg.Scan.ScannerBinary,
		reportPath: cfg.ReportFile(),
		timeout:    time.Duration(cfg.Scan.PluginTimeoutMs) * time.Millisecond,
		tick:       time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPluginTimeout adjusts the per-plugin scan timeout. Takes effect on the
// next timeout check, including a scan already in flight.
func (c *Coordinator) SetPluginTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.timeout = d
	}
}

// PluginTimeout returns the current per-plugin timeout.
func (c *Coordinator) PluginTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// IsScanning reports whether a scan is in flight.
func (c *Coordinator) IsScanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanning
}

// ExcludedPlugins returns the persisted exclusion list.
func (c *Coordinator) ExcludedPlugins() []exclusions.Entry {
	return c.store.Entries()
}

// ExcludePlugin manually records a plugin as excluded.
func (c *Coordinator) ExcludePlugin(path, reason string) {
	c.store.Exclude(path, reason)
}

// ClearExclusions empties the exclusion list so every plugin is probed again
// on the next scan.
func (c *Coordinator) ClearExclusions() {
	c.store.Clear()
}

// StartScan discovers candidates and launches the scan. It returns
// immediately; progress and completion arrive via the callbacks. A scan
// already in progress makes this a logged no-op. Zero candidates complete
// immediately with success.
func (c *Coordinator) StartScan(providers []plugin.FormatProvider, onProgress ProgressFunc, onComplete CompletionFunc) {
	c.mu.Lock()
	if c.scanning {
		c.mu.Unlock()
		c.logger.Info("scan already in progress")
		return
	}

	candidates := c.discover(providers)
	if len(candidates) == 0 {
		c.mu.Unlock()
		c.logger.Info("no plugins to scan")
		if onComplete != nil {
			onComplete(true, nil, nil)
		}
		return
	}
	c.logger.Info("scan starting", "candidates", len(candidates))

	factory := c.newWorker
	if factory == nil {
		binary, err := ResolveScannerBinary(c.binary)
		if err != nil {
			c.mu.Unlock()
			c.logger.Error("scanner executable not found", "error", err)
			if onComplete != nil {
				onComplete(false, nil, nil)
			}
			return
		}
		launcher := CommandLauncher(binary, c.logger)
		factory = func(index int, deliver func(int, Result)) scanWorker {
			return NewWorker(index, launcher, c.logger, deliver)
		}
	}

	poolSize := c.poolSize
	if len(candidates) < poolSize {
		poolSize = len(candidates)
	}

	events := make(chan workerEvent, poolSize)
	scanDone := make(chan struct{})
	abortReq := make(chan chan struct{})

	st := &scanState{
		sessionID: uuid.NewString(),
		queue:     candidates,
		total:     len(candidates),
		started:   time.Now(),
		progress:  onProgress,
		complete:  onComplete,
		slots:     make([]*workerSlot, poolSize),
	}
	for i := 0; i < poolSize; i++ {
		index := i
		deliver := func(workerIndex int, result Result) {
			// A result racing a finished or aborted scan is dropped here;
			// the loop is gone and must not be reached.
			select {
			case events <- workerEvent{index: workerIndex, result: result}:
			case <-scanDone:
			}
		}
		st.slots[i] = &workerSlot{worker: factory(index, deliver)}
	}

	c.scanning = true
	c.events = events
	c.scanDone = scanDone
	c.abortReq = abortReq
	c.mu.Unlock()

	go c.run(st, events, abortReq, scanDone)
}

// AbortScan force-stops the scan: subprocesses are terminated and state reset
// before it returns. The completion callback is never invoked.
func (c *Coordinator) AbortScan() {
	c.mu.Lock()
	if !c.scanning {
		c.mu.Unlock()
		return
	}
	abortReq := c.abortReq
	scanDone := c.scanDone
	c.mu.Unlock()

	ack := make(chan struct{})
	select {
	case abortReq <- ack:
		<-ack
	case <-scanDone:
		// the scan finished on its own in the meantime
	}
}

// workerSlot is the coordinator-side bookkeeping for one pool position.
type workerSlot struct {
	worker        scanWorker
	start         time.Time
	currentPlugin string
	currentFormat string
}

type scanState struct {
	sessionID string
	queue     []Candidate
	next      int
	completed int
	total     int
	started   time.Time
	progress  ProgressFunc
	complete  CompletionFunc
	slots     []*workerSlot

	found    []plugin.Descriptor
	failed   []string
	results  []ReportEntry
	finished bool
}

// run is the scan event loop. It is the only goroutine that touches st, which
// is what makes counters, slot bookkeeping, and report entries race-free.
func (c *Coordinator) run(st *scanState, events chan workerEvent, abortReq chan chan struct{}, scanDone chan struct{}) {
	logger := c.logger.With("session", st.sessionID)
	logger.Info("worker pool ready", "workers", len(st.slots))

	for i := range st.slots {
		c.assignNext(st, i)
	}

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			c.handleWorkerResult(st, ev)
		case <-ticker.C:
			c.checkTimeouts(st)
		case ack := <-abortReq:
			c.abort(st, scanDone)
			close(ack)
			return
		}
		if st.finished {
			return
		}
	}
}

func (c *Coordinator) discover(providers []plugin.FormatProvider) []Candidate {
	var out []Candidate
	for _, p := range providers {
		if !c.formatAllowed(p.Name()) {
			continue
		}
		c.logger.Info("discovering plugins", "format", p.Name())
		roots := append(p.DefaultSearchPaths(), c.extraDirs...)
		files, err := p.Candidates(roots)
		if err != nil {
			c.logger.Warn("candidate discovery failed", "format", p.Name(), "error", err)
			continue
		}
		excluded := 0
		for _, file := range files {
			if c.store.Contains(file) {
				excluded++
				c.logger.Debug("skipping excluded plugin", "path", file)
				continue
			}
			out = append(out, Candidate{FormatName: p.Name(), Path: file})
		}
		c.logger.Info("format discovery complete", "format", p.Name(), "found", len(files), "excluded", excluded)
	}
	return out
}

func (c *Coordinator) formatAllowed(name string) bool {
	lower := strings.ToLower(name)
	for _, allowed := range c.formats {
		if strings.Contains(lower, strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}

// assignNext pops the next queued candidate onto worker i. FIFO, pull-based:
// a worker only ever receives new work once its previous result is recorded.
func (c *Coordinator) assignNext(st *scanState, i int) {
	if st.next >= len(st.queue) {
		return
	}
	cand := st.queue[st.next]
	st.next++

	c.logger.Info("assigning plugin",
		"worker", i,
		"path", cand.Path,
		"position", fmt.Sprintf("%d/%d", st.completed+1, st.total))
	if st.progress != nil {
		st.progress(float64(st.completed)/float64(st.total), cand.Path)
	}

	slot := st.slots[i]
	slot.start = time.Now()
	slot.currentPlugin = cand.Path
	slot.currentFormat = cand.FormatName
	slot.worker.ScanPlugin(cand.FormatName, cand.Path)
}

func (c *Coordinator) handleWorkerResult(st *scanState, ev workerEvent) {
	slot := st.slots[ev.index]
	// A slot cleared by the timeout path may still see a result that was in
	// flight when the worker was aborted; it has already been recorded as a
	// timeout and must not count twice.
	if slot.currentPlugin != ev.result.PluginPath {
		c.logger.Debug("dropping stale worker result", "worker", ev.index, "path", ev.result.PluginPath)
		return
	}

	res := ev.result
	st.completed++

	entry := ReportEntry{
		Path:         res.PluginPath,
		FormatName:   slot.currentFormat,
		Success:      res.Success,
		ErrorMessage: res.ErrorMessage,
		DurationMs:   time.Since(slot.start).Milliseconds(),
		WorkerIndex:  ev.index,
	}
	for _, desc := range res.FoundPlugins {
		entry.FoundNames = append(entry.FoundNames, desc.Name)
	}
	st.results = append(st.results, entry)

	if res.Success {
		st.found = append(st.found, res.FoundPlugins...)
	} else {
		st.failed = append(st.failed, res.PluginPath)
		reason := res.ErrorMessage
		if strings.TrimSpace(reason) == "" {
			reason = exclusions.ReasonUnknown
		}
		c.store.Exclude(res.PluginPath, reason)
		c.logger.Warn("plugin failed", "path", res.PluginPath, "error", res.ErrorMessage)
	}

	if st.progress != nil {
		st.progress(float64(st.completed)/float64(st.total), res.PluginPath)
	}

	slot.start = time.Time{}
	slot.currentPlugin = ""
	slot.currentFormat = ""
	if st.next < len(st.queue) {
		c.assignNext(st, ev.index)
	} else {
		c.checkAllDone(st)
	}
}

// checkTimeouts runs on every tick while scanning. Abort suppresses the
// worker's own callback, so this is the one place allowed to manufacture a
// result for an aborted assignment; that keeps a timeout and a racing normal
// result from both being recorded.
func (c *Coordinator) checkTimeouts(st *scanState) {
	timeout := c.PluginTimeout()
	now := time.Now()

	for i, slot := range st.slots {
		if st.finished {
			return
		}
		if !slot.worker.Busy() || slot.start.IsZero() {
			continue
		}
		elapsed := now.Sub(slot.start)
		if elapsed <= timeout {
			continue
		}

		timedOut := slot.currentPlugin
		c.logger.Warn("worker timed out", "worker", i, "path", timedOut, "elapsed", elapsed)
		slot.worker.Abort()

		st.results = append(st.results, ReportEntry{
			Path:         timedOut,
			FormatName:   slot.currentFormat,
			Success:      false,
			ErrorMessage: fmt.Sprintf("timeout (%ds)", int(timeout/time.Second)),
			DurationMs:   elapsed.Milliseconds(),
			WorkerIndex:  i,
		})
		if timedOut != "" {
			c.store.Exclude(timedOut, exclusions.ReasonTimeout)
			st.failed = append(st.failed, timedOut)
		}
		st.completed++
		slot.start = time.Time{}
		slot.currentPlugin = ""
		slot.currentFormat = ""

		if st.progress != nil {
			st.progress(float64(st.completed)/float64(st.total), timedOut+" (timed out)")
		}

		if st.next < len(st.queue) {
			c.assignNext(st, i)
		} else {
			c.checkAllDone(st)
		}
	}
}

// checkAllDone finishes once every candidate has a recorded outcome. Worker
// Busy state is not consulted: a worker clears busy before its result is
// drained from the event channel, so the counter is the authoritative view.
func (c *Coordinator) checkAllDone(st *scanState) {
	if st.completed >= st.total {
		c.finishScan(st, true)
	}
}

// finishScan runs exactly once per completed scan: it tears down the pool,
// writes the report, and fires the stored completion callback.
func (c *Coordinator) finishScan(st *scanState, success bool) {
	st.finished = true

	c.mu.Lock()
	c.scanning = false
	scanDone := c.scanDone
	c.mu.Unlock()
	close(scanDone)

	for _, slot := range st.slots {
		slot.worker.Abort()
		slot.start = time.Time{}
		slot.currentPlugin = ""
		slot.currentFormat = ""
	}

	if err := writeReport(c.reportPath, st); err != nil {
		c.logger.Warn("write scan report", "path", c.reportPath, "error", err)
	} else {
		c.logger.Info("scan report written", "path", c.reportPath)
	}

	c.logger.Info("scan finished",
		"session", st.sessionID,
		"found", len(st.found),
		"failed", len(st.failed),
		"duration", time.Since(st.started).Round(time.Millisecond))

	complete := st.complete
	st.complete = nil
	if complete != nil {
		complete(success, st.found, st.failed)
	}
}

func (c *Coordinator) abort(st *scanState, scanDone chan struct{}) {
	st.finished = true

	c.mu.Lock()
	c.scanning = false
	c.mu.Unlock()
	close(scanDone)

	for _, slot := range st.slots {
		slot.worker.Abort()
	}
	c.logger.Info("scan aborted", "session", st.sessionID, "completed", st.completed, "total", st.total)
}
