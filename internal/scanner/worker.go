package scanner

import (
	"io"
	"log/slog"
	"sync"

	"magda/internal/ipc"
	"magda/internal/plugin"
)

// Result is what a worker delivers for one assignment. Exactly one Result is
// ever delivered per ScanPlugin call, unless Abort resets the worker first.
type Result struct {
	PluginPath   string
	Success      bool
	FoundPlugins []plugin.Descriptor
	ErrorMessage string
}

// Worker owns one subprocess slot. A fresh subprocess is launched per
// assignment and torn down when the scan of that one file ends, so plugin
// state never leaks between candidates.
type Worker struct {
	index   int
	launch  Launcher
	logger  *slog.Logger
	deliver func(index int, result Result)

	mu           sync.Mutex
	busy         bool
	receivedDone bool
	current      Result
	conn         *Conn
	enc          *ipc.Encoder
	// generation invalidates reader goroutines left over from a previous
	// launch; a stale reader must never report into the current assignment.
	generation uint64
}

// NewWorker builds a worker. deliver is invoked asynchronously, never from
// inside a message-handling path, so the recipient is free to immediately
// assign new work to this same worker.
func NewWorker(index int, launch Launcher, logger *slog.Logger, deliver func(int, Result)) *Worker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Worker{
		index:   index,
		launch:  launch,
		logger:  logger.With("component", "scan-worker", "worker", index),
		deliver: deliver,
	}
}

// Busy reports whether an assignment is in flight.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// ScanPlugin launches a subprocess and sends it the scan command. The worker
// must be idle. Launch failures are delivered as a failed Result like any
// other outcome.
func (w *Worker) ScanPlugin(formatName, pluginPath string) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		w.logger.Error("scan requested while busy", "path", pluginPath)
		return
	}
	w.killLocked()

	w.busy = true
	w.receivedDone = false
	w.current = Result{PluginPath: pluginPath}
	w.generation++
	gen := w.generation

	conn, err := w.launch()
	if err != nil {
		w.logger.Error("launch scanner subprocess", "path", pluginPath, "error", err)
		w.reportLocked(false, "Failed to launch subprocess")
		w.mu.Unlock()
		return
	}
	w.conn = conn
	w.enc = ipc.NewEncoder(conn.Stdin)
	enc := w.enc
	w.mu.Unlock()

	go w.readLoop(gen, conn)

	if err := enc.Send(ipc.ScanOne(formatName, pluginPath)); err != nil {
		// The subprocess died before taking the command; the reader's
		// channel-loss path reports the crash.
		w.logger.Debug("send scan command", "path", pluginPath, "error", err)
	}
}

// Abort unconditionally terminates the subprocess and resets to idle without
// delivering a result. The caller owns recording the outcome.
func (w *Worker) Abort() {
	w.mu.Lock()
	w.busy = false
	w.receivedDone = false
	w.generation++
	conn := w.conn
	w.conn = nil
	w.enc = nil
	w.mu.Unlock()

	if conn != nil {
		if err := conn.Proc.Kill(); err != nil {
			w.logger.Debug("kill scanner subprocess", "error", err)
		}
	}
}

func (w *Worker) readLoop(gen uint64, conn *Conn) {
	dec := ipc.NewDecoder(conn.Stdout)
	for {
		msg, err := dec.Next()
		if err != nil {
			w.handleChannelLost(gen)
			_ = conn.Proc.Wait()
			return
		}
		switch msg.Type {
		case ipc.TypePluginFound:
			w.mu.Lock()
			if w.generation == gen && w.busy && msg.Plugin != nil {
				w.current.FoundPlugins = append(w.current.FoundPlugins, *msg.Plugin)
				w.logger.Info("found plugin", "name", msg.Plugin.Name, "format", msg.Plugin.FormatName)
			}
			w.mu.Unlock()
		case ipc.TypeError:
			w.mu.Lock()
			if w.generation == gen && w.busy {
				w.current.ErrorMessage = msg.ErrorMessage
				w.logger.Info("scan error", "path", msg.PluginPath, "error", msg.ErrorMessage)
			}
			w.mu.Unlock()
		case ipc.TypeScanComplete:
			w.mu.Lock()
			if w.generation != gen || !w.busy {
				w.mu.Unlock()
				continue
			}
			w.receivedDone = true
			enc := w.enc
			w.reportLocked(true, "")
			w.mu.Unlock()
			if enc != nil {
				_ = enc.Send(ipc.Quit())
			}
		default:
			w.logger.Debug("unexpected message from scanner", "type", msg.Type)
		}
	}
}

// handleChannelLost disambiguates a clean exit from a mid-scan crash. After a
// clean completion the subprocess closing its end is expected shutdown noise.
func (w *Worker) handleChannelLost(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.generation != gen || !w.busy {
		return
	}
	if w.receivedDone {
		return
	}
	w.logger.Warn("scanner subprocess crashed", "path", w.current.PluginPath)
	w.reportLocked(false, "crash")
}

// reportLocked captures the result, clears busy, and delivers on a fresh
// goroutine. Delivery must not run synchronously inside a message handler:
// the recipient may immediately call ScanPlugin again on this worker.
func (w *Worker) reportLocked(success bool, errorMessage string) {
	w.current.Success = success
	if errorMessage != "" {
		w.current.ErrorMessage = errorMessage
	}
	w.busy = false

	result := w.current
	index := w.index
	deliver := w.deliver
	if deliver != nil {
		go deliver(index, result)
	}
}

func (w *Worker) killLocked() {
	if w.conn == nil {
		return
	}
	if err := w.conn.Proc.Kill(); err != nil {
		w.logger.Debug("kill scanner subprocess", "error", err)
	}
	w.conn = nil
	w.enc = nil
}
