package scanproc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"magda/internal/ipc"
	"magda/internal/plugin"
)

// Run drives one scanner subprocess session over the given channel halves.
// It returns nil on a clean quit or channel loss, and an error only for
// malformed traffic.
func Run(r io.Reader, w io.Writer, providers []plugin.FormatProvider, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "scanproc")

	enc := ipc.NewEncoder(w)
	dec := ipc.NewDecoder(r)

	// done releases the reader goroutine once Run returns; without it the
	// reader would block forever handing over a command nobody will take.
	done := make(chan struct{})
	defer close(done)

	commands := make(chan ipc.Message)
	readErr := make(chan error, 1)
	go func() {
		for {
			msg, err := dec.Next()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case commands <- msg:
			case <-done:
				return
			}
		}
	}()

	logger.Info("scanner ready")
	for {
		select {
		case msg := <-commands:
			switch msg.Type {
			case ipc.TypeQuit:
				logger.Info("quit received, exiting")
				return nil
			case ipc.TypeScanOne:
				logger.Info("scan command received", "format", msg.FormatName, "path", msg.PluginPath)
				scanOne(enc, providers, msg.FormatName, msg.PluginPath, logger)
			default:
				logger.Debug("ignoring message", "type", msg.Type)
			}
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				logger.Info("channel lost, exiting")
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
	}
}

// scanOne probes a single file and emits zero or more found messages, at
// most one error, then exactly one complete. The recover keeps a panicking
// probe inside that contract.
func scanOne(enc *ipc.Encoder, providers []plugin.FormatProvider, formatName, path string, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("probe panicked", "path", path, "panic", fmt.Sprint(r))
			_ = enc.Send(ipc.Error(path, fmt.Sprintf("panic while scanning: %v", r)))
			_ = enc.Send(ipc.ScanComplete())
		}
	}()

	provider := plugin.Find(providers, formatName)
	if provider == nil {
		_ = enc.Send(ipc.Error(path, "Format not found: "+formatName))
		_ = enc.Send(ipc.ScanComplete())
		return
	}

	descriptors, err := provider.Probe(path)
	if err != nil {
		logger.Info("probe failed", "path", path, "error", err)
		_ = enc.Send(ipc.Error(path, err.Error()))
		_ = enc.Send(ipc.ScanComplete())
		return
	}

	for _, desc := range descriptors {
		_ = enc.Send(ipc.PluginFound(desc))
	}
	if len(descriptors) == 0 {
		_ = enc.Send(ipc.Error(path, "No plugins found in file"))
	} else {
		logger.Info("probe complete", "path", path, "plugins", len(descriptors))
	}
	_ = enc.Send(ipc.ScanComplete())
}
