package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ProcessHandle controls a launched scanner subprocess.
type ProcessHandle interface {
	Kill() error
	Wait() error
}

// Conn is a live message channel to a scanner subprocess: its stdin/stdout
// pipes plus the process handle. Tests substitute in-memory pipes.
type Conn struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Proc   ProcessHandle
}

// Launcher starts one scanner subprocess and hands back its channel.
type Launcher func() (*Conn, error)

// CommandLauncher launches the scanner binary with piped stdin/stdout.
// Subprocess stderr is forwarded line by line into the logger so scanner
// diagnostics land in the host's journal instead of stray temp files.
func CommandLauncher(binary string, logger *slog.Logger) Launcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func() (*Conn, error) {
		cmd := exec.Command(binary)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, fmt.Errorf("stderr pipe: %w", err)
		}
		setProcAttributes(cmd)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start scanner: %w", err)
		}
		go forwardStderr(stderr, logger)
		return &Conn{Stdin: stdin, Stdout: stdout, Proc: &osProcess{cmd: cmd}}, nil
	}
}

type osProcess struct {
	cmd *exec.Cmd
}

func (p *osProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return killProcess(p.cmd)
}

func (p *osProcess) Wait() error {
	return p.cmd.Wait()
}

func forwardStderr(r io.Reader, logger *slog.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		logger.Debug("scanner stderr", "line", sc.Text())
	}
}

// ResolveScannerBinary locates the magda-scanner executable: an explicit
// configured path wins, then a sibling of the running executable, then PATH.
func ResolveScannerBinary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured scanner binary: %w", err)
		}
		return configured, nil
	}

	name := "magda-scanner"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	return "", errors.New("scanner executable not found; set scan.scanner_binary")
}
