package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// Logger is the process-wide logger. It discards everything until
// Initialize is called with debug enabled, so library code can log
// unconditionally.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Initialize routes logs to a uuid-named JSON file in the state directory
// when debug is set. The TUI owns the terminal, so logs never go to stderr.
func Initialize(debug bool) error {
	if os.Getenv("EXAMTRACK_DEBUG") == "1" {
		debug = true
	}
	if !debug {
		return nil
	}

	dir, err := logDir()
	if err != nil {
		return fmt.Errorf("resolve log directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, uuid.New().String()+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}

	Logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logger.Info("debug logging initialized", "log_file", path)
	return nil
}

func logDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "examtrack"), nil
	case "linux":
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			stateHome = filepath.Join(home, ".local", "state")
		}
		return filepath.Join(stateHome, "examtrack"), nil
	default:
		return filepath.Join(home, ".examtrack", "logs"), nil
	}
}
