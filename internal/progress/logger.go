// Package progress persists scene load observations. Every sceneprobe run
// writes a JSON Lines file to the logs directory: one run header, one line
// per observation and an exit footer.
package progress

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/sjson"

	"github.com/alexander-akhmetov/sceneprobe/internal/dirs"
	"github.com/alexander-akhmetov/sceneprobe/internal/event"
)

// Record types written to the log.
const (
	RecordRun   = "run"
	RecordEvent = "event"
	RecordExit  = "exit"
)

// Logger appends observations to a JSON Lines file and an optional io.Writer.
// Handle is safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	writer    io.Writer // optional additional writer (e.g., console)
	startTime time.Time
	runID     string
	logPath   string
	written   int
}

// Config holds logger configuration.
type Config struct {
	LogsDir string    // Directory for log files (default: dirs.LogsDir())
	RunID   string    // Run identifier, part of the file name
	Host    string    // Host description stored in the header
	Scenes  []string  // Build list stored in the header
	Stages  []string  // Loop stages the probe is inserted into
	Writer  io.Writer // Optional mirror of every line
}

// NewLogger creates a logger that writes to a timestamped log file.
// Log files are stored in LogsDir with format: <timestamp>-<run-id>.jsonl
func NewLogger(cfg Config) (*Logger, error) {
	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = dirs.LogsDir()
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	now := time.Now()
	runID := sanitizeFilename(cfg.RunID)
	f, logPath, err := createLogFile(logsDir, now.Format(filenameTimeFormat)+"-"+runID)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		file:      f,
		writer:    cfg.Writer,
		startTime: now,
		runID:     runID,
		logPath:   logPath,
	}

	header := []byte(`{}`)
	header, _ = sjson.SetBytes(header, "type", RecordRun)
	header, _ = sjson.SetBytes(header, "run_id", runID)
	header, _ = sjson.SetBytes(header, "started", now.Format(time.RFC3339Nano))
	if cfg.Host != "" {
		header, _ = sjson.SetBytes(header, "host", cfg.Host)
	}
	if len(cfg.Scenes) > 0 {
		header, _ = sjson.SetBytes(header, "scenes", cfg.Scenes)
	}
	if len(cfg.Stages) > 0 {
		header, _ = sjson.SetBytes(header, "stages", cfg.Stages)
	}
	if err := l.writeLine(header); err != nil {
		f.Close()
		return nil, err
	}

	return l, nil
}

// maxLogSuffix bounds the "-N" suffixes tried for runs sharing a name.
const maxLogSuffix = 1000

// createLogFile creates <base>.jsonl in dir without touching existing files.
// Runs that start within the same second with the same run ID get <base>-2,
// <base>-3 and so on.
func createLogFile(dir, base string) (*os.File, string, error) {
	for n := 1; n <= maxLogSuffix; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		path := filepath.Join(dir, name+logExt)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // logs directory
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create log file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create log file: %s: %d runs already logged", base, maxLogSuffix)
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.logPath
}

// RunID returns the sanitized run identifier.
func (l *Logger) RunID() string {
	return l.runID
}

// Handle records one observation. It matches event.Handler.
func (l *Logger) Handle(e event.Event) {
	line, err := EncodeEvent(e)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeLine(line) == nil {
		l.written++
	}
}

// Written returns the number of observations recorded so far.
func (l *Logger) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Exit writes the footer with the exit reason and run totals.
func (l *Logger) Exit(reason string, frames uint64) {
	footer := []byte(`{}`)
	footer, _ = sjson.SetBytes(footer, "type", RecordExit)
	footer, _ = sjson.SetBytes(footer, "reason", reason)
	footer, _ = sjson.SetBytes(footer, "frames", frames)
	footer, _ = sjson.SetBytes(footer, "duration", l.elapsed())
	footer, _ = sjson.SetBytes(footer, "completed", time.Now().Format(time.RFC3339Nano))

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.writeLine(footer)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// EncodeEvent renders e as a single JSON object without a trailing newline.
func EncodeEvent(e event.Event) ([]byte, error) {
	var err error
	line := []byte(`{}`)
	set := func(path string, v any) {
		if err == nil {
			line, err = sjson.SetBytes(line, path, v)
		}
	}
	set("type", RecordEvent)
	set("kind", e.Kind.String())
	set("scene", e.Scene)
	set("path", e.Path)
	set("at", e.At.Format(time.RFC3339Nano))
	if e.Kind == event.KindLoadCompleted {
		set("duration_ns", e.Duration.Nanoseconds())
		set("duration_ms", float64(e.Duration)/float64(time.Millisecond))
	}
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return line, nil
}

// writeLine must be called with l.mu held, or before l is shared.
func (l *Logger) writeLine(line []byte) error {
	if l.file == nil {
		return nil
	}
	buf := append(append([]byte(nil), line...), '\n')
	if _, err := l.file.Write(buf); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	if l.writer != nil {
		_, _ = l.writer.Write(buf)
	}
	return nil
}

func (l *Logger) elapsed() string {
	d := time.Since(l.startTime).Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d.Seconds()

	if h > 0 {
		return fmt.Sprintf("%dh%dm%.0fs", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%.0fs", m, s)
	}
	return fmt.Sprintf("%.3fs", s)
}

// sanitizeFilename converts a run ID to a safe filename component.
func sanitizeFilename(s string) string {
	// Replace path separators and special chars with dashes
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, " ", "-")

	// Keep only alphanumeric, dashes, underscores, and dots
	var clean strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			clean.WriteRune(r)
		}
	}
	result := clean.String()

	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")

	if len(result) > 100 {
		result = result[:100]
		result = strings.TrimRight(result, "-")
	}

	if result == "" {
		return "unnamed"
	}
	return result
}
