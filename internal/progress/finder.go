package progress

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/alexander-akhmetov/sceneprobe/internal/dirs"
)

const (
	logExt             = ".jsonl"
	filenameTimeFormat = "20060102-150405"
)

// LogFile represents a measurement log file.
type LogFile struct {
	Path      string
	RunID     string
	Timestamp time.Time
	Complete  bool // true if the exit footer was written

	modTime time.Time
}

// FindLogs finds log files in the logs directory, optionally filtered by run ID.
// Files are returned sorted by timestamp, newest first.
func FindLogs(logsDir, runID string) ([]LogFile, error) {
	if logsDir == "" {
		logsDir = dirs.LogsDir()
	}

	entries, err := os.ReadDir(logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No logs yet
		}
		return nil, err
	}

	var logs []LogFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), logExt) {
			continue
		}

		lf := parseLogFilename(logsDir, entry.Name())
		if lf == nil {
			continue
		}

		if runID != "" && !strings.Contains(strings.ToLower(lf.RunID), strings.ToLower(runID)) {
			continue
		}

		if info, err := entry.Info(); err == nil {
			lf.modTime = info.ModTime()
		}
		lf.Complete = hasFooter(lf.Path)
		logs = append(logs, *lf)
	}

	// Names only resolve to the second; creation order breaks ties.
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].Timestamp.After(logs[j].Timestamp)
		}
		return logs[i].modTime.After(logs[j].modTime)
	})

	return logs, nil
}

// FindLatestLog finds the most recent log file for a run ID.
func FindLatestLog(logsDir, runID string) (*LogFile, error) {
	logs, err := FindLogs(logsDir, runID)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return &logs[0], nil
}

// parseLogFilename parses a log filename into a LogFile.
// Expected format: YYYYMMDD-HHMMSS-<run-id>.jsonl
func parseLogFilename(dir, name string) *LogFile {
	base := strings.TrimSuffix(name, logExt)

	// Need at least timestamp prefix: YYYYMMDD-HHMMSS (15 chars)
	if len(base) < 16 {
		return nil
	}

	t, err := time.Parse(filenameTimeFormat, base[:15])
	if err != nil {
		return nil
	}

	runID := ""
	if len(base) > 16 {
		runID = base[16:]
	}

	return &LogFile{
		Path:      filepath.Join(dir, name),
		RunID:     runID,
		Timestamp: t,
	}
}

// hasFooter reports whether the last line of path is an exit record.
func hasFooter(path string) bool {
	f, err := os.Open(path) //nolint:gosec // file from the logs directory
	if err != nil {
		return false
	}
	defer f.Close()

	var last string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			last = line
		}
	}
	return gjson.Get(last, "type").String() == RecordExit
}
