// Package report reads measurement logs back and summarizes them.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/progress"
)

// Record is one observation read from a log.
type Record struct {
	Kind     string
	Scene    string
	Path     string
	Duration time.Duration
	At       time.Time
}

// Timed reports whether r carries a load duration.
func (r Record) Timed() bool {
	return r.Kind == event.KindLoadCompleted.String()
}

// Run is a parsed measurement log.
type Run struct {
	RunID      string
	Host       string
	Started    time.Time
	Records    []Record
	ExitReason string // empty if the run did not finish cleanly
	Frames     int64
	Skipped    int // lines that were not valid JSON
}

// ReadFile parses the log at path.
func ReadFile(path string) (*Run, error) {
	f, err := os.Open(path) //nolint:gosec // user-selected log file
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a JSON Lines measurement log. Malformed lines are counted and
// skipped; unknown record types are ignored.
func Read(r io.Reader) (*Run, error) {
	run := &Run{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			run.Skipped++
			continue
		}

		rec := gjson.Parse(line)
		switch rec.Get("type").String() {
		case progress.RecordRun:
			run.RunID = rec.Get("run_id").String()
			run.Host = rec.Get("host").String()
			run.Started = parseTime(rec.Get("started").String())
		case progress.RecordEvent:
			run.Records = append(run.Records, Record{
				Kind:     rec.Get("kind").String(),
				Scene:    rec.Get("scene").String(),
				Path:     rec.Get("path").String(),
				Duration: time.Duration(rec.Get("duration_ns").Int()),
				At:       parseTime(rec.Get("at").String()),
			})
		case progress.RecordExit:
			run.ExitReason = rec.Get("reason").String()
			run.Frames = rec.Get("frames").Int()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return run, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
