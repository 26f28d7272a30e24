package progress

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
)

var sceneA = scene.Identity{Name: "SceneA", Path: "Assets/Scenes/SceneA.unity"}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNewLogger(t *testing.T) {
	tmpDir := t.TempDir()
	var mirror bytes.Buffer

	logger, err := NewLogger(Config{
		LogsDir: tmpDir,
		RunID:   "sim run",
		Host:    "sim",
		Scenes:  []string{"Lobby", "SceneA"},
		Stages:  []string{"Update"},
		Writer:  &mirror,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Close()

	assert.FileExists(t, logger.Path())
	assert.True(t, strings.HasSuffix(logger.Path(), "-sim-run.jsonl"))
	assert.Equal(t, "sim-run", logger.RunID())

	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	logger.Handle(event.LoadStarted(sceneA, at))
	logger.Handle(event.LoadCompleted(sceneA, 80*time.Millisecond, at.Add(80*time.Millisecond)))
	logger.Exit("complete", 600)
	assert.Equal(t, 2, logger.Written())

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close(), "second close is a no-op")

	lines := readLines(t, logger.Path())
	require.Len(t, lines, 4)

	header := gjson.Parse(lines[0])
	assert.Equal(t, RecordRun, header.Get("type").String())
	assert.Equal(t, "sim-run", header.Get("run_id").String())
	assert.Equal(t, "sim", header.Get("host").String())
	assert.Equal(t, "SceneA", header.Get("scenes.1").String())
	assert.Equal(t, "Update", header.Get("stages.0").String())

	started := gjson.Parse(lines[1])
	assert.Equal(t, "load_started", started.Get("kind").String())
	assert.False(t, started.Get("duration_ms").Exists())

	done := gjson.Parse(lines[2])
	assert.Equal(t, RecordEvent, done.Get("type").String())
	assert.Equal(t, "load_completed", done.Get("kind").String())
	assert.Equal(t, "SceneA", done.Get("scene").String())
	assert.Equal(t, sceneA.Path, done.Get("path").String())
	assert.InDelta(t, 80.0, done.Get("duration_ms").Float(), 1e-9)
	assert.Equal(t, int64(80*time.Millisecond), done.Get("duration_ns").Int())

	footer := gjson.Parse(lines[3])
	assert.Equal(t, RecordExit, footer.Get("type").String())
	assert.Equal(t, "complete", footer.Get("reason").String())
	assert.Equal(t, int64(600), footer.Get("frames").Int())

	assert.Equal(t, strings.Join(lines, "\n")+"\n", mirror.String())
}

func TestNewLoggerKeepsEarlierRun(t *testing.T) {
	tmpDir := t.TempDir()
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	first, err := NewLogger(Config{LogsDir: tmpDir, RunID: "sim"})
	require.NoError(t, err)
	first.Handle(event.LoadCompleted(sceneA, 80*time.Millisecond, at))
	first.Exit("complete", 600)
	require.NoError(t, first.Close())

	second, err := NewLogger(Config{LogsDir: tmpDir, RunID: "sim"})
	require.NoError(t, err)
	require.NoError(t, second.Close())

	assert.NotEqual(t, first.Path(), second.Path())
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	lines := readLines(t, first.Path())
	require.Len(t, lines, 3)
	assert.Equal(t, "load_completed", gjson.Get(lines[1], "kind").String())
	assert.Equal(t, RecordExit, gjson.Get(lines[2], "type").String())
}

func TestCreateLogFileSuffixesCollisions(t *testing.T) {
	tmpDir := t.TempDir()
	base := "20260129-120000-sim"
	existing := filepath.Join(tmpDir, base+".jsonl")
	require.NoError(t, os.WriteFile(existing, []byte(`{"type":"run"}`+"\n"), 0o644))

	f, path, err := createLogFile(tmpDir, base)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, filepath.Join(tmpDir, base+"-2.jsonl"), path)

	f, path, err = createLogFile(tmpDir, base)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, filepath.Join(tmpDir, base+"-3.jsonl"), path)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"run"}`+"\n", string(data), "existing log must not be truncated")

	// Same second: the most recently written file wins.
	old := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(existing, old, old))
	require.NoError(t, os.Chtimes(filepath.Join(tmpDir, base+"-2.jsonl"), old.Add(time.Second), old.Add(time.Second)))
	latest, err := FindLatestLog(tmpDir, "sim")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, path, latest.Path)
}

func TestLoggerHandleIsConcurrencySafe(t *testing.T) {
	logger, err := NewLogger(Config{LogsDir: t.TempDir(), RunID: "race"})
	require.NoError(t, err)
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Handle(event.LoadCompleted(sceneA, time.Millisecond, time.Now()))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	lines := readLines(t, logger.Path())
	assert.Len(t, lines, 1+200)
	for _, line := range lines {
		assert.True(t, gjson.Valid(line), line)
	}
}

func TestHandleAfterCloseIsDropped(t *testing.T) {
	logger, err := NewLogger(Config{LogsDir: t.TempDir(), RunID: "closed"})
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	assert.NotPanics(t, func() { logger.Handle(event.LoadUntimed(sceneA, time.Now())) })
	assert.Len(t, readLines(t, logger.Path()), 1)
}

func TestEncodeEventUntimed(t *testing.T) {
	line, err := EncodeEvent(event.LoadUntimed(sceneA, time.Now()))
	require.NoError(t, err)

	r := gjson.ParseBytes(line)
	assert.Equal(t, "load_untimed", r.Get("kind").String())
	assert.False(t, r.Get("duration_ns").Exists())
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple-id", "simple-id"},
		{"./runs/boot", ".-runs-boot"},
		{"/path/to/run", "path-to-run"}, // leading dash trimmed
		{"has spaces here", "has-spaces-here"},
		{"has:colons:too", "has-colons-too"},
		{"special!@#$chars", "specialchars"},
		{"", "unnamed"},
		{"a", "a"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeFilename(tt.input))
		})
	}
}

func TestFindLogs(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"20260129-120000-boot-1.jsonl",
		"20260129-130000-boot-2.jsonl",
		"20260129-140000-stress.jsonl",
		"20260129-150000-ignored.log",
	}
	for _, f := range files {
		path := filepath.Join(tmpDir, f)
		require.NoError(t, os.WriteFile(path, []byte(`{"type":"run"}`+"\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, files[0]),
		[]byte(`{"type":"run"}`+"\n"+`{"type":"exit","reason":"complete"}`+"\n"),
		0o644,
	))

	logs, err := FindLogs(tmpDir, "")
	require.NoError(t, err)
	require.Len(t, logs, 3)

	assert.Equal(t, "stress", logs[0].RunID)
	assert.Equal(t, "boot-2", logs[1].RunID)
	assert.Equal(t, "boot-1", logs[2].RunID)
	assert.True(t, logs[2].Complete)
	assert.False(t, logs[1].Complete)

	logs, err = FindLogs(tmpDir, "BOOT")
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestFindLogsMissingDir(t *testing.T) {
	logs, err := FindLogs(filepath.Join(t.TempDir(), "nope"), "")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestFindLatestLog(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "20260129-120000-my-run.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	lf, err := FindLatestLog(tmpDir, "my-run")
	require.NoError(t, err)
	require.NotNil(t, lf)
	assert.Equal(t, "my-run", lf.RunID)
	assert.Equal(t, path, lf.Path)

	lf, err = FindLatestLog(tmpDir, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, lf)
}

func TestParseLogFilename(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		expectNil bool
		runID     string
	}{
		{"valid", "20260129-120000-my-run.jsonl", false, "my-run"},
		{"valid no run id", "20260129-120000-.jsonl", false, ""},
		{"too short", "short.jsonl", true, ""},
		{"invalid timestamp", "invalid-timestamp-run.jsonl", true, ""},
		{"not a log file", "readme.md", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseLogFilename("/tmp", tt.filename)
			if tt.expectNil {
				assert.Nil(t, result)
			} else {
				require.NotNil(t, result)
				assert.Equal(t, tt.runID, result.RunID)
			}
		})
	}
}
