// Package debug writes diagnostics to stderr when SCENEPROBE_DEBUG=1 or
// after Enable.
package debug

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	enabled = os.Getenv("SCENEPROBE_DEBUG") == "1"
	out     io.Writer = os.Stderr
)

// Logf writes one timestamped line. It is safe to call from the host loop
// and from sinks running on other goroutines.
func Logf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintf(out, "[debug %s] %s\n", time.Now().Format("15:04:05.000"), msg)
}

// Enable turns diagnostics on and sends them to w. A nil w keeps the
// current destination.
func Enable(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	enabled = true
	if w != nil {
		out = w
	}
}

// Enabled reports whether diagnostics are written.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}
