package profiler

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// writeTrace serializes events to <logFolder>/heap-<timestamp>.log, one
// event per line, guarded by an advisory file lock so two heap instances
// writing into the same log folder (e.g. parallel tests) don't interleave
// partial lines.
func writeTrace(logFolder string, events []Event) (path string, err error) {
	if err := os.MkdirAll(logFolder, 0o755); err != nil {
		return "", fmt.Errorf("profiler: create log folder: %w", err)
	}

	path = filepath.Join(logFolder, fmt.Sprintf("heap-%d.log", time.Now().UnixNano()))

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("profiler: lock trace file: %w", err)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("profiler: create trace file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range events {
		if _, err := fmt.Fprintln(w, formatLine(e)); err != nil {
			return "", fmt.Errorf("profiler: write trace line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("profiler: flush trace file: %w", err)
	}
	return path, nil
}

// formatLine renders one event per the trace format: EVENT_NAME followed by
// its fields in fixed order, whitespace-separated. Addresses print in hex,
// sizes in decimal.
func formatLine(e Event) string {
	switch {
	case e.hasChunk:
		return fmt.Sprintf("%s 0x%x %d %t", e.Type, e.Chunk.Start, e.Chunk.Size, e.Chunk.Marked)
	case e.hasSize:
		return fmt.Sprintf("%s %d", e.Type, e.Size)
	default:
		return e.Type.String()
	}
}
