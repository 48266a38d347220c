package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DefaultPollInterval is how often Follow checks the file for new lines.
const DefaultPollInterval = 250 * time.Millisecond

// Snapshot is a batch of lines plus the byte offset after the last one.
type Snapshot struct {
	Lines  []string
	Offset int64
}

// Last returns up to limit trailing lines of path. A missing file yields an
// empty snapshot.
func Last(path string, limit int) (Snapshot, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return Snapshot{}, err
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Snapshot{}, fmt.Errorf("seek log file: %w", err)
		}
		return Snapshot{Offset: offset}, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	offset, err := scanLines(file, func(line string) {
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return Snapshot{}, err
	}

	lines := make([]string, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range lines {
		lines[i] = ring[(start+i)%limit]
	}
	return Snapshot{Lines: lines, Offset: offset}, nil
}

// LastEvent searches the trailing window lines of path, newest first, for a
// line mentioning one of events. It returns the line and the event it
// mentions, or empty strings when none match.
func LastEvent(path string, window int, events ...string) (line, event string, err error) {
	snap, err := Last(path, window)
	if err != nil {
		return "", "", err
	}
	for i := len(snap.Lines) - 1; i >= 0; i-- {
		for _, candidate := range events {
			if strings.Contains(snap.Lines[i], candidate) {
				return snap.Lines[i], candidate, nil
			}
		}
	}
	return "", "", nil
}

// Since returns every complete line written after offset. When the file has
// been truncated below offset, reading restarts from the beginning.
func Since(path string, offset int64) (Snapshot, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return Snapshot{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Snapshot{}, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	read, err := scanLines(file, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Lines: lines, Offset: offset + read}, nil
}

// Follow polls path from offset and calls emit for each new line until ctx is
// done. It returns nil on cancellation.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, emit func(string)) error {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		snap, err := Since(path, offset)
		if err != nil {
			return err
		}
		for _, line := range snap.Lines {
			emit(line)
		}
		offset = snap.Offset

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

// scanLines feeds complete lines to fn and returns the bytes consumed. A
// trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			consumed += int64(len(line))
			fn(trimNewline(line))
			continue
		}
		if errors.Is(err, io.EOF) {
			return consumed, nil
		}
		return consumed, fmt.Errorf("read log file: %w", err)
	}
}

func trimNewline(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
