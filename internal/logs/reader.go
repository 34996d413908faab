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

const (
	maxLineBytes        = 1024 * 1024
	defaultPollInterval = 250 * time.Millisecond
)

// Chunk is a batch of log lines and the offset just past the last one.
type Chunk struct {
	Lines  []string
	Offset int64
}

// Filter keeps lines containing every non-empty term, case-insensitively.
type Filter []string

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if len(f) == 0 {
		return true
	}
	lower := strings.ToLower(line)
	for _, term := range f {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && !strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// Last returns up to n matching lines from the end of the file. A missing
// file yields an empty chunk.
func Last(path string, n int, filter Filter) (Chunk, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return Chunk{}, err
	}
	defer file.Close()

	if n <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Chunk{}, fmt.Errorf("seek log file: %w", err)
		}
		return Chunk{Offset: offset}, nil
	}

	ring := make([]string, n)
	count, next := 0, 0
	offset, err := scan(file, filter, func(line string) {
		ring[next] = line
		next = (next + 1) % n
		if count < n {
			count++
		}
	})
	if err != nil {
		return Chunk{}, err
	}

	lines := make([]string, 0, count)
	start := 0
	if count == n {
		start = next
	}
	for i := range count {
		lines = append(lines, ring[(start+i)%n])
	}
	return Chunk{Lines: lines, Offset: offset}, nil
}

// ReadFrom returns the matching lines written after offset.
func ReadFrom(path string, offset int64, filter Filter) (Chunk, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return Chunk{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Chunk{}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Chunk{}, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	read, err := scan(file, filter, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return Chunk{}, err
	}
	return Chunk{Lines: lines, Offset: offset + read}, nil
}

// Follow calls emit for every matching line appended after offset until ctx
// ends. poll <= 0 uses the default interval.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, filter Filter, emit func(string)) error {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		chunk, err := ReadFrom(path, offset, filter)
		if err != nil {
			return err
		}
		for _, line := range chunk.Lines {
			emit(line)
		}
		offset = chunk.Offset

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

// scan feeds complete lines to fn and returns how many bytes they spanned.
// A trailing line without a newline is still being written and is left for
// the next read.
func scan(r io.Reader, filter Filter, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		raw, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return consumed, nil
		}
		if err != nil {
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(raw))
		line := strings.TrimRight(raw, "\r\n")
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		if filter.Match(line) {
			fn(line)
		}
	}
}
