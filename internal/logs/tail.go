package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultPoll = 250 * time.Millisecond

// TailOptions controls Tail.
type TailOptions struct {
	// Lines is how many trailing lines to emit first. Zero starts at the end.
	Lines int
	// Follow keeps polling for appended lines until ctx is done.
	Follow bool
	Poll   time.Duration
	// Match, when set, drops lines it rejects.
	Match func(line string) bool
}

// ItemFilter matches log lines that carry item_id=<id>, in either the text or
// the JSON handler format.
func ItemFilter(id int64) func(string) bool {
	value := strconv.FormatInt(id, 10)
	text := "item_id=" + value
	jsonKey := `"item_id":` + value
	return func(line string) bool {
		for _, needle := range []string{text, jsonKey} {
			idx := strings.Index(line, needle)
			if idx < 0 {
				continue
			}
			end := idx + len(needle)
			if end == len(line) || !isDigit(line[end]) {
				return true
			}
		}
		return false
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Tail writes the selected lines of path to emit. A missing file yields
// nothing unless Follow is set, in which case Tail waits for it to appear.
// Following stops without error when ctx is canceled.
func Tail(ctx context.Context, path string, opts TailOptions, emit func(string) error) error {
	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	accept := opts.Match
	if accept == nil {
		accept = func(string) bool { return true }
	}

	offset, err := emitLast(path, opts.Lines, accept, emit)
	if err != nil {
		return err
	}
	if !opts.Follow {
		return nil
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				offset, partial = 0, ""
				continue
			}
			return fmt.Errorf("stat log file: %w", err)
		}
		if info.Size() < offset {
			// Rotated or truncated; start over.
			offset, partial = 0, ""
		}
		if info.Size() == offset {
			continue
		}
		offset, partial, err = emitFrom(path, offset, partial, accept, emit)
		if err != nil {
			return err
		}
	}
}

// emitLast emits the trailing complete lines and returns the end offset.
func emitLast(path string, limit int, accept func(string) bool, emit func(string) error) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, fmt.Errorf("seek log file: %w", err)
		}
		return end, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	window := make([]string, 0, limit)
	for scanner.Scan() {
		line := scanner.Text()
		if !accept(line) {
			continue
		}
		if len(window) == limit {
			window = append(window[:0], window[1:]...)
		}
		window = append(window, line)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	for _, line := range window {
		if err := emit(line); err != nil {
			return end, err
		}
	}
	return end, nil
}

// emitFrom emits complete lines after offset. A trailing fragment without a
// newline is carried to the next poll.
func emitFrom(path string, offset int64, partial string, accept func(string) bool, emit func(string) error) (int64, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return offset, partial, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, partial, fmt.Errorf("seek log file: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return offset, partial, fmt.Errorf("read log file: %w", err)
	}
	offset += int64(len(data))
	chunk := partial + string(data)
	lines := strings.Split(chunk, "\n")
	partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if !accept(line) {
			continue
		}
		if err := emit(line); err != nil {
			return offset, partial, err
		}
	}
	return offset, partial, nil
}
