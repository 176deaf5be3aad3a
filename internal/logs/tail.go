package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const pollInterval = 250 * time.Millisecond

type TailOptions struct {
	// Offset < 0 reads the last Limit matching entries from the whole file.
	Offset int64
	Limit  int
	Filter Filter
	// Wait bounds how long Tail blocks for new entries past Offset.
	Wait time.Duration
}

type TailResult struct {
	Entries []Entry
	Offset  int64
}

// Tail reads entries from path. A missing file yields an empty result so a
// fresh install can be followed before the first log line is written.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: max(opts.Offset, 0)}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}

	if opts.Offset < 0 {
		entries, offset, err := readFrom(path, 0, opts.Filter)
		if err != nil {
			return result, err
		}
		if opts.Limit > 0 && len(entries) > opts.Limit {
			entries = entries[len(entries)-opts.Limit:]
		}
		result.Entries = entries
		result.Offset = offset
		return result, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		// truncated or rotated
		offset = 0
	}
	return waitForEntries(ctx, path, offset, opts.Filter, max(opts.Wait, 0))
}

// Follow streams matching entries past offset to emit until ctx is done.
func Follow(ctx context.Context, path string, offset int64, filter Filter, emit func(Entry)) error {
	for {
		res, err := Tail(ctx, path, TailOptions{Offset: offset, Filter: filter, Wait: time.Minute})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		for _, e := range res.Entries {
			emit(e)
		}
		offset = res.Offset
		if len(res.Entries) > 0 {
			continue
		}
		// missing file returns without waiting
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pollInterval):
		}
	}
}

func readFrom(path string, offset int64, filter Filter) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var entries []Entry
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// leave a partial trailing line for the next read
				break
			}
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		trimmed := line[:len(line)-1]
		if len(trimmed) > 0 && trimmed[len(trimmed)-1] == '\r' {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if trimmed == "" {
			continue
		}
		entry := ParseEntry(trimmed)
		if filter.Match(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, offset, nil
}

func waitForEntries(ctx context.Context, path string, offset int64, filter Filter, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		entries, newOffset, err := readFrom(path, offset, filter)
		if err != nil {
			return result, err
		}
		result.Offset = newOffset
		offset = newOffset
		if len(entries) > 0 {
			result.Entries = entries
			return result, nil
		}
		if !time.Now().Before(deadline) {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
