// Package batch reads JSON arrays and NDJSON files and runs bulk record
// operations against them with bounded concurrency.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxInputSize is the maximum size of batch input (10MB).
	MaxInputSize = 10 * 1024 * 1024
	// MaxItemCount is the maximum number of items in a batch.
	MaxItemCount = 10000
	// DefaultConcurrency is the number of requests kept in flight by default.
	DefaultConcurrency = 4
)

// Result is the outcome of a batch operation on a single item.
type Result struct {
	Index   int             `json:"index"`
	Success bool            `json:"success"`
	ID      int64           `json:"id,omitempty"`
	Error   string          `json:"error,omitempty"`
	Input   json.RawMessage `json:"input,omitempty"`
}

// Summary counts results by outcome.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts the successes and failures in results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// ReadItems reads items from a JSON array or NDJSON file. A path of "-"
// reads from stdin.
func ReadItems(path string, stdin io.Reader) ([]json.RawMessage, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	return ParseItems(data)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(io.LimitReader(stdin, MaxInputSize+1))
		if err != nil {
			return nil, fmt.Errorf("cannot read stdin: %w", err)
		}
		if len(data) > MaxInputSize {
			return nil, fmt.Errorf("input exceeds maximum size of %d bytes", MaxInputSize)
		}
		return data, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat file: %w", err)
	}
	if info.Size() > MaxInputSize {
		return nil, fmt.Errorf("file exceeds maximum size of %d bytes", MaxInputSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return data, nil
}

// ParseItems parses a JSON array of objects, falling back to one object per
// line.
func ParseItems(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("input is empty")
	}

	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line buffer

		line := 0
		for scanner.Scan() {
			line++
			text := bytes.TrimSpace(scanner.Bytes())
			if len(text) == 0 {
				continue
			}
			if !json.Valid(text) {
				return nil, fmt.Errorf("invalid JSON on line %d", line)
			}
			items = append(items, append(json.RawMessage(nil), text...))
			if len(items) > MaxItemCount {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading input: %w", err)
		}
	}

	if len(items) > MaxItemCount {
		return nil, fmt.Errorf("input exceeds maximum item count of %d", MaxItemCount)
	}
	for i, item := range items {
		if t := bytes.TrimSpace(item); len(t) == 0 || t[0] != '{' {
			return nil, fmt.Errorf("item %d is not a JSON object", i)
		}
	}
	return items, nil
}

// Func handles one item and returns the id of the record it produced.
type Func func(ctx context.Context, item json.RawMessage) (int64, error)

// Run calls fn for every item with at most concurrency calls in flight.
// Results are in input order. A failed item does not stop the others; once
// ctx is done the remaining items fail with the context error.
func Run(ctx context.Context, items []json.RawMessage, concurrency int, fn Func) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(items))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, item := range items {
		results[i] = Result{Index: i}
		if err := ctx.Err(); err != nil {
			results[i].Error = err.Error()
			results[i].Input = item
			continue
		}
		g.Go(func() error {
			id, err := fn(ctx, item)
			if err != nil {
				results[i].Error = err.Error()
				results[i].Input = item
				return nil
			}
			results[i].Success = true
			results[i].ID = id
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// WriteResults writes batch results as indented JSON.
func WriteResults(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
