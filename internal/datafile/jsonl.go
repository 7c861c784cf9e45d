package datafile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadJSONL decodes a JSON-lines file into typed records, skipping
// blank lines. Used for question import and export.
func ReadJSONL[T any](ctx context.Context, path string) ([]T, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("datafile: empty jsonl path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeJSONL[T](ctx, f)
}

// DecodeJSONL decodes a JSON-lines stream into typed records.
func DecodeJSONL[T any](ctx context.Context, r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var out []T
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return out, fmt.Errorf("datafile: parse jsonl: %w", err)
		}
		out = append(out, item)
	}
	if err := sc.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// WriteJSONL writes records as one JSON document per line.
func WriteJSONL[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("datafile: write jsonl: %w", err)
		}
	}
	return nil
}
