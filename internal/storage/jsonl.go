package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
)

// JsonlStorage appends quote records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutQuoteBatch appends a batch of quote records as JSON lines.
func (s *JsonlStorage) PutQuoteBatch(records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal quote record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write quote record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// ScanStats counts the lines seen by ScanJSONL.
type ScanStats struct {
	Total   int
	Decoded int
	Failed  int
}

// ScanJSONL calls fn for every non-blank line of r with its 1-based line
// number. A non-nil error from fn counts the line as failed and scanning
// continues; only read errors stop the scan.
func ScanJSONL(r io.Reader, fn func(lineNo int, line []byte) error) (ScanStats, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var stats ScanStats
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++
		if err := fn(lineNo, line); err != nil {
			stats.Failed++
			continue
		}
		stats.Decoded++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}

// ReadSnapshots loads every decodable pool snapshot from a JSONL file.
func ReadSnapshots(path string) ([]model.PoolSnapshot, ScanStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ScanStats{}, fmt.Errorf("open snapshots: %w", err)
	}
	defer file.Close()

	var snapshots []model.PoolSnapshot
	stats, err := ScanJSONL(file, func(_ int, line []byte) error {
		var snapshot model.PoolSnapshot
		if err := json.Unmarshal(line, &snapshot); err != nil {
			return err
		}
		snapshots = append(snapshots, snapshot)
		return nil
	})
	return snapshots, stats, err
}
