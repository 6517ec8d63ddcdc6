package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Guest export files hold one JSON guest object per line.

// ExportGuests writes guests to path as JSONL, replacing any existing file.
func ExportGuests(path string, guests []types.Guest) error {
	records := make([]json.RawMessage, 0, len(guests))
	for _, g := range guests {
		b, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("encoding guest %s: %w", g.ID, err)
		}
		records = append(records, b)
	}
	return writeJSONL(path, records)
}

// ImportGuests reads guests from a JSONL file. Lines that are not valid
// JSON, do not decode as a guest, or lack an id are skipped and counted.
func ImportGuests(path string) (guests []types.Guest, skipped int, err error) {
	records, skipped, err := readJSONL(path)
	if err != nil {
		return nil, 0, err
	}
	for _, rec := range records {
		var g types.Guest
		if err := json.Unmarshal(rec, &g); err != nil || g.ID == "" {
			skipped++
			continue
		}
		if g.Tags == nil {
			g.Tags = []string{}
		}
		guests = append(guests, g)
	}
	return guests, skipped, nil
}

// readJSONL returns each non-empty line of path that is valid JSON, plus
// the number of malformed lines it skipped.
func readJSONL(path string) ([]json.RawMessage, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		records []json.RawMessage
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped++
			continue
		}
		records = append(records, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// writeJSONL atomically replaces path with records, one per line, using a
// temp file in the same directory that is synced and renamed into place.
func writeJSONL(path string, records []json.RawMessage) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
