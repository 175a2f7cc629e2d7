package classify

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chriscorrea/kwcanon/internal/keyword"
)

// Mapping is a previously written classification: normalized keyword to
// categories.
type Mapping map[string][]string

// Lookup returns the categories recorded for the normalized keyword nk.
func (m Mapping) Lookup(nk string) ([]string, bool) {
	cats, ok := m[nk]
	return cats, ok
}

// LoadMapping reads a classification CSV with columns keyword,categories where
// categories are joined with ';'. A missing file is reported and yields an
// empty mapping so that callers can still count keywords.
func LoadMapping(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Classification CSV not found, category counts will be empty", "path", path)
			return Mapping{}, nil
		}
		return nil, fmt.Errorf("failed to open classification CSV %q: %w", path, err)
	}
	defer f.Close()

	m, err := ReadMapping(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read classification CSV %q: %w", path, err)
	}
	slog.Debug("Loaded classification mapping", "path", path, "keywords", len(m))
	return m, nil
}

// ReadMapping parses a classification CSV from r. A leading header row is
// skipped when its first cell is "keyword".
func ReadMapping(r io.Reader) (Mapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	m := make(Mapping)
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "keyword") {
				continue
			}
		}
		if len(rec) < 2 {
			continue
		}

		nk := keyword.Normalize(rec[0])
		if nk == "" {
			continue
		}
		var cats []string
		for _, c := range strings.Split(rec[1], ";") {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
		if _, dup := m[nk]; !dup {
			m[nk] = cats
		}
	}
	return m, nil
}

// UnknownLog appends unmatched keywords to a file for later curation. Writes
// are best effort: failures are logged and never reach the classification
// result.
type UnknownLog struct {
	path string
	mu   sync.Mutex
}

// NewUnknownLog returns a log appending to path. An empty path disables it.
func NewUnknownLog(path string) *UnknownLog {
	return &UnknownLog{path: path}
}

// Record appends kw when r is unmatched.
func (l *UnknownLog) Record(kw string, r Result) {
	if l == nil || l.path == "" || !r.Unmatched {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("Could not open unknown-terms log", "path", l.path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(kw + "\n"); err != nil {
		slog.Warn("Could not append to unknown-terms log", "path", l.path, "error", err)
	}
}
