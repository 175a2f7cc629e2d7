// Package report writes the CSV, JSON and text files produced by the
// pipeline commands.
//
// All writers create their parent directory and overwrite existing files.
// Keyword columns are title-cased for reading; the underlying canonical keys
// stay lowercase everywhere else.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Labeler names clusters for file names and report columns.
type Labeler interface {
	Label(cluster string) string
	Color(cluster string) string
}

// Writer writes report files below Dir.
type Writer struct {
	Dir string
}

// NewWriter returns a Writer for dir, creating it when needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}
	return &Writer{Dir: dir}, nil
}

// Path returns the full path of a report file.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) (string, error) {
	path := w.Path(name)
	if err := WriteCSV(path, header, rows); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCSV writes header and rows to path.
func WriteCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	return nil
}

// writeLines writes a header line followed by one line per item.
func (w *Writer) writeLines(name string, header []string, items []string) (string, error) {
	var b strings.Builder
	for _, h := range header {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	for _, it := range items {
		b.WriteString(it)
		b.WriteByte('\n')
	}

	path := w.Path(name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}
	return path, nil
}

func (w *Writer) writeJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %q: %w", name, err)
	}
	path := w.Path(name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}
	return path, nil
}

// TitleCase capitalizes the first letter of every word of s and lowercases
// the rest.
func TitleCase(s string) string {
	// a Caser keeps state and is not safe for concurrent use
	return cases.Title(language.English).String(s)
}

var (
	reservedChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9 _-]`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// FileLabel makes a cluster label usable in a file name by removing the
// characters file systems reserve and replacing whitespace with underscores.
func FileLabel(label string) string {
	label = reservedChars.ReplaceAllString(label, "")
	return whitespace.ReplaceAllString(label, "_")
}

// SafeLabel is the stricter variant of FileLabel used for count reports: only
// ASCII letters, digits, spaces, underscores and hyphens survive.
func SafeLabel(label string) string {
	label = strings.ReplaceAll(label, "\n", " ")
	label = unsafeChars.ReplaceAllString(label, "")
	label = whitespace.ReplaceAllString(strings.TrimSpace(label), "_")
	return strings.Trim(label, "_")
}
