package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"eventcheck/pkg/logging"
)

// Format is a report output format.
type Format string

const (
	FormatHTML  Format = "html"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// FormatForPath picks the format from the file extension. Unknown
// extensions get a plain text table.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTable
	}
}

// Write renders r to w. Colour only affects the table format.
func (r Report) Write(w io.Writer, format Format, colour bool) error {
	switch format {
	case FormatHTML:
		return renderHTML(w, r)
	case FormatTable:
		renderTable(w, r, colour)
		return nil
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile writes r to path in the format matching its extension.
func WriteFile(path string, r Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}

	if err := r.Write(f, FormatForPath(path), false); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	logging.Info("Report", "Wrote %s report to %s: %s", FormatForPath(path), path, r.Summary())
	return nil
}
