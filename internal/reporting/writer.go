package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output file names.
const (
	CSVFileName      = "holders.csv"
	MarkdownFileName = "REPORT_HOLDERS.md"
)

// WriteFiles renders r and writes the CSV and Markdown reports into dir.
// Returns the written paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	csvData, err := RenderCSV(r)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	csvPath := filepath.Join(dir, CSVFileName)
	if err := os.WriteFile(csvPath, []byte(csvData), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", csvPath, err)
	}

	mdPath := filepath.Join(dir, MarkdownFileName)
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(r)), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", mdPath, err)
	}

	return []string{csvPath, mdPath}, nil
}
