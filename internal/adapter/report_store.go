package adapter

import (
	"encoding/json"
	"os"
	"path/filepath"

	m "github.com/courselab/langs/internal/model"
)

// ReportStore persists batch reports so automation can inspect the
// outcome of the latest update run.
type ReportStore interface {
	SaveReport(path m.Path, report m.DownloadBatchReport) error
	LoadReport(path m.Path) (m.DownloadBatchReport, error)
}

// JSONReportStore stores reports as pretty-printed JSON files.
type JSONReportStore struct{}

// NewJSONReportStore constructs a JSONReportStore.
func NewJSONReportStore() *JSONReportStore {
	return &JSONReportStore{}
}

// SaveReport writes the report to path, creating parent directories as
// needed.
func (s *JSONReportStore) SaveReport(path m.Path, report m.DownloadBatchReport) error {
	content, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, 0o644)
}

// LoadReport reads a previously saved report.
func (s *JSONReportStore) LoadReport(path m.Path) (m.DownloadBatchReport, error) {
	content, err := os.ReadFile(string(path))
	if err != nil {
		return m.DownloadBatchReport{}, err
	}

	var report m.DownloadBatchReport
	if err := json.Unmarshal(content, &report); err != nil {
		return m.DownloadBatchReport{}, err
	}

	return report, nil
}
