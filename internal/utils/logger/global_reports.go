package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type StringListReport struct {
	Title string
	Items []string
}

var (
	GlobalStringListReport StringListReport
	ReportPath             = "reports"
	reportMu               sync.Mutex
)

func init() {
	GlobalStringListReport = StringListReport{
		Title: "FetchedFiles",
		Items: []string{},
	}
}

// RecordFetched appends a fetched URL to the global report. Safe for use
// from fetch workers.
func RecordFetched(item string) {
	reportMu.Lock()
	defer reportMu.Unlock()
	GlobalStringListReport.Items = append(GlobalStringListReport.Items, item)
}

// WriteListFetchedToFile writes the GlobalStringListReport to a text file as a list.
// The title is appended to the filename, e.g., fetchurl-title.txt.
func WriteListFetchedToFile() error {
	reportMu.Lock()
	defer reportMu.Unlock()

	if len(GlobalStringListReport.Items) == 0 {
		return nil
	}

	if err := os.MkdirAll(ReportPath, 0755); err != nil {
		return fmt.Errorf("creating base path: %w", err)
	}

	reportFullPath := filepath.Join(ReportPath, fmt.Sprintf("fetchurl-%s.txt", safeTitle(GlobalStringListReport.Title)))

	f, err := os.OpenFile(reportFullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	for _, item := range GlobalStringListReport.Items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return fmt.Errorf("writing to file: %w", err)
		}
	}

	GlobalStringListReport.Items = []string{}
	if _, err := fmt.Fprintln(f); err != nil {
		return fmt.Errorf("writing new line to file: %w", err)
	}

	return nil
}

// safeTitle replaces everything but ASCII letters and digits with underscores.
func safeTitle(title string) string {
	if title == "" {
		return "untitled"
	}
	out := make([]rune, 0, len(title))
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
