// Package export renders admin reports as CSV and PDF downloads.
package export

import (
	"errors"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNoData is returned when there is nothing to export. Callers must not
// produce a file in that case.
var ErrNoData = errors.New("export: no report data")

// Download filenames.
const (
	FullReportCSVFilename      = "full_admin_report.csv"
	FullReportPDFFilename      = "full_admin_report.pdf"
	UserPerformancePDFFilename = "user_performance.pdf"
)

var printer = message.NewPrinter(language.English)

func displayNumber(v float64) string {
	return printer.Sprintf("%.1f", v)
}

func displayPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}

func displayCount(v int) string {
	return printer.Sprintf("%d", v)
}

func plainNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func passLabel(passed bool) string {
	if passed {
		return "Passed"
	}
	return "Failed"
}
