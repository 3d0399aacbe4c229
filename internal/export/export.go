// Package export renders a completed analysis into downloadable
// calendar, PDF, and spreadsheet files. All exporters are read-only
// views over the analysis; everything is generated in memory.
package export

import "errors"

// ErrExport wraps failures inside the format libraries during
// serialization.
var ErrExport = errors.New("export failed")

const (
	// ContentTypeICS is the calendar interchange MIME type.
	ContentTypeICS = "text/calendar"
	// ContentTypeZip is used for the per-task calendar bundle.
	ContentTypeZip = "application/zip"
	// ContentTypePDF is the report MIME type.
	ContentTypePDF = "application/pdf"
	// ContentTypeXLSX is the spreadsheet MIME type.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
