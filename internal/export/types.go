// Package export renders committed stats as a colored spreadsheet or a
// printable PDF.
package export

import "errors"

// Format represents the export output format
type Format string

const (
	FormatXLS Format = "xls"
	FormatPDF Format = "pdf"
)

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrNoStats indicates the stage has no committed entries to export.
	ErrNoStats = errors.New("export stats empty")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
