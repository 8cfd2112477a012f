package persist

import (
	"encoding/json"
	"fmt"
	"time"

	"picksheet/api/internal/document"
)

// ImportTarget selects how much of the document an import replaces.
type ImportTarget string

const (
	ImportFull  ImportTarget = "full"
	ImportRows  ImportTarget = "rows"
	ImportStats ImportTarget = "stats"
)

// Blob is a named export attachment.
type Blob struct {
	Name     string
	MimeType string
	Data     []byte
}

// ExportDocument serializes the whole document as a named file. The filename
// encodes schema version and date; neither is parsed back on import.
func ExportDocument(doc *document.Document) (Blob, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Blob{}, storageError("export", err)
	}
	name := fmt.Sprintf("picksheet_full_v%d_%s.picksheet",
		document.SchemaVersion, time.Now().Format("2006-01-02"))
	return Blob{Name: name, MimeType: "application/json", Data: data}, nil
}

// ImportDocument decodes raw into a replacement document. ImportFull accepts
// a whole document (legacy shapes are migrated); ImportRows and ImportStats
// replace only the matching slice of the active stage, after the same
// per-field validation migration applies. The input document is not touched.
func ImportDocument(raw []byte, target ImportTarget, current *document.Document) (*document.Document, error) {
	switch target {
	case ImportFull:
		return document.ImportFull(raw)
	case ImportRows:
		rows, err := document.ParseRows(raw)
		if err != nil {
			return nil, err
		}
		next := current.Clone()
		stage := next.ActiveStage()
		stage.Rows = rows
		stage.RowCount = len(rows)
		return next, nil
	case ImportStats:
		stats, teams, err := document.ParseStats(raw)
		if err != nil {
			return nil, err
		}
		next := current.Clone()
		stage := next.ActiveStage()
		stage.Stats = stats
		stage.CorrectTeams = teams
		return next, nil
	default:
		return nil, fmt.Errorf("unknown import target %q", target)
	}
}
