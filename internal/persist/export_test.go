package persist

import (
	"encoding/json"
	"strings"
	"testing"

	"picksheet/api/internal/document"
)

func TestExportDocument(t *testing.T) {
	doc := document.New()
	blob, err := ExportDocument(doc)
	if err != nil {
		t.Fatalf("ExportDocument failed: %v", err)
	}
	if !strings.HasPrefix(blob.Name, "picksheet_full_v2_") || !strings.HasSuffix(blob.Name, ".picksheet") {
		t.Errorf("unexpected filename %q", blob.Name)
	}
	if blob.MimeType != "application/json" {
		t.Errorf("unexpected mime type %q", blob.MimeType)
	}

	restored, err := document.Migrate(blob.Data)
	if err != nil {
		t.Fatalf("exported blob does not migrate back: %v", err)
	}
	if !document.Equal(doc, restored) {
		t.Errorf("export/import roundtrip lost data")
	}
}

func TestImportRowsReplacesActiveStageOnly(t *testing.T) {
	doc := document.New()
	doc.ActiveStage().Stats = []document.StatEntry{{Row: document.NewRow(0), Score: 3}}

	rows := []document.Row{document.NewRow(0), document.NewRow(1)}
	rows[0].Nick = "Imported"
	raw, _ := json.Marshal(map[string]any{"rows": rows})

	next, err := ImportDocument(raw, ImportRows, doc)
	if err != nil {
		t.Fatalf("ImportDocument failed: %v", err)
	}
	stage := next.ActiveStage()
	if len(stage.Rows) != 2 || stage.RowCount != 2 {
		t.Fatalf("rows not replaced: %d rows, rowCount=%d", len(stage.Rows), stage.RowCount)
	}
	if stage.Rows[0].Nick != "Imported" {
		t.Errorf("imported nick lost, got %q", stage.Rows[0].Nick)
	}
	if len(stage.Stats) != 1 {
		t.Errorf("stat ledger should survive a rows import")
	}
	if len(doc.ActiveStage().Rows) != document.DefaultRowCount {
		t.Errorf("input document was mutated")
	}
}

func TestImportStatsReplacesLedgerAndAnswerKey(t *testing.T) {
	doc := document.New()
	doc.ActiveStage().Rows[0].Nick = "Keeper"

	entry := document.StatEntry{Row: document.NewRow(0), Score: 5}
	entry.Nick = "Ledger"
	raw, _ := json.Marshal(map[string]any{
		"stats":        []document.StatEntry{entry},
		"correctTeams": map[string][]string{document.AreaThree0: {"a.png"}},
	})

	next, err := ImportDocument(raw, ImportStats, doc)
	if err != nil {
		t.Fatalf("ImportDocument failed: %v", err)
	}
	stage := next.ActiveStage()
	if len(stage.Stats) != 1 || stage.Stats[0].Nick != "Ledger" {
		t.Fatalf("ledger not replaced: %+v", stage.Stats)
	}
	if len(stage.CorrectTeams[document.AreaThree0]) != 1 {
		t.Errorf("answer key not replaced")
	}
	if stage.Rows[0].Nick != "Keeper" {
		t.Errorf("sheet rows should survive a stats import")
	}
}

func TestImportUnknownTarget(t *testing.T) {
	if _, err := ImportDocument([]byte("{}"), ImportTarget("partial"), document.New()); err == nil {
		t.Errorf("unknown target should be rejected")
	}
}
