package export

import (
	"errors"
	"strings"
	"testing"

	"picksheet/api/internal/document"
)

func statsFixture() (*document.Stage, []document.StatEntry, map[document.Ref]string) {
	stage := document.NewStage("Group Stage", 0)
	stage.CorrectTeams[document.AreaThree0] = []document.Ref{"lions.png"}

	entry := document.StatEntry{Row: document.NewRow(0), Score: 1}
	entry.Nick = "Alice"
	entry.Three0[0] = "lions.png"
	entry.Three0[1] = "tigers.png"

	names := map[document.Ref]string{
		"lions.png":  "Lions",
		"tigers.png": "Tigers",
	}
	return &stage, []document.StatEntry{entry}, names
}

func TestStatsXLS(t *testing.T) {
	stage, ranked, names := statsFixture()
	result, err := Stats(stage, ranked, names, FormatXLS)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if result.Filename != "pickem_colored_stats_Group_Stage.xls" {
		t.Errorf("filename = %q", result.Filename)
	}
	if result.MimeType != "application/vnd.ms-excel" {
		t.Errorf("mime type = %q", result.MimeType)
	}

	html := string(result.Data)
	if !strings.Contains(html, "Stats: Group Stage") {
		t.Errorf("title missing from table")
	}
	if !strings.Contains(html, ">Alice<") {
		t.Errorf("player nick missing from table")
	}
	for _, name := range []string{"Lions", "Tigers"} {
		if !strings.Contains(html, name) {
			t.Errorf("team name %q missing from table", name)
		}
	}
	// the correct pick is green, the wrong one red, empty slots white
	if !strings.Contains(html, cellCorrect) {
		t.Errorf("correct pick color missing")
	}
	if !strings.Contains(html, cellIncorrect) {
		t.Errorf("incorrect pick color missing")
	}
	if !strings.Contains(html, cellBlank) {
		t.Errorf("blank cell color missing")
	}
	for _, header := range []string{"3-0 (1)", "Advance (6)", "0-3 (2)"} {
		if !strings.Contains(html, header) {
			t.Errorf("column header %q missing", header)
		}
	}
}

func TestStatsNoEntries(t *testing.T) {
	stage, _, names := statsFixture()
	if _, err := Stats(stage, nil, names, FormatXLS); !errors.Is(err, ErrNoStats) {
		t.Errorf("empty ledger: err = %v, want ErrNoStats", err)
	}
	if _, err := Stats(nil, nil, names, FormatXLS); !errors.Is(err, ErrNoStats) {
		t.Errorf("nil stage: err = %v, want ErrNoStats", err)
	}
}

func TestPickColor(t *testing.T) {
	correct := []document.Ref{"a.png"}
	if got := pickColor("", correct); got != cellBlank {
		t.Errorf("empty pick color = %q", got)
	}
	if got := pickColor("a.png", correct); got != cellCorrect {
		t.Errorf("correct pick color = %q", got)
	}
	if got := pickColor("b.png", correct); got != cellIncorrect {
		t.Errorf("wrong pick color = %q", got)
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	if got := percentEncodeForDataURL("a b"); got != "a%20b" {
		t.Errorf("space encoding = %q", got)
	}
	if got := percentEncodeForDataURL("<td>"); got != "%3Ctd%3E" {
		t.Errorf("markup encoding = %q", got)
	}
	if got := percentEncodeForDataURL("safe-chars_1.2~"); got != "safe-chars_1.2~" {
		t.Errorf("unreserved characters should pass through, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("Group Stage: Finals"); strings.ContainsAny(got, ": ") {
		t.Errorf("unsafe characters survived: %q", got)
	}
	if got := sanitizeFilename("///"); got != "picksheet" {
		t.Errorf("empty result should fall back, got %q", got)
	}
}
