package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"picksheet/api/internal/document"
)

// Header colors per pick column group and result colors per cell match
// the spreadsheet the frontend historically produced, so old and new
// exports look the same when opened side by side.
const (
	headerSweep   = "#bbf7d0"
	headerAdvance = "#fef08a"
	headerOut     = "#fecaca"

	cellBlank     = "#ffffff"
	cellCorrect   = "#d1fae5"
	cellIncorrect = "#fee2e2"
)

type statsColumn struct {
	Label string
	Color string
}

type statsCell struct {
	Text  string
	Color string
}

type statsRow struct {
	Nick  string
	Score int
	Cells []statsCell
}

type statsTableData struct {
	Title   string
	Columns []statsColumn
	Rows    []statsRow
}

var statsTemplate = template.Must(template.New("stats").Parse(statsTableHTML))

const statsTableHTML = `<html>
<head><meta charset="UTF-8"></head>
<body>
<h2>{{.Title}}</h2>
<table border="1" style="border-collapse: collapse; text-align: center;">
<thead>
<tr style="background-color: #f3f4f6;">
<th style="padding: 8px; background-color: #e5e7eb;">Player</th>
<th style="padding: 8px; background-color: #e5e7eb;">Score</th>
{{range .Columns}}<th style="padding: 8px; background-color: {{.Color}};">{{.Label}}</th>
{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr><td style="padding: 5px; text-align: left; font-weight: bold;">{{.Nick}}</td><td style="padding: 5px; font-weight: bold; font-size: 16px;">{{.Score}}</td>{{range .Cells}}<td style="padding: 5px; background-color: {{.Color}};">{{.Text}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>`

// Stats renders the ranked entries of a stage as a colored table.
// Ranked entries must already carry their recomputed scores.
func Stats(stage *document.Stage, ranked []document.StatEntry, teamNames map[document.Ref]string, format Format) (*Result, error) {
	if stage == nil || len(ranked) == 0 {
		return nil, ErrNoStats
	}

	data := statsTableData{
		Title:   "Stats: " + stage.Name,
		Columns: pickColumns(),
		Rows:    make([]statsRow, 0, len(ranked)),
	}
	for i := range ranked {
		entry := &ranked[i]
		row := statsRow{Nick: entry.Nick, Score: entry.Score}
		for _, area := range []string{document.AreaThree0, document.AreaPass, document.AreaOut} {
			for _, pick := range entry.Area(area) {
				row.Cells = append(row.Cells, statsCell{
					Text:  teamNames[pick],
					Color: pickColor(pick, stage.CorrectTeams[area]),
				})
			}
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := statsTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render stats table: %w", err)
	}

	switch format {
	case FormatPDF:
		return exportPDF(buf.String(), "picksheet-stats-"+stage.Name)
	default:
		return &Result{
			Data:     buf.Bytes(),
			Filename: fmt.Sprintf("pickem_colored_stats_%s.xls", strings.ReplaceAll(stage.Name, " ", "_")),
			MimeType: "application/vnd.ms-excel",
		}, nil
	}
}

func pickColumns() []statsColumn {
	columns := make([]statsColumn, 0, 10)
	for i := 1; i <= 2; i++ {
		columns = append(columns, statsColumn{Label: fmt.Sprintf("3-0 (%d)", i), Color: headerSweep})
	}
	for i := 1; i <= 6; i++ {
		columns = append(columns, statsColumn{Label: fmt.Sprintf("Advance (%d)", i), Color: headerAdvance})
	}
	for i := 1; i <= 2; i++ {
		columns = append(columns, statsColumn{Label: fmt.Sprintf("0-3 (%d)", i), Color: headerOut})
	}
	return columns
}

func pickColor(pick document.Ref, correct []document.Ref) string {
	if pick == "" {
		return cellBlank
	}
	for _, ref := range correct {
		if ref == pick {
			return cellCorrect
		}
	}
	return cellIncorrect
}
