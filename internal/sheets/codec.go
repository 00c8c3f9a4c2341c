package sheets

import (
	"fmt"
	"strings"

	"github.com/chris/sprout/internal/care"
)

// Column headers in the plant worksheet. Environment also answers to
// Location or Type.
const (
	colName           = "Name"
	colEnvironment    = "Environment"
	colLastWatered    = "Last Watered"
	colLastFertilized = "Last Fertilized"
	colNotes          = "Notes"
	colStatus         = "Status"
	colLight          = "Light"
	colHumidity       = "Humidity"
)

var environmentAliases = []string{colEnvironment, "Location", "Type"}

// HistoryHeaders is the header row of the care history worksheet.
var HistoryHeaders = []string{"Date", "Plant", "Action", "Notes"}

var defaultPlantHeaders = []string{colName, colEnvironment, colLastWatered, colLastFertilized, colNotes, colStatus}

// decodePlants turns worksheet rows (header first) into plants. Blank rows
// and rows without a name are skipped.
func decodePlants(values [][]any) ([]string, []care.Plant, error) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	header := cellStrings(values[0])
	if indexOf(header, colName) < 0 {
		return nil, nil, fmt.Errorf("plant sheet has no %q column", colName)
	}
	envCol := environmentColumn(header)

	var plants []care.Plant
	for _, raw := range values[1:] {
		row := cellStrings(raw)
		get := func(col string) string {
			if i := indexOf(header, col); i >= 0 && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		p := care.Plant{
			Name:           get(colName),
			Environment:    get(envCol),
			LastWatered:    get(colLastWatered),
			LastFertilized: get(colLastFertilized),
			Notes:          get(colNotes),
			Status:         care.ParsePending(get(colStatus)),
			Light:          get(colLight),
			Humidity:       get(colHumidity),
		}
		if p.Name == "" {
			continue
		}
		for i, h := range header {
			if h == "" || known(h, envCol) || i >= len(row) {
				continue
			}
			if p.Extra == nil {
				p.Extra = make(map[string]string)
			}
			p.Extra[h] = row[i]
		}
		plants = append(plants, p)
	}
	return header, plants, nil
}

// encodePlants renders plants under header, keeping its column order. A
// Status column is added when the sheet has none.
func encodePlants(header []string, plants []care.Plant) [][]any {
	if len(header) == 0 {
		header = defaultPlantHeaders
	}
	if indexOf(header, colStatus) < 0 {
		header = append(append([]string(nil), header...), colStatus)
	}
	envCol := environmentColumn(header)

	out := make([][]any, 0, len(plants)+1)
	out = append(out, toCells(header))
	for _, p := range plants {
		row := make([]any, len(header))
		for i, h := range header {
			switch h {
			case colName:
				row[i] = p.Name
			case envCol:
				row[i] = p.Environment
			case colLastWatered:
				row[i] = p.LastWatered
			case colLastFertilized:
				row[i] = p.LastFertilized
			case colNotes:
				row[i] = p.Notes
			case colStatus:
				row[i] = p.Status.String()
			case colLight:
				row[i] = p.Light
			case colHumidity:
				row[i] = p.Humidity
			default:
				row[i] = p.Extra[h]
			}
		}
		out = append(out, row)
	}
	return out
}

func decodeHistory(values [][]any) []care.HistoryEntry {
	if len(values) < 2 {
		return nil
	}
	header := cellStrings(values[0])
	var out []care.HistoryEntry
	for _, raw := range values[1:] {
		row := cellStrings(raw)
		get := func(col string) string {
			if i := indexOf(header, col); i >= 0 && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		e := care.HistoryEntry{
			Date:   get("Date"),
			Plant:  get("Plant"),
			Action: care.Action(strings.ToUpper(get("Action"))),
			Notes:  get("Notes"),
		}
		if e.Plant == "" && e.Date == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func encodeHistory(entries []care.HistoryEntry) [][]any {
	out := make([][]any, len(entries))
	for i, e := range entries {
		out[i] = []any{e.Date, e.Plant, string(e.Action), e.Notes}
	}
	return out
}

func environmentColumn(header []string) string {
	for _, alias := range environmentAliases {
		if indexOf(header, alias) >= 0 {
			return alias
		}
	}
	return colEnvironment
}

func known(h, envCol string) bool {
	switch h {
	case colName, envCol, colLastWatered, colLastFertilized, colNotes, colStatus, colLight, colHumidity:
		return true
	}
	return false
}

func indexOf(header []string, col string) int {
	for i, h := range header {
		if h == col {
			return i
		}
	}
	return -1
}

func cellStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// padRows extends rows with blank cells to cover a rows x cols area, so a
// rewrite from A1 also blanks whatever the shorter table no longer reaches.
func padRows(rows [][]any, minRows, minCols int) [][]any {
	for len(rows) < minRows {
		rows = append(rows, nil)
	}
	for i, row := range rows {
		for len(row) < minCols {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows
}

// extent returns the number of rows and the widest row of a value range.
func extent(values [][]any) (rows, cols int) {
	for _, row := range values {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return len(values), cols
}
