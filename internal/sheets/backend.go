// Package sheets stores the plant table and care history in a Google
// Sheets spreadsheet shared with a service account.
package sheets

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/chris/sprout/internal/care"
	"github.com/chris/sprout/internal/store"
)

var _ store.Backend = (*Backend)(nil)

type Backend struct {
	svc           *gsheets.Service
	spreadsheetID string
	plantSheet    string
	historySheet  string
	header        []string // plant sheet header as last read
	loadedRows    int      // extent of the plant sheet as last read
	loadedCols    int
}

type Config struct {
	CredentialsJSON []byte
	SpreadsheetID   string
	PlantSheet      string
	HistorySheet    string
}

// Open connects to the spreadsheet, checks the plant worksheet exists and
// creates the history worksheet (with headers) when it is missing or empty.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON(cfg.CredentialsJSON),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}
	b := &Backend{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		plantSheet:    cfg.PlantSheet,
		historySheet:  cfg.HistorySheet,
	}

	ss, err := svc.Spreadsheets.Get(cfg.SpreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet %s (is it shared with the service account?): %w", cfg.SpreadsheetID, err)
	}
	titles := make(map[string]bool)
	for _, s := range ss.Sheets {
		titles[s.Properties.Title] = true
	}
	if !titles[cfg.PlantSheet] {
		return nil, fmt.Errorf("worksheet %q not found in spreadsheet", cfg.PlantSheet)
	}
	if err := b.ensureHistorySheet(ctx, titles[cfg.HistorySheet]); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) ensureHistorySheet(ctx context.Context, exists bool) error {
	if !exists {
		log.Printf("sheets: creating %q worksheet", b.historySheet)
		req := &gsheets.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheets.Request{{
				AddSheet: &gsheets.AddSheetRequest{
					Properties: &gsheets.SheetProperties{Title: b.historySheet},
				},
			}},
		}
		if _, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("creating %s worksheet: %w", b.historySheet, err)
		}
	} else {
		vr, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, sheetRange(b.historySheet)).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("reading %s worksheet: %w", b.historySheet, err)
		}
		if len(vr.Values) > 0 {
			return nil
		}
		log.Printf("sheets: adding headers to %q", b.historySheet)
	}
	return b.append(ctx, b.historySheet, [][]any{toCells(HistoryHeaders)})
}

func (b *Backend) LoadPlants(ctx context.Context) ([]care.Plant, error) {
	vr, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, sheetRange(b.plantSheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s worksheet: %w", b.plantSheet, err)
	}
	header, plants, err := decodePlants(vr.Values)
	if err != nil {
		return nil, err
	}
	b.header = header
	b.loadedRows, b.loadedCols = extent(vr.Values)
	return plants, nil
}

// SavePlants rewrites the plant worksheet from A1. Cells the last read
// covered but the new table does not are blanked in the same update.
func (b *Backend) SavePlants(ctx context.Context, plants []care.Plant) error {
	rows := padRows(encodePlants(b.header, plants), b.loadedRows, b.loadedCols)
	vr := &gsheets.ValueRange{Values: rows}
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, sheetRange(b.plantSheet)+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing %s worksheet: %w", b.plantSheet, err)
	}
	b.loadedRows, b.loadedCols = extent(rows)
	log.Printf("sheets: saved %d plant row(s)", len(plants))
	return nil
}

func (b *Backend) LoadHistory(ctx context.Context) ([]care.HistoryEntry, error) {
	vr, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, sheetRange(b.historySheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s worksheet: %w", b.historySheet, err)
	}
	return decodeHistory(vr.Values), nil
}

func (b *Backend) AppendHistory(ctx context.Context, entries []care.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return b.append(ctx, b.historySheet, encodeHistory(entries))
}

func (b *Backend) append(ctx context.Context, sheet string, rows [][]any) error {
	vr := &gsheets.ValueRange{Values: rows}
	_, err := b.svc.Spreadsheets.Values.Append(b.spreadsheetID, sheetRange(sheet), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending to %s worksheet: %w", sheet, err)
	}
	return nil
}

// sheetRange quotes a worksheet title for A1 notation.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
