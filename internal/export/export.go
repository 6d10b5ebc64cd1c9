// Package export writes the menu history to a spreadsheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/menuapi"
	"github.com/belphemur/canteen-menu/internal/progress"
)

const (
	MenusSheet  = "Menus"
	DishesSheet = "Dishes"
)

// MenuReader is the part of the menu API the exporter needs
type MenuReader interface {
	Dates(ctx context.Context) ([]string, error)
	Menu(ctx context.Context, date string) (menuapi.Menu, error)
}

// Result is the collected history
type Result struct {
	Menus   []menuapi.Menu
	Missing []string // dates listed by the backend that returned 404
}

// Exporter collects every available menu
type Exporter struct {
	source   MenuReader
	reporter progress.Reporter
	logger   zerolog.Logger
}

// New creates an exporter. A nil reporter discards progress.
func New(source MenuReader, reporter progress.Reporter) *Exporter {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Exporter{source: source, reporter: reporter, logger: logging.GetLogger("export")}
}

// Collect fetches the menu of every available date, most recent first. Dates that
// fail for other reasons than 404 are reported together in the returned error
// while the remaining dates are still collected.
func (e *Exporter) Collect(ctx context.Context) (Result, error) {
	dates, err := e.source.Dates(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list menu dates: %w", err)
	}

	result := Result{Menus: make([]menuapi.Menu, 0, len(dates))}
	var errs *multierror.Error

	e.reporter.Start(len(dates))
	defer e.reporter.Finish()

	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		menu, err := e.source.Menu(ctx, date)
		switch {
		case errors.Is(err, menuapi.ErrNotFound):
			e.logger.Warn().Str("date", date).Msg("Listed date has no menu")
			result.Missing = append(result.Missing, date)
		case err != nil:
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", date, err))
		default:
			result.Menus = append(result.Menus, menu)
		}
		e.reporter.Update(i+1, date)
	}

	e.logger.Info().Int("menus", len(result.Menus)).Int("missing", len(result.Missing)).Msg("Menu history collected")
	return result, errs.ErrorOrNil()
}

// Write renders the menus as an xlsx workbook: one row per date on the Menus
// sheet and one row per dish on the Dishes sheet.
func Write(w io.Writer, menus []menuapi.Menu) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the Menus sheet
	if err := f.SetSheetName("Sheet1", MenusSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(DishesSheet); err != nil {
		return fmt.Errorf("failed to create dishes sheet: %w", err)
	}

	menuRows := make([][]interface{}, 0, len(menus))
	var dishRows [][]interface{}
	for _, m := range menus {
		menuRows = append(menuRows, []interface{}{m.Date, m.ContentPL, m.ContentEN, len(m.Images)})
		for i, dish := range m.Images {
			dishRows = append(dishRows, []interface{}{m.Date, i + 1, dish.PL, dish.EN})
		}
	}

	if err := writeSheet(f, MenusSheet, []interface{}{"date", "content_pl", "content_en", "dishes"}, menuRows); err != nil {
		return err
	}
	if err := writeSheet(f, DishesSheet, []interface{}{"date", "position", "pl", "en"}, dishRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open %s sheet: %w", sheet, err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2) // A2, A3, ...
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s sheet: %w", sheet, err)
	}
	return nil
}
