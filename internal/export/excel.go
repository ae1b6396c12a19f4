package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

// Workbook sheet names.
const (
	sheetRoster     = "Roster"
	sheetCheckins   = "Checkins"
	sheetAttendance = "Attendance"
)

// BuildWorkbook renders the database as an Excel workbook with three
// sheets: the roster, the raw checkin log, and per-student attendance
// totals for the given season boundaries.
func BuildWorkbook(ctx context.Context, db *store.Store, yearStart, buildStart model.Date) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetRoster)

	if err := writeRosterSheet(ctx, f, db); err != nil {
		return nil, err
	}
	if err := writeCheckinSheet(ctx, f, db); err != nil {
		return nil, err
	}
	if err := writeAttendanceSheet(ctx, f, db, yearStart, buildStart); err != nil {
		return nil, err
	}

	if idx, err := f.GetSheetIndex(sheetAttendance); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// WriteExcel builds the workbook and saves it to path.
func WriteExcel(ctx context.Context, db *store.Store, yearStart, buildStart model.Date, path string) error {
	f, err := BuildWorkbook(ctx, db, yearStart, buildStart)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func writeRosterSheet(ctx context.Context, f *excelize.File, db *store.Store) error {
	students, err := db.ListStudents(ctx, true)
	if err != nil {
		return err
	}
	if err := setRow(f, sheetRoster, 1,
		"Student ID", "First Name", "Last Name", "Grad Year", "Email", "Deactivated On"); err != nil {
		return err
	}
	for i, st := range students {
		deactivated := ""
		if st.DeactivatedOn != nil {
			deactivated = st.DeactivatedOn.String()
		}
		if err := setRow(f, sheetRoster, i+2,
			st.ID, st.FirstName, st.LastName, st.GradYear, st.Email, deactivated); err != nil {
			return err
		}
	}
	return nil
}

func writeCheckinSheet(ctx context.Context, f *excelize.File, db *store.Store) error {
	if _, err := f.NewSheet(sheetCheckins); err != nil {
		return err
	}
	checkins, err := db.ListCheckins(ctx)
	if err != nil {
		return err
	}
	if err := setRow(f, sheetCheckins, 1,
		"Student ID", "Event Date", "Event Type", "Timestamp", "Inactive"); err != nil {
		return err
	}
	for i, c := range checkins {
		if err := setRow(f, sheetCheckins, i+2,
			c.StudentID, c.EventDate.String(), string(c.EventType),
			c.Timestamp.String(), c.Inactive); err != nil {
			return err
		}
	}
	return nil
}

func writeAttendanceSheet(ctx context.Context, f *excelize.File, db *store.Store, yearStart, buildStart model.Date) error {
	if _, err := f.NewSheet(sheetAttendance); err != nil {
		return err
	}
	rows, err := db.AttendanceTotals(ctx, yearStart, buildStart, false)
	if err != nil {
		return err
	}
	if err := setRow(f, sheetAttendance, 1,
		"Last Name", "First Name", "Grad Year", "Year Checkins", "Build Checkins", "Last Checkin"); err != nil {
		return err
	}
	for i, r := range rows {
		last := ""
		if r.LastCheckin != nil {
			last = r.LastCheckin.String()
		}
		if err := setRow(f, sheetAttendance, i+2,
			r.LastName, r.FirstName, r.GradYear, r.YearCheckins, r.BuildCheckins, last); err != nil {
			return err
		}
	}
	return nil
}
