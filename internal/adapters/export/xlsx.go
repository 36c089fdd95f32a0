package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"efirbot/internal/domain"
)

const (
	maxSheetNameRunes = 31
	maxColumnWidth    = 50
	headerFillColor   = "4472C4"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// SheetName returns the worksheet name for an event, stripped of the
// characters spreadsheets reject and cut to 31 characters.
func SheetName(code string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, "Эфир "+code)
	if utf8.RuneCountInString(name) > maxSheetNameRunes {
		name = string([]rune(name)[:maxSheetNameRunes])
	}
	return strings.TrimSpace(name)
}

// XLSX renders the report as a single styled worksheet.
func XLSX(report *domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(report.EventCode)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder})
	if err != nil {
		return nil, fmt.Errorf("cell style: %w", err)
	}
	seqStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return nil, fmt.Errorf("seq style: %w", err)
	}

	widths := make([]int, len(domain.ReportHeaders))
	for col, h := range domain.ReportHeaders {
		if err := setCell(f, sheet, col+1, 1, h); err != nil {
			return nil, err
		}
		widths[col] = utf8.RuneCountInString(h)
	}
	for i, r := range report.Rows {
		row := i + 2
		values := []any{r.Seq, r.FullName, r.Phone, r.Profession, r.Handle, r.RegisteredAt, r.UserID}
		for col, v := range values {
			if err := setCell(f, sheet, col+1, row, v); err != nil {
				return nil, err
			}
		}
		for col, s := range record(r) {
			widths[col] = max(widths[col], utf8.RuneCountInString(s))
		}
	}

	lastCol := len(domain.ReportHeaders)
	lastRow := len(report.Rows) + 1
	if err := styleRange(f, sheet, 1, 1, lastCol, 1, headerStyle); err != nil {
		return nil, err
	}
	if lastRow > 1 {
		if err := styleRange(f, sheet, 2, 2, lastCol, lastRow, cellStyle); err != nil {
			return nil, err
		}
		if err := styleRange(f, sheet, 1, 2, 1, lastRow, seqStyle); err != nil {
			return nil, err
		}
	}
	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, float64(min(w+2, maxColumnWidth))); err != nil {
			return nil, fmt.Errorf("set width of %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}

func styleRange(f *excelize.File, sheet string, fromCol, fromRow, toCol, toRow, style int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, fromRow)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, toRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("style %s:%s: %w", from, to, err)
	}
	return nil
}
