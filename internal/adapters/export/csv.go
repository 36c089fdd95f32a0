package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"

	"efirbot/internal/domain"
)

// utf8BOM makes spreadsheet applications detect the encoding of Cyrillic text.
const utf8BOM = "\ufeff"

// Cells that start with a formula trigger but are plain data: phone numbers
// such as "+7 999 123-45-67", the "-" of a missing username and "@handle".
var (
	phoneLike  = regexp.MustCompile(`^[+-]?[0-9 ()-]*$`)
	handleLike = regexp.MustCompile(`^@[A-Za-z0-9_]+$`)
)

// escapeFormula prefixes cells that a spreadsheet would evaluate as a formula.
func escapeFormula(cell string) string {
	if cell == "" || phoneLike.MatchString(cell) || handleLike.MatchString(cell) {
		return cell
	}
	switch cell[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + cell
	}
	return cell
}

// CSV renders the report as comma-separated UTF-8 with a byte order mark.
func CSV(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(domain.ReportHeaders); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range report.Rows {
		rec := record(r)
		for i := range rec {
			rec[i] = escapeFormula(rec[i])
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", r.Seq, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
