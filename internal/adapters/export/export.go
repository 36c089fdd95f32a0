// Package export renders registrant reports as downloadable spreadsheets.
package export

import (
	"strconv"

	"efirbot/internal/domain"
)

// CSVFilename is the attachment name of a CSV report.
func CSVFilename(code string) string {
	return "registrations_" + code + ".csv"
}

// XLSXFilename is the attachment name of an XLSX report.
func XLSXFilename(code string) string {
	return "registrations_" + code + ".xlsx"
}

// record flattens a row in ReportHeaders order.
func record(r domain.ReportRow) []string {
	return []string{
		strconv.Itoa(r.Seq),
		r.FullName,
		r.Phone,
		r.Profession,
		r.Handle,
		r.RegisteredAt,
		strconv.FormatInt(r.UserID, 10),
	}
}
