package domain

import "context"

// ReportTimeLayout is the minute-precision layout of registration times in reports.
const ReportTimeLayout = "2006-01-02 15:04"

// ReportHeaders are the column headers of exported reports.
var ReportHeaders = []string{"№", "Имя", "Телефон", "Профессия", "Telegram", "Дата регистрации", "ID пользователя"}

// ReportRow is one registrant in a report.
type ReportRow struct {
	Seq          int
	FullName     string
	Phone        string
	Profession   string
	Handle       string
	RegisteredAt string
	UserID       int64
}

// Report is a point-in-time snapshot of an event's registrants.
type Report struct {
	EventCode  string
	EventTitle string
	Rows       []ReportRow
}

// ReportService builds registrant reports for administrators.
type ReportService interface {
	// BuildReport returns ErrNotFound for an unknown code and ErrNoRegistrants
	// for an event without registrants.
	BuildReport(ctx context.Context, code string) (*Report, error)
}
