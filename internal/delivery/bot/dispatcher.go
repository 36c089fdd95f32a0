package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"efirbot/internal/adapters/export"
	"efirbot/internal/domain"
)

// Config holds the collaborators of a Dispatcher.
type Config struct {
	Events      domain.EventService
	Reports     domain.ReportService
	Flow        domain.RegistrationFlow
	Admins      domain.AdminSet
	Sender      Sender
	BotUsername string
	Logger      *slog.Logger
}

// Dispatcher routes updates to command handlers and the registration dialogue.
// Handle is safe for concurrent use.
type Dispatcher struct {
	events      domain.EventService
	reports     domain.ReportService
	flow        domain.RegistrationFlow
	admins      domain.AdminSet
	sender      Sender
	botUsername string
	logger      *slog.Logger
}

// NewDispatcher returns a Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	admins := cfg.Admins
	if admins == nil {
		admins = domain.NewAdminSet(nil)
	}
	return &Dispatcher{
		events:      cfg.Events,
		reports:     cfg.Reports,
		flow:        cfg.Flow,
		admins:      admins,
		sender:      cfg.Sender,
		botUsername: cfg.BotUsername,
		logger:      logger,
	}
}

type adminHandler func(ctx context.Context, u Update) []Message

// Handle processes one update and sends the resulting messages in order.
func (d *Dispatcher) Handle(ctx context.Context, u Update) {
	for _, msg := range d.route(ctx, u) {
		msg.ChatID = u.ChatID
		msg.ReplyTo = u.MessageID
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.WarnContext(ctx, "send failed", "chat_id", u.ChatID, "command", u.Command, "err", err)
			return
		}
	}
}

func (d *Dispatcher) route(ctx context.Context, u Update) []Message {
	switch u.Command {
	case "start":
		return d.start(ctx, u)
	case "cancel":
		return renderReply(d.flow.Cancel(ctx, user(u)))
	case "new":
		return d.asAdmin(ctx, u, d.newEvent)
	case "events":
		return d.asAdmin(ctx, u, d.listEvents)
	case "stats":
		return d.asAdmin(ctx, u, d.stats)
	case "csv":
		return d.asAdmin(ctx, u, d.exportCSV)
	case "xls":
		return d.asAdmin(ctx, u, d.exportXLSX)
	}
	return d.answer(ctx, u)
}

func user(u Update) domain.User {
	return domain.User{ID: u.UserID, Username: u.Username}
}

func (d *Dispatcher) authorize(u Update) error {
	if !d.admins.Contains(u.UserID) {
		return domain.ErrForbidden
	}
	return nil
}

func (d *Dispatcher) asAdmin(ctx context.Context, u Update, h adminHandler) []Message {
	if err := d.authorize(u); err != nil {
		d.logger.InfoContext(ctx, "admin command denied", "user_id", u.UserID, "command", u.Command)
		return []Message{{Text: textDenied}}
	}
	return h(ctx, u)
}

func (d *Dispatcher) start(ctx context.Context, u Update) []Message {
	reply, err := d.flow.Start(ctx, user(u), firstArg(u.Args))
	if err != nil {
		d.logger.ErrorContext(ctx, "start dialogue failed", "user_id", u.UserID, "err", err)
		return []Message{{Text: textInternalError}}
	}
	return renderReply(reply)
}

// answer feeds text to the active dialogue. Text outside a dialogue is ignored.
func (d *Dispatcher) answer(ctx context.Context, u Update) []Message {
	reply, handled, err := d.flow.Input(ctx, user(u), u.Text)
	if err != nil {
		d.logger.ErrorContext(ctx, "dialogue step failed", "user_id", u.UserID, "err", err)
		return []Message{{Text: textInternalError}}
	}
	if !handled {
		d.logger.DebugContext(ctx, "text outside dialogue ignored", "user_id", u.UserID)
		return nil
	}
	return renderReply(reply)
}

func (d *Dispatcher) newEvent(ctx context.Context, u Update) []Message {
	parts := strings.Split(strings.TrimSpace(u.Args), "|")
	if len(parts) < 3 {
		return []Message{{Text: textNewUsage}}
	}
	code := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	roomLink := strings.TrimSpace(strings.Join(parts[2:], "|"))
	if !strings.HasPrefix(roomLink, "http://") && !strings.HasPrefix(roomLink, "https://") {
		return []Message{{Text: textBadRoomLink}}
	}

	event, err := d.events.CreateEvent(ctx, code, title, roomLink)
	switch {
	case errors.Is(err, domain.ErrEventCodeTaken):
		return []Message{{Text: textCodeTaken}}
	case errors.Is(err, domain.ErrInvalidInput):
		return []Message{{Text: textBadEventInput}}
	case err != nil:
		d.logger.ErrorContext(ctx, "create event failed", "event_code", code, "err", err)
		return []Message{{Text: adminErrorText(err)}}
	}
	d.logger.InfoContext(ctx, "event created", "event_code", event.Code, "admin_id", u.UserID)
	return []Message{{Text: eventCreatedText(event, d.botUsername), HTML: true}}
}

func (d *Dispatcher) listEvents(ctx context.Context, u Update) []Message {
	summaries, err := d.events.ListEvents(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "list events failed", "err", err)
		return []Message{{Text: adminErrorText(err)}}
	}
	if len(summaries) == 0 {
		return []Message{{Text: textNoEvents}}
	}
	entries := make([]string, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, eventListEntry(s))
	}
	return textPages(paginate("📋 Все эфиры:\n\n", entries, statsPageLimit))
}

func (d *Dispatcher) stats(ctx context.Context, u Update) []Message {
	report, msgs := d.report(ctx, u)
	if report == nil {
		return msgs
	}
	entries := make([]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		entries = append(entries, statsEntry(row))
	}
	return textPages(paginate(statsHeader(report), entries, statsPageLimit))
}

func (d *Dispatcher) exportCSV(ctx context.Context, u Update) []Message {
	report, msgs := d.report(ctx, u)
	if report == nil {
		return msgs
	}
	data, err := export.CSV(report)
	if err != nil {
		d.logger.ErrorContext(ctx, "csv export failed", "event_code", report.EventCode, "err", err)
		return []Message{{Text: adminErrorText(err)}}
	}
	return []Message{{
		Text:     exportCaption("CSV-экспорт", report),
		Document: &Document{Name: export.CSVFilename(report.EventCode), Data: data},
	}}
}

func (d *Dispatcher) exportXLSX(ctx context.Context, u Update) []Message {
	report, msgs := d.report(ctx, u)
	if report == nil {
		return msgs
	}
	data, err := export.XLSX(report)
	if err != nil {
		d.logger.ErrorContext(ctx, "xlsx export failed", "event_code", report.EventCode, "err", err)
		return []Message{{Text: "❌ Ошибка при создании Excel: " + err.Error()}}
	}
	return []Message{{
		Text:     exportCaption("Excel-отчет", report),
		Document: &Document{Name: export.XLSXFilename(report.EventCode), Data: data},
	}}
}

// report builds the report named by the first argument. When it returns a nil
// report the messages explain why.
func (d *Dispatcher) report(ctx context.Context, u Update) (*domain.Report, []Message) {
	code := firstArg(u.Args)
	if code == "" {
		return nil, []Message{{Text: codeUsage(u.Command)}}
	}
	report, err := d.reports.BuildReport(ctx, code)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoRegistrants):
		return nil, []Message{{Text: noRegistrantsText(code)}}
	case err != nil:
		d.logger.ErrorContext(ctx, "build report failed", "event_code", code, "err", err)
		return nil, []Message{{Text: adminErrorText(err)}}
	}
	return report, nil
}

func firstArg(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func textPages(pages []string) []Message {
	msgs := make([]Message, 0, len(pages))
	for _, p := range pages {
		msgs = append(msgs, Message{Text: p})
	}
	return msgs
}
