package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efirbot/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const adminID = 100

type recordingSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

type fakeEventService struct {
	createErr  error
	created    []*domain.Event
	summaries  []*domain.EventSummary
	listErr    error
	lastCode   string
	lastTitle  string
	lastLink   string
	calledList bool
}

func (f *fakeEventService) CreateEvent(ctx context.Context, code, title, roomLink string) (*domain.Event, error) {
	f.lastCode, f.lastTitle, f.lastLink = code, title, roomLink
	if f.createErr != nil {
		return nil, f.createErr
	}
	e := &domain.Event{ID: 1, Code: code, Title: title, RoomLink: roomLink}
	f.created = append(f.created, e)
	return e, nil
}

func (f *fakeEventService) GetEventByCode(ctx context.Context, code string) (*domain.Event, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.EventSummary, error) {
	f.calledList = true
	return f.summaries, f.listErr
}

type fakeReportService struct {
	reports map[string]*domain.Report
	err     error
}

func (f *fakeReportService) BuildReport(ctx context.Context, code string) (*domain.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.reports[code]; ok {
		return r, nil
	}
	if code == "empty" {
		return nil, domain.ErrNoRegistrants
	}
	return nil, domain.ErrNotFound
}

type fakeFlow struct {
	startReply *domain.Reply
	startErr   error
	inputReply *domain.Reply
	handled    bool
	inputErr   error
	lastCode   string
	lastText   string
	lastUser   domain.User
}

func (f *fakeFlow) Start(ctx context.Context, user domain.User, code string) (*domain.Reply, error) {
	f.lastUser, f.lastCode = user, code
	return f.startReply, f.startErr
}

func (f *fakeFlow) Input(ctx context.Context, user domain.User, text string) (*domain.Reply, bool, error) {
	f.lastUser, f.lastText = user, text
	return f.inputReply, f.handled, f.inputErr
}

func (f *fakeFlow) Cancel(ctx context.Context, user domain.User) *domain.Reply {
	return &domain.Reply{Kind: domain.ReplyCancelled}
}

func (f *fakeFlow) State(userID int64) domain.DialogueState { return nil }

type fixture struct {
	d       *Dispatcher
	sender  *recordingSender
	events  *fakeEventService
	reports *fakeReportService
	flow    *fakeFlow
}

func newFixture() *fixture {
	fx := &fixture{
		sender:  &recordingSender{},
		events:  &fakeEventService{},
		reports: &fakeReportService{reports: map[string]*domain.Report{}},
		flow:    &fakeFlow{},
	}
	fx.d = NewDispatcher(Config{
		Events:      fx.events,
		Reports:     fx.reports,
		Flow:        fx.flow,
		Admins:      domain.NewAdminSet([]int64{adminID}),
		Sender:      fx.sender,
		BotUsername: "efir_bot",
		Logger:      testLogger,
	})
	return fx
}

func (fx *fixture) command(userID int64, command, args string) []Message {
	fx.sender.msgs = nil
	text := "/" + command
	if args != "" {
		text += " " + args
	}
	fx.d.Handle(context.Background(), Update{MessageID: 7, ChatID: userID, UserID: userID, Text: text, Command: command, Args: args})
	return fx.sender.msgs
}

func sampleReport(code string, n int) *domain.Report {
	r := &domain.Report{EventCode: code, EventTitle: "Налоги"}
	for i := 1; i <= n; i++ {
		r.Rows = append(r.Rows, domain.ReportRow{
			Seq: i, FullName: fmt.Sprintf("Участник Номер%03d", i), Phone: "+79990000000",
			Profession: "Юрист", Handle: "-", RegisteredAt: "2025-05-01 10:00", UserID: int64(i),
		})
	}
	return r
}

func TestDispatcher_AdminCommandsDenied(t *testing.T) {
	for _, cmd := range []string{"new", "events", "stats", "csv", "xls"} {
		t.Run(cmd, func(t *testing.T) {
			fx := newFixture()
			msgs := fx.command(1, cmd, "may15 | T | https://x")
			require.Len(t, msgs, 1)
			assert.Equal(t, textDenied, msgs[0].Text)
			assert.Nil(t, msgs[0].Document)
			assert.Empty(t, fx.events.created)
			assert.False(t, fx.events.calledList)
		})
	}
}

func TestDispatcher_NewEvent(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		createErr error
		wantText  string
		wantSaved bool
	}{
		{name: "no arguments", args: "", wantText: textNewUsage},
		{name: "two parts", args: "may15 | Эфир", wantText: textNewUsage},
		{name: "bad link", args: "may15 | Эфир | zoom.us/j/1", wantText: textBadRoomLink},
		{name: "code taken", args: "may15 | Эфир | https://zoom.us/j/1", createErr: domain.ErrEventCodeTaken, wantText: textCodeTaken},
		{name: "invalid code", args: "ма й | Эфир | https://zoom.us/j/1", createErr: fmt.Errorf("%w: code", domain.ErrInvalidInput), wantText: textBadEventInput},
		{name: "store failure", args: "may15 | Эфир | https://zoom.us/j/1", createErr: errors.New("database is locked"), wantText: "❌ Ошибка: database is locked"},
		{name: "created", args: "may15 | Майский эфир | https://zoom.us/j/1", wantSaved: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			fx.events.createErr = tt.createErr
			msgs := fx.command(adminID, "new", tt.args)
			require.Len(t, msgs, 1)
			assert.Equal(t, int64(adminID), msgs[0].ChatID)
			assert.Equal(t, 7, msgs[0].ReplyTo)
			if !tt.wantSaved {
				assert.Equal(t, tt.wantText, msgs[0].Text)
				return
			}
			assert.Equal(t, "may15", fx.events.lastCode)
			assert.Equal(t, "Майский эфир", fx.events.lastTitle)
			assert.Equal(t, "https://zoom.us/j/1", fx.events.lastLink)
			assert.True(t, msgs[0].HTML)
			assert.Contains(t, msgs[0].Text, "<code>https://t.me/efir_bot?start=may15</code>")
			assert.Contains(t, msgs[0].Text, "/stats may15")
		})
	}
}

func TestDispatcher_ListEvents(t *testing.T) {
	fx := newFixture()
	msgs := fx.command(adminID, "events", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, textNoEvents, msgs[0].Text)

	created := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	fx.events.summaries = []*domain.EventSummary{
		{Event: &domain.Event{Code: "june1", Title: "Июнь", CreatedAt: created.AddDate(0, 1, 0)}, Registrations: 0},
		{Event: &domain.Event{Code: "may15", Title: "Май", CreatedAt: created}, Registrations: 12},
	}
	msgs = fx.command(adminID, "events", "")
	require.Len(t, msgs, 1)
	text := msgs[0].Text
	assert.Less(t, strings.Index(text, "Июнь"), strings.Index(text, "Май"))
	assert.Contains(t, text, "Участников: 12")
	assert.Contains(t, text, "Создан: 2025-05-01 09:30")
	assert.Contains(t, text, "/xls may15")

	fx.events.listErr = errors.New("boom")
	msgs = fx.command(adminID, "events", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, "❌ Ошибка: boom", msgs[0].Text)
}

func TestDispatcher_Stats(t *testing.T) {
	fx := newFixture()

	msgs := fx.command(adminID, "stats", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, codeUsage("stats"), msgs[0].Text)

	for _, code := range []string{"empty", "unknown"} {
		msgs = fx.command(adminID, "stats", code)
		require.Len(t, msgs, 1)
		assert.Equal(t, noRegistrantsText(code), msgs[0].Text)
	}

	fx.reports.reports["small"] = sampleReport("small", 2)
	msgs = fx.command(adminID, "stats", "small")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "👥 Всего регистраций: 2")
	assert.Contains(t, msgs[0].Text, "🆔 нет")
	assert.NotContains(t, msgs[0].Text, continuationMarker)
}

func TestDispatcher_StatsPaginated(t *testing.T) {
	fx := newFixture()
	fx.reports.reports["big"] = sampleReport("big", 120)

	msgs := fx.command(adminID, "stats", "big")
	require.Greater(t, len(msgs), 1)

	var all strings.Builder
	for i, m := range msgs {
		assert.LessOrEqual(t, utf8.RuneCountInString(m.Text), statsPageLimit+utf8.RuneCountInString(continuationMarker))
		if i < len(msgs)-1 {
			assert.True(t, strings.HasSuffix(m.Text, continuationMarker), "page %d lacks continuation marker", i)
		} else {
			assert.False(t, strings.HasSuffix(m.Text, continuationMarker))
		}
		all.WriteString(m.Text)
	}
	for i := 1; i <= 120; i++ {
		assert.Equal(t, 1, strings.Count(all.String(), fmt.Sprintf("Участник Номер%03d", i)), "record %d", i)
	}
}

func TestDispatcher_Exports(t *testing.T) {
	fx := newFixture()
	fx.reports.reports["may15"] = sampleReport("may15", 3)

	msgs := fx.command(adminID, "csv", "may15")
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Document)
	assert.Equal(t, "registrations_may15.csv", msgs[0].Document.Name)
	assert.True(t, bytes.HasPrefix(msgs[0].Document.Data, []byte("\xEF\xBB\xBF")))
	assert.Contains(t, msgs[0].Text, "👥 Всего участников: 3")

	msgs = fx.command(adminID, "xls", "may15 extra")
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Document)
	assert.Equal(t, "registrations_may15.xlsx", msgs[0].Document.Name)
	assert.True(t, bytes.HasPrefix(msgs[0].Document.Data, []byte("PK")))

	msgs = fx.command(adminID, "xls", "nope")
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].Document)
	assert.Equal(t, noRegistrantsText("nope"), msgs[0].Text)

	msgs = fx.command(adminID, "csv", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, codeUsage("csv"), msgs[0].Text)

	fx.reports.err = errors.New("disk I/O error")
	msgs = fx.command(adminID, "csv", "may15")
	require.Len(t, msgs, 1)
	assert.Equal(t, "❌ Ошибка: disk I/O error", msgs[0].Text)
}

func TestDispatcher_Start(t *testing.T) {
	fx := newFixture()
	fx.flow.startReply = &domain.Reply{Kind: domain.ReplyAskFullName, Event: &domain.Event{Title: "Эфир <1>"}}

	fx.sender.msgs = nil
	fx.d.Handle(context.Background(), Update{MessageID: 3, ChatID: 5, UserID: 5, Username: "anna", Text: "/start may15", Command: "start", Args: "may15"})
	require.Len(t, fx.sender.msgs, 1)
	assert.Equal(t, "may15", fx.flow.lastCode)
	assert.Equal(t, domain.User{ID: 5, Username: "anna"}, fx.flow.lastUser)
	assert.Contains(t, fx.sender.msgs[0].Text, "Эфир &lt;1&gt;")
	assert.True(t, fx.sender.msgs[0].RemoveKeyboard)

	fx.flow.startErr = errors.New("db down")
	msgs := fx.command(5, "start", "may15")
	require.Len(t, msgs, 1)
	assert.Equal(t, textInternalError, msgs[0].Text)
}

func TestDispatcher_Cancel(t *testing.T) {
	fx := newFixture()
	msgs := fx.command(5, "cancel", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, textCancelled, msgs[0].Text)
	assert.True(t, msgs[0].RemoveKeyboard)
}

func TestDispatcher_Text(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	fx.d.Handle(ctx, Update{ChatID: 5, UserID: 5, Text: "привет"})
	assert.Empty(t, fx.sender.msgs)
	assert.Equal(t, "привет", fx.flow.lastText)

	fx.flow.handled = true
	fx.flow.inputReply = &domain.Reply{Kind: domain.ReplyAskProfession, Options: domain.ProfessionOptions}
	fx.d.Handle(ctx, Update{ChatID: 5, UserID: 5, Text: "+79991112233"})
	require.Len(t, fx.sender.msgs, 1)
	assert.Equal(t, domain.ProfessionOptions, fx.sender.msgs[0].Options)

	fx.sender.msgs = nil
	fx.flow.inputErr = errors.New("locked")
	fx.d.Handle(ctx, Update{ChatID: 5, UserID: 5, Text: "Юрист"})
	require.Len(t, fx.sender.msgs, 1)
	assert.Equal(t, textInternalError, fx.sender.msgs[0].Text)
}

func TestDispatcher_UnknownCommandGoesToDialogue(t *testing.T) {
	fx := newFixture()
	fx.flow.handled = true
	fx.flow.inputReply = &domain.Reply{Kind: domain.ReplyInvalidFullName}

	msgs := fx.command(5, "help", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, "/help", fx.flow.lastText)
	assert.Equal(t, textInvalidFullName, msgs[0].Text)
}

func TestDispatcher_SendFailureStopsBatch(t *testing.T) {
	fx := newFixture()
	fx.sender.err = errors.New("forbidden: bot was blocked by the user")
	fx.reports.reports["big"] = sampleReport("big", 120)

	assert.NotPanics(t, func() { fx.command(adminID, "stats", "big") })
	assert.Empty(t, fx.sender.msgs)
}
