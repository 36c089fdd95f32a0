package domain

import "context"

// ProfessionOther is the profession option that asks for a free-text answer.
const ProfessionOther = "Другое"

// ProfessionOptions are the answers offered on the profession step, in display order.
var ProfessionOptions = []string{
	"Предприниматель",
	"Юрист",
	"Бухгалтер",
	"Наёмный сотрудник",
	ProfessionOther,
}

// DialogueEvent is the snapshot of the event a dialogue registers for.
type DialogueEvent struct {
	ID    int64
	Code  string
	Title string
}

// DialogueState is the step a user is on in the registration dialogue.
// The concrete types below are the only implementations; a nil state means
// no dialogue is active.
type DialogueState interface {
	DialogueEvent() DialogueEvent
	dialogueState()
}

// AwaitingFullName waits for a name of at least two words.
type AwaitingFullName struct {
	Event DialogueEvent
}

// AwaitingPhone holds the accepted name and waits for a phone number.
type AwaitingPhone struct {
	Event    DialogueEvent
	FullName string
}

// AwaitingProfession waits for one of ProfessionOptions or a typed answer.
type AwaitingProfession struct {
	Event    DialogueEvent
	FullName string
	Phone    string
}

// AwaitingCustomProfession waits for a free-text profession after ProfessionOther.
type AwaitingCustomProfession struct {
	Event    DialogueEvent
	FullName string
	Phone    string
}

func (s AwaitingFullName) DialogueEvent() DialogueEvent         { return s.Event }
func (s AwaitingPhone) DialogueEvent() DialogueEvent            { return s.Event }
func (s AwaitingProfession) DialogueEvent() DialogueEvent       { return s.Event }
func (s AwaitingCustomProfession) DialogueEvent() DialogueEvent { return s.Event }

func (AwaitingFullName) dialogueState()         {}
func (AwaitingPhone) dialogueState()            {}
func (AwaitingProfession) dialogueState()       {}
func (AwaitingCustomProfession) dialogueState() {}

// ReplyKind identifies the outcome of a dialogue step. The transport renders it.
type ReplyKind int

const (
	ReplyWelcome ReplyKind = iota
	ReplyEventNotFound
	ReplyAlreadyRegistered
	ReplyAskFullName
	ReplyInvalidFullName
	ReplyAskPhone
	ReplyInvalidPhone
	ReplyAskProfession
	ReplyAskCustomProfession
	ReplyInvalidProfession
	ReplyCompleted
	ReplyAlreadyRegisteredOnSave
	ReplyCancelled
	ReplyNothingToCancel
	ReplyInputTooLong
)

// Reply is the result of a dialogue step.
type Reply struct {
	Kind ReplyKind
	// Event is set when the reply refers to an event (title, room link).
	Event *Event
	// FullName is set on ReplyCompleted.
	FullName string
	// Options is set on ReplyAskProfession.
	Options []string
}

// RegistrationFlow drives the per-user registration dialogue.
type RegistrationFlow interface {
	// Start begins (or short-circuits) the dialogue for the event code.
	Start(ctx context.Context, user User, code string) (*Reply, error)
	// Input feeds a text answer to the active dialogue. handled is false when
	// the user has no active dialogue.
	Input(ctx context.Context, user User, text string) (reply *Reply, handled bool, err error)
	// Cancel drops the active dialogue without writing anything.
	Cancel(ctx context.Context, user User) *Reply
	// State returns the current step of the user, nil when idle.
	State(userID int64) DialogueState
}

// RegistrationNotice is what administrators receive after a completed registration.
type RegistrationNotice struct {
	EventCode     string
	EventTitle    string
	FullName      string
	Phone         string
	Profession    string
	Username      string
	Registrations int
}

// Notifier delivers registration notices on a best-effort basis.
type Notifier interface {
	// NotifyRegistration returns immediately; delivery happens in the background.
	NotifyRegistration(ctx context.Context, notice *RegistrationNotice)
}
