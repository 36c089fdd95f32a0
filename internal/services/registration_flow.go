package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"efirbot/internal/domain"
)

const (
	minFullNameWords   = 2
	minPhoneRunes      = 10
	minProfessionRunes = 2
	// maxAnswerRunes caps every free-text answer so one registrant fits a chat message.
	maxAnswerRunes = 256
)

// FlowOptions tunes the registration dialogue.
type FlowOptions struct {
	// ContextTimeout bounds every store round-trip of a step.
	ContextTimeout time.Duration
	// DialogueTTL drops dialogues idle for longer; zero keeps them forever.
	DialogueTTL time.Duration
}

type registrationFlow struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	notifier         domain.Notifier
	sessions         *sessionStore
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewRegistrationFlow returns the per-user registration dialogue. Steps of one
// user are serialized; different users proceed concurrently.
func NewRegistrationFlow(eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	notifier domain.Notifier,
	logger *slog.Logger,
	opts FlowOptions,
) domain.RegistrationFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &registrationFlow{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		notifier:         notifier,
		sessions:         newSessionStore(opts.DialogueTTL),
		logger:           logger,
		contextTimeout:   opts.ContextTimeout,
	}
}

func (f *registrationFlow) Start(ctx context.Context, user domain.User, code string) (*domain.Reply, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return &domain.Reply{Kind: domain.ReplyWelcome}, nil
	}

	sess, unlock := f.sessions.lock(user.ID)
	defer unlock()

	ctx, cancel := withTimeout(ctx, f.contextTimeout)
	defer cancel()

	event, err := f.eventRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Reply{Kind: domain.ReplyEventNotFound}, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	registered, err := f.registrationRepo.IsRegistered(ctx, user.ID, event.ID)
	if err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	if registered {
		sess.clear()
		return &domain.Reply{Kind: domain.ReplyAlreadyRegistered, Event: event}, nil
	}

	sess.set(domain.AwaitingFullName{Event: domain.DialogueEvent{ID: event.ID, Code: event.Code, Title: event.Title}})
	return &domain.Reply{Kind: domain.ReplyAskFullName, Event: event}, nil
}

func (f *registrationFlow) Input(ctx context.Context, user domain.User, text string) (*domain.Reply, bool, error) {
	sess, unlock := f.sessions.lock(user.ID)
	defer unlock()

	state := sess.current()
	if state == nil {
		return nil, false, nil
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxAnswerRunes {
		reply := &domain.Reply{Kind: domain.ReplyInputTooLong}
		if _, ok := state.(domain.AwaitingProfession); ok {
			reply.Options = domain.ProfessionOptions
		}
		return reply, true, nil
	}

	switch st := state.(type) {
	case domain.AwaitingFullName:
		if len(strings.Fields(text)) < minFullNameWords {
			return &domain.Reply{Kind: domain.ReplyInvalidFullName}, true, nil
		}
		sess.set(domain.AwaitingPhone{Event: st.Event, FullName: text})
		return &domain.Reply{Kind: domain.ReplyAskPhone}, true, nil

	case domain.AwaitingPhone:
		if utf8.RuneCountInString(text) < minPhoneRunes {
			return &domain.Reply{Kind: domain.ReplyInvalidPhone}, true, nil
		}
		sess.set(domain.AwaitingProfession{Event: st.Event, FullName: st.FullName, Phone: text})
		return &domain.Reply{Kind: domain.ReplyAskProfession, Options: domain.ProfessionOptions}, true, nil

	case domain.AwaitingProfession:
		if text == domain.ProfessionOther {
			sess.set(domain.AwaitingCustomProfession{Event: st.Event, FullName: st.FullName, Phone: st.Phone})
			return &domain.Reply{Kind: domain.ReplyAskCustomProfession}, true, nil
		}
		if !isProfessionOption(text) && utf8.RuneCountInString(text) < minProfessionRunes {
			return &domain.Reply{Kind: domain.ReplyInvalidProfession, Options: domain.ProfessionOptions}, true, nil
		}
		reply, err := f.complete(ctx, sess, user, st.Event, st.FullName, st.Phone, text)
		return reply, true, err

	case domain.AwaitingCustomProfession:
		if utf8.RuneCountInString(text) < minProfessionRunes {
			return &domain.Reply{Kind: domain.ReplyInvalidProfession}, true, nil
		}
		reply, err := f.complete(ctx, sess, user, st.Event, st.FullName, st.Phone, text)
		return reply, true, err
	}
	return nil, false, fmt.Errorf("unknown dialogue state %T", state)
}

// complete persists the registration. The draft is kept when the store fails
// unexpectedly so the user can resend the last answer.
func (f *registrationFlow) complete(ctx context.Context, sess *session, user domain.User,
	ev domain.DialogueEvent, fullName, phone, profession string,
) (*domain.Reply, error) {
	ctx, cancel := withTimeout(ctx, f.contextTimeout)
	defer cancel()

	event, err := f.eventRepo.GetByID(ctx, ev.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			sess.clear()
			return &domain.Reply{Kind: domain.ReplyEventNotFound}, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	reg := domain.NewRegistration(user.ID, event.ID, user.Username, fullName, phone, profession)
	if err := f.registrationRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			sess.clear()
			return &domain.Reply{Kind: domain.ReplyAlreadyRegisteredOnSave, Event: event}, nil
		}
		return nil, fmt.Errorf("save registration: %w", err)
	}
	sess.clear()

	count, err := f.registrationRepo.CountByEventID(ctx, event.ID)
	if err != nil {
		f.logger.Warn("count registrations failed", "event_code", event.Code, "err", err)
	}
	f.logger.Info("registration completed", "event_code", event.Code, "user_id", user.ID, "registrations", count)

	if f.notifier != nil {
		f.notifier.NotifyRegistration(context.WithoutCancel(ctx), &domain.RegistrationNotice{
			EventCode:     event.Code,
			EventTitle:    event.Title,
			FullName:      reg.FullName,
			Phone:         reg.Phone,
			Profession:    reg.Profession,
			Username:      reg.Username,
			Registrations: count,
		})
	}
	return &domain.Reply{Kind: domain.ReplyCompleted, Event: event, FullName: reg.FullName}, nil
}

func (f *registrationFlow) Cancel(ctx context.Context, user domain.User) *domain.Reply {
	sess, unlock := f.sessions.lock(user.ID)
	defer unlock()

	if sess.current() == nil {
		return &domain.Reply{Kind: domain.ReplyNothingToCancel}
	}
	sess.clear()
	return &domain.Reply{Kind: domain.ReplyCancelled}
}

func (f *registrationFlow) State(userID int64) domain.DialogueState {
	sess, unlock := f.sessions.lock(userID)
	defer unlock()
	return sess.current()
}

func isProfessionOption(text string) bool {
	for _, o := range domain.ProfessionOptions {
		if o == text {
			return true
		}
	}
	return false
}
