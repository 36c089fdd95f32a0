package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"efirbot/internal/domain"
)

// eventCodePattern is the alphabet of chat deep-link start parameters.
var eventCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type eventService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	contextTimeout   time.Duration
}

// NewEventService returns the administrator EventService.
func NewEventService(eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		contextTimeout:   timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, code, title, roomLink string) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event := domain.NewEvent(code, title, roomLink)
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrEventCodeTaken) {
			return nil, domain.ErrEventCodeTaken
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func validateEvent(e *domain.Event) error {
	if !eventCodePattern.MatchString(e.Code) {
		return fmt.Errorf("%w: code must be 1-64 latin letters, digits, '_' or '-'", domain.ErrInvalidInput)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if !strings.HasPrefix(e.RoomLink, "http://") && !strings.HasPrefix(e.RoomLink, "https://") {
		return fmt.Errorf("%w: room link must start with http:// or https://", domain.ErrInvalidInput)
	}
	return nil
}

func (s *eventService) GetEventByCode(ctx context.Context, code string) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.EventSummary, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	summaries := make([]*domain.EventSummary, 0, len(events))
	for _, e := range events {
		n, err := s.registrationRepo.CountByEventID(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("count registrations: %w", err)
		}
		summaries = append(summaries, &domain.EventSummary{Event: e, Registrations: n})
	}
	return summaries, nil
}

// withTimeout bounds ctx by d; a non-positive d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
