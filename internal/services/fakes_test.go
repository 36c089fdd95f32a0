package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"efirbot/internal/domain"
)

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu     sync.Mutex
	byID   map[int64]*domain.Event
	nextID int64
	err    error // if set, every call returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[int64]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Code == e.Code {
			return domain.ErrEventCodeTaken
		}
	}
	e.ID = f.nextID
	f.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Unix(0, 0).Add(time.Duration(e.ID) * time.Minute)
	}
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.byID {
		if e.Code == code {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeEventRepo) remove(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

// fakeRegistrationRepo is an in-memory RegistrationRepository enforcing the (user, event) uniqueness.
type fakeRegistrationRepo struct {
	mu        sync.Mutex
	events    *fakeEventRepo
	regs      []*domain.Registration
	createErr error
	countErr  error
}

func newFakeRegistrationRepo(events *fakeEventRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{events: events}
}

func (f *fakeRegistrationRepo) IsRegistered(ctx context.Context, userID, eventID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.UserID == userID && r.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.regs {
		if r.UserID == reg.UserID && r.EventID == reg.EventID {
			return domain.ErrAlreadyRegistered
		}
	}
	reg.ID = int64(len(f.regs) + 1)
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(reg.ID) * time.Minute)
	}
	f.regs = append(f.regs, reg)
	return nil
}

func (f *fakeRegistrationRepo) CountByEventID(ctx context.Context, eventID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, r := range f.regs {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRegistrationRepo) ListByEventCode(ctx context.Context, code string) ([]*domain.RegistrationWithTitle, error) {
	event, err := f.events.GetByCode(ctx, code)
	if err != nil {
		return []*domain.RegistrationWithTitle{}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.RegistrationWithTitle{}
	for _, r := range f.regs {
		if r.EventID == event.ID {
			out = append(out, &domain.RegistrationWithTitle{Registration: r, EventTitle: event.Title})
		}
	}
	return out, nil
}

// recordingNotifier captures notices instead of delivering them.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []*domain.RegistrationNotice
}

func (n *recordingNotifier) NotifyRegistration(ctx context.Context, notice *domain.RegistrationNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) all() []*domain.RegistrationNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*domain.RegistrationNotice(nil), n.notices...)
}
