package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"efirbot/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns a domain.EventRepository implemented with SQLite.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO events (code, title, room_link, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (code) DO NOTHING
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, e.Code, e.Title, e.RoomLink, toMillis(e.CreatedAt)).Scan(&e.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrEventCodeTaken
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT id, code, title, room_link, created_at FROM events WHERE id = ?`
	return r.getOne(ctx, query, id)
}

func (r *eventRepository) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	query := `SELECT id, code, title, room_link, created_at FROM events WHERE code = ?`
	return r.getOne(ctx, query, code)
}

func (r *eventRepository) getOne(ctx context.Context, query string, arg any) (*domain.Event, error) {
	e := &domain.Event{}
	var createdAt int64
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&e.ID, &e.Code, &e.Title, &e.RoomLink, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT id, code, title, room_link, created_at
		FROM events
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Code, &e.Title, &e.RoomLink, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = fromMillis(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}
