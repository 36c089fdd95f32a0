package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"efirbot/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (code, title, room_link)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
		RETURNING id, created_at
	`
	err := r.DB.QueryRowContext(ctx, query, e.Code, e.Title, e.RoomLink).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrEventCodeTaken
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `
		SELECT id, code, title, room_link, created_at
		FROM events
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *eventRepository) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	query := `
		SELECT id, code, title, room_link, created_at
		FROM events
		WHERE code = $1
	`
	return r.getOne(ctx, query, code)
}

func (r *eventRepository) getOne(ctx context.Context, query string, arg any) (*domain.Event, error) {
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&e.ID, &e.Code, &e.Title, &e.RoomLink, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
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
		if err := rows.Scan(&e.ID, &e.Code, &e.Title, &e.RoomLink, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
