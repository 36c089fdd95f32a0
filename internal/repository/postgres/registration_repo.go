package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"efirbot/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

func (r *registrationRepository) IsRegistered(ctx context.Context, userID, eventID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (user_id, event_id, username, full_name, phone, profession)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING id, registered_at
	`
	username := sql.NullString{String: reg.Username, Valid: reg.Username != ""}
	err := r.DB.QueryRowContext(ctx, query,
		reg.UserID, reg.EventID, username, reg.FullName, reg.Phone, reg.Profession,
	).Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *registrationRepository) CountByEventID(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

func (r *registrationRepository) ListByEventCode(ctx context.Context, code string) ([]*domain.RegistrationWithTitle, error) {
	query := `
		SELECT r.id, r.user_id, r.event_id, r.username, r.full_name, r.phone, r.profession, r.registered_at, e.title
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE e.code = $1
		ORDER BY r.registered_at, r.id
	`
	rows, err := r.DB.QueryContext(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*domain.RegistrationWithTitle
	for rows.Next() {
		reg := &domain.Registration{}
		var username sql.NullString
		var title string
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &username, &reg.FullName,
			&reg.Phone, &reg.Profession, &reg.RegisteredAt, &title); err != nil {
			return nil, err
		}
		reg.Username = username.String
		list = append(list, &domain.RegistrationWithTitle{Registration: reg, EventTitle: title})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if list == nil {
		list = []*domain.RegistrationWithTitle{}
	}
	return list, nil
}
