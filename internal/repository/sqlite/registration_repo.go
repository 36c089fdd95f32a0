package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"efirbot/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

// NewRegistrationRepository returns a domain.RegistrationRepository implemented with SQLite.
func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

func (r *registrationRepository) IsRegistered(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM registrations WHERE user_id = ? AND event_id = ?`, userID, eventID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}
	query := `
		INSERT INTO registrations (user_id, event_id, username, full_name, phone, profession, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING id
	`
	username := sql.NullString{String: reg.Username, Valid: reg.Username != ""}
	err := r.DB.QueryRowContext(ctx, query,
		reg.UserID, reg.EventID, username, reg.FullName, reg.Phone, reg.Profession, toMillis(reg.RegisteredAt),
	).Scan(&reg.ID)
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
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}

func (r *registrationRepository) ListByEventCode(ctx context.Context, code string) ([]*domain.RegistrationWithTitle, error) {
	query := `
		SELECT r.id, r.user_id, r.event_id, r.username, r.full_name, r.phone, r.profession, r.registered_at, e.title
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE e.code = ?
		ORDER BY r.registered_at, r.id
	`
	rows, err := r.DB.QueryContext(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.RegistrationWithTitle, 0)
	for rows.Next() {
		reg := &domain.Registration{}
		var username sql.NullString
		var registeredAt int64
		var title string
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &username, &reg.FullName,
			&reg.Phone, &reg.Profession, &registeredAt, &title); err != nil {
			return nil, err
		}
		reg.Username = username.String
		reg.RegisteredAt = fromMillis(registeredAt)
		list = append(list, &domain.RegistrationWithTitle{Registration: reg, EventTitle: title})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
