package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"efirbot/internal/domain"
)

type reportService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	contextTimeout   time.Duration
}

// NewReportService returns a ReportService reading a consistent snapshot of an event's registrants.
func NewReportService(eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	timeout time.Duration,
) domain.ReportService {
	return &reportService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		contextTimeout:   timeout,
	}
}

// BuildReport returns ErrNotFound for an unknown code and ErrNoRegistrants for
// an event nobody registered for.
func (s *reportService) BuildReport(ctx context.Context, code string) (*domain.Report, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	code = strings.TrimSpace(code)
	regs, err := s.registrationRepo.ListByEventCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if len(regs) == 0 {
		if _, err := s.eventRepo.GetByCode(ctx, code); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		return nil, domain.ErrNoRegistrants
	}

	report := &domain.Report{
		EventCode:  code,
		EventTitle: regs[0].EventTitle,
		Rows:       make([]domain.ReportRow, 0, len(regs)),
	}
	for i, r := range regs {
		report.Rows = append(report.Rows, domain.ReportRow{
			Seq:          i + 1,
			FullName:     r.Registration.FullName,
			Phone:        r.Registration.Phone,
			Profession:   r.Registration.Profession,
			Handle:       Handle(r.Registration.Username),
			RegisteredAt: r.Registration.RegisteredAt.UTC().Format(domain.ReportTimeLayout),
			UserID:       r.Registration.UserID,
		})
	}
	return report, nil
}

// Handle renders an optional username as "@name", or "-" when absent.
func Handle(username string) string {
	if username == "" {
		return "-"
	}
	return "@" + username
}
