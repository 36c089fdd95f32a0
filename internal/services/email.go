package services

import (
	"context"
	"fmt"
	"log/slog"

	"efirbot/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendRegistrationNotice sends the "registration_notice" email to one administrator.
func (s *emailService) SendRegistrationNotice(ctx context.Context, data *domain.RegistrationNoticeEmailData) error {
	if data == nil || data.Notice == nil {
		return fmt.Errorf("registration notice data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("registration_notice", data)
	if err != nil {
		return fmt.Errorf("failed to render registration_notice template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send registration notice email: %w", err)
	}
	s.logger.Debug("registration notice emailed", "to", data.Email, "event_code", data.Notice.EventCode)
	return nil
}
