package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationNoticeEmailData holds data for the new registration email sent to administrators.
type RegistrationNoticeEmailData struct {
	Email  string
	Notice *RegistrationNotice
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRegistrationNotice(ctx context.Context, data *RegistrationNoticeEmailData) error
}
