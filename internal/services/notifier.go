package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"efirbot/internal/domain"
)

// NoticeSender delivers a registration notice into one administrator chat.
type NoticeSender interface {
	SendRegistrationNotice(ctx context.Context, chatID int64, notice *domain.RegistrationNotice) error
}

// AdminNotifierConfig lists the recipients of registration notices.
type AdminNotifierConfig struct {
	AdminIDs    []int64
	AdminEmails []string
	// Timeout bounds each delivery attempt.
	Timeout time.Duration
}

// AdminNotifier fans a notice out to every administrator chat and mailbox in
// the background. Failures are logged and never reach the registrant.
type AdminNotifier struct {
	chat   NoticeSender
	email  domain.EmailService
	cfg    AdminNotifierConfig
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewAdminNotifier returns an AdminNotifier. chat or email may be nil to skip that channel.
func NewAdminNotifier(chat NoticeSender, email domain.EmailService, cfg AdminNotifierConfig, logger *slog.Logger) *AdminNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminNotifier{chat: chat, email: email, cfg: cfg, logger: logger}
}

var _ domain.Notifier = (*AdminNotifier)(nil)

// NotifyRegistration schedules one delivery per recipient and returns at once.
func (n *AdminNotifier) NotifyRegistration(ctx context.Context, notice *domain.RegistrationNotice) {
	if notice == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if n.chat != nil {
		for _, id := range n.cfg.AdminIDs {
			n.deliver(ctx, "chat", id, notice.EventCode, func(ctx context.Context) error {
				return n.chat.SendRegistrationNotice(ctx, id, notice)
			})
		}
	}
	if n.email != nil {
		for _, addr := range n.cfg.AdminEmails {
			n.deliver(ctx, "email", addr, notice.EventCode, func(ctx context.Context) error {
				return n.email.SendRegistrationNotice(ctx, &domain.RegistrationNoticeEmailData{Email: addr, Notice: notice})
			})
		}
	}
}

func (n *AdminNotifier) deliver(ctx context.Context, channel string, recipient any, eventCode string, send func(context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := withTimeout(ctx, n.cfg.Timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			n.logger.Debug("admin notification failed",
				"channel", channel, "recipient", recipient, "event_code", eventCode, "err", err)
		}
	}()
}

// Wait blocks until all scheduled deliveries have finished or timed out.
func (n *AdminNotifier) Wait() {
	n.wg.Wait()
}
