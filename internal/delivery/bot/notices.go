package bot

import (
	"context"

	"efirbot/internal/domain"
)

// NoticeSender delivers registration notices into administrator chats.
type NoticeSender struct {
	sender Sender
}

// NewNoticeSender returns a NoticeSender writing through sender.
func NewNoticeSender(sender Sender) *NoticeSender {
	return &NoticeSender{sender: sender}
}

// SendRegistrationNotice sends the notice to chatID.
func (n *NoticeSender) SendRegistrationNotice(ctx context.Context, chatID int64, notice *domain.RegistrationNotice) error {
	return n.sender.Send(ctx, Message{ChatID: chatID, Text: RegistrationNoticeText(notice), HTML: true})
}
