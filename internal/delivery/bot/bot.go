// Package bot routes inbound chat updates to the registration dialogue and
// the administrator commands and renders their outcomes as outbound messages.
package bot

import "context"

// Update is one inbound text message.
type Update struct {
	MessageID int
	ChatID    int64
	UserID    int64
	Username  string
	Text      string
	// Command is the command name without the slash, empty for plain text.
	Command string
	// Args is the text after the command.
	Args string
}

// LinkButton is an inline button that opens a URL.
type LinkButton struct {
	Text string
	URL  string
}

// Document is a file attachment; the message text becomes its caption.
type Document struct {
	Name string
	Data []byte
}

// Message is one outbound message.
type Message struct {
	ChatID  int64
	ReplyTo int
	Text    string
	// HTML enables HTML parse mode; dynamic parts must be escaped.
	HTML bool
	Link *LinkButton
	// Options are shown as a one-time reply keyboard, two buttons per row.
	Options        []string
	RemoveKeyboard bool
	Document       *Document
}

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
