// Package telegram connects the bot dispatcher to the Telegram Bot API over long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"efirbot/internal/delivery/bot"
)

const (
	pollTimeoutSeconds = 60
	// httpTimeout must outlast a long poll.
	httpTimeout = (pollTimeoutSeconds + 15) * time.Second
)

// Handler processes one inbound update.
type Handler interface {
	Handle(ctx context.Context, u bot.Update)
}

// Client receives updates and sends messages through the Bot API.
type Client struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
	wg     sync.WaitGroup
}

// New authenticates the token and returns a Client.
func New(token string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: httpTimeout})
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// Username is the bot's public username, used in deep links.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Run polls for updates and hands each one to h in its own goroutine until
// ctx is cancelled. It returns after in-flight updates have been handled.
func (c *Client) Run(ctx context.Context, h Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	cfg.AllowedUpdates = []string{"message"}
	updates := c.api.GetUpdatesChan(cfg)
	c.logger.Info("polling started", "bot", c.Username())

	defer c.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			c.logger.Info("polling stopped")
			return nil
		case raw, ok := <-updates:
			if !ok {
				return nil
			}
			u, ok := toUpdate(raw)
			if !ok {
				continue
			}
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("update handler panicked", "update_id", raw.UpdateID, "panic", r)
					}
				}()
				h.Handle(context.WithoutCancel(ctx), u)
			}()
		}
	}
}

// toUpdate keeps text messages from users and drops everything else.
func toUpdate(raw tgbotapi.Update) (bot.Update, bool) {
	msg := raw.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return bot.Update{}, false
	}
	u := bot.Update{
		MessageID: msg.MessageID,
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		Text:      msg.Text,
	}
	if msg.IsCommand() {
		u.Command = msg.Command()
		u.Args = msg.CommandArguments()
	}
	return u, true
}

// Send delivers msg. The Bot API call itself is not cancellable; ctx only
// bounds how long the caller waits for it.
func (c *Client) Send(ctx context.Context, msg bot.Message) error {
	done := make(chan error, 1)
	go func() {
		_, err := c.api.Send(toChattable(msg))
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send to chat %d: %w", msg.ChatID, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toChattable(msg bot.Message) tgbotapi.Chattable {
	parseMode := ""
	if msg.HTML {
		parseMode = tgbotapi.ModeHTML
	}
	if msg.Document != nil {
		doc := tgbotapi.NewDocument(msg.ChatID, tgbotapi.FileBytes{Name: msg.Document.Name, Bytes: msg.Document.Data})
		doc.Caption = msg.Text
		doc.ParseMode = parseMode
		doc.ReplyToMessageID = msg.ReplyTo
		doc.ReplyMarkup = replyMarkup(msg)
		return doc
	}
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = parseMode
	out.ReplyToMessageID = msg.ReplyTo
	out.DisableWebPagePreview = true
	out.ReplyMarkup = replyMarkup(msg)
	return out
}

// replyMarkup picks the single keyboard a message can carry.
func replyMarkup(msg bot.Message) any {
	switch {
	case msg.Link != nil:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(msg.Link.Text, msg.Link.URL)),
		)
	case len(msg.Options) > 0:
		var rows [][]tgbotapi.KeyboardButton
		for i := 0; i < len(msg.Options); i += 2 {
			row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(msg.Options[i])}
			if i+1 < len(msg.Options) {
				row = append(row, tgbotapi.NewKeyboardButton(msg.Options[i+1]))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		kb.OneTimeKeyboard = true
		return kb
	case msg.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}
