package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efirbot/internal/delivery/bot"
)

func TestToUpdate(t *testing.T) {
	tests := []struct {
		name   string
		raw    tgbotapi.Update
		want   bot.Update
		wantOK bool
	}{
		{
			name: "command with argument",
			raw: tgbotapi.Update{Message: &tgbotapi.Message{
				MessageID: 11,
				From:      &tgbotapi.User{ID: 42, UserName: "anna"},
				Chat:      &tgbotapi.Chat{ID: 42},
				Text:      "/start may15",
				Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
			}},
			want:   bot.Update{MessageID: 11, ChatID: 42, UserID: 42, Username: "anna", Text: "/start may15", Command: "start", Args: "may15"},
			wantOK: true,
		},
		{
			name: "command addressed to the bot",
			raw: tgbotapi.Update{Message: &tgbotapi.Message{
				From:     &tgbotapi.User{ID: 1},
				Chat:     &tgbotapi.Chat{ID: -100},
				Text:     "/stats@efir_bot may15",
				Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 15}},
			}},
			want:   bot.Update{ChatID: -100, UserID: 1, Text: "/stats@efir_bot may15", Command: "stats", Args: "may15"},
			wantOK: true,
		},
		{
			name: "plain text",
			raw: tgbotapi.Update{Message: &tgbotapi.Message{
				From: &tgbotapi.User{ID: 1},
				Chat: &tgbotapi.Chat{ID: 1},
				Text: "Иван Иванов",
			}},
			want:   bot.Update{ChatID: 1, UserID: 1, Text: "Иван Иванов"},
			wantOK: true,
		},
		{name: "no message", raw: tgbotapi.Update{}},
		{name: "photo without text", raw: tgbotapi.Update{Message: &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}}}},
		{name: "no sender", raw: tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toUpdate(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToChattable_Message(t *testing.T) {
	c := toChattable(bot.Message{ChatID: 5, ReplyTo: 9, Text: "<b>hi</b>", HTML: true})
	msg, ok := c.(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(5), msg.ChatID)
	assert.Equal(t, 9, msg.ReplyToMessageID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Nil(t, msg.ReplyMarkup)
}

func TestToChattable_Keyboards(t *testing.T) {
	c := toChattable(bot.Message{ChatID: 5, Text: "x", Options: []string{"a", "b", "c"}})
	kb, ok := c.(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.Keyboard, 2)
	assert.Len(t, kb.Keyboard[0], 2)
	assert.Equal(t, "c", kb.Keyboard[1][0].Text)
	assert.True(t, kb.OneTimeKeyboard)
	assert.True(t, kb.ResizeKeyboard)

	c = toChattable(bot.Message{ChatID: 5, Text: "x", Link: &bot.LinkButton{Text: "go", URL: "https://room"}})
	inline, ok := c.(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, inline.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://room", *inline.InlineKeyboard[0][0].URL)

	c = toChattable(bot.Message{ChatID: 5, Text: "x", RemoveKeyboard: true})
	remove, ok := c.(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	require.True(t, ok)
	assert.True(t, remove.RemoveKeyboard)
}

func TestToChattable_Document(t *testing.T) {
	c := toChattable(bot.Message{ChatID: 5, ReplyTo: 3, Text: "caption", Document: &bot.Document{Name: "r.csv", Data: []byte("a,b")}})
	doc, ok := c.(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "caption", doc.Caption)
	assert.Equal(t, 3, doc.ReplyToMessageID)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "r.csv", file.Name)
	assert.Equal(t, []byte("a,b"), file.Bytes)
}
