package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"efirbot/internal/domain"
)

const (
	textDenied = "⛔ У вас нет прав на выполнение этой команды."

	textNewUsage = "❌ Неправильный формат. Используйте:\n" +
		"/new КОД | НАЗВАНИЕ | ССЫЛКА НА КОМНАТУ\n\n" +
		"Пример: /new may2025 | Майский эфир 2025 | https://zoom.us/j/123"
	textBadRoomLink   = "❌ Ссылка должна начинаться с http:// или https://"
	textBadEventInput = "❌ Код эфира: латиница, цифры, «_» и «-», до 64 символов. Название не может быть пустым."
	textCodeTaken     = "❌ Эфир с таким кодом уже существует!"
	textNoEvents      = "📭 Пока нет созданных эфиров"

	textWelcome = "👋 Добро пожаловать!\n\n" +
		"Это бот для регистрации на прямые эфиры.\n" +
		"Чтобы зарегистрироваться, перейдите по специальной ссылке из поста в канале."
	textEventNotFound     = "❌ Эфир не найден или ссылка устарела."
	textInvalidFullName   = "❌ Пожалуйста, введите полное имя (имя и фамилию):"
	textAskPhone          = "📞 Теперь введите ваш <b>номер телефона</b>:\nНапример: +7 (999) 123-45-67"
	textInvalidPhone      = "❌ Слишком короткий номер. Введите корректный телефон:"
	textAskProfession     = "💼 Кто вы по роду деятельности?\nВыберите из списка или напишите свой вариант:"
	textAskCustom         = "✍️ Напишите ваш вариант:"
	textInvalidProfession = "❌ Слишком короткое значение. Опишите подробнее:"
	textInputTooLong      = "❌ Слишком длинный ответ. Сократите, пожалуйста, до 256 символов:"
	textSaveConflict      = "❌ Ошибка при сохранении. Возможно, вы уже регистрировались на этот эфир."
	textCancelled         = "✅ Регистрация отменена."
	textNothingToCancel   = "❌ Нет активной регистрации для отмены."
	textRoomLinkIntro     = "🔗 <b>Ссылка для входа:</b>"
	textRoomButton        = "🔗 Перейти в комнату"
	textInternalError     = "⚠️ Что-то пошло не так. Попробуйте ещё раз чуть позже."

	// statsPageLimit keeps a page well below the 4096 character message limit.
	statsPageLimit     = 3500
	continuationMarker = "... (продолжение в следующем сообщении)"
)

func codeUsage(command string) string {
	return fmt.Sprintf("❌ Укажите код эфира. Пример: /%s may2025", command)
}

func noRegistrantsText(code string) string {
	return fmt.Sprintf("📭 На эфир с кодом '%s' пока никто не зарегистрировался", code)
}

func adminErrorText(err error) string {
	return "❌ Ошибка: " + err.Error()
}

// DeepLink is the chat link that opens the bot with the event code as start parameter.
func DeepLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}

func eventCreatedText(e *domain.Event, botUsername string) string {
	return fmt.Sprintf("✅ Эфир успешно создан!\n\n"+
		"📌 Код: %s\n"+
		"📝 Название: %s\n"+
		"🔗 Комната: %s\n\n"+
		"🔗 Ссылка для поста в канале:\n"+
		"<code>%s</code>\n\n"+
		"📊 Статистика будет доступна по команде:\n"+
		"/stats %s\n"+
		"📥 CSV: /csv %s\n"+
		"📥 Excel: /xls %s",
		html.EscapeString(e.Code), html.EscapeString(e.Title), html.EscapeString(e.RoomLink),
		html.EscapeString(DeepLink(botUsername, e.Code)),
		e.Code, e.Code, e.Code)
}

func eventListEntry(s *domain.EventSummary) string {
	e := s.Event
	return fmt.Sprintf("🔹 %s\n"+
		"   Код: %s\n"+
		"   Участников: %d\n"+
		"   Создан: %s\n"+
		"   /stats %s\n"+
		"   /csv %s\n"+
		"   /xls %s\n\n",
		e.Title, e.Code, s.Registrations, e.CreatedAt.UTC().Format(domain.ReportTimeLayout), e.Code, e.Code, e.Code)
}

func statsHeader(r *domain.Report) string {
	return fmt.Sprintf("📊 Статистика по эфиру: %s\n📌 Код: %s\n👥 Всего регистраций: %d\n\n📋 Список участников:\n",
		r.EventTitle, r.EventCode, len(r.Rows))
}

func statsEntry(row domain.ReportRow) string {
	handle := row.Handle
	if handle == "-" {
		handle = "нет"
	}
	return fmt.Sprintf("%d. %s\n   📱 %s\n   💼 %s\n   🆔 %s\n   🕐 %s\n\n",
		row.Seq, row.FullName, row.Phone, row.Profession, handle, row.RegisteredAt)
}

func exportCaption(kind string, r *domain.Report) string {
	return fmt.Sprintf("📊 %s по эфиру:\n%s\n📌 Код: %s\n👥 Всего участников: %d", kind, r.EventTitle, r.EventCode, len(r.Rows))
}

// paginate joins header and entries into pages of at most limit characters.
// Entries are kept whole unless a single entry exceeds limit, in which case it
// is cut into limit-sized pieces. A page that is followed by another one ends
// with continuationMarker.
func paginate(header string, entries []string, limit int) []string {
	var pages []string
	var b strings.Builder
	b.WriteString(header)
	n := utf8.RuneCountInString(header)
	for _, entry := range entries {
		for _, e := range splitRunes(entry, limit) {
			en := utf8.RuneCountInString(e)
			if n > 0 && n+en > limit {
				b.WriteString(continuationMarker)
				pages = append(pages, b.String())
				b.Reset()
				n = 0
			}
			b.WriteString(e)
			n += en
		}
	}
	if n > 0 {
		pages = append(pages, b.String())
	}
	return pages
}

func splitRunes(s string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var parts []string
	r := []rune(s)
	for len(r) > limit {
		parts = append(parts, string(r[:limit]))
		r = r[limit:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}

// RegistrationNoticeText is the administrator chat notice about a new registrant.
func RegistrationNoticeText(n *domain.RegistrationNotice) string {
	handle := "нет username"
	if n.Username != "" {
		handle = n.Username
	}
	return fmt.Sprintf("📝 <b>Новая регистрация!</b>\n"+
		"🎥 Эфир: %s\n"+
		"👤 Имя: %s\n"+
		"📞 Телефон: %s\n"+
		"💼 Кто: %s\n"+
		"🆔 @%s\n"+
		"📊 Всего на эфире: %d\n"+
		"📥 CSV: /csv %s\n"+
		"📥 Excel: /xls %s",
		html.EscapeString(n.EventTitle), html.EscapeString(n.FullName), html.EscapeString(n.Phone),
		html.EscapeString(n.Profession), html.EscapeString(handle), n.Registrations,
		n.EventCode, n.EventCode)
}

// renderReply turns a dialogue outcome into the messages sent back to the user.
func renderReply(r *domain.Reply) []Message {
	switch r.Kind {
	case domain.ReplyWelcome:
		return []Message{{Text: textWelcome}}
	case domain.ReplyEventNotFound:
		return []Message{{Text: textEventNotFound, RemoveKeyboard: true}}
	case domain.ReplyAlreadyRegistered:
		return []Message{{
			Text: fmt.Sprintf("🔔 Вы уже зарегистрированы на этот эфир!\n\n🎥 %s\n\n%s",
				html.EscapeString(r.Event.Title), textRoomLinkIntro),
			HTML: true,
			Link: roomButton(r.Event),
		}}
	case domain.ReplyAskFullName:
		return []Message{{
			Text: fmt.Sprintf("📝 <b>Регистрация на эфир:</b>\n<i>%s</i>\n\nПожалуйста, введите ваше <b>полное имя</b> (ФИО):",
				html.EscapeString(r.Event.Title)),
			HTML:           true,
			RemoveKeyboard: true,
		}}
	case domain.ReplyInvalidFullName:
		return []Message{{Text: textInvalidFullName}}
	case domain.ReplyAskPhone:
		return []Message{{Text: textAskPhone, HTML: true}}
	case domain.ReplyInvalidPhone:
		return []Message{{Text: textInvalidPhone}}
	case domain.ReplyAskProfession:
		return []Message{{Text: textAskProfession, Options: r.Options}}
	case domain.ReplyAskCustomProfession:
		return []Message{{Text: textAskCustom, RemoveKeyboard: true}}
	case domain.ReplyInvalidProfession:
		return []Message{{Text: textInvalidProfession, Options: r.Options}}
	case domain.ReplyInputTooLong:
		return []Message{{Text: textInputTooLong, Options: r.Options}}
	case domain.ReplyCompleted:
		return []Message{
			{
				Text: fmt.Sprintf("✅ <b>Регистрация завершена!</b>\n\nСпасибо, %s!\nВы зарегистрированы на эфир:\n<i>%s</i>",
					html.EscapeString(r.FullName), html.EscapeString(r.Event.Title)),
				HTML:           true,
				RemoveKeyboard: true,
			},
			{Text: textRoomLinkIntro, HTML: true, Link: roomButton(r.Event)},
		}
	case domain.ReplyAlreadyRegisteredOnSave:
		return []Message{{Text: textSaveConflict, RemoveKeyboard: true}}
	case domain.ReplyCancelled:
		return []Message{{Text: textCancelled, RemoveKeyboard: true}}
	case domain.ReplyNothingToCancel:
		return []Message{{Text: textNothingToCancel}}
	}
	return nil
}

func roomButton(e *domain.Event) *LinkButton {
	return &LinkButton{Text: textRoomButton, URL: e.RoomLink}
}
