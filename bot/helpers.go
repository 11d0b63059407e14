package bot

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"refsync/lib/sl"
)

// send delivers one part as MarkdownV2. Telegram rejects markup it cannot
// parse; such parts are resent as plain text without the escapes.
func (t *TgBot) send(chatId int64, text string) {
	if text == "" {
		return
	}
	logger := t.log.With(slog.Int64("chat_id", chatId))

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{ParseMode: "MarkdownV2"})
	if err == nil {
		return
	}
	logger.Debug("markdown rejected, sending plain text", sl.Err(err))

	if _, err = t.api.SendMessage(chatId, unescape(text), &tgbotapi.SendMessageOpts{}); err != nil {
		logger.Error("sending message", sl.Err(err))
	}
}

// unescape drops MarkdownV2 backslash escapes
func unescape(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	escaped := false
	for _, r := range text {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// splitMessage cuts text into parts of at most maxLen bytes, preferring the
// last line break. A cut never lands inside a UTF-8 sequence or between a
// backslash and the character it escapes.
func splitMessage(text string, maxLen int) []string {
	var parts []string
	for len(text) > maxLen {
		cut := strings.LastIndexByte(text[:maxLen], '\n') + 1
		if cut == 0 {
			cut = safeCut(text, maxLen)
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	return append(parts, text)
}

// safeCut returns the largest cut position <= maxLen that starts a rune and
// is not preceded by an unpaired backslash
func safeCut(text string, maxLen int) int {
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	slashes := 0
	for i := cut - 1; i >= 0 && text[i] == '\\'; i-- {
		slashes++
	}
	if slashes%2 == 1 {
		cut--
	}
	if cut <= 0 {
		return maxLen
	}
	return cut
}
