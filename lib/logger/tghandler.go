package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Sender delivers a formatted message to Telegram subscribers
type Sender interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// TelegramHandler is a slog.Handler that sends log messages to Telegram
type TelegramHandler struct {
	handler  slog.Handler
	bot      Sender
	minLevel slog.Level
	mu       sync.Mutex
	attrs    []slog.Attr
	group    string
}

// NewTelegramHandler creates a new TelegramHandler
func NewTelegramHandler(handler slog.Handler, bot Sender, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		bot:      bot,
		minLevel: minLevel,
		attrs:    make([]slog.Attr, 0),
		group:    "",
	}
}

// Enabled implements slog.Handler.Enabled; records below minLevel still
// reach the wrapped handler, they are only kept off Telegram
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.Handle
func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	// First, let the underlying handler handle the record
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}

	if record.Level < h.minLevel || h.bot == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}

	for _, attr := range h.attrs {
		msg += formatAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += formatAttr(attr)
		return true
	})

	h.bot.SendMessageWithLevel(msg, record.Level)
	return nil
}

func formatAttr(attr slog.Attr) string {
	if attr.Key == "error" {
		return fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
	}
	return Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
}

// Sanitize escapes Telegram MarkdownV2 reserved characters
func Sanitize(input string) string {
	const reservedChars = "\\_{}#+-.!|()[]=*`>~"
	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// WithAttrs implements slog.Handler.WithAttrs
func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Create a new handler with the combined attributes
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		bot:      h.bot,
		minLevel: h.minLevel,
		mu:       sync.Mutex{},
		attrs:    newAttrs,
		group:    h.group,
	}
}

// WithGroup implements slog.Handler.WithGroup
func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	var group string
	if h.group != "" {
		group = h.group + "." + name
	} else {
		group = name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		bot:      h.bot,
		minLevel: h.minLevel,
		mu:       sync.Mutex{},
		attrs:    h.attrs,
		group:    group,
	}
}
