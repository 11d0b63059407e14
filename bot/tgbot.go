// Package bot delivers operational notifications to Telegram chats.
//
// Messages are queued and sent by a single worker goroutine so callers on
// the request path never wait on the Telegram API. When the queue is full
// new messages are dropped and a warning is logged.
//
// Files:
//   - tgbot.go:     TgBot struct, lifecycle (Start/Stop), delivery worker
//   - messaging.go: level filter and referral event messages
//   - helpers.go:   MarkdownV2 delivery with plain-text fallback, escape-safe splitting
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"refsync/lib/sl"
)

const (
	maxTelegramMessageLen = 4096
	defaultQueueSize      = 100
)

// Sender is the subset of the Telegram API the bot uses
type Sender interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

type BotConfig struct {
	ChatIds   []int64
	MinLevel  slog.Level
	QueueSize int
}

type message struct {
	text  string
	level slog.Level
}

type TgBot struct {
	log     *slog.Logger
	api     Sender
	config  BotConfig
	queue   chan message
	mu      sync.RWMutex // guards closed and started
	closed  bool
	started bool
	done    chan struct{}
}

// NewTgBot connects to the Telegram API with apiKey
func NewTgBot(apiKey string, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return New(api, log, cfg), nil
}

// New builds a bot over an existing Sender
func New(api Sender, log *slog.Logger, cfg BotConfig) *TgBot {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	return &TgBot{
		log:    log.With(sl.Module("tgbot")),
		api:    api,
		config: cfg,
		queue:  make(chan message, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start runs the delivery worker until ctx is done or Stop is called.
// Messages still queued at shutdown are delivered before it returns.
func (t *TgBot) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.closed {
		return
	}
	t.started = true

	t.log.With(slog.Int("chats", len(t.config.ChatIds))).Info("starting telegram notifier")
	go func() {
		defer close(t.done)
		for {
			select {
			case msg, ok := <-t.queue:
				if !ok {
					return
				}
				t.deliver(msg)
			case <-ctx.Done():
				t.drain()
				return
			}
		}
	}()
}

func (t *TgBot) drain() {
	for {
		select {
		case msg, ok := <-t.queue:
			if !ok {
				return
			}
			t.deliver(msg)
		default:
			return
		}
	}
}

// Stop closes the queue and waits for the worker to finish
func (t *TgBot) Stop() {
	t.mu.Lock()
	if !t.closed {
		t.log.Info("stopping telegram notifier")
		t.closed = true
		close(t.queue)
	}
	started := t.started
	t.mu.Unlock()

	if started {
		<-t.done
	}
}

func (t *TgBot) enqueue(msg message) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.log.With(slog.String("level", msg.level.String())).Debug("notifier stopped, message dropped")
		return
	}
	select {
	case t.queue <- msg:
	default:
		t.log.With(slog.String("level", msg.level.String())).Warn("notification queue full, message dropped")
	}
}

func (t *TgBot) deliver(msg message) {
	for _, chatId := range t.config.ChatIds {
		for _, part := range splitMessage(msg.text, maxTelegramMessageLen) {
			t.send(chatId, part)
		}
	}
}
