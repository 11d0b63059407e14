package bot

import (
	"fmt"
	"log/slog"

	"refsync/entity"
	"refsync/lib/logger"
)

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, t.config.MinLevel)
}

// SendMessageWithLevel queues msg for every configured chat when level
// reaches the configured minimum
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	if level < t.config.MinLevel {
		return
	}
	t.enqueue(message{text: msg, level: level})
}

// ReferralCreated announces a new invite. Referral events are sent
// regardless of the configured log level.
func (t *TgBot) ReferralCreated(r *entity.Referral) {
	msg := fmt.Sprintf("*%s* `referral created`", entity.TopicReferral) +
		logger.Sanitize(fmt.Sprintf("\ncode: %s\nmethod: %s\nexpires: %s",
			r.ReferralCode, r.SharedMethod, r.ExpiresAt.Format("2006-01-02")))
	t.enqueue(message{text: msg, level: slog.LevelInfo})
}

// ReferralCompleted announces a converted invite together with the reward credited
func (t *TgBot) ReferralCompleted(r *entity.Referral, reward int) {
	msg := fmt.Sprintf("*%s* `referral completed`", entity.TopicReferral) +
		logger.Sanitize(fmt.Sprintf("\ncode: %s\nreward: %d", r.ReferralCode, reward))
	t.enqueue(message{text: msg, level: slog.LevelInfo})
}
