package reconciler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two Telegram messages to the same chat to
// avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// Notifier delivers operational alerts: quota exhaustion and sports
// where every provider failed. Not part of the data path; a nil
// notifier is valid and drops everything.
type Notifier interface {
	// Alert sends one message. key groups repeats for cooldown: the
	// same key is delivered at most once per cooldown window.
	Alert(key, message string)
}

// TelegramNotifier sends alerts to a Telegram chat with per-key
// cooldown so a provider that stays broken all day produces one
// message, not one per cycle.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	cooldown time.Duration

	mu        sync.Mutex
	lastSend  time.Time
	lastAlert map[string]time.Time
}

// NewTelegramNotifier returns nil on any setup failure; callers treat a
// nil notifier as "alerting disabled" and proceed.
func NewTelegramNotifier(token string, chatID int64, cooldown time.Duration) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	if cooldown <= 0 {
		cooldown = time.Hour
	}

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		cooldown:  cooldown,
		lastAlert: make(map[string]time.Time),
	}
}

func (n *TelegramNotifier) Alert(key, message string) {
	if n == nil {
		return
	}

	n.mu.Lock()
	now := time.Now()
	if last, ok := n.lastAlert[key]; ok && now.Sub(last) < n.cooldown {
		n.mu.Unlock()
		return
	}
	n.lastAlert[key] = now

	if wait := telegramSendInterval - now.Sub(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("⚠️ %s", message))
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Failed to send telegram alert", "key", key, "error", err)
	}
}
