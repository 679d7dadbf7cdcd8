// ABOUTME: Telegram frontend bridge wiring chat updates to the assistant service
// ABOUTME: Long-polls getUpdates, routes commands, and relays free text as conversation runs

package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/store"
)

// Conversationalist is the assistant surface the bridge drives.
type Conversationalist interface {
	Ask(ctx context.Context, telegramID string, profile store.Profile, text string) string
	Reset(ctx context.Context, telegramID string) bool
}

// HistoryStore provides the read side for /stats and /leads.
type HistoryStore interface {
	UserStats(ctx context.Context, telegramID string) (*store.UserStats, error)
	ListLeadsByUser(ctx context.Context, telegramID string) ([]*store.Lead, error)
}

// Bot receives Telegram updates and relays them to the assistant.
type Bot struct {
	client  *Client
	conv    Conversationalist
	history HistoryStore
	persona config.Persona
	logger  *slog.Logger

	pollTimeout int
	offset      int64
}

// NewBot wires a Bot over the given client and assistant service.
func NewBot(client *Client, conv Conversationalist, history HistoryStore, persona config.Persona, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		client:      client,
		conv:        conv,
		history:     history,
		persona:     persona,
		logger:      logger.With("component", "telegram"),
		pollTimeout: 30,
	}
}

// Start runs the long-poll loop until ctx is cancelled. Poll errors are
// logged and retried after a short pause.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("telegram bridge started")

	for {
		if err := b.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				b.logger.Info("telegram bridge stopped")
				return nil
			}
			b.logger.Error("poll failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(2 * time.Second):
			}
		}
		if ctx.Err() != nil {
			b.logger.Info("telegram bridge stopped")
			return nil
		}
	}
}

func (b *Bot) pollOnce(ctx context.Context) error {
	updates, err := b.client.GetUpdates(ctx, b.offset, b.pollTimeout)
	if err != nil {
		return err
	}

	for _, upd := range updates {
		if upd.UpdateID >= b.offset {
			b.offset = upd.UpdateID + 1
		}
		b.handleUpdate(ctx, upd)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, upd Update) {
	msg := upd.Message
	if msg == nil || msg.From.IsBot {
		return
	}

	chatID := msg.Chat.ID
	telegramID := strconv.FormatInt(msg.From.ID, 10)

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.send(ctx, chatID, b.persona.NonText)
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, chatID, telegramID, text)
		return
	}

	profile := store.Profile{
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}

	if err := b.client.SendChatAction(ctx, chatID, "typing"); err != nil {
		b.logger.Warn("failed to send typing action", "error", err, "chat_id", chatID)
	}

	reply := b.conv.Ask(ctx, telegramID, profile, text)
	b.sendFormatted(ctx, chatID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, telegramID, text string) {
	// "/cmd@BotName arg" → "cmd"
	cmd := strings.Fields(text)[0]
	cmd = strings.TrimPrefix(cmd, "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}

	b.logger.Debug("handling command", "command", cmd, "telegram_id", telegramID)

	switch cmd {
	case "start":
		b.send(ctx, chatID, b.persona.Start)
	case "help":
		b.send(ctx, chatID, b.persona.Help)
	case "about":
		b.send(ctx, chatID, b.persona.About)
	case "reset":
		if b.conv.Reset(ctx, telegramID) {
			b.send(ctx, chatID, b.persona.Reset)
		} else {
			b.send(ctx, chatID, b.persona.ResetErr)
		}
	case "stats":
		b.sendStats(ctx, chatID, telegramID)
	case "leads":
		b.sendLeads(ctx, chatID, telegramID)
	default:
		b.send(ctx, chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) sendStats(ctx context.Context, chatID int64, telegramID string) {
	stats, err := b.history.UserStats(ctx, telegramID)
	if err != nil {
		b.logger.Error("failed to load user stats", "error", err, "telegram_id", telegramID)
		b.send(ctx, chatID, "I don't have any history for you yet. Say hi first!")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your conversation stats:\n")
	fmt.Fprintf(&sb, "Messages sent: %d\n", stats.MessageCount)
	fmt.Fprintf(&sb, "First seen: %s\n", stats.FirstSeenAt.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Days since first contact: %d", stats.DaysSinceSeen)
	b.send(ctx, chatID, sb.String())
}

func (b *Bot) sendLeads(ctx context.Context, chatID int64, telegramID string) {
	leads, err := b.history.ListLeadsByUser(ctx, telegramID)
	if err != nil {
		b.logger.Error("failed to list leads", "error", err, "telegram_id", telegramID)
		b.send(ctx, chatID, "Sorry, I couldn't look up your saved details right now.")
		return
	}
	if len(leads) == 0 {
		b.send(ctx, chatID, "I haven't stored any contact details for you yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Contact details I have on file:\n")
	for _, l := range leads {
		fmt.Fprintf(&sb, "- %s, %s, %s (%s)\n", l.Name, l.Email, l.Phone, l.Status)
	}
	b.send(ctx, chatID, strings.TrimRight(sb.String(), "\n"))
}

// sendFormatted tries Markdown first and falls back to plain text when the
// API rejects the formatting (unbalanced markers in model output).
func (b *Bot) sendFormatted(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text, "Markdown"); err != nil {
		b.logger.Warn("markdown send failed, retrying plain", "error", err, "chat_id", chatID)
		b.send(ctx, chatID, text)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text, ""); err != nil {
		b.logger.Error("failed to send message", "error", err, "chat_id", chatID)
	}
}
