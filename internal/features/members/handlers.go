// Package members: handlers.go serves the member commands: /setname.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/common"
)

// Handler handles member commands.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler creates a new member command handler.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleSetName handles "/setname Abbas": sets the name shown on the
// balance board instead of the raw Telegram display name.
func (h *Handler) HandleSetName(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "Usage: /setname <name>")
		return
	}

	name := strings.Join(args, " ")
	if err := h.service.SetPreferredName(ctx, userID, name); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidName):
			h.sendMessage(chatID, "❌ Name must be 1-32 characters")
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ You are not registered yet — log a drive first")
		default:
			log.WithError(err).Error("Failed to set preferred name")
			h.sendMessage(chatID, "❌ A database error occurred")
		}
		return
	}

	shown := name
	if m, err := h.service.GetByUserID(ctx, userID); err == nil {
		shown = m.Name()
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ You will show up as *%s* on the board", shown))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
