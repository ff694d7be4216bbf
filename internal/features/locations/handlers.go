// Package locations: handlers.go serves "/addlocation pnc 1.0".
package locations

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/common"
)

// Handler handles location commands.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler creates a new location command handler.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleAddLocation handles "/addlocation <name> <one-way miles>".
// The stored distance is the round trip; re-adding a name overwrites it.
func (h *Handler) HandleAddLocation(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "Usage: /addlocation <name> <one-way miles>")
		return
	}

	oneWay, err := decimal.NewFromString(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Miles must be a number, e.g. /addlocation pnc 1.0")
		return
	}

	roundTrip, err := h.service.Upsert(ctx, args[0], oneWay)
	if err != nil {
		if errors.Is(err, common.ErrInvalidDistance) {
			h.sendMessage(chatID, "❌ One-way miles must be positive")
			return
		}
		log.WithError(err).Error("Failed to save location")
		h.sendMessage(chatID, "❌ A database error occurred")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Saved *%s*: %s miles round trip (/driveto %s)",
		args[0], common.FormatMiles(roundTrip), args[0]))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
