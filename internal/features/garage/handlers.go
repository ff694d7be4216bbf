// Package garage: handlers.go serves /gasprice: show the current price,
// or record a new one when a value is supplied.
package garage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/common"
)

// Handler handles garage commands.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler creates a new garage command handler.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleCars handles "/cars": lists the fleet with mpg and notes.
func (h *Handler) HandleCars(ctx context.Context, chatID int64) {
	cars, err := h.service.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list cars")
		h.sendMessage(chatID, "❌ A database error occurred")
		return
	}
	if len(cars) == 0 {
		h.sendMessage(chatID, "No cars configured")
		return
	}

	var sb strings.Builder
	sb.WriteString("🚗 Fleet:\n")
	for _, car := range cars {
		sb.WriteString(fmt.Sprintf("%s (%s MPG)", car.Name, car.MPG.String()))
		if car.Notes != "" {
			sb.WriteString(" · " + car.Notes)
		}
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, sb.String())
}

// HandleCarNotes handles "/carnotes Subaru needs oil change". With no text
// after the car name the notes are cleared.
func (h *Handler) HandleCarNotes(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "Usage: /carnotes <car> [notes]")
		return
	}

	carName := args[0]
	notes := strings.Join(args[1:], " ")
	if err := h.service.SetNotes(ctx, carName, notes); err != nil {
		if errors.Is(err, common.ErrCarNotFound) {
			h.sendMessage(chatID, "❌ That car is not in the fleet")
			return
		}
		log.WithError(err).Error("Failed to set car notes")
		h.sendMessage(chatID, "❌ A database error occurred")
		return
	}

	if notes == "" {
		h.sendMessage(chatID, fmt.Sprintf("✅ Cleared notes for %s", carName))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Noted for %s: %s", carName, notes))
}

// HandleGasPrice handles "/gasprice" and "/gasprice 3.45".
func (h *Handler) HandleGasPrice(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		price, err := h.service.CurrentPrice(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to read gas price")
			h.sendMessage(chatID, "❌ A database error occurred")
			return
		}
		h.sendMessage(chatID, fmt.Sprintf("⛽ Current gas price: %s/gal", common.FormatMoney(price)))
		return
	}

	price, err := decimal.NewFromString(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Price must be a number, e.g. /gasprice 3.45")
		return
	}

	if err := h.service.SetPrice(ctx, price, userID); err != nil {
		if errors.Is(err, common.ErrInvalidPrice) {
			h.sendMessage(chatID, "❌ Price must be positive")
			return
		}
		log.WithError(err).Error("Failed to set gas price")
		h.sendMessage(chatID, "❌ A database error occurred")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Gas price set to %s/gal", common.FormatMoney(price.Round(2))))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
