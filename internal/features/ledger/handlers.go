// Package ledger: handlers.go serves the chat commands that hit the
// ledger: /drive, /driveto, /filled, /balance, /allbalances, /settle.
// Drives and fills are two-step: the command stores a pending session and
// shows an inline car keyboard; the ledger is only touched once the invoker
// picks a car. Abandoned prompts expire with no state change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/bot/board"
	"gasbot/internal/bot/prompts"
	"gasbot/internal/common"
	"gasbot/internal/features/garage"
)

// CallbackPrefix marks car-selection callback data: "car:<token>:<name>".
const CallbackPrefix = "car"

// Handler handles ledger commands and the car-selection callbacks.
type Handler struct {
	service *Service
	garage  *garage.Service
	prompts *prompts.Manager
	board   *board.Board
	bot     *tgbotapi.BotAPI
}

// NewHandler creates a new ledger command handler.
func NewHandler(service *Service, garageService *garage.Service, promptManager *prompts.Manager, b *board.Board, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		garage:  garageService,
		prompts: promptManager,
		board:   b,
		bot:     bot,
	}
}

// HandleDrive handles "/drive 12.5" and "/drive 12.5 empty".
// Bare numeric commands ("/12", "/12.5") are routed here too, so one code
// path serves every mileage instead of a handler per integer.
func (h *Handler) HandleDrive(ctx context.Context, chatID, userID int64, displayName string, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "Usage: /drive <miles> [empty]")
		return
	}

	miles, err := decimal.NewFromString(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Miles must be a number, e.g. /drive 12.5")
		return
	}
	if miles.IsNegative() {
		h.sendMessage(chatID, "❌ Miles driven cannot be negative")
		return
	}

	h.StartDrivePrompt(ctx, chatID, userID, displayName, miles, hasEmptyFlag(args[1:]), "")
}

// HandleDriveTo handles "/driveto pnc [empty]". The shortcut is resolved
// before the prompt goes up: an unknown name fails here with nothing
// recorded.
func (h *Handler) HandleDriveTo(ctx context.Context, chatID, userID int64, displayName string, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "Usage: /driveto <location> [empty]")
		return
	}

	loc, err := h.service.ResolveShortcut(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrLocationNotFound) {
			h.sendMessage(chatID, fmt.Sprintf("❌ Unknown location %q — add it with /addlocation", args[0]))
			return
		}
		log.WithError(err).Error("Failed to resolve location")
		h.sendMessage(chatID, "❌ A database error occurred")
		return
	}

	h.StartDrivePrompt(ctx, chatID, userID, displayName, loc.RoundTripMiles, hasEmptyFlag(args[1:]), loc.Label)
}

// StartDrivePrompt stores the pending drive and shows the car keyboard.
func (h *Handler) StartDrivePrompt(ctx context.Context, chatID, userID int64, displayName string, miles decimal.Decimal, nearEmpty bool, location string) {
	if miles.IsNegative() {
		h.sendMessage(chatID, "❌ Miles driven cannot be negative")
		return
	}

	session := &prompts.Session{
		Kind:      prompts.KindDrive,
		UserID:    userID,
		ChatID:    chatID,
		Miles:     miles,
		NearEmpty: nearEmpty,
		Location:  location,
	}
	h.showCarKeyboard(ctx, chatID, session, "Which car did you drive?")
}

// HandleFilled handles "/filled 45.50" with an optional trailing gas price
// ("/filled 45.50 3.45"). Replying to someone's message records them as
// the payer instead of the sender.
func (h *Handler) HandleFilled(ctx context.Context, chatID, userID int64, displayName string, args []string, payer *Payer) {
	if len(args) == 0 {
		h.sendMessage(chatID, "Usage: /filled <amount> [price] — reply to someone to make them the payer")
		return
	}

	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Amount must be a number, e.g. /filled 45.50")
		return
	}
	if !amount.IsPositive() {
		h.sendMessage(chatID, "❌ Payment amount must be positive")
		return
	}

	var newPrice *decimal.Decimal
	if len(args) > 1 {
		p, err := decimal.NewFromString(args[1])
		if err != nil || !p.IsPositive() {
			h.sendMessage(chatID, "❌ Gas price must be a positive number")
			return
		}
		newPrice = &p
	}

	if payer == nil {
		payer = &Payer{ID: userID, Name: displayName}
	}

	session := &prompts.Session{
		Kind:      prompts.KindFill,
		UserID:    userID,
		ChatID:    chatID,
		Amount:    amount,
		PayerID:   payer.ID,
		PayerName: payer.Name,
		NewPrice:  newPrice,
	}
	prompt := fmt.Sprintf("Which car was filled? (%s paid by %s)",
		common.FormatMoney(amount.Round(2)), payer.Name)
	h.showCarKeyboard(ctx, chatID, session, prompt)
}

// HandleBalance handles "/balance": the sender's own balance, in place.
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64, displayName string) {
	balance, err := h.service.MyBalance(ctx, userID, displayName)
	if err != nil {
		log.WithError(err).Error("Failed to read balance")
		h.sendMessage(chatID, "❌ A database error occurred retrieving your balance")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("Your current balance is: *%s*", common.FormatMoney(balance)))
}

// HandleAllBalances handles "/allbalances": refreshes the board in the
// gas chat.
func (h *Handler) HandleAllBalances(ctx context.Context, chatID int64) {
	entries, err := h.service.Balances(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list balances")
		h.sendMessage(chatID, "❌ A database error occurred retrieving balances")
		return
	}

	if err := h.board.Post(FormatBoard(entries)); err != nil {
		log.WithError(err).Error("Failed to post board")
		// The chat may lack the bot, or permissions changed: show the
		// board where the command came from instead.
		h.sendMessage(chatID, FormatBoard(entries))
		return
	}
	if chatID != h.board.ChatID() {
		h.sendMessage(chatID, "✅ Balances updated in the gas chat")
	}
}

// HandleSettle handles "/settle": zeroes every balance and posts the
// all-zero board.
func (h *Handler) HandleSettle(ctx context.Context, chatID int64) {
	n, err := h.service.SettleAll(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to settle balances")
		h.sendMessage(chatID, "❌ A database error occurred while settling")
		return
	}

	entries, err := h.service.Balances(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list balances after settle")
		h.sendMessage(chatID, fmt.Sprintf("✅ Settled %s, but the board could not be refreshed", common.Pluralize(int(n), "balance")))
		return
	}

	text := "*Balances have been settled to zero.*\n\n" + FormatBoard(entries)
	if err := h.board.Post(text); err != nil {
		log.WithError(err).Error("Failed to post settle board")
		h.sendMessage(chatID, text)
		return
	}
	if chatID != h.board.ChatID() {
		h.sendMessage(chatID, "✅ Balances settled and posted to the gas chat")
	}
}

// HandleCarCallback completes a pending drive or fill once a car button is
// tapped. Only the invoker's tap is accepted; expired or reused tokens get
// a notice and change nothing.
func (h *Handler) HandleCarCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(cq.Data, ":", 3)
	if len(parts) != 3 || parts[0] != CallbackPrefix {
		h.answerCallback(cq.ID, "")
		return
	}
	token, carName := parts[1], parts[2]

	session, err := h.prompts.Take(token, cq.From.ID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotYourPrompt):
			h.answerCallback(cq.ID, "This is not your command!")
		case errors.Is(err, common.ErrPromptExpired):
			h.answerCallback(cq.ID, "This prompt expired — run the command again")
		default:
			h.answerCallback(cq.ID, "Something went wrong")
		}
		return
	}

	displayName := cq.From.FirstName
	if cq.From.UserName != "" {
		displayName = cq.From.UserName
	}

	var announcement, confirmation string
	switch session.Kind {
	case prompts.KindDrive:
		res, err := h.service.RecordDrive(ctx, session.UserID, displayName, carName,
			session.Miles, session.NearEmpty, session.Location)
		if err != nil {
			h.answerCallback(cq.ID, "")
			h.reportError(session.ChatID, err)
			return
		}
		who := h.boardName(ctx, session.UserID, displayName)
		announcement = FormatDriveAnnouncement(who, res)
		confirmation = "✅ Drive recorded."

	case prompts.KindFill:
		payer := &Payer{ID: session.PayerID, Name: session.PayerName}
		res, err := h.service.RecordFill(ctx, session.UserID, displayName, carName,
			session.Amount, payer, session.NewPrice)
		if err != nil {
			h.answerCallback(cq.ID, "")
			h.reportError(session.ChatID, err)
			return
		}
		announcement = FormatFillAnnouncement(res)
		confirmation = "✅ Fill recorded."
	}

	h.answerCallback(cq.ID, "")

	// Swap the keyboard message for a confirmation so the prompt cannot
	// be tapped twice visually either.
	if session.MessageID != 0 {
		edit := tgbotapi.NewEditMessageText(session.ChatID, session.MessageID, confirmation)
		if _, err := h.bot.Send(edit); err != nil {
			log.WithError(err).Debug("Could not edit prompt message")
		}
	}

	entries, err := h.service.Balances(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list balances after recording")
		return
	}
	if err := h.board.Post(announcement + "\n\n" + FormatBoard(entries)); err != nil {
		log.WithError(err).Error("Failed to post board after recording")
	}
}

// showCarKeyboard stores the session and sends the inline fleet keyboard.
func (h *Handler) showCarKeyboard(ctx context.Context, chatID int64, session *prompts.Session, prompt string) {
	cars, err := h.garage.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list cars")
		h.sendMessage(chatID, "❌ A database error occurred")
		return
	}
	if len(cars) == 0 {
		h.sendMessage(chatID, "❌ No cars configured")
		return
	}

	token := h.prompts.Create(session)

	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(cars))
	for _, car := range cars {
		label := fmt.Sprintf("%s (%s MPG)", car.Name, car.MPG.String())
		data := fmt.Sprintf("%s:%s:%s", CallbackPrefix, token, car.Name)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, data))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))

	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ReplyMarkup = keyboard
	sent, err := h.bot.Send(msg)
	if err != nil {
		log.WithError(err).Error("Failed to send car prompt")
		return
	}
	h.prompts.SetMessageID(token, sent.MessageID)
}

// boardName returns the name the member goes by on the board.
func (h *Handler) boardName(ctx context.Context, userID int64, fallback string) string {
	m, err := h.service.roster.EnsureUser(ctx, userID, fallback)
	if err != nil {
		return fallback
	}
	return m.Name()
}

// reportError maps ledger errors to short user-facing notices.
func (h *Handler) reportError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrCarNotFound):
		h.sendMessage(chatID, "❌ That car is not in the fleet")
	case errors.Is(err, common.ErrLocationNotFound):
		h.sendMessage(chatID, "❌ Unknown location")
	case errors.Is(err, common.ErrInvalidDistance):
		h.sendMessage(chatID, "❌ That distance does not look right")
	case errors.Is(err, common.ErrInvalidPayment):
		h.sendMessage(chatID, "❌ Payment amount must be positive")
	case errors.Is(err, common.ErrInvalidPrice):
		h.sendMessage(chatID, "❌ Gas price must be positive")
	default:
		log.WithError(err).Error("Ledger operation failed")
		h.sendMessage(chatID, "❌ A database error occurred")
	}
}

func (h *Handler) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if text != "" {
		cb.ShowAlert = true
	}
	if _, err := h.bot.Request(cb); err != nil {
		log.WithError(err).Debug("Failed to answer callback")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}

func hasEmptyFlag(args []string) bool {
	for _, a := range args {
		if strings.EqualFold(a, "empty") || strings.EqualFold(a, "nearempty") {
			return true
		}
	}
	return false
}
