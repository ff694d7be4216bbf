// Package bot holds the update loop: long polling, access filtering, rate
// limiting, command routing, and the car-selection callback dispatch.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/bot/filters"
	"gasbot/internal/bot/middleware"
	"gasbot/internal/config"
	"gasbot/internal/features/garage"
	"gasbot/internal/features/ledger"
	"gasbot/internal/features/locations"
	"gasbot/internal/features/members"
)

// Bot ties the update loop to the feature handlers.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberService   *members.Service
	locationService *locations.Service

	ledgerHandler   *ledger.Handler
	memberHandler   *members.Handler
	garageHandler   *garage.Handler
	locationHandler *locations.Handler

	parser *CommandParser

	// caps how many updates we process concurrently
	inflight chan struct{}
}

// New creates the bot with all its dependencies.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	memberService *members.Service,
	locationService *locations.Service,
	ledgerHandler *ledger.Handler,
	memberHandler *members.Handler,
	garageHandler *garage.Handler,
	locationHandler *locations.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInflight := cfg.BotMaxInflight
	if maxInflight <= 0 {
		maxInflight = 32
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		chatFilter:      chatFilter,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberService:   memberService,
		locationService: locationService,
		ledgerHandler:   ledgerHandler,
		memberHandler:   memberHandler,
		garageHandler:   garageHandler,
		locationHandler: locationHandler,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInflight),
	}
}

// Start runs long polling until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Bot is polling for updates")

	for {
		select {
		case <-ctx.Done():
			log.Info("Bot stopping (ctx done)")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Updates channel closed, bot stopped")
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate processes one Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	// Car keyboard taps arrive as callback queries.
	if update.CallbackQuery != nil {
		middleware.LogCallback(update.CallbackQuery)
		if strings.HasPrefix(update.CallbackQuery.Data, ledger.CallbackPrefix+":") {
			b.ledgerHandler.HandleCarCallback(ctx, update.CallbackQuery)
		}
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("Rate limited")
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	displayName := displayNameOf(message.From)

	// Register (or refresh) the sender before any command runs, so every
	// handler can assume the user row exists.
	if _, err := b.memberService.EnsureUser(ctx, userID, displayName); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureUser failed")
	}

	b.routeCommand(ctx, message, chatID, userID, displayName, cmd, args)
}

// routeCommand dispatches a parsed command to its handler.
func (b *Bot) routeCommand(ctx context.Context, message *tgbotapi.Message, chatID, userID int64, displayName, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("Routing command")

	// "/12" or "/12.5": mileage as the command itself.
	if miles, ok := ParseMilesCommand(cmd); ok {
		b.ledgerHandler.StartDrivePrompt(ctx, chatID, userID, displayName, miles, hasEmptyArg(args), "")
		return
	}

	switch cmd {
	case "start", "help":
		b.sendHelp(ctx, chatID)

	case "drive", "drove":
		b.ledgerHandler.HandleDrive(ctx, chatID, userID, displayName, args)

	case "driveto":
		b.ledgerHandler.HandleDriveTo(ctx, chatID, userID, displayName, args)

	case "filled", "fill":
		b.ledgerHandler.HandleFilled(ctx, chatID, userID, displayName, args, payerOf(message))

	case "balance":
		b.ledgerHandler.HandleBalance(ctx, chatID, userID, displayName)

	case "allbalances", "balances":
		b.ledgerHandler.HandleAllBalances(ctx, chatID)

	case "settle":
		b.ledgerHandler.HandleSettle(ctx, chatID)

	case "addlocation":
		b.locationHandler.HandleAddLocation(ctx, chatID, args)

	case "setname":
		b.memberHandler.HandleSetName(ctx, chatID, userID, args)

	case "gasprice":
		b.garageHandler.HandleGasPrice(ctx, chatID, userID, args)

	case "cars", "fleet":
		b.garageHandler.HandleCars(ctx, chatID)

	case "carnotes":
		b.garageHandler.HandleCarNotes(ctx, chatID, args)
	}
}

// sendHelp builds the usage text, listing the stored location shortcuts.
func (b *Bot) sendHelp(ctx context.Context, chatID int64) {
	var sb strings.Builder
	sb.WriteString("*Gas Bot*\n")
	sb.WriteString("Tracks drives and fill-ups and keeps everyone's balance.\n\n")
	sb.WriteString("*Drives*\n")
	sb.WriteString("/drive 12.5 — log a drive (add `empty` if the tank is near empty)\n")
	sb.WriteString("/12.5 — same thing, mileage as the command\n")
	sb.WriteString("/driveto pnc — log a drive to a saved location\n\n")
	sb.WriteString("*Fill-ups*\n")
	sb.WriteString("/filled 45.50 — record a fill-up you paid for\n")
	sb.WriteString("/filled 45.50 3.29 — also sets the gas price\n")
	sb.WriteString("Reply to someone's message to make them the payer.\n\n")
	sb.WriteString("*Balances*\n")
	sb.WriteString("/balance — your balance\n")
	sb.WriteString("/allbalances — refresh the group board\n")
	sb.WriteString("/settle — reset everyone to zero (use with care!)\n\n")
	sb.WriteString("*Other*\n")
	sb.WriteString("/addlocation pnc 1.0 — save a shortcut (one-way miles, stored as round trip)\n")
	sb.WriteString("/setname Abbas — the name shown on the board\n")
	sb.WriteString("/gasprice — show or set the price per gallon\n")
	sb.WriteString("/cars — list the fleet\n")
	sb.WriteString("/carnotes Subaru needs oil — note something about a car\n")

	if locs, err := b.locationService.List(ctx); err == nil && len(locs) > 0 {
		sb.WriteString("\n*Saved locations*\n")
		for _, l := range locs {
			sb.WriteString(fmt.Sprintf("/driveto %s — %s (%s mi)\n", l.Name, l.Label, l.RoundTripMiles.String()))
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send help")
	}
}

// payerOf extracts the fill payer from a reply, when present.
func payerOf(message *tgbotapi.Message) *ledger.Payer {
	if message.ReplyToMessage == nil || message.ReplyToMessage.From == nil {
		return nil
	}
	from := message.ReplyToMessage.From
	if from.IsBot {
		return nil
	}
	return &ledger.Payer{ID: from.ID, Name: displayNameOf(from)}
}

func displayNameOf(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return u.UserName
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

func hasEmptyArg(args []string) bool {
	for _, a := range args {
		if strings.EqualFold(a, "empty") || strings.EqualFold(a, "nearempty") {
			return true
		}
	}
	return false
}
