// Package filters decides which chats the bot listens to: the configured
// gas chat, plus private messages from people who are already known to the
// ledger or verifiably members of the gas chat.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/features/members"
)

// ChatFilter gates incoming messages by chat and membership.
type ChatFilter struct {
	gasChatID     int64
	memberService *members.Service
	bot           *tgbotapi.BotAPI
}

// NewChatFilter creates a filter for the given gas chat.
func NewChatFilter(gasChatID int64, memberService *members.Service, bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{
		gasChatID:     gasChatID,
		memberService: memberService,
		bot:           bot,
	}
}

// CheckAccess reports whether a message should be handled.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil || message.From == nil {
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chatID,
		"user_id":   userID,
	})

	// 1) The gas chat itself.
	if chatID == f.gasChatID {
		return true
	}

	// 2) DMs: known ledger users get in straight from the database.
	if message.Chat.IsPrivate() {
		isMember, err := f.memberService.IsMember(ctx, userID)
		if err != nil {
			logger.WithError(err).Error("Member check failed (db)")
			return false
		}
		if isMember {
			return true
		}

		// Unknown to us: ask Telegram whether they are in the gas chat.
		cm, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: f.gasChatID,
				UserID: userID,
			},
		})
		if err != nil {
			logger.WithError(err).Error("Member check failed (telegram)")
			return false
		}

		switch cm.Status {
		case "creator", "administrator", "member", "restricted":
			logger.WithField("tg_status", cm.Status).Debug("Allow: private, gas chat member")
			return true
		default:
			msg := tgbotapi.NewMessage(chatID, "❌ This bot only works for members of the gas chat")
			if _, sendErr := f.bot.Send(msg); sendErr != nil {
				logger.WithError(sendErr).Warn("Failed to send deny message")
			}
			return false
		}
	}

	// 3) Any other group: ignore.
	logger.Debug("Deny: not the gas chat and not private")
	return false
}
