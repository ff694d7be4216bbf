// Package board posts the shared balance board to the gas chat. The chat
// should only ever show one board, so the previous board message is deleted
// before each new post: the closest Telegram gets to purging a channel.
package board

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Board owns the single balance-board message in the gas chat.
type Board struct {
	api    *tgbotapi.BotAPI
	chatID int64

	mu     sync.Mutex
	lastID int // Message ID of the current board, 0 if none posted yet
}

// New creates a board poster for the given chat.
func New(api *tgbotapi.BotAPI, chatID int64) *Board {
	return &Board{api: api, chatID: chatID}
}

// Post replaces the board: deletes the previous board message (best-effort;
// it may already be gone) and sends the new text as Markdown.
func (b *Board) Post(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lastID != 0 {
		del := tgbotapi.NewDeleteMessage(b.chatID, b.lastID)
		if _, err := b.api.Request(del); err != nil {
			log.WithError(err).WithField("message_id", b.lastID).Debug("Could not delete previous board")
		}
		b.lastID = 0
	}

	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		return err
	}
	b.lastID = sent.MessageID
	return nil
}

// ChatID returns the chat the board lives in.
func (b *Board) ChatID() int64 {
	return b.chatID
}
