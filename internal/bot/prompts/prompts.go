// Package prompts tracks pending interactive selections: when someone runs
// /drive or /filled, the bot shows an inline car keyboard and remembers the
// command's parameters until the invoker taps a button or the prompt
// expires. Sessions are in-process state: a prompt is only answerable by
// the process that showed the keyboard, so there is nothing to share.
package prompts

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gasbot/internal/common"
)

// Kind says which command a session completes.
type Kind int

const (
	KindDrive Kind = iota
	KindFill
)

// Session holds everything needed to finish the command once a car is
// chosen.
type Session struct {
	Token     string
	Kind      Kind
	UserID    int64 // Only this user may answer
	ChatID    int64
	MessageID int // The keyboard message, edited/cleaned up on completion

	// Drive parameters
	Miles     decimal.Decimal
	NearEmpty bool
	Location  string // Shortcut label, empty for plain /drive

	// Fill parameters
	Amount    decimal.Decimal
	PayerID   int64
	PayerName string
	NewPrice  *decimal.Decimal

	createdAt time.Time
}

// Manager is the session store. Expired sessions are pruned by a
// background janitor; Take also checks expiry so a dead token can never
// complete.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager creates a session store whose prompts expire after ttl.
func NewManager(ttl time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Close stops the janitor goroutine. Call on shutdown.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Create stores the session and returns its token for callback data.
func (m *Manager) Create(s *Session) string {
	s.Token = uuid.New().String()
	s.createdAt = time.Now()

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	return s.Token
}

// Take consumes a session, so a token completes at most once. A tap from
// anyone other than the invoker is rejected without consuming the session.
func (m *Manager) Take(token string, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok || time.Since(s.createdAt) > m.ttl {
		delete(m.sessions, token)
		return nil, common.ErrPromptExpired
	}
	if s.UserID != userID {
		// Leave the session in place: the real invoker can still answer.
		return nil, common.ErrNotYourPrompt
	}

	delete(m.sessions, token)
	return s, nil
}

// SetMessageID records the keyboard message once Telegram assigns it.
func (m *Manager) SetMessageID(token string, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		s.MessageID = messageID
	}
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			for token, s := range m.sessions {
				if time.Since(s.createdAt) > m.ttl {
					delete(m.sessions, token)
				}
			}
			m.mu.Unlock()
		}
	}
}
