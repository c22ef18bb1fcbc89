// artbot/store/store.go
package store

import (
	"sync"
	"time"

	"artbot/artbot/services/llm"

	"github.com/google/uuid"
)

// Store is the authoritative in-memory conversation model: an ordered
// collection of chats, newest first, with exactly one marked current.
// All state is transient; nothing survives a restart.
//
// Every mutation completes under one lock acquisition, so writes are atomic
// with respect to each other. No blocking work happens while the lock is held.
type Store struct {
	mu        sync.Mutex
	chats     []*Chat
	currentID string
	welcome   string
}

// New creates a store seeded with one chat so there is always a current chat
// to talk in. welcome is the bot message every fresh chat starts with.
func New(welcome string) *Store {
	s := &Store{welcome: welcome}
	s.CreateChat()
	return s
}

func (s *Store) newChatLocked() *Chat {
	now := time.Now()
	return &Chat{
		ID:        uuid.New().String(),
		Messages:  []*Message{NewBotMessage(s.welcome)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateChat allocates a chat seeded with the welcome message, inserts it at
// the front of the collection, and marks it current.
func (s *Store) CreateChat() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.newChatLocked()
	s.chats = append([]*Chat{chat}, s.chats...)
	s.currentID = chat.ID
	return chat.ID
}

// CurrentID returns the id of the current chat.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// SwitchTo marks an existing chat current; unknown ids are ignored.
func (s *Store) SwitchTo(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(chatID) == nil {
		return false
	}
	s.currentID = chatID
	return true
}

func (s *Store) findLocked(chatID string) *Chat {
	for _, c := range s.chats {
		if c.ID == chatID {
			return c
		}
	}
	return nil
}

// AppendMessage adds a message to the end of the chat's transcript.
func (s *Store) AppendMessage(chatID string, m *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return
	}
	chat.Messages = append(chat.Messages, m)
	chat.UpdatedAt = time.Now()
}

func (s *Store) patchLocked(chatID, messageID string, apply func(*Message)) {
	chat := s.findLocked(chatID)
	if chat == nil {
		return
	}
	for _, m := range chat.Messages {
		if m.ID == messageID {
			apply(m)
			chat.UpdatedAt = time.Now()
			return
		}
	}
}

// PatchContent replaces a message's content in place, addressed by id.
// No-op when the message is gone (e.g. the chat was cleared mid-stream).
func (s *Store) PatchContent(chatID, messageID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchLocked(chatID, messageID, func(m *Message) { m.Content = content })
}

// Rate sets a message's numeric score. No range is enforced here.
func (s *Store) Rate(chatID, messageID string, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchLocked(chatID, messageID, func(m *Message) { m.Rating = &rating })
}

// Like toggles the liked flag; liking always clears disliked.
func (s *Store) Like(chatID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchLocked(chatID, messageID, func(m *Message) {
		m.Liked = !m.Liked
		m.Disliked = false
	})
}

// Dislike toggles the disliked flag; disliking always clears liked.
func (s *Store) Dislike(chatID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchLocked(chatID, messageID, func(m *Message) {
		m.Disliked = !m.Disliked
		m.Liked = false
	})
}

// SetTitle renames a chat. An empty title means "derive from the first user
// message" at display time.
func (s *Store) SetTitle(chatID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return
	}
	chat.Title = title
	chat.UpdatedAt = time.Now()
}

// DeleteChat removes a chat. If it was current, the first remaining chat
// becomes current; if none remain a fresh chat is created so the collection
// is never left without a current chat.
func (s *Store) DeleteChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.chats {
		if c.ID == chatID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)

	if s.currentID != chatID {
		return
	}
	if len(s.chats) > 0 {
		s.currentID = s.chats[0].ID
		return
	}
	chat := s.newChatLocked()
	s.chats = []*Chat{chat}
	s.currentID = chat.ID
}

// ResetChat throws away a chat's transcript, leaving a single fresh welcome
// message.
func (s *Store) ResetChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return
	}
	chat.Messages = []*Message{NewBotMessage(s.welcome)}
	chat.UpdatedAt = time.Now()
}

// RemoveEmptyBotMessages drops bot messages whose content is still the empty
// placeholder, so a failed send never leaves a permanently blank bubble.
func (s *Store) RemoveEmptyBotMessages(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return
	}
	kept := chat.Messages[:0]
	for _, m := range chat.Messages {
		if m.Sender == SenderBot && m.Content == "" {
			continue
		}
		kept = append(kept, m)
	}
	chat.Messages = kept
	chat.UpdatedAt = time.Now()
}

// DeriveHistory projects a chat's transcript into provider-facing turns:
// sender mapped to role, in-flight empty bot placeholders excluded. It is
// recomputed from the transcript every time history must be sent.
func (s *Store) DeriveHistory(chatID string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return nil
	}
	history := make([]llm.Message, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		if m.Sender == SenderBot && m.Content == "" {
			continue
		}
		role := llm.RoleUser
		if m.Sender == SenderBot {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: llm.Text(m.Content)})
	}
	return history
}

// Messages returns a copy of a chat's transcript.
func (s *Store) Messages(chatID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return nil
	}
	out := make([]Message, len(chat.Messages))
	for i, m := range chat.Messages {
		out[i] = *m
	}
	return out
}

// Chat returns a snapshot of one chat.
func (s *Store) Chat(chatID string) (Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return Chat{}, false
	}
	snap := *chat
	snap.Messages = make([]*Message, len(chat.Messages))
	for i, m := range chat.Messages {
		copied := *m
		snap.Messages[i] = &copied
	}
	return snap, true
}

// Sessions lists all chats for the sidebar, newest first.
func (s *Store) Sessions() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionSummary, 0, len(s.chats))
	for _, c := range s.chats {
		out = append(out, SessionSummary{
			ID:           c.ID,
			Title:        displayTitleLocked(c),
			MessageCount: len(c.Messages),
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return out
}

// DisplayTitle is the user-visible chat label: the stored title, or the first
// user message when no title has been set.
func (s *Store) DisplayTitle(chatID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.findLocked(chatID)
	if chat == nil {
		return ""
	}
	return displayTitleLocked(chat)
}

func displayTitleLocked(c *Chat) string {
	if c.Title != "" {
		return c.Title
	}
	for _, m := range c.Messages {
		if m.Sender == SenderUser {
			return m.Content
		}
	}
	return ""
}
