// artbot/controllers/chat.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"artbot/artbot/services/llm"
	"artbot/artbot/store"
	"artbot/artbot/utils/logging"
	"artbot/artbot/utils/types"

	"go.uber.org/zap"
)

// ErrBusy is returned when a send is attempted while a response is already
// pending. The store is left untouched: the call is a no-op.
var ErrBusy = errors.New("a response is already pending")

const defaultExportTitle = "ArtBot Conversation"

// ChatController orchestrates one end-to-end send: optimistic store mutation,
// the provider call, delta reconciliation, and the single-in-flight guard.
// It is a two-state machine (idle / awaiting response); at most one request
// and one cancel token exist per controller at any time.
type ChatController struct {
	store  *store.Store
	client *llm.Client

	mu       sync.Mutex
	awaiting bool
	cancel   context.CancelFunc
	errMsg   string
}

func NewChatController(st *store.Store, client *llm.Client) *ChatController {
	return &ChatController{store: st, client: client}
}

// begin performs the Idle -> AwaitingResponse transition: derives the
// provider history (before the new turn is added, so the turn is not echoed
// twice), appends the user message and the empty bot placeholder, and arms
// the cancel token.
func (c *ChatController) begin(ctx context.Context, content string, att *llm.Attachment) (reqCtx context.Context, chatID, placeholderID string, history []llm.Message, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.awaiting {
		return nil, "", "", nil, ErrBusy
	}
	chatID = c.store.CurrentID()
	if chatID == "" {
		return nil, "", "", nil, ErrBusy
	}

	history = c.store.DeriveHistory(chatID)

	userContent := content
	if att != nil {
		userContent = fmt.Sprintf("%s\n\n📎 *Image uploaded: %s*", content, att.Name)
	}
	c.store.AppendMessage(chatID, store.NewUserMessage(userContent))

	placeholder := store.NewBotMessage("")
	c.store.AppendMessage(chatID, placeholder)
	placeholderID = placeholder.ID

	reqCtx, c.cancel = context.WithCancel(ctx)
	c.awaiting = true
	c.errMsg = ""
	return reqCtx, chatID, placeholderID, history, nil
}

// finish performs the transition back to Idle and reconciles the placeholder.
// A cancelled request is fully suppressed: no error state, no store changes
// (Clear already reset the transcript). On failure the placeholder is removed
// so the transcript never keeps a blank bot turn; the user message stays.
func (c *ChatController) finish(chatID, placeholderID, accumulated, final string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.awaiting = false
	c.cancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logging.AppLogger.Info("chat request cancelled", zap.String("chat_id", chatID))
			return nil
		}
		c.errMsg = err.Error()
		c.store.RemoveEmptyBotMessages(chatID)
		logging.ErrorLogger.Error("chat request failed",
			zap.String("chat_id", chatID), zap.Error(err))
		return err
	}

	// The provider's final text is authoritative when it differs from the
	// streamed accumulation (covers the non-streaming path too).
	if final != accumulated {
		c.store.PatchContent(chatID, placeholderID, final)
	}
	return nil
}

// Send runs one non-streaming turn and returns the final reply text.
func (c *ChatController) Send(ctx context.Context, content string, att *llm.Attachment) (string, error) {
	reqCtx, chatID, placeholderID, history, err := c.begin(ctx, content, att)
	if err != nil {
		return "", err
	}

	final, sendErr := c.client.Send(reqCtx, content, history, att, nil)
	if err := c.finish(chatID, placeholderID, "", final, sendErr); err != nil {
		return "", err
	}
	if sendErr != nil { // cancelled
		return "", sendErr
	}
	return final, nil
}

// SendStream runs one streaming turn. Deltas arrive on the first channel in
// provider order; the error channel reports a terminal failure, ErrBusy for a
// rejected duplicate send, or closes silently on success or cancellation.
func (c *ChatController) SendStream(ctx context.Context, content string, att *llm.Attachment) (<-chan string, <-chan error) {
	ch := make(chan string)
	errCh := make(chan error, 1)

	reqCtx, chatID, placeholderID, history, err := c.begin(ctx, content, att)
	if err != nil {
		errCh <- err
		close(ch)
		close(errCh)
		return ch, errCh
	}

	go func() {
		defer close(ch)
		defer close(errCh)

		var accumulated string
		onDelta := func(delta string) {
			accumulated += delta
			c.store.PatchContent(chatID, placeholderID, accumulated)
			select {
			case ch <- delta:
			case <-reqCtx.Done():
			}
		}

		final, sendErr := c.client.Send(reqCtx, content, history, att, onDelta)
		if err := c.finish(chatID, placeholderID, accumulated, final, sendErr); err != nil {
			errCh <- err
		}
	}()

	return ch, errCh
}

// Clear cancels any in-flight request, resets the current chat to a single
// fresh welcome message, and clears the error slot. The cancelled request's
// eventual failure is classified as cancellation and never surfaces.
func (c *ChatController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.store.ResetChat(c.store.CurrentID())
	c.errMsg = ""
}

// Typing reports whether a response is pending.
func (c *ChatController) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// Error returns the session-level error message, empty when none.
func (c *ChatController) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *ChatController) NewChat() string {
	return c.store.CreateChat()
}

// SwitchChat makes another chat current and drops any visible error; an
// in-flight request keeps streaming into its own chat by id.
func (c *ChatController) SwitchChat(chatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.SwitchTo(chatID) {
		return false
	}
	c.errMsg = ""
	return true
}

func (c *ChatController) DeleteChat(chatID string) {
	c.store.DeleteChat(chatID)
}

func (c *ChatController) SetTitle(chatID, title string) {
	c.store.SetTitle(chatID, title)
}

func (c *ChatController) Rate(messageID string, rating int) {
	c.store.Rate(c.store.CurrentID(), messageID, rating)
}

func (c *ChatController) Like(messageID string) {
	c.store.Like(c.store.CurrentID(), messageID)
}

func (c *ChatController) Dislike(messageID string) {
	c.store.Dislike(c.store.CurrentID(), messageID)
}

func (c *ChatController) Messages() []store.Message {
	return c.store.Messages(c.store.CurrentID())
}

func (c *ChatController) Sessions() []store.SessionSummary {
	return c.store.Sessions()
}

// Export snapshots the current chat as a downloadable document.
func (c *ChatController) Export() types.ExportDocument {
	chatID := c.store.CurrentID()
	chat, ok := c.store.Chat(chatID)
	if !ok {
		return types.ExportDocument{ExportDate: time.Now(), ChatTitle: defaultExportTitle}
	}

	title := chat.Title
	if title == "" {
		title = defaultExportTitle
	}
	doc := types.ExportDocument{
		ExportDate: time.Now(),
		ChatTitle:  title,
		Messages:   make([]types.ExportMessage, 0, len(chat.Messages)),
	}
	for _, m := range chat.Messages {
		doc.Messages = append(doc.Messages, types.ExportMessage{
			Sender:    string(m.Sender),
			Content:   m.Content,
			Timestamp: m.Timestamp,
			Rating:    m.Rating,
			Liked:     m.Liked,
			Disliked:  m.Disliked,
		})
	}
	return doc
}

// Share flattens the current chat to SENDER: content blocks for the share
// sheet or clipboard.
func (c *ChatController) Share() string {
	msgs := c.store.Messages(c.store.CurrentID())
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, strings.ToUpper(string(m.Sender))+": "+m.Content)
	}
	return strings.Join(lines, "\n\n")
}
