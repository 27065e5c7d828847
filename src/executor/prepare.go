package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/storage"
)

const titleSystemPrompt = `
- you will generate a short title based on the first message a user begins a conversation with
- ensure it is not more than 80 characters long
- the title should be a summary of the user's message
- do not use quotes or colons`

const maxTitleLength = 80

// ChatRequest is the body of a chat turn. Keys sent with the request override
// the server's keys for this turn only.
type ChatRequest struct {
	ID       string          `json:"id"`
	Messages []ClientMessage `json:"messages"`
	ModelID  string          `json:"modelId"`
	aisdk.Credentials

	// UserID is taken from the session, never from the body.
	UserID string `json:"-"`
}

// ClientMessage is a message as the client holds it. Content is either a
// JSON string or an array of content parts.
type ClientMessage struct {
	ID      string          `json:"id,omitempty"`
	Role    aisdk.Role      `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Turn is a validated request whose user message has been stored.
type Turn struct {
	Chat          *storage.Chat
	Model         aisdk.LanguageModel
	Info          aisdk.ModelInfo
	Credentials   aisdk.Credentials
	History       []aisdk.Message
	UserText      string
	UserMessageID string
	UserID        string
	// NewChat is set when this turn created the chat.
	NewChat bool
	// Deadline bounds the whole turn, Prepare and Stream together.
	Deadline time.Time
}

func (t *Turn) deadline(timeout time.Duration) time.Time {
	if t.Deadline.IsZero() {
		return time.Now().Add(timeout)
	}
	return t.Deadline
}

// Prepare validates req and records the inbound message. Every rejection
// happens here, before a response starts: ErrUnauthorized, a *ConfigError,
// or a storage failure. The request timeout starts here and carries over to
// Stream through the returned turn.
func (s *Service) Prepare(ctx context.Context, req ChatRequest) (*Turn, error) {
	deadline := time.Now().Add(s.requestTimeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if req.UserID == "" {
		return nil, ErrUnauthorized
	}

	info, err := aisdk.LookupModel(req.ModelID)
	if err != nil {
		return nil, modelNotFound(req.ModelID)
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	} else if _, err := uuid.Parse(req.ID); err != nil {
		return nil, &ConfigError{Status: http.StatusBadRequest, Code: CodeInvalidMessages, Message: "Invalid chat id"}
	}

	history, err := decodeHistory(req.Messages)
	if err != nil {
		return nil, invalidMessages(err)
	}
	last := lastUserMessage(history)
	if last < 0 {
		return nil, noUserMessage()
	}
	userMsg := history[last]

	creds, err := s.resolveCredentials(ctx, req, info)
	if err != nil {
		return nil, err
	}

	chat, err := storage.GetChatByID(ctx, s.database, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat != nil && chat.UserID != req.UserID {
		return nil, ErrUnauthorized
	}

	model, err := s.models(ctx, info, creds)
	if err != nil {
		if errors.Is(err, aisdk.ErrMissingAPIKey) {
			return nil, missingAPIKey(info.Provider.DisplayName())
		}
		return nil, err
	}

	turn := &Turn{
		Chat:        chat,
		Model:       model,
		Info:        info,
		Credentials: creds,
		History:     history,
		UserText:    userMsg.Content,
		UserID:      req.UserID,
		Deadline:    deadline,
	}

	var title string
	if chat == nil {
		title = s.generateTitle(ctx, model, userMsg.Content)
	}

	// The title may use up the deadline; the writes below still go through
	// and Stream reports the timeout.
	pctx, pcancel := persistContext(ctx)
	defer pcancel()

	if chat == nil {
		turn.Chat = &storage.Chat{
			ID:     req.ID,
			UserID: req.UserID,
			Title:  title,
		}
		if err := storage.SaveChat(pctx, s.database, turn.Chat); err != nil {
			return nil, fmt.Errorf("failed to save chat: %w", err)
		}
		turn.NewChat = true
	}

	content, err := aisdk.EncodeContent(userMsg)
	if err != nil {
		return nil, invalidMessages(err)
	}
	row := storage.Message{
		ID:       uuid.New().String(),
		ChatID:   turn.Chat.ID,
		Role:     string(aisdk.RoleUser),
		Content:  storage.JSONContent(content),
		Provider: string(info.Provider),
	}
	if err := storage.SaveMessages(pctx, s.database, []storage.Message{row}); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}
	turn.UserMessageID = row.ID

	s.logger.Debug("turn prepared",
		"chat_id", turn.Chat.ID,
		"user_id", req.UserID,
		"model", info.ID,
		"new_chat", turn.NewChat,
	)
	return turn, nil
}

// resolveCredentials merges request keys over the server's. A turn that
// relies on the server key for its model is subject to the free-tier limit.
func (s *Service) resolveCredentials(ctx context.Context, req ChatRequest, info aisdk.ModelInfo) (aisdk.Credentials, error) {
	creds := req.Credentials.Merge(s.credentials)
	if req.Credentials.KeyFor(info.Provider) != "" {
		return creds, nil
	}
	if creds.KeyFor(info.Provider) == "" {
		return creds, missingAPIKey(info.Provider.DisplayName())
	}
	if s.freeMessages < 0 {
		return creds, nil
	}
	used, err := storage.CountUserMessages(ctx, s.database, req.UserID, string(info.Provider))
	if err != nil {
		return creds, fmt.Errorf("failed to count messages: %w", err)
	}
	if used >= s.freeMessages {
		return creds, freeTierExhausted(info.Provider.DisplayName(), s.freeMessages)
	}
	return creds, nil
}

func decodeHistory(msgs []ClientMessage) ([]aisdk.Message, error) {
	out := make([]aisdk.Message, 0, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case aisdk.RoleUser, aisdk.RoleAssistant, aisdk.RoleTool:
		default:
			continue
		}
		decoded, err := aisdk.DecodeContent(m.Role, m.Content)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		for j := range decoded {
			decoded[j].ID = m.ID
		}
		out = append(out, decoded...)
	}
	return out, nil
}

func lastUserMessage(msgs []aisdk.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == aisdk.RoleUser {
			return i
		}
	}
	return -1
}

func (s *Service) generateTitle(ctx context.Context, model aisdk.LanguageModel, text string) string {
	out, err := model.GenerateText(ctx, aisdk.TextRequest{
		System:   titleSystemPrompt,
		Messages: []aisdk.Message{{Role: aisdk.RoleUser, Content: text}},
	})
	if err != nil {
		s.logger.Warn("title generation failed", "error", err)
		return FallbackTitle(text)
	}
	if title := CleanTitle(out); title != "" {
		return title
	}
	return FallbackTitle(text)
}

// CleanTitle strips quotes and colons from a generated title and limits it
// to 80 characters.
func CleanTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '`', ':', '“', '”':
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxTitleLength {
		s = strings.TrimSpace(string([]rune(s)[:maxTitleLength]))
	}
	return s
}

// FallbackTitle is the first five words of text.
func FallbackTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "New Chat"
	}
	if len(words) <= 5 {
		return CleanTitle(strings.Join(words, " "))
	}
	return CleanTitle(strings.Join(words[:5], " ")) + "..."
}
