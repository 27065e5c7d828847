package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/server/middleware"
	"github.com/elee1766/finchat/src/server/response"
	"github.com/elee1766/finchat/src/storage"
)

var (
	errChatNotFound = errors.New("chat not found")
	errNotOwner     = errors.New("chat belongs to another user")
)

// ChatStreamer runs chat turns. *executor.Service satisfies it.
type ChatStreamer interface {
	Prepare(ctx context.Context, req executor.ChatRequest) (*executor.Turn, error)
	Stream(ctx context.Context, turn *executor.Turn, sink executor.EventSink) error
}

type ChatHandler struct {
	db      *sql.DB
	service ChatStreamer
	log     *slog.Logger
}

func NewChatHandler(db *sql.DB, service ChatStreamer, log *slog.Logger) *ChatHandler {
	return &ChatHandler{db: db, service: service, log: log.With("handler", "chat")}
}

// Chat handles POST /chat. Rejections are plain JSON errors; once the turn is
// accepted the response is a stream of newline-delimited event frames.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req executor.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	req.UserID = middleware.UserID(c)

	turn, err := h.service.Prepare(c.Request.Context(), req)
	if err != nil {
		respondTurnError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sink := executor.NewStreamSink(c.Writer, h.log.With("chat_id", turn.Chat.ID))
	if err := h.service.Stream(c.Request.Context(), turn, sink); err != nil {
		_ = c.Error(err)
	}
	if sink.Detached() {
		h.log.Info("turn finished after client disconnected", "chat_id", turn.Chat.ID)
	}
}

func respondTurnError(c *gin.Context, err error) {
	var cerr *executor.ConfigError
	switch {
	case errors.Is(err, executor.ErrUnauthorized):
		response.RespondError(c, http.StatusUnauthorized, response.CodeUnauthorized, err)
	case errors.As(err, &cerr):
		response.RespondError(c, cerr.Status, cerr.Code, cerr)
	default:
		_ = c.Error(err)
		response.RespondError(c, http.StatusInternalServerError, response.CodeInternal, errors.New("failed to start chat"))
	}
}

type chatIDQuery struct {
	ID string `form:"id" binding:"required,uuid"`
}

// DeleteChat handles DELETE /chat?id=.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	if c.Query("id") == "" {
		response.RespondError(c, http.StatusNotFound, response.CodeNotFound, errors.New("chat id is required"))
		return
	}
	var q chatIDQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	if _, ok := h.ownedChat(c, q.ID); !ok {
		return
	}
	if err := storage.DeleteChatByID(c.Request.Context(), h.db, q.ID); err != nil {
		h.internal(c, fmt.Errorf("failed to delete chat: %w", err))
		return
	}
	response.RespondOK(c, gin.H{"message": "Chat deleted"})
}

// History handles GET /chat/history.
func (h *ChatHandler) History(c *gin.Context) {
	chats, err := storage.GetChatsByUserID(c.Request.Context(), h.db, middleware.UserID(c))
	if err != nil {
		h.internal(c, fmt.Errorf("failed to list chats: %w", err))
		return
	}
	response.RespondOK(c, chats)
}

type chatURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type chatWithMessages struct {
	storage.Chat
	Messages []storage.Message `json:"messages"`
}

// GetChat handles GET /chat/:id. Public chats are readable by anyone signed
// in; a private chat of another user is reported as missing.
func (h *ChatHandler) GetChat(c *gin.Context) {
	var uri chatURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	chat, err := storage.GetChatByID(ctx, h.db, uri.ID)
	if err != nil {
		h.internal(c, fmt.Errorf("failed to load chat: %w", err))
		return
	}
	if chat == nil || (chat.Visibility != storage.VisibilityPublic && chat.UserID != middleware.UserID(c)) {
		response.RespondError(c, http.StatusNotFound, response.CodeNotFound, errChatNotFound)
		return
	}
	msgs, err := storage.GetMessagesByChatID(ctx, h.db, chat.ID)
	if err != nil {
		h.internal(c, fmt.Errorf("failed to load messages: %w", err))
		return
	}
	if msgs == nil {
		msgs = []storage.Message{}
	}
	response.RespondOK(c, chatWithMessages{Chat: *chat, Messages: msgs})
}

type visibilityBody struct {
	Visibility storage.Visibility `json:"visibility" binding:"required,oneof=private public"`
}

// UpdateVisibility handles PATCH /chat/:id/visibility.
func (h *ChatHandler) UpdateVisibility(c *gin.Context) {
	var uri chatURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	var body visibilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	chat, ok := h.ownedChat(c, uri.ID)
	if !ok {
		return
	}
	if err := storage.UpdateChatVisibility(c.Request.Context(), h.db, chat.ID, body.Visibility); err != nil {
		h.internal(c, fmt.Errorf("failed to update visibility: %w", err))
		return
	}
	chat.Visibility = body.Visibility
	response.RespondOK(c, chat)
}

type afterQuery struct {
	After string `form:"after" binding:"required"`
}

// DeleteTrailingMessages handles DELETE /chat/:id/messages?after=. The named
// message and everything after it are removed.
func (h *ChatHandler) DeleteTrailingMessages(c *gin.Context) {
	var uri chatURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	var q afterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	if _, ok := h.ownedChat(c, uri.ID); !ok {
		return
	}
	n, err := storage.DeleteMessagesByChatIDAfter(c.Request.Context(), h.db, uri.ID, q.After)
	if err != nil {
		h.internal(c, fmt.Errorf("failed to delete messages: %w", err))
		return
	}
	response.RespondOK(c, gin.H{"deleted": n})
}

// CountMessages handles GET /messages/count.
func (h *ChatHandler) CountMessages(c *gin.Context) {
	n, err := storage.CountUserMessages(c.Request.Context(), h.db, middleware.UserID(c), c.Query("provider"))
	if err != nil {
		h.internal(c, fmt.Errorf("failed to count messages: %w", err))
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// ownedChat loads a chat and checks the caller owns it, writing the error
// response when not.
func (h *ChatHandler) ownedChat(c *gin.Context, id string) (*storage.Chat, bool) {
	chat, err := storage.GetChatByID(c.Request.Context(), h.db, id)
	if err != nil {
		h.internal(c, fmt.Errorf("failed to load chat: %w", err))
		return nil, false
	}
	if chat == nil {
		response.RespondError(c, http.StatusNotFound, response.CodeNotFound, errChatNotFound)
		return nil, false
	}
	if chat.UserID != middleware.UserID(c) {
		response.RespondError(c, http.StatusUnauthorized, response.CodeUnauthorized, errNotOwner)
		return nil, false
	}
	return chat, true
}

func (h *ChatHandler) internal(c *gin.Context, err error) {
	_ = c.Error(err)
	response.RespondError(c, http.StatusInternalServerError, response.CodeInternal, errors.New("internal error"))
}
