package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

const chatColumns = `id, user_id, title, visibility, created_at`

const messageColumns = `seq, id, chat_id, role, content, provider, created_at`

// SaveChat creates a new chat in the database
func SaveChat(ctx context.Context, db Execer, chat *Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.Visibility == "" {
		chat.Visibility = VisibilityPrivate
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO chats (id, user_id, title, visibility, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, chat.ID, chat.UserID, chat.Title, chat.Visibility, chat.CreatedAt)
	return err
}

// GetChatByID retrieves a chat by its ID
func GetChatByID(ctx context.Context, db sqlscan.Querier, chatID string) (*Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = ?`
	var chat Chat
	err := sqlscan.Get(ctx, db, &chat, query, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &chat, nil
}

// GetChatsByUserID lists a user's chats, newest first
func GetChatsByUserID(ctx context.Context, db sqlscan.Querier, userID string) ([]Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE user_id = ? ORDER BY created_at DESC`
	chats := []Chat{}
	if err := sqlscan.Select(ctx, db, &chats, query, userID); err != nil {
		return nil, err
	}
	return chats, nil
}

// DeleteChatByID removes a chat and its messages in one transaction
func DeleteChatByID(ctx context.Context, db TxBeginner, chatID string) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID); err != nil {
			return fmt.Errorf("failed to delete chat: %w", err)
		}
		return nil
	})
}

// UpdateChatVisibility changes who can read a chat
func UpdateChatVisibility(ctx context.Context, db Execer, chatID string, visibility Visibility) error {
	if !visibility.Valid() {
		return fmt.Errorf("invalid visibility %q", visibility)
	}
	_, err := db.ExecContext(ctx, `UPDATE chats SET visibility = ? WHERE id = ?`, visibility, chatID)
	return err
}

// SaveMessages inserts messages in one transaction, in slice order
func SaveMessages(ctx context.Context, db TxBeginner, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return withTx(ctx, db, func(tx *sql.Tx) error {
		query := `INSERT INTO messages (id, chat_id, role, content, provider, created_at) VALUES (?, ?, ?, ?, ?, ?)`
		for i := range messages {
			m := &messages[i]
			if m.ID == "" {
				m.ID = uuid.New().String()
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			res, err := tx.ExecContext(ctx, query, m.ID, m.ChatID, m.Role, m.Content, m.Provider, m.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
			}
			if seq, err := res.LastInsertId(); err == nil {
				m.Seq = seq
			}
		}
		return nil
	})
}

// GetMessagesByChatID retrieves all messages for a chat in creation order
func GetMessagesByChatID(ctx context.Context, db sqlscan.Querier, chatID string) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_id = ? ORDER BY created_at, seq`
	var messages []Message
	if err := sqlscan.Select(ctx, db, &messages, query, chatID); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetMessageByID retrieves one message
func GetMessageByID(ctx context.Context, db sqlscan.Querier, messageID string) (*Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	var m Message
	err := sqlscan.Get(ctx, db, &m, query, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// DeleteMessagesByChatIDAfter removes the given message and every message of
// the chat that sorts after it. It returns the number of rows removed.
func DeleteMessagesByChatIDAfter(ctx context.Context, db ExecQuerier, chatID, messageID string) (int64, error) {
	pivot, err := GetMessageByID(ctx, db, messageID)
	if err != nil {
		return 0, err
	}
	if pivot == nil || pivot.ChatID != chatID {
		return 0, nil
	}
	query := `DELETE FROM messages WHERE chat_id = ? AND (created_at > ? OR (created_at = ? AND seq >= ?))`
	res, err := db.ExecContext(ctx, query, chatID, pivot.CreatedAt, pivot.CreatedAt, pivot.Seq)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUserMessages counts messages a user sent to a provider across all
// of their chats. An empty provider counts every user message.
func CountUserMessages(ctx context.Context, db sqlscan.Querier, userID, provider string) (int, error) {
	query := `SELECT COUNT(*) FROM messages m JOIN chats c ON c.id = m.chat_id
		WHERE c.user_id = ? AND m.role = 'user' AND (? = '' OR m.provider = ?)`
	var n int
	if err := sqlscan.Get(ctx, db, &n, query, userID, provider, provider); err != nil {
		return 0, err
	}
	return n, nil
}
