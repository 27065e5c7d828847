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

const documentColumns = `id, created_at, title, kind, content, user_id`

const suggestionColumns = `id, document_id, document_created_at, original_text, suggested_text, description, is_resolved, user_id, created_at`

// SaveDocument inserts a new version of a document
func SaveDocument(ctx context.Context, db Execer, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Kind == "" {
		doc.Kind = DocumentText
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO documents (id, created_at, title, kind, content, user_id) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, doc.ID, doc.CreatedAt, doc.Title, doc.Kind, doc.Content, doc.UserID)
	return err
}

// GetDocumentByID returns the latest version of a document
func GetDocumentByID(ctx context.Context, db sqlscan.Querier, id string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ? ORDER BY created_at DESC LIMIT 1`
	var doc Document
	err := sqlscan.Get(ctx, db, &doc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &doc, nil
}

// GetDocumentsByID returns every version of a document, oldest first
func GetDocumentsByID(ctx context.Context, db sqlscan.Querier, id string) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ? ORDER BY created_at`
	docs := []Document{}
	if err := sqlscan.Select(ctx, db, &docs, query, id); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocumentsByUserID returns the latest version of each of a user's
// documents, most recently changed first
func GetDocumentsByUserID(ctx context.Context, db sqlscan.Querier, userID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE user_id = ? AND created_at = (SELECT MAX(created_at) FROM documents WHERE id = d.id)
		ORDER BY created_at DESC`
	docs := []Document{}
	if err := sqlscan.Select(ctx, db, &docs, query, userID); err != nil {
		return nil, err
	}
	return docs, nil
}

// SaveSuggestions inserts suggestions in one transaction
func SaveSuggestions(ctx context.Context, db TxBeginner, suggestions []Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return withTx(ctx, db, func(tx *sql.Tx) error {
		query := `INSERT INTO suggestions (` + suggestionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for i := range suggestions {
			s := &suggestions[i]
			if s.ID == "" {
				s.ID = uuid.New().String()
			}
			if s.CreatedAt.IsZero() {
				s.CreatedAt = now
			}
			_, err := tx.ExecContext(ctx, query,
				s.ID,
				s.DocumentID,
				s.DocumentCreatedAt,
				s.OriginalText,
				s.SuggestedText,
				s.Description,
				s.IsResolved,
				s.UserID,
				s.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert suggestion %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// GetSuggestionsByDocumentID lists the suggestions made for any version of a document
func GetSuggestionsByDocumentID(ctx context.Context, db sqlscan.Querier, documentID string) ([]Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE document_id = ? ORDER BY created_at`
	suggestions := []Suggestion{}
	if err := sqlscan.Select(ctx, db, &suggestions, query, documentID); err != nil {
		return nil, err
	}
	return suggestions, nil
}
