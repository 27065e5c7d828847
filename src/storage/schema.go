package storage

import "time"

// Visibility controls who may read a chat.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Chat is owned by one user. Its title is set when the chat is created and
// never changes.
type Chat struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"userId" db:"user_id"`
	Title      string     `json:"title" db:"title"`
	Visibility Visibility `json:"visibility" db:"visibility"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// Message rows are append-only. Seq breaks ties between rows sharing a
// timestamp.
type Message struct {
	Seq       int64       `json:"-" db:"seq"`
	ID        string      `json:"id" db:"id"`
	ChatID    string      `json:"chatId" db:"chat_id"`
	Role      string      `json:"role" db:"role"`
	Content   JSONContent `json:"content" db:"content"`
	Provider  string      `json:"provider,omitempty" db:"provider"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// DocumentKind is the content type of a document.
type DocumentKind string

const (
	DocumentText DocumentKind = "text"
	DocumentCode DocumentKind = "code"
)

// Document is one version. Versions share an ID and differ by CreatedAt.
type Document struct {
	ID        string       `json:"id" db:"id"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	Title     string       `json:"title" db:"title"`
	Kind      DocumentKind `json:"kind" db:"kind"`
	Content   string       `json:"content" db:"content"`
	UserID    string       `json:"userId" db:"user_id"`
}

// Suggestion is a proposed sentence-level edit to a document version.
type Suggestion struct {
	ID                string    `json:"id" db:"id"`
	DocumentID        string    `json:"documentId" db:"document_id"`
	DocumentCreatedAt time.Time `json:"documentCreatedAt" db:"document_created_at"`
	OriginalText      string    `json:"originalText" db:"original_text"`
	SuggestedText     string    `json:"suggestedText" db:"suggested_text"`
	Description       string    `json:"description" db:"description"`
	IsResolved        bool      `json:"isResolved" db:"is_resolved"`
	UserID            string    `json:"userId" db:"user_id"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}
