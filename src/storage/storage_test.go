package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newChat(t *testing.T, db *DB, userID string) *Chat {
	t.Helper()
	chat := &Chat{UserID: userID, Title: "AAPL price"}
	require.NoError(t, SaveChat(context.Background(), db.DB(), chat))
	return chat
}

func TestExtractUpMigration(t *testing.T) {
	src := "-- +goose Up\n-- +goose StatementBegin\nCREATE TABLE a (id TEXT);\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\nDROP TABLE a;\n-- +goose StatementEnd\n"
	assert.Equal(t, "CREATE TABLE a (id TEXT);", extractUpMigration(src))
}

func TestOpenAppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	v, err := db.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)

	// a second run is a no-op
	require.NoError(t, db.runMigrations(context.Background()))
}

func TestChatLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	chat := newChat(t, db, "user-1")
	assert.NotEmpty(t, chat.ID)
	assert.Equal(t, VisibilityPrivate, chat.Visibility)

	got, err := GetChatByID(ctx, db.DB(), chat.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAPL price", got.Title)
	assert.Equal(t, "user-1", got.UserID)

	missing, err := GetChatByID(ctx, db.DB(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, UpdateChatVisibility(ctx, db.DB(), chat.ID, VisibilityPublic))
	got, err = GetChatByID(ctx, db.DB(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, got.Visibility)
	assert.Error(t, UpdateChatVisibility(ctx, db.DB(), chat.ID, "friends"))

	newChat(t, db, "user-2")
	chats, err := GetChatsByUserID(ctx, db.DB(), "user-1")
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	require.NoError(t, SaveMessages(ctx, db.DB(), []Message{
		{ChatID: chat.ID, Role: "user", Content: JSONContent(`"hi"`)},
	}))
	require.NoError(t, DeleteChatByID(ctx, db.DB(), chat.ID))

	got, err = GetChatByID(ctx, db.DB(), chat.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	msgs, err := GetMessagesByChatID(ctx, db.DB(), chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMessagesOrderAndContent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	chat := newChat(t, db, "user-1")

	parts := `[{"type":"tool-call","toolCallId":"call_1","toolName":"getCurrentStockPrice","args":{"ticker":"AAPL"}}]`
	batch := []Message{
		{ChatID: chat.ID, Role: "user", Content: JSONContent(`"What is AAPL's price?"`), Provider: "openai"},
		{ChatID: chat.ID, Role: "assistant", Content: JSONContent(parts)},
		{ChatID: chat.ID, Role: "assistant", Content: JSONContent(`"It is $190."`)},
	}
	require.NoError(t, SaveMessages(ctx, db.DB(), batch))
	for _, m := range batch {
		assert.NotEmpty(t, m.ID)
	}

	msgs, err := GetMessagesByChatID(ctx, db.DB(), chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i := range batch {
		assert.Equal(t, batch[i].ID, msgs[i].ID)
	}
	assert.JSONEq(t, parts, string(msgs[1].Content))

	raw, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"content":"What is AAPL's price?"`)
}

func TestSaveMessagesIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	chat := newChat(t, db, "user-1")

	err := SaveMessages(ctx, db.DB(), []Message{
		{ChatID: chat.ID, Role: "user", Content: JSONContent(`"ok"`)},
		{ChatID: chat.ID, Role: "system", Content: JSONContent(`"bad role"`)},
	})
	require.Error(t, err)

	msgs, err := GetMessagesByChatID(ctx, db.DB(), chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteMessagesByChatIDAfter(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	chat := newChat(t, db, "user-1")

	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	batch := []Message{
		{ChatID: chat.ID, Role: "user", Content: JSONContent(`"one"`), CreatedAt: base},
		{ChatID: chat.ID, Role: "assistant", Content: JSONContent(`"two"`), CreatedAt: base.Add(time.Second)},
		{ChatID: chat.ID, Role: "user", Content: JSONContent(`"three"`), CreatedAt: base.Add(2 * time.Second)},
		{ChatID: chat.ID, Role: "assistant", Content: JSONContent(`"four"`), CreatedAt: base.Add(2 * time.Second)},
	}
	require.NoError(t, SaveMessages(ctx, db.DB(), batch))

	n, err := DeleteMessagesByChatIDAfter(ctx, db.DB(), chat.ID, batch[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	msgs, err := GetMessagesByChatID(ctx, db.DB(), chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, batch[0].ID, msgs[0].ID)

	n, err = DeleteMessagesByChatIDAfter(ctx, db.DB(), "other-chat", batch[0].ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountUserMessages(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a := newChat(t, db, "user-1")
	b := newChat(t, db, "user-1")
	other := newChat(t, db, "user-2")

	require.NoError(t, SaveMessages(ctx, db.DB(), []Message{
		{ChatID: a.ID, Role: "user", Content: JSONContent(`"1"`), Provider: "openai"},
		{ChatID: a.ID, Role: "assistant", Content: JSONContent(`"2"`), Provider: "openai"},
		{ChatID: b.ID, Role: "user", Content: JSONContent(`"3"`), Provider: "openai"},
		{ChatID: b.ID, Role: "user", Content: JSONContent(`"4"`), Provider: "claude"},
		{ChatID: other.ID, Role: "user", Content: JSONContent(`"5"`), Provider: "openai"},
	}))

	tests := []struct {
		user, provider string
		want           int
	}{
		{"user-1", "openai", 2},
		{"user-1", "claude", 1},
		{"user-1", "", 3},
		{"user-2", "openai", 1},
		{"user-3", "openai", 0},
	}
	for _, tt := range tests {
		n, err := CountUserMessages(ctx, db.DB(), tt.user, tt.provider)
		require.NoError(t, err)
		assert.Equal(t, tt.want, n, "%s/%s", tt.user, tt.provider)
	}
}

func TestDocumentVersions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	v1 := &Document{Title: "Q3 summary", Kind: DocumentText, Content: "# Q3", UserID: "user-1",
		CreatedAt: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, SaveDocument(ctx, db.DB(), v1))
	v2 := &Document{ID: v1.ID, Title: "Q3 summary", Kind: DocumentText, Content: "# Q3\nRevenue grew.", UserID: "user-1",
		CreatedAt: v1.CreatedAt.Add(time.Minute)}
	require.NoError(t, SaveDocument(ctx, db.DB(), v2))

	latest, err := GetDocumentByID(ctx, db.DB(), v1.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, v2.Content, latest.Content)

	all, err := GetDocumentsByID(ctx, db.DB(), v1.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, v1.Content, all[0].Content)

	missing, err := GetDocumentByID(ctx, db.DB(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetDocumentsByUserID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	memo := &Document{Title: "Memo", Content: "v1", UserID: "user-1", CreatedAt: base}
	require.NoError(t, SaveDocument(ctx, db.DB(), memo))
	script := &Document{Title: "DCF", Kind: DocumentCode, Content: "print(1)", UserID: "user-1", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, SaveDocument(ctx, db.DB(), script))
	require.NoError(t, SaveDocument(ctx, db.DB(), &Document{ID: memo.ID, Title: "Memo", Content: "v2", UserID: "user-1", CreatedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, SaveDocument(ctx, db.DB(), &Document{Title: "Other", Content: "x", UserID: "user-2", CreatedAt: base}))

	docs, err := GetDocumentsByUserID(ctx, db.DB(), "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, memo.ID, docs[0].ID)
	assert.Equal(t, "v2", docs[0].Content)
	assert.Equal(t, script.ID, docs[1].ID)

	none, err := GetDocumentsByUserID(ctx, db.DB(), "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	doc := &Document{Title: "Memo", Content: "Revenue go up.", UserID: "user-1"}
	require.NoError(t, SaveDocument(ctx, db.DB(), doc))

	err := SaveSuggestions(ctx, db.DB(), []Suggestion{
		{DocumentID: doc.ID, DocumentCreatedAt: doc.CreatedAt, OriginalText: "Revenue go up.",
			SuggestedText: "Revenue went up.", Description: "Fix tense", UserID: "user-1"},
		{DocumentID: doc.ID, DocumentCreatedAt: doc.CreatedAt, OriginalText: "Revenue went up.",
			SuggestedText: "Revenue rose 12%.", Description: "Be specific", UserID: "user-1"},
	})
	require.NoError(t, err)

	got, err := GetSuggestionsByDocumentID(ctx, db.DB(), doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].IsResolved)
	assert.Equal(t, "Fix tense", got[0].Description)
	assert.NotEmpty(t, got[0].ID)

	none, err := GetSuggestionsByDocumentID(ctx, db.DB(), "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJSONContentScan(t *testing.T) {
	var c JSONContent
	require.NoError(t, c.Scan(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, string(c))
	require.NoError(t, c.Scan([]byte(`"x"`)))
	assert.Equal(t, `"x"`, string(c))
	assert.Error(t, c.Scan(42))

	_, err := JSONContent(`{bad`).Value()
	assert.Error(t, err)
	v, err := JSONContent(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, `""`, v)
}
