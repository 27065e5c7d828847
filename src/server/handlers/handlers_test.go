package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/findata"
	"github.com/elee1766/finchat/src/server/middleware"
	"github.com/elee1766/finchat/src/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	discard = slog.New(slog.DiscardHandler)
	tokens  = middleware.NewTokens("test-secret", time.Hour)
)

type fixture struct {
	db     *storage.DB
	engine *gin.Engine
}

// newFixture mounts handlers on an engine behind the real auth middleware.
func newFixture(t *testing.T, mount func(db *storage.DB, r gin.IRoutes)) *fixture {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := gin.New()
	g := r.Group("/", middleware.RequireAuth(tokens, discard))
	mount(db, g)
	return &fixture{db: db, engine: r}
}

func (f *fixture) do(t *testing.T, method, target, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	signed, _, err := tokens.Issue(user)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

// fakeStreamer answers Prepare with err, or streams events.
type fakeStreamer struct {
	err    error
	events []executor.Event
	got    executor.ChatRequest
}

func (f *fakeStreamer) Prepare(ctx context.Context, req executor.ChatRequest) (*executor.Turn, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &executor.Turn{Chat: &storage.Chat{ID: req.ID}, UserID: req.UserID}, nil
}

func (f *fakeStreamer) Stream(ctx context.Context, turn *executor.Turn, sink executor.EventSink) error {
	for _, ev := range f.events {
		if err := sink.Send(ev); err != nil {
			return err
		}
	}
	if err := sink.Flush(); err != nil {
		return err
	}
	return sink.Close()
}

func TestChatStreamsFrames(t *testing.T) {
	streamer := &fakeStreamer{events: []executor.Event{
		executor.UserMessageID{ID: "m1"},
		executor.TextDelta{Delta: "AAPL is "},
		executor.TextDelta{Delta: "up."},
		executor.MessageAnnotation{MessageIDFromServer: "m2"},
	}}
	f := newFixture(t, func(db *storage.DB, r gin.IRoutes) {
		r.POST("/chat", NewChatHandler(db.DB(), streamer, discard).Chat)
	})

	rec := f.do(t, http.MethodPost, "/chat", "user-1", map[string]any{
		"id":           uuid.New().String(),
		"modelId":      "gpt-4o-mini",
		"openaiApiKey": "sk-user",
		"messages":     []map[string]any{{"role": "user", "content": "price of AAPL"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Equal(t, "user-1", streamer.got.UserID)
	assert.Equal(t, "sk-user", streamer.got.OpenAI)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	var got []executor.Event
	for _, line := range lines {
		ev, err := executor.ParseFrame([]byte(line))
		require.NoError(t, err)
		got = append(got, ev)
	}
	assert.Equal(t, streamer.events, got)
}

func TestChatRejections(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", executor.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"unknown model", &executor.ConfigError{Status: http.StatusNotFound, Code: executor.CodeModelNotFound, Message: "Model not found"}, http.StatusNotFound, executor.CodeModelNotFound},
		{"free tier", &executor.ConfigError{Status: http.StatusBadRequest, Code: executor.CodeFreeTierExhausted, Message: "used up"}, http.StatusBadRequest, executor.CodeFreeTierExhausted},
		{"storage", errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streamer := &fakeStreamer{err: tt.err}
			f := newFixture(t, func(db *storage.DB, r gin.IRoutes) {
				r.POST("/chat", NewChatHandler(db.DB(), streamer, discard).Chat)
			})
			rec := f.do(t, http.MethodPost, "/chat", "user-1", map[string]any{"modelId": "gpt-4o-mini"})
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
			assert.NotContains(t, rec.Body.String(), "disk full")
		})
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	f := newFixture(t, func(db *storage.DB, r gin.IRoutes) {
		r.POST("/chat", NewChatHandler(db.DB(), &fakeStreamer{}, discard).Chat)
	})
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	signed, _, _ := tokens.Issue("user-1")
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func mountChats(db *storage.DB, r gin.IRoutes) {
	h := NewChatHandler(db.DB(), &fakeStreamer{}, discard)
	r.DELETE("/chat", h.DeleteChat)
	r.GET("/chat/history", h.History)
	r.GET("/chat/:id", h.GetChat)
	r.PATCH("/chat/:id/visibility", h.UpdateVisibility)
	r.DELETE("/chat/:id/messages", h.DeleteTrailingMessages)
	r.GET("/messages/count", h.CountMessages)
}

func seedChat(t *testing.T, db *storage.DB, userID string, texts ...string) (*storage.Chat, []storage.Message) {
	t.Helper()
	ctx := context.Background()
	chat := &storage.Chat{ID: uuid.New().String(), UserID: userID, Title: "Markets"}
	require.NoError(t, storage.SaveChat(ctx, db.DB(), chat))
	var msgs []storage.Message
	for i, text := range texts {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		content, _ := json.Marshal(text)
		msgs = append(msgs, storage.Message{ChatID: chat.ID, Role: role, Content: content, Provider: "openai"})
	}
	require.NoError(t, storage.SaveMessages(ctx, db.DB(), msgs))
	return chat, msgs
}

func TestHistoryAndGetChat(t *testing.T) {
	f := newFixture(t, mountChats)
	chat, _ := seedChat(t, f.db, "user-1", "hi", "hello")
	seedChat(t, f.db, "user-2", "other")

	rec := f.do(t, http.MethodGet, "/chat/history", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var chats []storage.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, chat.ID, chats[0].ID)

	rec = f.do(t, http.MethodGet, "/chat/"+chat.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		ID       string            `json:"id"`
		Messages []storage.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, chat.ID, got.ID)
	assert.Len(t, got.Messages, 2)

	// private chats are hidden from everyone else
	rec = f.do(t, http.MethodGet, "/chat/"+chat.ID, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/chat/not-a-uuid", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/chat/"+uuid.New().String(), "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateVisibility(t *testing.T) {
	f := newFixture(t, mountChats)
	chat, _ := seedChat(t, f.db, "user-1", "hi")

	rec := f.do(t, http.MethodPatch, "/chat/"+chat.ID+"/visibility", "user-2", map[string]string{"visibility": "public"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPatch, "/chat/"+chat.ID+"/visibility", "user-1", map[string]string{"visibility": "secret"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, "/chat/"+chat.ID+"/visibility", "user-1", map[string]string{"visibility": "public"})
	require.Equal(t, http.StatusOK, rec.Code)

	// now readable by others
	rec = f.do(t, http.MethodGet, "/chat/"+chat.ID, "user-2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteChat(t *testing.T) {
	f := newFixture(t, mountChats)
	chat, _ := seedChat(t, f.db, "user-1", "hi", "hello")

	tests := []struct {
		name   string
		target string
		user   string
		status int
	}{
		{"missing id", "/chat", "user-1", http.StatusNotFound},
		{"malformed id", "/chat?id=nope", "user-1", http.StatusBadRequest},
		{"unknown", "/chat?id=" + uuid.New().String(), "user-1", http.StatusNotFound},
		{"not owner", "/chat?id=" + chat.ID, "user-2", http.StatusUnauthorized},
		{"owner", "/chat?id=" + chat.ID, "user-1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodDelete, tt.target, tt.user, nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	got, err := storage.GetChatByID(context.Background(), f.db.DB(), chat.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteTrailingMessages(t *testing.T) {
	f := newFixture(t, mountChats)
	chat, msgs := seedChat(t, f.db, "user-1", "q1", "a1", "q2", "a2")

	rec := f.do(t, http.MethodDelete, "/chat/"+chat.ID+"/messages", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/chat/"+chat.ID+"/messages?after="+msgs[2].ID, "user-2", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodDelete, "/chat/"+chat.ID+"/messages?after="+msgs[2].ID, "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())

	left, err := storage.GetMessagesByChatID(context.Background(), f.db.DB(), chat.ID)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, msgs[1].ID, left[1].ID)
}

func TestCountMessages(t *testing.T) {
	f := newFixture(t, mountChats)
	seedChat(t, f.db, "user-1", "q1", "a1", "q2")
	seedChat(t, f.db, "user-1", "q3")

	rec := f.do(t, http.MethodGet, "/messages/count", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/messages/count?provider=gemini", "user-1", nil)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())
}

func TestDocumentsAndSuggestions(t *testing.T) {
	f := newFixture(t, func(db *storage.DB, r gin.IRoutes) {
		h := NewDocumentHandler(db.DB(), discard)
		r.GET("/document/:id", h.GetDocument)
		r.GET("/suggestions", h.ListSuggestions)
	})
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Minute)
	v1 := &storage.Document{ID: "doc-1", Title: "Memo", Kind: storage.DocumentText, Content: "v1", UserID: "user-1", CreatedAt: base}
	v2 := &storage.Document{ID: "doc-1", Title: "Memo", Kind: storage.DocumentText, Content: "v2", UserID: "user-1", CreatedAt: base.Add(time.Second)}
	require.NoError(t, storage.SaveDocument(ctx, f.db.DB(), v1))
	require.NoError(t, storage.SaveDocument(ctx, f.db.DB(), v2))
	require.NoError(t, storage.SaveSuggestions(ctx, f.db.DB(), []storage.Suggestion{{
		DocumentID:        "doc-1",
		DocumentCreatedAt: v2.CreatedAt,
		OriginalText:      "v2",
		SuggestedText:     "version two",
		UserID:            "user-1",
	}}))

	rec := f.do(t, http.MethodGet, "/document/doc-1", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []storage.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "v1", docs[0].Content)
	assert.Equal(t, "v2", docs[1].Content)

	rec = f.do(t, http.MethodGet, "/suggestions?documentId=doc-1", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var suggestions []storage.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, "version two", suggestions[0].SuggestedText)

	tests := []struct {
		name   string
		target string
		user   string
		status int
	}{
		{"other user document", "/document/doc-1", "user-2", http.StatusNotFound},
		{"unknown document", "/document/nope", "user-1", http.StatusNotFound},
		{"other user suggestions", "/suggestions?documentId=doc-1", "user-2", http.StatusNotFound},
		{"missing document id", "/suggestions", "user-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, f.do(t, http.MethodGet, tt.target, tt.user, nil).Code)
		})
	}
}

type fakeSnapshots struct {
	calls atomic.Int32
}

func (f *fakeSnapshots) GetPriceSnapshot(ctx context.Context, ticker string) (*findata.PriceSnapshot, error) {
	f.calls.Add(1)
	if ticker == "NOPE" {
		return nil, errors.New("ticker not found")
	}
	return &findata.PriceSnapshot{Ticker: ticker, Price: 100}, nil
}

func TestMarketSnapshots(t *testing.T) {
	fetcher := &fakeSnapshots{}
	cache := findata.NewSnapshotCache(fetcher, time.Minute)
	f := newFixture(t, func(db *storage.DB, r gin.IRoutes) {
		r.GET("/market/snapshots", NewMarketHandler(cache, discard).Snapshots)
	})

	rec := f.do(t, http.MethodGet, "/market/snapshots?tickers=msft,NOPE,aapl,MSFT", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Snapshots []findata.SnapshotResult `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Snapshots, 3)
	assert.Equal(t, "MSFT", body.Snapshots[0].Ticker)
	assert.Equal(t, "NOPE", body.Snapshots[1].Ticker)
	assert.Equal(t, "ticker not found", body.Snapshots[1].Error)
	assert.Nil(t, body.Snapshots[1].Snapshot)
	assert.Equal(t, "AAPL", body.Snapshots[2].Ticker)
	assert.Equal(t, 100.0, body.Snapshots[2].Snapshot.Price)

	// cached
	f.do(t, http.MethodGet, "/market/snapshots?tickers=MSFT,AAPL", "user-1", nil)
	assert.Equal(t, int32(3), fetcher.calls.Load())

	rec = f.do(t, http.MethodGet, "/market/snapshots", "user-1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Snapshots, len(findata.DefaultTickers))

	rec = f.do(t, http.MethodGet, "/market/snapshots?tickers=AAPL,B%40D", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	many := make([]string, 0, maxSnapshotTickers+1)
	for i := 0; i <= maxSnapshotTickers; i++ {
		many = append(many, fmt.Sprintf("T%d", i))
	}
	rec = f.do(t, http.MethodGet, "/market/snapshots?tickers="+strings.Join(many, ","), "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseTickers(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "BRK.B"}, parseTickers(" aapl, brk.b,,AAPL "))
	assert.Nil(t, parseTickers(""))
}

func TestModelsAndHealth(t *testing.T) {
	r := gin.New()
	r.GET("/models", NewModelHandler("").List)
	r.GET("/healthz", NewHealthHandler().HealthCheck)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var models struct {
		Models []struct {
			ID       string `json:"id"`
			Provider string `json:"provider"`
		} `json:"models"`
		Default string `json:"default"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Equal(t, "gpt-4o-mini", models.Default)
	require.Len(t, models.Models, 4)
	assert.Equal(t, "gemini-1.5-pro", models.Models[2].ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Positive(t, health.Goroutines)
}
