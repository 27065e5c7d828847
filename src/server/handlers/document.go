package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elee1766/finchat/src/server/middleware"
	"github.com/elee1766/finchat/src/server/response"
	"github.com/elee1766/finchat/src/storage"
)

var errDocumentNotFound = errors.New("document not found")

type DocumentHandler struct {
	db  *sql.DB
	log *slog.Logger
}

func NewDocumentHandler(db *sql.DB, log *slog.Logger) *DocumentHandler {
	return &DocumentHandler{db: db, log: log.With("handler", "document")}
}

type documentURI struct {
	ID string `uri:"id" binding:"required"`
}

// GetDocument handles GET /document/:id and returns every version, oldest
// first.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	var uri documentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	docs, err := h.ownedVersions(c, uri.ID)
	if err != nil {
		return
	}
	response.RespondOK(c, docs)
}

type suggestionsQuery struct {
	DocumentID string `form:"documentId" binding:"required"`
}

// ListSuggestions handles GET /suggestions?documentId=.
func (h *DocumentHandler) ListSuggestions(c *gin.Context) {
	var q suggestionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, err)
		return
	}
	if _, err := h.ownedVersions(c, q.DocumentID); err != nil {
		return
	}
	suggestions, err := storage.GetSuggestionsByDocumentID(c.Request.Context(), h.db, q.DocumentID)
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to load suggestions: %w", err))
		response.RespondError(c, http.StatusInternalServerError, response.CodeInternal, errors.New("internal error"))
		return
	}
	if suggestions == nil {
		suggestions = []storage.Suggestion{}
	}
	response.RespondOK(c, suggestions)
}

// ownedVersions loads the versions of a document owned by the caller. Any
// failure has been written to c when err is non-nil.
func (h *DocumentHandler) ownedVersions(c *gin.Context, id string) ([]storage.Document, error) {
	docs, err := storage.GetDocumentsByID(c.Request.Context(), h.db, id)
	if err != nil {
		err = fmt.Errorf("failed to load document: %w", err)
		_ = c.Error(err)
		response.RespondError(c, http.StatusInternalServerError, response.CodeInternal, errors.New("internal error"))
		return nil, err
	}
	if len(docs) == 0 || docs[0].UserID != middleware.UserID(c) {
		response.RespondError(c, http.StatusNotFound, response.CodeNotFound, errDocumentNotFound)
		return nil, errDocumentNotFound
	}
	return docs, nil
}
