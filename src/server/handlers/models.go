package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/server/response"
)

type ModelHandler struct {
	defaultModel string
}

func NewModelHandler(defaultModel string) *ModelHandler {
	if defaultModel == "" {
		defaultModel = aisdk.DefaultModelID
	}
	return &ModelHandler{defaultModel: defaultModel}
}

// List handles GET /models.
func (h *ModelHandler) List(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"models":  aisdk.Models(),
		"default": h.defaultModel,
	})
}
