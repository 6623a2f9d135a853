package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type chatMessage struct {
	Message string `json:"message" binding:"required"`
}

// @Summary      Ask the garden assistant
// @Description  Forwards the question to the AI backend with the current garden state attached. Always answers; backend failures yield a fallback reply.
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        input  body      chatMessage  true  "question"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /api/v1/assistant/chat [post]
// @Security     BearerAuth
func (h *Handler) assistantChat(c *gin.Context) {
	var input chatMessage
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	if strings.TrimSpace(input.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		return
	}

	reply := h.services.Assistant.Ask(c.Request.Context(), input.Message)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
