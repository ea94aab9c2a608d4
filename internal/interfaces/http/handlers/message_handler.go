package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/application/usecase"
	ws "github.com/heartline/heartline/internal/interfaces/websocket"
)

type MessageHandler struct {
	conversations *usecase.ConversationUseCase
	sender        *usecase.SendMessageUseCase
	hub           *ws.Hub
	logger        *zap.Logger
}

func NewMessageHandler(
	conversations *usecase.ConversationUseCase,
	sender *usecase.SendMessageUseCase,
	hub *ws.Hub,
	logger *zap.Logger,
) *MessageHandler {
	return &MessageHandler{
		conversations: conversations,
		sender:        sender,
		hub:           hub,
		logger:        logger,
	}
}

// List handles GET /conversations/:id/messages.
func (h *MessageHandler) List(c *gin.Context) {
	views, err := h.conversations.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// Send handles POST /conversations/:id/messages: the full scored send flow.
// Blocked sends come back as 409 with the blocking reason; a coach hold is a
// 200 with blocked=true and no message persisted.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convID := c.Param("id")
	h.broadcast(&ws.Event{Type: ws.EventTyping, ConversationID: convID})

	result, err := h.sender.Execute(c.Request.Context(), convID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastResult(convID, result)
	c.JSON(http.StatusOK, result)
}

// broadcastResult pushes the send outcome to connected pages. Progress and
// life events are broadcast by the engine listener; here we push the pieces
// only the send flow knows about.
func (h *MessageHandler) broadcastResult(convID string, result *usecase.SendResult) {
	if result.UserMessage != nil {
		h.broadcast(&ws.Event{Type: ws.EventMessage, ConversationID: convID, Payload: result.UserMessage})
	}
	if result.Reply != nil {
		h.broadcast(&ws.Event{Type: ws.EventMessage, ConversationID: convID, Payload: result.Reply})
	}
	if result.Quiz != nil {
		h.broadcast(&ws.Event{Type: ws.EventQuizOpen, ConversationID: convID, Payload: result.Quiz})
	}
	if result.Warning != nil {
		h.broadcast(&ws.Event{Type: ws.EventNarrator, ConversationID: convID, Payload: result.Warning})
	}
}

func (h *MessageHandler) broadcast(event *ws.Event) {
	if h.hub != nil {
		h.hub.Broadcast(event)
	}
}
