package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/application/usecase"
)

type ConversationHandler struct {
	conversations *usecase.ConversationUseCase
	logger        *zap.Logger
}

func NewConversationHandler(conversations *usecase.ConversationUseCase, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		logger:        logger,
	}
}

// List handles GET /conversations with an optional ?q= substring filter.
func (h *ConversationHandler) List(c *gin.Context) {
	query := c.Query("q")

	var (
		views []usecase.ConversationView
		err   error
	)
	if query != "" {
		views, err = h.conversations.Search(c.Request.Context(), query)
	} else {
		views, err = h.conversations.List(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

// Get handles GET /conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	view, err := h.conversations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type createConversationRequest struct {
	Name               string `json:"name" binding:"required"`
	PersonaDescription string `json:"personaDescription"`
	PersonaSystem      string `json:"personaSystem"`
}

// Create handles POST /conversations. Re-creating an existing contact by
// name returns the existing row with 200 instead of 201.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, created, err := h.conversations.Create(
		c.Request.Context(), req.Name, req.PersonaDescription, req.PersonaSystem)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, view)
}

// Reset handles POST /conversations/:id/reset.
func (h *ConversationHandler) Reset(c *gin.Context) {
	view, err := h.conversations.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("Conversation reset via API", zap.String("conversation_id", view.ID))
	c.JSON(http.StatusOK, view)
}

// Next handles GET /conversations/:id/next, the "advance to the next date"
// lookup after a completed conversation.
func (h *ConversationHandler) Next(c *gin.Context) {
	view, err := h.conversations.NextUnlocked(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
