package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/application/usecase"
	ws "github.com/heartline/heartline/internal/interfaces/websocket"
)

type QuizHandler struct {
	quizzes *usecase.QuizFlowUseCase
	hub     *ws.Hub
	logger  *zap.Logger
}

func NewQuizHandler(quizzes *usecase.QuizFlowUseCase, hub *ws.Hub, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, hub: hub, logger: logger}
}

// Get handles GET /conversations/:id/quiz.
func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.quizzes.Current(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

type submitQuizRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// Submit handles POST /conversations/:id/quiz.
func (h *QuizHandler) Submit(c *gin.Context) {
	var req submitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.quizzes.Submit(c.Request.Context(), c.Param("id"), req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(&ws.Event{
			Type:           ws.EventQuizResult,
			ConversationID: outcome.ConversationID,
			Payload:        outcome,
		})
	}
	c.JSON(http.StatusOK, outcome)
}
