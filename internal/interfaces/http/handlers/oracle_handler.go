package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heartline/heartline/internal/infrastructure/oracle"
)

// OracleHandler exposes the oracle chain's tier health for debugging which
// backend is actually answering.
type OracleHandler struct {
	chain *oracle.Chain
}

func NewOracleHandler(chain *oracle.Chain) *OracleHandler {
	return &OracleHandler{chain: chain}
}

// Tiers handles GET /oracle/tiers.
func (h *OracleHandler) Tiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": h.chain.ListTiers()})
}
