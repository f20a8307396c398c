// README: AI quote assistant handler.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"scrapmate/internal/ai"
)

type QuoteHandler struct {
	provider ai.QuoteProvider
}

// NewQuoteHandler accepts a nil provider; the endpoint then reports the
// assistant as unavailable instead of failing at startup.
func NewQuoteHandler(provider ai.QuoteProvider) *QuoteHandler {
	return &QuoteHandler{provider: provider}
}

type quoteReq struct {
	Description string `json:"description"`
}

func (h *QuoteHandler) Quote(c *gin.Context) {
	if h.provider == nil {
		writeError(c, http.StatusServiceUnavailable, "quote assistant unavailable")
		return
	}
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Description == "" {
		writeError(c, http.StatusBadRequest, "missing description")
		return
	}
	result, err := h.provider.ParseQuote(c.Request.Context(), req.Description)
	if err != nil {
		log.Printf("quote: %v", err)
		writeError(c, http.StatusBadGateway, "quote assistant failed")
		return
	}
	writeJSON(c, http.StatusOK, result)
}
