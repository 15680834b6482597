package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RefreshSentiment godoc
// @Summary      Refresh the Fear & Greed entry
// @Description  Fetches the index and upserts it into the derived document
// @Tags         sentiment
// @Produce      json
// @Param        X-API-Key  header  string  false  "API key, required when configured"
// @Success      200  {object}  domain.DerivedEntry
// @Failure      503  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/sentiment/refresh [post]
func (h *Handler) RefreshSentiment(c *gin.Context) {
	if h.sentiment == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sentiment refresh disabled"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh-sentiment")
	defer span.End()

	entry, err := h.sentiment.RefreshSentiment(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}
