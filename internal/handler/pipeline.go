package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// TriggerPipelineRun godoc
// @Summary      Run the snapshot pipeline
// @Description  Fetches, filters and persists a new snapshot. Without force, a recent successful run is returned as skipped.
// @Tags         pipeline
// @Produce      json
// @Param        force  query  bool  false  "Bypass the run cache"  default(false)
// @Param        X-API-Key  header  string  false  "API key, required when configured"
// @Success      200  {object}  domain.Outcome
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  domain.Outcome
// @Router       /api/pipeline/run [post]
func (h *Handler) TriggerPipelineRun(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-pipeline-run")
	defer span.End()

	force := false
	if v := c.Query("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "force must be a boolean"})
			return
		}
		force = parsed
	}
	span.SetAttributes(attribute.Bool("force", force))

	outcome := h.pipeline.Trigger(ctx, force)
	if !outcome.Success {
		c.JSON(http.StatusBadGateway, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetLastOutcome godoc
// @Summary      Get the last pipeline outcome
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  domain.Outcome
// @Failure      404  {object}  map[string]string
// @Router       /api/pipeline/last [get]
func (h *Handler) GetLastOutcome(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-last-outcome")
	defer span.End()

	last, err := h.pipeline.Last(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pipeline run yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}
