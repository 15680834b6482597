package handler

import (
	"net/http"

	"snapshot-keeper/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type DerivedResponse struct {
	Entries  domain.DerivedList `json:"entries"`
	Revision string             `json:"revision"`
	Size     int                `json:"size"`
}

// GetRawSnapshot godoc
// @Summary      Get the raw market snapshot
// @Description  Returns the last persisted raw snapshot exactly as stored
// @Tags         snapshot
// @Produce      json
// @Success      200  {object}  interface{}
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/snapshot/raw [get]
func (h *Handler) GetRawSnapshot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-raw-snapshot")
	defer span.End()

	doc, err := h.snapshots.Raw(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "raw snapshot not written yet"})
		return
	}

	span.SetAttributes(attribute.String("revision", doc.Revision))
	c.Header("ETag", `"`+doc.Revision+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc.Content)
}

// GetDerivedSnapshot godoc
// @Summary      Get the derived asset list
// @Description  Returns the ranked, bounded asset list together with the sentiment entry
// @Tags         snapshot
// @Produce      json
// @Success      200  {object}  handler.DerivedResponse
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/snapshot/derived [get]
func (h *Handler) GetDerivedSnapshot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-derived-snapshot")
	defer span.End()

	doc, err := h.snapshots.Derived(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "derived snapshot not written yet"})
		return
	}

	c.Header("ETag", `"`+doc.Revision+`"`)
	c.JSON(http.StatusOK, DerivedResponse{
		Entries:  doc.Entries,
		Revision: doc.Revision,
		Size:     len(doc.Entries),
	})
}
