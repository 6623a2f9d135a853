package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartgarden/internal/service"
)

const errQueryHistory = "failed to load history"

type presetRequest struct {
	Preset string `json:"preset" binding:"required"` // 1h | 6h | 24h | 7d
}

// @Summary      Sensor history
// @Description  Samples and per-metric series for a preset window. Omitting 'preset' uses the active one.
// @Tags         history
// @Produce      json
// @Param        preset  query     string  false  "Range preset"  Enums(1h,6h,24h,7d)
// @Success      200     {object}  service.HistoryResult
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      502     {object}  map[string]string
// @Router       /api/v1/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	preset := service.RangePreset(c.Query("preset"))
	if preset == "" {
		preset = h.services.History.Preset()
	}

	res, err := h.services.History.Query(c.Request.Context(), preset)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnknownPreset):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		h.logAndJSONError(c, http.StatusBadGateway, errQueryHistory, "history_query_failed", err, "preset", preset)
		return
	}

	c.JSON(http.StatusOK, res)
}

// @Summary      Switch the active history preset
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        input  body      presetRequest  true  "preset"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /api/v1/history/preset [post]
// @Security     BearerAuth
func (h *Handler) setHistoryPreset(c *gin.Context) {
	var input presetRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	if err := h.services.History.SetPreset(service.RangePreset(input.Preset)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": statusOK, "preset": input.Preset})
}
