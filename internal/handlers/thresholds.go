package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartgarden/internal/models"
)

const errSaveThresholds = "failed to save thresholds"

type thresholdRequest struct {
	MinSoilMoisture        float64 `json:"minSoilMoisture"`
	MaxPumpDurationSeconds int     `json:"maxPumpDurationSeconds"`
	IsActive               bool    `json:"isActive"`
}

// @Summary      Automation thresholds
// @Description  Returns the threshold config. When the backend is unreachable the cached values are returned and 'stale' is true.
// @Tags         thresholds
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "thresholds, stale"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/thresholds [get]
// @Security     BearerAuth
func (h *Handler) getThresholds(c *gin.Context) {
	cfg, err := h.services.Thresholds.Load(c.Request.Context())
	if err != nil && h.log != nil {
		h.log.Warnw("thresholds_load_failed", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"thresholds": cfg,
		"stale":      err != nil,
	})
}

// @Summary      Save automation thresholds
// @Description  Values outside their valid ranges are clamped, not rejected.
// @Tags         thresholds
// @Accept       json
// @Produce      json
// @Param        input  body      thresholdRequest  true  "threshold config"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /api/v1/thresholds [post]
// @Security     BearerAuth
func (h *Handler) saveThresholds(c *gin.Context) {
	var input thresholdRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	saved, err := h.services.Thresholds.Save(c.Request.Context(), models.ThresholdConfig{
		MinSoilMoisture:        input.MinSoilMoisture,
		MaxPumpDurationSeconds: input.MaxPumpDurationSeconds,
		IsActive:               input.IsActive,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errSaveThresholds, "thresholds_save_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": statusOK, "thresholds": saved})
}
