package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartgarden/internal/models"
	"smartgarden/internal/service"
)

const (
	statusOK = "ok"

	errTogglePump = "failed to send pump command"
	errSetMode    = "failed to change control mode"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for pump commands.
type pumpRequest struct {
	State string `json:"state" binding:"required"` // ON | OFF
}

// Request DTO for control mode changes.
type modeRequest struct {
	Mode string `json:"mode" binding:"required"` // MANUAL | AUTO
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Current device state
// @Description  Reconciled state from push and poll channels plus the transport connection status.
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state, pending"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/device/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	resp := gin.H{
		"status":  h.services.Monitor.Status(),
		"pending": h.services.Commands.Pending(),
	}
	if st, ok := h.services.Monitor.Current(); ok {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Toggle the pump
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        input  body      pumpRequest  true  "target pump state"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      409    {object}  map[string]string  "device in AUTO mode or state unknown"
// @Failure      502    {object}  map[string]string
// @Router       /api/v1/device/pump [post]
// @Security     BearerAuth
func (h *Handler) togglePump(c *gin.Context) {
	var input pumpRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	state := models.PumpState(strings.ToUpper(strings.TrimSpace(input.State)))
	if state != models.PumpOn && state != models.PumpOff {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be ON or OFF"})
		return
	}

	err := h.services.Commands.TogglePump(c.Request.Context(), state == models.PumpOn)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrManualOnly), errors.Is(err, service.ErrStateUnknown):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	default:
		h.logAndJSONError(c, http.StatusBadGateway, errTogglePump, "pump_command_failed", err, "state", state)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": statusOK, "pending": h.services.Commands.Pending()})
}

// @Summary      Change control mode
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        input  body      modeRequest  true  "target mode"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /api/v1/device/mode [post]
// @Security     BearerAuth
func (h *Handler) setMode(c *gin.Context) {
	var input modeRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	mode := models.ControlMode(strings.ToUpper(strings.TrimSpace(input.Mode)))
	if mode != models.ModeManual && mode != models.ModeAuto {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be MANUAL or AUTO"})
		return
	}

	if err := h.services.Commands.SetControlMode(c.Request.Context(), mode); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errSetMode, "mode_command_failed", err, "mode", mode)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": statusOK, "mode": string(mode)})
}

// @Summary      In-flight commands
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, commands"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/device/commands [get]
// @Security     BearerAuth
func (h *Handler) getPendingCommands(c *gin.Context) {
	pending := h.services.Commands.Pending()
	c.JSON(http.StatusOK, gin.H{
		"count":    len(pending),
		"commands": pending,
	})
}
