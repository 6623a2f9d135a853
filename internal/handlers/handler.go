package handlers

import (
	"smartgarden/internal/logger"
	"smartgarden/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// State push over WebSocket (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorIdMiddleware)
	{
		h.registerDeviceRoutes(api)
		h.registerHistoryRoutes(api)
		h.registerThresholdRoutes(api)
		h.registerTelemetryRoutes(api)
		h.registerAssistantRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.GET("/state", h.getState)
		// Body example: {"state":"ON"}
		device.POST("/pump", h.togglePump)
		// Body example: {"mode":"AUTO"}
		device.POST("/mode", h.setMode)
		device.GET("/commands", h.getPendingCommands)
	}
}

func (h *Handler) registerHistoryRoutes(api *gin.RouterGroup) {
	history := api.Group("/history")
	{
		history.GET("/", h.getHistory)
		history.POST("/preset", h.setHistoryPreset)
	}
}

func (h *Handler) registerThresholdRoutes(api *gin.RouterGroup) {
	thresholds := api.Group("/thresholds")
	{
		thresholds.GET("/", h.getThresholds)
		thresholds.POST("/", h.saveThresholds)
	}
}

func (h *Handler) registerTelemetryRoutes(api *gin.RouterGroup) {
	telemetry := api.Group("/telemetry")
	{
		telemetry.GET("/", h.getTelemetry)
	}
}

func (h *Handler) registerAssistantRoutes(api *gin.RouterGroup) {
	assistant := api.Group("/assistant")
	{
		assistant.POST("/chat", h.assistantChat)
	}
}
