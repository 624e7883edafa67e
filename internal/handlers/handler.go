package handlers

import (
	"safewarner/internal/logger"
	"safewarner/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
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
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live session stream (HTTP upgrade) on the same port
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
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerSessionRoutes(api)
		h.registerExerciseRoutes(api)
		h.registerPrefsRoutes(api)
	}
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	session := api.Group("/session")
	{
		session.GET("/status", h.getStatus)
		session.GET("/snapshot", h.getSnapshot)
		session.GET("/alerts", h.getAlerts)
		// Body example: {"mode":"AUTO"}
		session.POST("/mode", h.setMode)
		// Body example: {"format":"json"}
		session.POST("/export", h.exportSession)
	}
}

func (h *Handler) registerExerciseRoutes(api *gin.RouterGroup) {
	exercise := api.Group("/exercise")
	{
		exercise.POST("/start", h.startExercise)
		exercise.POST("/cancel", h.cancelExercise)
		exercise.GET("/status", h.getExerciseStatus)
	}
}

func (h *Handler) registerPrefsRoutes(api *gin.RouterGroup) {
	prefs := api.Group("/prefs")
	{
		prefs.GET("/", h.getPrefs)
		prefs.PUT("/", h.setPrefs)
	}
}
