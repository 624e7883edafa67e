package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"safewarner/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusModeSet  = "mode_set"
	statusExported = "exported"

	errGetStatus       = "failed to load session status"
	errGetSnapshot     = "failed to load session snapshot"
	errExport          = "failed to export session"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include current session state if available
// (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.Status(ctx)
	if err == nil {
		resp["session"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for switching modes.
type modeRequest struct {
	Mode string `json:"mode" binding:"required"` // AUTO | MANUAL
}

// SetModeRequest is an exported model for Swagger docs of the setMode payload.
type SetModeRequest struct {
	// Mode to set. Allowed: AUTO, MANUAL
	Mode string `json:"mode" example:"AUTO"`
}

// Request DTO for session export.
type exportRequest struct {
	Format string `json:"format" binding:"required"` // json | pdf | xlsx
}

// ExportRequest is an exported model for Swagger docs of the export payload.
type ExportRequest struct {
	// Report format. Allowed: json, pdf, xlsx
	Format string `json:"format" example:"json"`
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

// @Summary      Get live session status
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/session/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.Status(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "session_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get session snapshot
// @Description  Full ledger view: alerts, exercises and per-kind stats since session start.
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/session/snapshot [get]
// @Security     BearerAuth
func (h *Handler) getSnapshot(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.services.Monitoring.Snapshot(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSnapshot, "session_snapshot_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Set monitoring mode
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body   SetModeRequest  true  "Mode payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/session/mode [post]
// @Security     BearerAuth
func (h *Handler) setMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Monitoring.SetMode(req.Mode); err != nil {
		if h.log != nil {
			h.log.Errorw("session_set_mode_failed", "err", err, "mode", req.Mode)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondWithStatusAndState(c, statusModeSet, gin.H{"mode": req.Mode})
}

// @Summary      Export session report
// @Description  Writes a timestamped report file (json, pdf or xlsx) and returns its path.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body   ExportRequest  true  "Export payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/session/export [post]
// @Security     BearerAuth
func (h *Handler) exportSession(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	path, err := h.services.Exporter.Export(c.Request.Context(), req.Format)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errExport, "session_export_failed", err, "format", req.Format)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusExported, "path": path})
}

// @Summary      Start eye exercise
// @Tags         exercise
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/exercise/start [post]
// @Security     BearerAuth
func (h *Handler) startExercise(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Monitoring.StartExercise(ctx); err != nil {
		if errors.Is(err, service.ErrExerciseActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to start exercise", "exercise_start_failed", err)
		return
	}
	h.respondWithStatusAndState(c, "exercise_started", gin.H{})
}

// @Summary      Cancel eye exercise
// @Tags         exercise
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/exercise/cancel [post]
// @Security     BearerAuth
func (h *Handler) cancelExercise(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Exercise.Cancel(ctx); err != nil {
		if errors.Is(err, service.ErrNoActiveExercise) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to cancel exercise", "exercise_cancel_failed", err)
		return
	}
	h.respondWithStatusAndState(c, "exercise_cancelled", gin.H{})
}

// @Summary      Get eye exercise status
// @Tags         exercise
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "active, exercise"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/exercise/status [get]
// @Security     BearerAuth
func (h *Handler) getExerciseStatus(c *gin.Context) {
	st := h.services.Exercise.Status()
	c.JSON(http.StatusOK, gin.H{
		"active":   st != nil,
		"exercise": st,
	})
}
