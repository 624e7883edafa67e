package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"safewarner"
)

// Request DTO for updating preferences.
type prefsRequest struct {
	AutoStartEnabled *bool `json:"auto_start_enabled" binding:"required"`
}

// PrefsRequest is an exported model for Swagger docs of the prefs payload.
type PrefsRequest struct {
	// Launch at login and begin monitoring in auto mode.
	AutoStartEnabled bool `json:"auto_start_enabled" example:"true"`
}

// @Summary      Get preferences
// @Tags         prefs
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/prefs [get]
// @Security     BearerAuth
func (h *Handler) getPrefs(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Prefs.Get())
}

// @Summary      Update preferences
// @Description  Persists the settings file and applies the autostart registration.
// @Tags         prefs
// @Accept       json
// @Produce      json
// @Param        body  body   PrefsRequest  true  "Preferences payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/prefs [put]
// @Security     BearerAuth
func (h *Handler) setPrefs(c *gin.Context) {
	var req prefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	p := safewarner.Preferences{AutoStartEnabled: *req.AutoStartEnabled}
	if err := h.services.Prefs.Set(p); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to save preferences", "prefs_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "prefs": p})
}
