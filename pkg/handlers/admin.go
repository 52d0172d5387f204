package handlers

import (
	"headless-cms/pkg/models"
	"headless-cms/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/morikuni/failure"
	"github.com/rs/zerolog/log"
)

// GetSettings shows the API settings including the key.
func (a *Admin) GetSettings(c *gin.Context) {
	settings, err := a.Settings.Get()
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{
		"login":    c.GetString(sessionLogin),
		"settings": settings,
	})
}

// UpdateSettings changes the flags and optionally issues a new key. The old
// key stops working immediately.
func (a *Admin) UpdateSettings(c *gin.Context) {
	var u models.SettingsUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		abortWithError(c, failure.Translate(err, services.ErrInvalidArgument, failure.Message("Invalid JSON")))
		return
	}
	settings, err := a.Settings.Update(u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	log.Info().
		Str("login", c.GetString(sessionLogin)).
		Bool("api_enabled", settings.APIEnabled).
		Bool("require_auth", settings.RequireAuth).
		Bool("cors_enabled", settings.CORSEnabled).
		Bool("key_regenerated", u.RegenerateKey).
		Msg("api settings saved")
	respond(c, gin.H{"settings": settings})
}
