package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine. admin may be nil, in which case the admin
// panel is not mounted.
func NewRouter(h *Handler, admin *Admin, sessionSecret []byte) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery())

	api := r.Group("/", h.APIGate())
	{
		api.GET("/", h.Dispatch)
		api.HEAD("/", h.Dispatch)
		api.OPTIONS("/", h.Dispatch)
	}

	if admin != nil {
		store := cookie.NewStore(sessionSecret)
		store.Options(sessions.Options{
			Path:     "/admin",
			MaxAge:   12 * 3600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		panel := r.Group("/admin", sessions.Sessions("headless_admin", store))
		{
			panel.GET("/login", admin.GithubLogin)
			panel.GET("/auth/callback", admin.AuthCallback)
			panel.GET("/logout", admin.Logout)

			authorized := panel.Group("/", admin.AuthRequired)
			authorized.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/api/settings") })
			authorized.GET("/api/settings", admin.GetSettings)
			authorized.POST("/api/settings", admin.UpdateSettings)
		}
	}
	return r
}
