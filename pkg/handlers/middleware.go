package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"headless-cms/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/morikuni/failure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const apiKeyHeader = "X-API-Key"

// RequestLogger logs one line per request through zerolog.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("api", c.Query("api")).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// APIGate applies the persisted API settings: the on/off switch, CORS
// headers and the shared key check.
func (h *Handler) APIGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := h.Settings.Get()
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !settings.APIEnabled {
			abortWithError(c, failure.New(services.ErrDisabled, failure.Message("API is currently disabled")))
			return
		}

		if settings.CORSEnabled {
			header := c.Writer.Header()
			header.Set("Access-Control-Allow-Origin", "*")
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Content-Type, "+apiKeyHeader)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if settings.RequireAuth {
			key := c.Query("key")
			if key == "" {
				key = c.GetHeader(apiKeyHeader)
			}
			if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(settings.APIKey)) != 1 {
				abortWithError(c, failure.New(services.ErrUnauthorized,
					failure.Message("Unauthorized - invalid or missing API key")))
				return
			}
		}
		c.Next()
	}
}
