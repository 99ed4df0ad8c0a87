package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"habitta/internal/config"
	"habitta/internal/logging"
)

// Loggers are built per call so they pick up the writer installed by logging.Setup.
func apiLog() *zerolog.Logger {
	l := logging.Component("API")
	return &l
}

func authLog() *zerolog.Logger {
	l := logging.Component("AUTH")
	return &l
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		apiLog().Error().Str("route", route).Interface("panic", r).Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	event := apiLog().Warn()
	if status >= http.StatusInternalServerError {
		event = apiLog().Error()
	}
	event.Str("route", route).Int("status", status).Msg(message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// requestContext bounds store calls made on behalf of a request.
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := config.AppEnv.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// Health reports whether the database answers a ping.
func Health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/health"
		defer handlePanic(c, route)

		if err := ping(c.Request.Context()); err != nil {
			apiLog().Error().Err(err).Msg("health check failed")
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
