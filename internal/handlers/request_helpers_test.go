package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"habitta/internal/logging"
)

func TestHealth(t *testing.T) {
	var pingErr error
	r := gin.New()
	r.GET("/api/health", Health(func(context.Context) error { return pingErr }))

	w := doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])

	pingErr = errors.New("no reachable servers")
	w = doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandlePanicReturns500(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		defer handlePanic(c, "GET /boom")
		panic("kaboom")
	})

	w := doJSON(t, r, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandlerLogsFollowLoggingSetup(t *testing.T) {
	prevLogger, prevLevel := zlog.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		zlog.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "info", "json")

	r := gin.New()
	r.GET("/missing", func(c *gin.Context) {
		respondWithError(c, http.StatusNotFound, "GET /missing", "order not found")
	})
	r.POST("/login", func(c *gin.Context) {
		authLog().Warn().Msg("invalid credentials")
		c.Status(http.StatusUnauthorized)
	})

	doJSON(t, r, http.MethodGet, "/missing", "", nil)
	doJSON(t, r, http.MethodPost, "/login", "", nil)

	out := buf.String()
	assert.Contains(t, out, `"component":"API"`)
	assert.Contains(t, out, `"message":"order not found"`)
	assert.Contains(t, out, `"component":"AUTH"`)
	assert.Contains(t, out, `"message":"invalid credentials"`)
}
