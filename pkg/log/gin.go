package log

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// GinMiddleware tags each request with a request id and a child logger, and
// logs the request once it completes. Server errors log at error level and
// client errors at warn. Paths in quiet (health checks, scrapes) log at
// debug. Websocket upgrades are logged when the channel ends, so their
// latency is the channel's lifetime.
func GinMiddleware(logger zerolog.Logger, quiet ...string) gin.HandlerFunc {
	quietPaths := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		upgrade := strings.EqualFold(c.GetHeader("Upgrade"), "websocket")

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		status := c.Writer.Status()
		var evt *zerolog.Event
		switch _, isQuiet := quietPaths[c.FullPath()]; {
		case status >= http.StatusInternalServerError:
			evt = child.Error()
		case status >= http.StatusBadRequest:
			evt = child.Warn()
		case isQuiet:
			evt = child.Debug()
		default:
			evt = child.Info()
		}

		evt = evt.Int(FieldStatus, status).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds()))
		if upgrade {
			evt = evt.Bool(FieldWebSocket, true)
		}
		// Set by the auth middleware or the websocket handler.
		if userID := c.GetString(FieldUserID); userID != "" {
			evt = evt.Str(FieldUserID, userID)
		}

		evt.Msg("request completed")
	}
}
