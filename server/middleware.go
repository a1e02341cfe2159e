package server

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "unitab_session"
	sessionKey    = "unitab.session"

	// Sessions only scope in-memory uploads, so a long-lived cookie is
	// fine; payloads themselves vanish on restart.
	sessionMaxAge = 7 * 24 * 60 * 60
)

// session ensures every request carries a session UUID cookie and stashes
// the parsed ID in the request context. Uploads and extractions are scoped
// to it.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		var id uuid.UUID

		if raw, err := c.Cookie(sessionCookie); err == nil {
			id, _ = uuid.Parse(raw)
		}

		if id == uuid.Nil {
			id = uuid.New()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id.String(), sessionMaxAge, "/", "", false, true)
		}

		c.Set(sessionKey, id)
		c.Next()
	}
}

// sessionID returns the request's session UUID, set by the session
// middleware.
func sessionID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(sessionKey).(uuid.UUID)

	return id
}

// requestLog logs one structured line per request.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}

// streamLogs tails the service log over a chunked text/plain response until
// the client disconnects.
func (s *Server) streamLogs(c *gin.Context) {
	tap := s.broadcaster.Attach()
	defer tap.Detach()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	done := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case entry, ok := <-tap.C():
			if !ok {
				return false
			}

			_, err := w.Write(entry)

			return err == nil
		case <-done:
			return false
		}
	})
}
