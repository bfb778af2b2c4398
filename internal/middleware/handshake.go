package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/internal/models"
	"github.com/cte-escapes/waiver-backend/internal/session"
	"github.com/cte-escapes/waiver-backend/pkg/response"
)

// ContextSession is the key for the verified session in gin context.
const ContextSession = "waiver_session"

// SessionGetter loads a session by its handshake token.
type SessionGetter interface {
	Get(c *gin.Context, handshake string) (*models.Session, error)
}

// storeAdapter lets the concrete session store satisfy SessionGetter with a
// request-scoped context.
type storeAdapter struct {
	store *session.Store
}

func (a storeAdapter) Get(c *gin.Context, handshake string) (*models.Session, error) {
	return a.store.Get(c.Request.Context(), handshake)
}

// Handshake verifies the bearer handshake for privileged waiver calls. Two
// independent checks run in strict order: the store lookup proves the session
// is still live, then the HMAC recomputation over the public nonce proves the
// token was issued for this nonce. Only when both pass does the handler see
// the session.
func Handshake(store *session.Store, secret string, logger *zap.Logger) gin.HandlerFunc {
	return handshakeWith(storeAdapter{store: store}, secret, logger)
}

func handshakeWith(store SessionGetter, secret string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		sessionID := c.Query("sessionId")
		if sessionID == "" {
			response.Unauthorized(c, "missing session id")
			c.Abort()
			return
		}
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing authorization")
			c.Abort()
			return
		}

		sess, err := store.Get(c, token)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				response.Unauthorized(c, "expired authorization")
				c.Abort()
				return
			}
			logger.Error("session lookup failed", zap.Error(err))
			response.Internal(c, "session store unavailable")
			c.Abort()
			return
		}
		if sess.Handshake == "" {
			// Record without its liveness witness; treat as expired.
			response.Unauthorized(c, "expired authorization")
			c.Abort()
			return
		}

		if !session.VerifyHandshake(secret, sessionID, token) {
			response.Unauthorized(c, "invalid authorization")
			c.Abort()
			return
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// SessionFromContext returns the session stored by the Handshake middleware.
func SessionFromContext(c *gin.Context) *models.Session {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*models.Session)
	return sess
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}
