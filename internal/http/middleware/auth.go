package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

const currentSessionKey = "currentSession"

// retrieves the *session.Session of the caller (after JWTMiddleware has run).
func GetCurrentSession(c *gin.Context) (*session.Session, bool) {
	s, exists := c.Get(currentSessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := s.(*session.Session)
	return sess, ok
}

// stores sess as the caller's session; used by JWTMiddleware and tests.
func SetCurrentSession(c *gin.Context, sess *session.Session) {
	c.Set(currentSessionKey, sess)
}
