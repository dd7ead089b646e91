package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// userContextKey is the gin context key the JWT middleware stores the user under
const userContextKey = "user"

// UserContext is the authenticated caller taken from the JWT claims
type UserContext struct {
	UserID     string `json:"user_id"`
	TelegramID int64  `json:"telegram_id,omitempty"`
}

// ActorID returns the caller's user id, or nil when the subject is not a UUID
func (u *UserContext) ActorID() *uuid.UUID {
	if u == nil {
		return nil
	}
	id, err := uuid.Parse(u.UserID)
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

// SetUser stores the authenticated user in the request context
func SetUser(c *gin.Context, user *UserContext) {
	c.Set(userContextKey, user)
}

// GetUserFromContext returns the authenticated user of the request
func GetUserFromContext(c *gin.Context) (*UserContext, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*UserContext)
	return user, ok && user != nil
}

// ActorFromContext returns the acting user id of the request, or nil
func ActorFromContext(c *gin.Context) *uuid.UUID {
	user, ok := GetUserFromContext(c)
	if !ok {
		return nil
	}
	return user.ActorID()
}
