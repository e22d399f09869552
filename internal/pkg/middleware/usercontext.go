package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bragfeed/bragfeed/app/models"
	"github.com/bragfeed/bragfeed/internal/pkg/database"
	"github.com/bragfeed/bragfeed/internal/pkg/session"
	"github.com/bragfeed/bragfeed/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Get session with error handling
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		// On error: set as anonymous user
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	// Get user ID from session
	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		// Anonymous user - no session data
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	uid, ok := userID.(uint)
	if !ok {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)

	userCtx := usercontext.UserContext{
		UserID:     uid,
		Username:   username,
		IsLoggedIn: true,
	}

	// Subscription state lives on the user row and can change out of band
	// via webhooks, so it is read fresh rather than cached in the session.
	if db := database.GetDB(); db != nil {
		var user models.User
		if err := db.Select("role", "has_active_subscription").First(&user, uid).Error; err == nil {
			userCtx.IsAdmin = user.Role == models.ROLE_ADMIN
			userCtx.HasActiveSubscription = user.HasActiveSubscription
		}
	}

	c.Locals("USER_CONTEXT", userCtx)
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, uid)
	c.Locals(usercontext.KeyUsername, username)

	return c.Next()
}
