package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/pkg/hash"
	"github.com/trackboard/backend/pkg/token"
	"gorm.io/gorm"
)

// Refresh is the refresh guard. Two layers, both required: the signature
// under the refresh secret, and a match against the hash stored on the
// account. The second layer is what makes rotation real: after a rotation
// the previous token still verifies cryptographically but no longer matches
// the stored hash. Every failure path returns the same body so a caller
// cannot tell which check failed.
func Refresh(tokens *token.Manager, db *gorm.DB) gin.HandlerFunc {
	reject := func(c *gin.Context) {
		abortError(c, apperr.Unauthorized("Invalid refresh token"))
	}

	return func(c *gin.Context) {
		tokenStr := bearerOrCookie(c, RefreshTokenCookie)
		if tokenStr == "" {
			reject(c)
			return
		}

		claims, err := tokens.VerifyRefresh(tokenStr)
		if err != nil {
			reject(c)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			reject(c)
			return
		}

		var user model.User
		if err := db.First(&user, userID).Error; err != nil {
			reject(c)
			return
		}
		// A missing hash means the session was logged out; even a
		// structurally valid, unexpired token is rejected then.
		if !user.Active || user.RefreshHash == nil {
			reject(c)
			return
		}
		if !hash.CompareToken(*user.RefreshHash, tokenStr) {
			reject(c)
			return
		}

		c.Set("userID", user.ID)
		c.Set("userEmail", user.Email)
		c.Set("user", user.Public())
		c.Next()
	}
}
