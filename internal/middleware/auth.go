package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/pkg/token"
	"gorm.io/gorm"
)

// AccessTokenCookie and RefreshTokenCookie are part of the operational
// contract with clients; both cookies are HttpOnly, and the refresh cookie
// is path-scoped to the refresh endpoint so the long-lived secret never
// travels on ordinary requests.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Auth is the access guard: it verifies the access token and re-confirms
// the account's current standing, since a token outlives deactivation or
// deletion. The sanitized account lands in the request context.
func Auth(tokens *token.Manager, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerOrCookie(c, AccessTokenCookie)
		if tokenStr == "" {
			abortError(c, apperr.Unauthorized("Missing access token"))
			return
		}

		claims, err := tokens.VerifyAccess(tokenStr)
		if err != nil {
			abortError(c, apperr.Unauthorized("Invalid or expired access token"))
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abortError(c, apperr.Unauthorized("Invalid or expired access token"))
			return
		}

		var user model.User
		if err := db.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortError(c, apperr.Unauthorized("Account no longer exists"))
			} else {
				abortError(c, err)
			}
			return
		}
		if !user.Active {
			abortError(c, apperr.Unauthorized("Account deactivated"))
			return
		}

		c.Set("userID", user.ID)
		c.Set("userEmail", user.Email)
		c.Set("user", user.Public())
		c.Next()
	}
}

func GetCurrentUser(c *gin.Context) model.PublicUser {
	u, _ := c.Get("user")
	user, _ := u.(model.PublicUser)
	return user
}

func GetCurrentUserID(c *gin.Context) uint {
	id, _ := c.Get("userID")
	v, _ := id.(uint)
	return v
}

func GetCurrentUserEmail(c *gin.Context) string {
	e, _ := c.Get("userEmail")
	v, _ := e.(string)
	return v
}

func bearerOrCookie(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == authHeader {
		return ""
	}
	return tokenStr
}

// abortError writes the uniform error body and stops the chain. Errors
// outside the taxonomy are logged and masked.
func abortError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	message := err.Error()
	if kind == 0 {
		log.Printf("middleware: unexpected error: %v", err)
		status = http.StatusInternalServerError
		message = "Internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"statusCode": status,
		"message":    message,
		"error":      http.StatusText(status),
		"path":       c.Request.URL.Path,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
