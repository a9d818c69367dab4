package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/apperr"
)

// Fail converts any error into the uniform error body
// {statusCode, message, error, path, timestamp}. Errors outside the apperr
// taxonomy are logged and masked as internal errors so store internals
// never leak upward.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	message := err.Error()
	if kind == 0 {
		log.Printf("handler: unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		status = http.StatusInternalServerError
		message = "Internal server error"
	}
	writeError(c, status, message)
}

// BindingFail reports request-shape violations as BadRequest.
func BindingFail(c *gin.Context, err error) {
	writeError(c, http.StatusBadRequest, err.Error())
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"statusCode": status,
		"message":    message,
		"error":      http.StatusText(status),
		"path":       c.Request.URL.Path,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func parseID(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 64)
	return uint(id)
}
