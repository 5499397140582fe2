package auth

import (
	"github.com/gin-gonic/gin"
)

// authFailure is the terminal response for every failed protocol step:
// an explicit authenticated flag plus a human-readable message. Failures
// are per-request, nothing here is fatal to the process.
func authFailure(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, gin.H{
		"message":         message,
		"isAuthenticated": false,
	})
}
