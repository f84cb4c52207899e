package utils

import (
	"os"

	"github.com/gin-gonic/gin"
)

// Success writes the standard envelope: {success, message?, data?}.
func Success(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// Fail writes the failure envelope: {success:false, message, error}.
// Internal error detail is attached only outside production.
func Fail(c *gin.Context, e *AppError) {
	errBody := gin.H{"code": e.Code}
	if len(e.Fields) > 0 {
		errBody["fields"] = e.Fields
	}
	if e.Err != nil && os.Getenv("GO_ENV") != "production" {
		errBody["detail"] = e.Err.Error()
	}
	c.JSON(e.Status, gin.H{
		"success": false,
		"message": e.Message,
		"error":   errBody,
	})
}
