package api

import "github.com/gin-gonic/gin"

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func respondSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
	})
}

func respondValidationError(c *gin.Context, status int, message string, errors any) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Errors:  errors,
	})
}
