package presenter

import "github.com/gin-gonic/gin"

// Envelope is the uniform body of every response, success or failure.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OK writes a successful envelope.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Status: true, Message: message, Data: data})
}

// Fail writes a failed envelope with null data and aborts the chain.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Status: false, Message: message, Data: nil})
}
