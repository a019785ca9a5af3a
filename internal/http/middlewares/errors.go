package middlewares

import "github.com/gin-gonic/gin"

func abortWithError(c *gin.Context, status int, code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	id, _ := reqID.(string)

	c.AbortWithStatusJSON(status, gin.H{
		"error":     message,
		"code":      code,
		"requestId": id,
	})
}
