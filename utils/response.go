package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONErrorDetail is JSONError with the underlying cause attached.
func JSONErrorDetail(c *gin.Context, code int, message string, err error) {
	body := gin.H{"success": false, "error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	c.JSON(code, body)
}
