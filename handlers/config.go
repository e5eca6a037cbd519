package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterPublicConfig serves the client-visible settings. Only the
// payment gateway's publishable key is exposed.
func RegisterPublicConfig(r gin.IRoutes, razorpayKeyID string) {
	r.GET("/api/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"razorpayKeyId": razorpayKeyID})
	})
}
