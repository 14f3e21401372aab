package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects writes whose body is not JSON. Bodiless writes such as
// POST /timer/stop pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !carriesBody(c.Request.Method) || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		// accepts parameters such as "; charset=utf-8"
		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}

		c.Next()
	}
}
