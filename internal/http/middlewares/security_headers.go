package middlewares

import (
	"github.com/gin-gonic/gin"
)

// The API serves JSON only, so nothing it returns may be framed or run.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders sets the response headers every API reply carries. With
// hsts set, browsers are told to keep using HTTPS; leave it off for local
// plain-HTTP development. Handlers that support revalidation override
// Cache-Control.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", apiCSP)
		h.Set("Cache-Control", "no-store")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
