package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Authorization, Content-Type, If-None-Match, X-Request-Id"
	corsExposeHeaders = "ETag, X-Request-Id, Retry-After"
	corsMaxAge        = "600"
)

// CORSMiddleware lets the configured browser origins call the API. "*" in
// allowedOrigins admits any origin. Credentials are never allowed: the API
// authenticates with bearer tokens, not cookies.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false

	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			anyOrigin = true
			continue
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		ctx.Writer.Header().Add("Vary", "Origin")

		_, ok := allowed[origin]
		if ok || anyOrigin {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		preflight := ctx.Request.Method == http.MethodOptions &&
			ctx.GetHeader("Access-Control-Request-Method") != ""
		if !preflight {
			ctx.Next()
			return
		}

		if ok || anyOrigin {
			ctx.Header("Access-Control-Allow-Methods", corsAllowMethods)
			ctx.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			ctx.Header("Access-Control-Max-Age", corsMaxAge)
		}
		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
