package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Reads the timer UI polls (the entry list, the running timer and the
// client, project and task pages) answer with an ETag so an unchanged
// payload costs a 304. Bodies are per user, so shared caches must not keep
// them.
const etagCacheControl = "private, no-cache"

// RespondJSONWithETag marshals payload once, tags it with a strong ETag of
// the body and answers 304 when If-None-Match already holds that tag.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	etag := etagFor(body)
	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", etagCacheControl)

	if status == http.StatusOK && ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

func etagFor(body []byte) string {
	sum := sha256.Sum256(body)
	// 16 bytes is plenty to tell two versions of one user's view apart
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// ifNoneMatchMatches applies the weak comparison If-None-Match calls for.
func ifNoneMatchMatches(headerValue, currentETag string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || currentETag == "" {
		return false
	}

	if headerValue == "*" {
		return true
	}

	current := opaqueTag(currentETag)

	for _, part := range strings.Split(headerValue, ",") {
		if opaqueTag(part) == current {
			return true
		}
	}

	return false
}

func opaqueTag(raw string) string {
	v := strings.TrimSpace(raw)
	return strings.TrimPrefix(v, "W/")
}
