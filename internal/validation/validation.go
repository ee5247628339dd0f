// Package validation provides input validation middleware for the SocialSeed API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxStringLength is the maximum length for free-text fields (notes, reasons)
const MaxStringLength = 10000

// accountIDRegex validates account ids (idgen prefix form or bare UUID-ish).
var accountIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// supportedPlatforms are the platforms the executor registry knows about.
var supportedPlatforms = map[string]bool{
	"tiktok":    true,
	"instagram": true,
	"twitter":   true,
}

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// AccountIDParamMiddleware rejects requests whose :id URL param is not a
// plausible account id. No-op when the param is absent.
func AccountIDParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id != "" && !IsValidAccountID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_account_id",
				"message": "Account id contains invalid characters",
			})
			return
		}
		c.Next()
	}
}

// IsValidAccountID checks if a string is a plausible account id.
func IsValidAccountID(id string) bool {
	return accountIDRegex.MatchString(id)
}

// IsSupportedPlatform checks if a platform name is known.
func IsSupportedPlatform(name string) bool {
	return supportedPlatforms[strings.ToLower(name)]
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	s = strings.ReplaceAll(s, "\x00", "")
	return s
}
