package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAccountID(t *testing.T) {
	valid := []string{"acc_1", "acc_0f3a9b2c4d5e6f7a8b9c0d1e", "ABC-123", "a"}
	for _, id := range valid {
		assert.True(t, IsValidAccountID(id), "id %q should be valid", id)
	}

	invalid := []string{"", "has space", "semi;colon", "path/../traversal", strings.Repeat("a", 65)}
	for _, id := range invalid {
		assert.False(t, IsValidAccountID(id), "id %q should be invalid", id)
	}
}

func TestIsSupportedPlatform(t *testing.T) {
	assert.True(t, IsSupportedPlatform("tiktok"))
	assert.True(t, IsSupportedPlatform("Instagram"))
	assert.True(t, IsSupportedPlatform("TWITTER"))
	assert.False(t, IsSupportedPlatform("myspace"))
	assert.False(t, IsSupportedPlatform(""))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 100))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 100))
	assert.Equal(t, "", SanitizeString("   ", 100))
}

func TestAccountIDParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/accounts/:id", AccountIDParamMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/acc_1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/bad%3Bid", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_account_id")
}

func TestRequestSizeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/echo", RequestSizeMiddleware(16), func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body_too_large"})
			return
		}
		c.JSON(http.StatusOK, body)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	big := `{"a":"` + strings.Repeat("x", 64) + `"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(big)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
