package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sfsync/sfsync-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)

	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func webhookAuthRouter(secret string) *gin.Engine {
	router := gin.New()
	router.Use(WebhookAuthMiddleware(secret))
	router.POST("/sync", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func postWithSecret(router *gin.Engine, secret string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync", http.NoBody)
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookAuthMiddleware_DisabledWhenUnconfigured(t *testing.T) {
	router := webhookAuthRouter("")

	w := postWithSecret(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAuthMiddleware_ValidSecret(t *testing.T) {
	router := webhookAuthRouter("hunter2")

	w := postWithSecret(router, "hunter2")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAuthMiddleware_InvalidSecret(t *testing.T) {
	router := webhookAuthRouter("hunter2")

	w := postWithSecret(router, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAuthMiddleware_MissingSecret(t *testing.T) {
	router := webhookAuthRouter("hunter2")

	w := postWithSecret(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
