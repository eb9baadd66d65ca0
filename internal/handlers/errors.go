package handlers

import (
	"github.com/gin-gonic/gin"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondText sends a plain-text response and attaches the error to the gin
// context for the request log. The webhook caller is a Salesforce Flow HTTP
// callout that expects text bodies, not JSON.
func respondText(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.String(status, message)
}
