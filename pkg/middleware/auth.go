package middleware

import (
	"earnplay-core/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const accountIDKey = "account_id"

// Auth resolves the caller's account id. Authentication itself is an
// external collaborator; the gateway forwards the verified identity in
// X-Account-ID.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetHeader("X-Account-ID")
		if accountID == "" {
			be := errutil.BaseError{
				Code:    errutil.StatusUnauthorized,
				Message: "missing account identity",
			}
			c.AbortWithStatusJSON(be.Code.HTTPStatus(), be.JSON())
			return
		}

		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

// AccountID returns the authenticated account id set by Auth.
func AccountID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}
