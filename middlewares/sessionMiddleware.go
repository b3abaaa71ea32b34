package middlewares

import (
	"net/http"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the token header into the logged-in user and
// stamps the principal (user id, name, company, admin flag) onto the request
// context. Requests without a token pass through untouched; the dispatch
// layer still lifts CompanyID/CurrentUserID from the envelope parameters.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)

		user := models.User{}
		found, err := config.GetRedisObject("UserAccount:"+username, &user)
		if err != nil || !found {
			if dbUser, dbErr := models.GetUserByUsername(ctx, username); dbErr == nil {
				user = *dbUser
			}
		}
		if user.ID > 0 {
			ctx = utils.SetUserIdInContext(ctx, user.ID)
			ctx = utils.SetUserNameInContext(ctx, user.Username)
			ctx = utils.SetCompanyIdInContext(ctx, user.CompanyId)
			ctx = utils.SetIsAdminInContext(ctx, user.IsAdmin())
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
