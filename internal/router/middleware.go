package router

import (
	"context"
	"net/http"

	"survey-go/internal/handlers"
	"survey-go/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminLookup interface {
	GetAdminByID(ctx context.Context, id uint) (*models.AdminUser, error)
}

// AdminLoaderMiddleware checks for an adminID in the session.
// If found, it loads the admin from the database and adds it to the context,
// so sessions of deleted accounts stop working.
func AdminLoaderMiddleware(log *zap.Logger, admins AdminLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		adminID, ok := session.Get(handlers.AdminSessionKey).(uint)
		if !ok {
			c.Next()
			return
		}

		admin, err := admins.GetAdminByID(c.Request.Context(), adminID)
		if err != nil {
			log.Info("Dropping session of unknown admin", zap.Uint("adminID", adminID), zap.Error(err))
			session.Delete(handlers.AdminSessionKey)
			_ = session.Save()
			c.Next()
			return
		}

		c.Set(handlers.AdminContextKey, admin)
		c.Next()
	}
}

// AuthRequired checks that a valid admin was loaded into the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(handlers.AdminContextKey); !exists {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
