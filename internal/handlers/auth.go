package handlers

import (
	"context"
	"net/http"

	"survey-go/internal/models"
	"survey-go/internal/utils"
	"survey-go/views"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

type AuthHandler struct {
	log   *zap.Logger
	store AdminStore
}

func NewAuthHandler(log *zap.Logger, store AdminStore) *AuthHandler {
	return &AuthHandler{log: log, store: store}
}

func (h *AuthHandler) ShowLoginPage(c *gin.Context) {
	if isLoggedIn(c) {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	renderPage(c, http.StatusOK, "Login", views.Login(contextString(c, CSRFTokenContextKey), "", ""))
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := utils.NormalizeEmail(c.PostForm("email"))
	password := c.PostForm("password")

	admin, err := h.store.GetAdminByEmail(c.Request.Context(), email)
	if err != nil || !admin.CheckPassword(password) {
		h.log.Warn("Failed admin login", zap.String("email", email), zap.String("client_ip", c.ClientIP()))
		renderPage(c, http.StatusUnauthorized, "Login",
			views.Login(contextString(c, CSRFTokenContextKey), email, "Invalid email or password."))
		return
	}

	session := sessions.Default(c)
	session.Set(AdminSessionKey, admin.ID)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to login")
		return
	}
	h.log.Info("Admin logged in", zap.Uint("adminID", admin.ID))
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Failed to logout")
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/login")
}
