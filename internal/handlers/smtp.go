package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"survey-go/internal/models"
	"survey-go/internal/repository"
	"survey-go/internal/services"
	"survey-go/internal/utils"
	"survey-go/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SMTPStore interface {
	GetSMTPSettings(ctx context.Context) (*models.SMTPSettings, error)
	SaveSMTPSettings(ctx context.Context, settings *models.SMTPSettings) error
}

type TestMailer interface {
	SendWith(ctx context.Context, settings *models.SMTPSettings, msg services.Message) error
}

type SMTPHandler struct {
	log    *zap.Logger
	store  SMTPStore
	mailer TestMailer
}

func NewSMTPHandler(log *zap.Logger, store SMTPStore, mailer TestMailer) *SMTPHandler {
	return &SMTPHandler{log: log, store: store, mailer: mailer}
}

func (h *SMTPHandler) Show(c *gin.Context) {
	settings, err := h.store.GetSMTPSettings(c.Request.Context())
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.log.Error("Failed to load SMTP settings", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load SMTP settings")
		return
	}
	if settings == nil {
		settings = &models.SMTPSettings{Port: 587, UseTLS: true}
	}
	settings.Password = ""

	adminMail := ""
	if admin, ok := c.Get(AdminContextKey); ok {
		if a, ok := admin.(*models.AdminUser); ok {
			adminMail = a.Email
		}
	}

	renderPage(c, http.StatusOK, "SMTP", views.SMTPPage(views.SMTPPageData{
		CSRFToken: contextString(c, CSRFTokenContextKey),
		Settings:  *settings,
		AdminMail: adminMail,
		Notice:    takeFlash(c, flashNotice),
		Error:     takeFlash(c, flashError),
	}))
}

func (h *SMTPHandler) Save(c *gin.Context) {
	port, err := strconv.Atoi(strings.TrimSpace(c.PostForm("port")))
	if err != nil || port < 1 || port > 65535 {
		redirectWithFlash(c, "/admin/smtp", flashError, "Port must be a number between 1 and 65535.")
		return
	}
	settings := &models.SMTPSettings{
		Host:      strings.TrimSpace(c.PostForm("host")),
		Port:      port,
		Username:  strings.TrimSpace(c.PostForm("username")),
		Password:  c.PostForm("password"),
		UseTLS:    c.PostForm("use_tls") != "",
		FromEmail: utils.NormalizeEmail(c.PostForm("from_email")),
		FromName:  strings.TrimSpace(c.PostForm("from_name")),
	}
	switch {
	case settings.Host == "":
		redirectWithFlash(c, "/admin/smtp", flashError, "Host is required.")
		return
	case !utils.IsValidEmail(settings.FromEmail):
		redirectWithFlash(c, "/admin/smtp", flashError, "From e-mail is not a valid address.")
		return
	case settings.FromName == "":
		redirectWithFlash(c, "/admin/smtp", flashError, "From name is required.")
		return
	}

	if err := h.store.SaveSMTPSettings(c.Request.Context(), settings); err != nil {
		h.log.Error("Failed to save SMTP settings", zap.Error(err))
		redirectWithFlash(c, "/admin/smtp", flashError, "Could not save the settings.")
		return
	}
	h.log.Info("SMTP settings updated", zap.String("host", settings.Host), zap.Int("port", settings.Port))
	redirectWithFlash(c, "/admin/smtp", flashNotice, "SMTP settings saved.")
}

// Test sends a short message through the stored settings.
func (h *SMTPHandler) Test(c *gin.Context) {
	to := utils.NormalizeEmail(c.PostForm("to"))
	if !utils.IsValidEmail(to) {
		redirectWithFlash(c, "/admin/smtp", flashError, "Enter a valid recipient address.")
		return
	}
	settings, err := h.store.GetSMTPSettings(c.Request.Context())
	if err != nil {
		redirectWithFlash(c, "/admin/smtp", flashError, "Save the SMTP settings first.")
		return
	}

	err = h.mailer.SendWith(c.Request.Context(), settings, services.Message{
		To:      to,
		Subject: "SMTP test",
		Text:    "This is a test message from the employee survey service.",
		HTML:    "<p>This is a test message from the employee survey service.</p>",
	})
	var derr *services.DeliveryError
	switch {
	case errors.As(err, &derr):
		redirectWithFlash(c, "/admin/smtp", flashError, derr.Error())
		return
	case err != nil:
		h.log.Error("SMTP test failed", zap.Error(err))
		redirectWithFlash(c, "/admin/smtp", flashError, "Test failed.")
		return
	}
	redirectWithFlash(c, "/admin/smtp", flashNotice, "Test message sent to "+to+".")
}
