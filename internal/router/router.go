package router

import (
	"fmt"
	"net/http"
	"time"

	"survey-go/internal/config"
	"survey-go/internal/handlers"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const sessionName = "survey_session"

// Handlers are the request handlers mounted by Setup.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Survey      *handlers.SurveyHandler
	Employees   *handlers.EmployeeHandler
	Invitations *handlers.InvitationHandler
	Dashboard   *handlers.DashboardHandler
	SMTP        *handlers.SMTPHandler
	Health      *handlers.HealthHandler
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", fmt.Sprintf("%.0f", time.Until(info.ResetTime).Seconds()))
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

func limiter(rate time.Duration, limit uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  rate,
		Limit: limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
}

func Setup(log *zap.Logger, conf config.ServerConfig, admins AdminLookup, h Handlers) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(conf.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   conf.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions(sessionName, store))

	// --- Now that sessions are initialized, other middleware can use them ---
	router.Use(NonceMiddleware())
	router.Use(CSRFProtection())
	router.Use(AdminLoaderMiddleware(log, admins))

	router.Use(func(c *gin.Context) {
		nonce, _ := c.Get(handlers.CSPNonceContextKey)
		csp := fmt.Sprintf(
			"default-src 'self'; script-src 'self' https://cdn.jsdelivr.net 'nonce-%s'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'",
			nonce,
		)
		c.Header("Content-Security-Policy", csp)
		c.Next()
	})

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "same-origin",
		IsDevelopment:      conf.Environment == "development",
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	router.Static("/assets", "./assets")

	loginLimiter := limiter(time.Minute, 5)
	surveyLimiter := limiter(time.Minute, 20)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/admin/login")
	})
	router.GET("/health", h.Health.Check)

	router.GET("/survey/:token", h.Survey.ShowForm)
	router.POST("/survey/:token", surveyLimiter, h.Survey.Submit)

	router.GET("/admin/login", h.Auth.ShowLoginPage)
	router.POST("/admin/login", loginLimiter, h.Auth.Login)
	router.POST("/admin/logout", h.Auth.Logout)

	admin := router.Group("/admin")
	admin.Use(AuthRequired())
	{
		admin.GET("", h.Dashboard.Show)
		admin.POST("/send-invites", h.Invitations.SendAll)
		admin.POST("/send-reminders", h.Invitations.RemindAll)

		employees := admin.Group("/employees")
		{
			employees.GET("", h.Employees.List)
			employees.POST("/add", h.Employees.Add)
			employees.POST("/import", h.Employees.Import)
			employees.POST("/:id/send-invite", h.Invitations.SendEmployee)
			employees.POST("/:id/resend", h.Invitations.ResendEmployee)
			employees.POST("/:id/delete", h.Employees.Delete)
		}

		admin.GET("/smtp", h.SMTP.Show)
		admin.POST("/smtp", h.SMTP.Save)
		admin.POST("/smtp/test", h.SMTP.Test)
	}

	return router
}
