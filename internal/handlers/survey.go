package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"survey-go/internal/config"
	"survey-go/internal/scoring"
	"survey-go/internal/services"
	"survey-go/internal/survey"
	"survey-go/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxCommentLength = 4000

type SurveyService interface {
	Open(ctx context.Context, token string) (*services.Invitation, error)
	Submit(ctx context.Context, token string, answers scoring.Answers, comment string) (*scoring.Result, error)
}

// SurveyHandler serves the public survey form reached from an invitation link.
type SurveyHandler struct {
	log     *zap.Logger
	surveys SurveyService
	catalog *survey.Catalog
	content func() config.SurveyConfig
}

func NewSurveyHandler(log *zap.Logger, surveys SurveyService, catalog *survey.Catalog, content func() config.SurveyConfig) *SurveyHandler {
	return &SurveyHandler{log: log, surveys: surveys, catalog: catalog, content: content}
}

func (h *SurveyHandler) ShowForm(c *gin.Context) {
	token := c.Param("token")
	inv, err := h.surveys.Open(c.Request.Context(), token)
	switch {
	case errors.Is(err, services.ErrAlreadySubmitted):
		renderPage(c, http.StatusOK, "Survey", views.AlreadySubmitted(inv.Definition.DisplayName))
		return
	case err != nil:
		h.renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, inv.Definition.DisplayName, views.SurveyForm(h.formData(c, token, inv)))
}

func (h *SurveyHandler) Submit(c *gin.Context) {
	token := c.Param("token")
	answers := parseAnswers(c)
	comment := strings.TrimSpace(c.PostForm("comment"))
	if r := []rune(comment); len(r) > maxCommentLength {
		comment = string(r[:maxCommentLength])
	}

	result, err := h.surveys.Submit(c.Request.Context(), token, answers, comment)
	var verr *scoring.ValidationError
	switch {
	case errors.As(err, &verr):
		inv, openErr := h.surveys.Open(c.Request.Context(), token)
		if openErr != nil {
			h.renderError(c, openErr)
			return
		}
		data := h.formData(c, token, inv)
		data.Answers = answers
		data.Comment = comment
		data.Errors = verr
		renderPage(c, http.StatusBadRequest, inv.Definition.DisplayName, views.SurveyForm(data))
		return
	case err != nil:
		h.renderError(c, err)
		return
	}

	renderPage(c, http.StatusOK, "Thank you", views.ThankYou(h.catalog.DisplayName(result.Code)))
}

func (h *SurveyHandler) formData(c *gin.Context, token string, inv *services.Invitation) views.SurveyFormData {
	return views.SurveyFormData{
		Token:        token,
		CSRFToken:    contextString(c, CSRFTokenContextKey),
		Definition:   inv.Definition,
		EmployeeName: inv.Assignment.Employee.Name,
		Deadline:     h.content().Deadline,
	}
}

func (h *SurveyHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInvitation):
		renderPage(c, http.StatusNotFound, "Invalid invitation", views.InvalidInvitation())
	case errors.Is(err, services.ErrAlreadySubmitted):
		renderPage(c, http.StatusConflict, "Already submitted", views.AlreadySubmitted("survey"))
	default:
		h.log.Error("Survey request failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
}

// parseAnswers reads fields named q1..qN. Values that are not integers are
// kept as 0 so scoring reports them as invalid.
func parseAnswers(c *gin.Context) scoring.Answers {
	answers := scoring.Answers{}
	if err := c.Request.ParseForm(); err != nil {
		return answers
	}
	for key, values := range c.Request.PostForm {
		if !strings.HasPrefix(key, "q") || len(values) == 0 {
			continue
		}
		n, err := strconv.Atoi(key[1:])
		if err != nil {
			continue
		}
		answer, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			answer = 0
		}
		answers[n] = answer
	}
	return answers
}
