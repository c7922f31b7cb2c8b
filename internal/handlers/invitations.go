package handlers

import (
	"fmt"
	"net/http"

	"survey-go/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InvitationHandler triggers invitation and reminder dispatches.
type InvitationHandler struct {
	log        *zap.Logger
	dispatcher services.Dispatcher
	baseURL    string
}

func NewInvitationHandler(log *zap.Logger, dispatcher services.Dispatcher, baseURL string) *InvitationHandler {
	return &InvitationHandler{log: log, dispatcher: dispatcher, baseURL: baseURL}
}

func (h *InvitationHandler) SendAll(c *gin.Context) {
	h.dispatch(c, "/admin", services.DispatchOptions{})
}

func (h *InvitationHandler) RemindAll(c *gin.Context) {
	h.dispatch(c, "/admin", services.DispatchOptions{Reminders: true})
}

func (h *InvitationHandler) SendEmployee(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid employee id")
		return
	}
	h.dispatch(c, "/admin/employees", services.DispatchOptions{EmployeeID: id})
}

func (h *InvitationHandler) ResendEmployee(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid employee id")
		return
	}
	h.dispatch(c, "/admin/employees", services.DispatchOptions{EmployeeID: id, Reminders: true})
}

func (h *InvitationHandler) dispatch(c *gin.Context, back string, opts services.DispatchOptions) {
	opts.BaseURL = requestBaseURL(c, h.baseURL)
	report, err := h.dispatcher.Dispatch(c.Request.Context(), opts)
	if err != nil {
		h.log.Error("Dispatch failed", zap.Error(err))
		redirectWithFlash(c, back, flashError, "Could not send e-mails: "+err.Error())
		return
	}
	if report.Failed > 0 {
		addFlash(c, flashError, fmt.Sprintf("%d e-mail(s) could not be delivered. Check the SMTP settings and the log.", report.Failed))
	}
	redirectWithFlash(c, back, flashNotice, dispatchSummary(report))
}

func dispatchSummary(r *services.DispatchReport) string {
	label := "Invitations"
	if r.Kind == services.KindReminder {
		label = "Reminders"
	}
	if r.Sent == 0 && r.Failed == 0 {
		return label + ": nothing to send."
	}
	return fmt.Sprintf("%s: %d e-mail(s) sent to %d rater(s), %d failed, %d survey link(s) delivered.",
		label, r.Sent, r.Recipients, r.Failed, r.Assignments)
}
