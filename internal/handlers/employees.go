package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"survey-go/internal/metrics"
	"survey-go/internal/models"
	"survey-go/internal/repository"
	"survey-go/internal/services"
	"survey-go/internal/survey"
	"survey-go/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EmployeeDirectory interface {
	Directory(ctx context.Context) ([]metrics.DirectoryEntry, error)
}

type EmployeeImporter interface {
	ImportCSV(ctx context.Context, r io.Reader) (*services.ImportReport, error)
	AddEmployee(ctx context.Context, row services.ImportRow) (*models.Employee, int, error)
	ParseSurveys(cell string) []survey.Code
}

type EmployeeDeleter interface {
	DeleteEmployee(ctx context.Context, id uint) error
}

type EmployeeHandler struct {
	log       *zap.Logger
	directory EmployeeDirectory
	importer  EmployeeImporter
	deleter   EmployeeDeleter
	catalog   *survey.Catalog
}

func NewEmployeeHandler(log *zap.Logger, directory EmployeeDirectory, importer EmployeeImporter, deleter EmployeeDeleter, catalog *survey.Catalog) *EmployeeHandler {
	return &EmployeeHandler{log: log, directory: directory, importer: importer, deleter: deleter, catalog: catalog}
}

func (h *EmployeeHandler) List(c *gin.Context) {
	entries, err := h.directory.Directory(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to load employee directory", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load employees")
		return
	}

	options := make([]views.SurveyOption, 0, len(h.catalog.Codes()))
	for _, code := range h.catalog.Codes() {
		options = append(options, views.SurveyOption{Code: code, DisplayName: h.catalog.DisplayName(code)})
	}

	renderPage(c, http.StatusOK, "Employees", views.Employees(views.EmployeesData{
		CSRFToken: contextString(c, CSRFTokenContextKey),
		Entries:   entries,
		Surveys:   options,
		Notice:    takeFlash(c, flashNotice),
		Error:     takeFlash(c, flashError),
	}))
}

func (h *EmployeeHandler) Add(c *gin.Context) {
	row := services.ImportRow{
		Name:       c.PostForm("name"),
		Email:      c.PostForm("email"),
		Department: strings.TrimSpace(c.PostForm("department")),
		Position:   strings.TrimSpace(c.PostForm("position")),
		Surveys:    h.importer.ParseSurveys(strings.Join(c.PostFormArray("surveys"), ",")),
		Raters:     services.ParseRaters(c.PostForm("rater_names"), c.PostForm("rater_emails")),
	}

	employee, assigned, err := h.importer.AddEmployee(c.Request.Context(), row)
	switch {
	case errors.Is(err, services.ErrInvalidEmployee):
		redirectWithFlash(c, "/admin/employees", flashError, err.Error())
		return
	case err != nil:
		h.log.Error("Failed to add employee", zap.Error(err))
		redirectWithFlash(c, "/admin/employees", flashError, "Could not save the employee.")
		return
	}
	redirectWithFlash(c, "/admin/employees", flashNotice,
		fmt.Sprintf("Saved %s with %d new assignment(s).", employee.Name, assigned))
}

// Import accepts an uploaded CSV file or rows pasted into the form.
func (h *EmployeeHandler) Import(c *gin.Context) {
	var source io.Reader
	if fh, err := c.FormFile("csv_file"); err == nil && fh.Filename != "" {
		f, err := fh.Open()
		if err != nil {
			redirectWithFlash(c, "/admin/employees", flashError, "Could not read the uploaded file.")
			return
		}
		defer f.Close()
		source = f
	} else if rows := c.PostForm("csv_rows"); strings.TrimSpace(rows) != "" {
		source = strings.NewReader(rows)
	} else {
		redirectWithFlash(c, "/admin/employees", flashError, "No CSV data provided.")
		return
	}

	report, err := h.importer.ImportCSV(c.Request.Context(), source)
	if err != nil {
		h.log.Error("Employee import failed", zap.Error(err))
		msg := "Import failed: " + err.Error()
		if report != nil {
			msg = fmt.Sprintf("%s (%d added, %d updated before the error)", msg, report.Added, report.Updated)
		}
		redirectWithFlash(c, "/admin/employees", flashError, msg)
		return
	}
	redirectWithFlash(c, "/admin/employees", flashNotice, fmt.Sprintf(
		"Import finished: %d added, %d updated, %d skipped, %d new assignment(s).",
		report.Added, report.Updated, report.Skipped, report.Assignments))
}

func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid employee id")
		return
	}
	err := h.deleter.DeleteEmployee(c.Request.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		redirectWithFlash(c, "/admin/employees", flashError, "Employee not found.")
		return
	case err != nil:
		h.log.Error("Failed to delete employee", zap.Uint("employeeID", id), zap.Error(err))
		redirectWithFlash(c, "/admin/employees", flashError, "Could not delete the employee.")
		return
	}
	h.log.Info("Employee deleted", zap.Uint("employeeID", id))
	redirectWithFlash(c, "/admin/employees", flashNotice, "Employee deleted.")
}

func employeeID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
