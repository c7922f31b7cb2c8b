package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"survey-go/internal/models"
	"survey-go/internal/survey"
	"survey-go/internal/utils"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// importColumns is the expected column order of an import file.
var importColumns = []string{"SurveyNames", "EmpName", "Position", "Dept", "MgrNames", "MgrEmails", "EmpEmail"}

const defaultRaterName = "Manager"

// ErrInvalidEmployee is returned by AddEmployee for unusable form input.
var ErrInvalidEmployee = errors.New("invalid employee")

// Rater is a person asked to evaluate an employee.
type Rater struct {
	Name  string
	Email string
}

// ImportRow is one employee with the surveys and raters assigned to them.
type ImportRow struct {
	Line       int
	Surveys    []survey.Code
	Name       string
	Position   string
	Department string
	Email      string
	Raters     []Rater
}

// ImportReport summarizes one import.
type ImportReport struct {
	Added       int
	Updated     int
	Skipped     int
	Assignments int
}

// Importer creates employees and their survey assignments.
type Importer struct {
	store   EmployeeStore
	catalog *survey.Catalog
	log     *zap.Logger
}

func NewImporter(store EmployeeStore, catalog *survey.Catalog, log *zap.Logger) *Importer {
	return &Importer{store: store, catalog: catalog, log: log}
}

// ParseCSV reads rows in importColumns order. A first row whose first cell is
// the SurveyNames heading is skipped. Cells holding several values separate
// them with commas. Rows that are short, lack a known survey or lack an
// employee e-mail are counted as skipped.
func (i *Importer) ParseCSV(r io.Reader) ([]ImportRow, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows    []ImportRow
		skipped int
		line    int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading csv: %w", err)
		}
		line++
		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), importColumns[0]) {
			continue
		}
		if lo.EveryBy(record, func(cell string) bool { return strings.TrimSpace(cell) == "" }) {
			continue
		}

		row, ok := i.parseRecord(record)
		if !ok {
			i.log.Debug("Skipping import row", zap.Int("line", line))
			skipped++
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func (i *Importer) parseRecord(record []string) (ImportRow, bool) {
	if len(record) < len(importColumns) {
		return ImportRow{}, false
	}
	row := ImportRow{
		Surveys:    i.ParseSurveys(record[0]),
		Name:       strings.TrimSpace(record[1]),
		Position:   strings.TrimSpace(record[2]),
		Department: strings.TrimSpace(record[3]),
		Email:      utils.NormalizeEmail(record[6]),
		Raters:     ParseRaters(record[4], record[5]),
	}
	if len(row.Surveys) == 0 || !utils.IsValidEmail(row.Email) {
		return ImportRow{}, false
	}
	return row, true
}

func (i *Importer) ParseSurveys(cell string) []survey.Code {
	var codes []survey.Code
	for _, raw := range splitCell(cell) {
		def, err := i.catalog.Resolve(raw)
		if err != nil {
			continue
		}
		codes = append(codes, def.Code)
	}
	return lo.Uniq(codes)
}

// ParseRaters pairs names and e-mails by position. Missing names fall back
// to a generic one; invalid addresses are dropped.
func ParseRaters(namesCell, emailsCell string) []Rater {
	names := splitCell(namesCell)
	var raters []Rater
	for idx, raw := range splitCell(emailsCell) {
		email := utils.NormalizeEmail(raw)
		if !utils.IsValidEmail(email) {
			continue
		}
		name := defaultRaterName
		if idx < len(names) {
			name = names[idx]
		}
		raters = append(raters, Rater{Name: name, Email: email})
	}
	return lo.UniqBy(raters, func(r Rater) string { return r.Email })
}

func splitCell(cell string) []string {
	parts := lo.Map(strings.Split(cell, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Compact(parts)
}

// Import upserts every row's employee and ensures one assignment per
// (employee, rater, survey). Existing assignments are left untouched.
func (i *Importer) Import(ctx context.Context, rows []ImportRow) (*ImportReport, error) {
	report := &ImportReport{}
	for _, row := range rows {
		created, assigned, err := i.importRow(ctx, row)
		if err != nil {
			return report, fmt.Errorf("importing line %d: %w", row.Line, err)
		}
		if created {
			report.Added++
		} else {
			report.Updated++
		}
		report.Assignments += assigned
	}
	i.log.Info("Employee import finished",
		zap.Int("added", report.Added),
		zap.Int("updated", report.Updated),
		zap.Int("assignments", report.Assignments),
	)
	return report, nil
}

// ImportCSV parses and imports in one step.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	rows, skipped, err := i.ParseCSV(r)
	if err != nil {
		return nil, err
	}
	report, err := i.Import(ctx, rows)
	if report != nil {
		report.Skipped += skipped
	}
	return report, err
}

// AddEmployee validates and stores a single employee entered by hand.
func (i *Importer) AddEmployee(ctx context.Context, row ImportRow) (*models.Employee, int, error) {
	row.Email = utils.NormalizeEmail(row.Email)
	row.Name = strings.TrimSpace(row.Name)
	switch {
	case row.Name == "":
		return nil, 0, fmt.Errorf("%w: name is required", ErrInvalidEmployee)
	case !utils.IsValidEmail(row.Email):
		return nil, 0, fmt.Errorf("%w: %q is not a valid e-mail address", ErrInvalidEmployee, row.Email)
	case len(row.Surveys) == 0:
		return nil, 0, fmt.Errorf("%w: select at least one survey", ErrInvalidEmployee)
	case len(row.Raters) == 0:
		return nil, 0, fmt.Errorf("%w: at least one rater e-mail is required", ErrInvalidEmployee)
	}

	e := &models.Employee{Name: row.Name, Email: row.Email, Department: row.Department, Position: row.Position}
	if _, err := i.store.UpsertEmployee(ctx, e); err != nil {
		return nil, 0, err
	}
	assigned, err := i.ensureAssignments(ctx, e.ID, row)
	return e, assigned, err
}

func (i *Importer) importRow(ctx context.Context, row ImportRow) (bool, int, error) {
	e := &models.Employee{Name: row.Name, Email: row.Email, Department: row.Department, Position: row.Position}
	created, err := i.store.UpsertEmployee(ctx, e)
	if err != nil {
		return false, 0, err
	}
	assigned, err := i.ensureAssignments(ctx, e.ID, row)
	return created, assigned, err
}

func (i *Importer) ensureAssignments(ctx context.Context, employeeID uint, row ImportRow) (int, error) {
	assigned := 0
	for _, code := range row.Surveys {
		for _, rater := range row.Raters {
			a := &models.SurveyAssignment{
				EmployeeID: employeeID,
				RaterEmail: rater.Email,
				RaterName:  rater.Name,
				SurveyCode: string(code),
			}
			created, err := i.store.EnsureAssignment(ctx, a)
			if err != nil {
				return assigned, err
			}
			if created {
				assigned++
			}
		}
	}
	return assigned, nil
}
