package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"survey-go/internal/metrics"
	"survey-go/internal/services"
	"survey-go/views"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type StatsProvider interface {
	Stats(ctx context.Context) (*services.Dashboard, error)
}

type DashboardHandler struct {
	log   *zap.Logger
	stats StatsProvider
}

func NewDashboardHandler(log *zap.Logger, stats StatsProvider) *DashboardHandler {
	return &DashboardHandler{log: log, stats: stats}
}

func (h *DashboardHandler) Show(c *gin.Context) {
	dash, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to build dashboard", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	chartsBySurvey := make(map[string][]views.Chart, len(dash.Surveys))
	for _, s := range dash.Surveys {
		var list []views.Chart
		if len(s.Departments) > 0 {
			list = append(list, h.chart(string(s.Code)+"-departments", departmentChart(s)))
		}
		if s.Submitted > 0 {
			list = append(list, h.chart(string(s.Code)+"-questions", questionChart(s)))
		}
		chartsBySurvey[string(s.Code)] = list
	}

	renderPage(c, http.StatusOK, "Dashboard", views.Dashboard(views.DashboardData{
		CSRFToken: contextString(c, CSRFTokenContextKey),
		Nonce:     contextString(c, CSPNonceContextKey),
		Surveys:   dash.Surveys,
		Assigned:  dash.Assigned,
		Submitted: dash.Submitted,
		Pending:   dash.Pending,
		LastRun:   dash.LastRun,
		Charts:    chartsBySurvey,
		Notice:    takeFlash(c, flashNotice),
		Error:     takeFlash(c, flashError),
	}))
}

func (h *DashboardHandler) chart(id string, bar *charts.Bar) views.Chart {
	optionsJSON, err := json.Marshal(bar.JSON())
	if err != nil {
		h.log.Error("Failed to encode chart", zap.String("chart", id), zap.Error(err))
		optionsJSON = []byte("{}")
	}
	return views.Chart{ID: "chart-" + id, OptionsJSON: string(optionsJSON)}
}

// departmentChart plots average points per department against the survey
// maximum.
func departmentChart(s metrics.SurveyStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Average by department",
			Subtitle: s.DisplayName,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Min:  0,
			Max:  s.MaxPoints,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	bar.SetXAxis(lo.Map(s.Departments, func(g metrics.GroupStat, _ int) string { return g.Name })).
		AddSeries("Average", lo.Map(s.Departments, func(g metrics.GroupStat, _ int) opts.BarData {
			return opts.BarData{Value: round1(g.Average), Name: g.Classification.Category}
		}))
	return bar
}

// questionChart plots the mean answer of each question on the 1-5 scale.
func questionChart(s metrics.SurveyStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Average answer by question",
			Subtitle: s.DisplayName,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Min:  0,
			Max:  5,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	bar.SetXAxis(lo.Map(s.Questions, func(q metrics.QuestionStat, _ int) string { return "Q" + strconv.Itoa(q.Number) })).
		AddSeries("Average", lo.Map(s.Questions, func(q metrics.QuestionStat, _ int) opts.BarData {
			return opts.BarData{Value: round2(q.Average), Name: q.Text}
		}))
	return bar
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
