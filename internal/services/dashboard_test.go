package services

import (
	"context"
	"testing"

	"survey-go/internal/metrics"
	"survey-go/internal/models"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"
	"survey-go/internal/utils"

	"go.uber.org/zap"
)

func TestDashboardStatsAndDirectory(t *testing.T) {
	store := newMemStore()
	store.addAssignment(models.Employee{Name: "Alice", Email: "alice@example.com", Department: "Operations"}, "boss@example.com", "MSES", utils.HashToken("tok-a"))
	store.addAssignment(models.Employee{Name: "Alice", Email: "alice@example.com", Department: "Operations"}, "peer@example.com", "MSES", "")

	catalog := survey.DefaultCatalog()
	engine := scoring.NewEngine(catalog)
	subs := NewSubmissionService(store, catalog, engine, zap.NewNop())
	if _, err := subs.Submit(context.Background(), "tok-a", allAnswers(8, 4), "Solid year"); err != nil {
		t.Fatal(err)
	}

	svc := NewDashboardService(store, catalog, metrics.NewCalculator(catalog, engine))
	d, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if d.Assigned != 2 || d.Submitted != 1 || d.Pending != 1 {
		t.Fatalf("unexpected totals %+v", d)
	}
	if d.LastRun != nil {
		t.Fatal("no dispatch has run yet")
	}
	if len(d.Surveys) != 1 || d.Surveys[0].Overall.Average != 32 {
		t.Fatalf("unexpected survey stats %+v", d.Surveys)
	}

	entries, err := svc.Directory(context.Background())
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Assignments) != 2 || entries[0].Pending() != 1 {
		t.Fatalf("unexpected directory %+v", entries)
	}
	var done *metrics.AssignmentResult
	for i := range entries[0].Assignments {
		if entries[0].Assignments[i].Detail != nil {
			done = &entries[0].Assignments[i]
		}
	}
	if done == nil || done.Comment != "Solid year" || done.Detail.Total != 256 || done.State != models.StateSubmitted {
		t.Fatalf("unexpected submitted assignment %+v", done)
	}
}

func TestDashboardLastRun(t *testing.T) {
	store := newMemStore()
	_ = store.SaveDispatchRun(context.Background(), &models.DispatchRun{Kind: KindInvite, Sent: 3})

	catalog := survey.DefaultCatalog()
	svc := NewDashboardService(store, catalog, metrics.NewCalculator(catalog, scoring.NewEngine(catalog)))
	d, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.LastRun == nil || d.LastRun.Sent != 3 {
		t.Fatalf("unexpected last run %+v", d.LastRun)
	}
	if len(d.Surveys) != 0 {
		t.Fatal("surveys without assignments are omitted")
	}
}
