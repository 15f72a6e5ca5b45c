package main

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/myrjola/gymplan/internal/e2etest"
	"github.com/myrjola/gymplan/internal/planner"
)

const (
	commercialGym = 1
	homeCorner    = 2
	emptyStudio   = 3
)

type noticesResponse struct {
	Notices []map[string]any `json:"notices"`
	Summary string           `json:"summary"`
}

type planRecalibrationBody struct {
	noticesResponse
	Plan planner.Plan `json:"plan"`
}

type dayRecalibrationBody struct {
	noticesResponse
	Day planner.PlanDay `json:"day"`
}

func saveStrengthPreferences(t *testing.T, client *e2etest.Client) {
	t.Helper()
	prefs := planner.Preferences{
		Goal:           "strength",
		ActivityLevel:  "",
		WorkoutLevel:   "intermediate",
		WorkoutDays:    3,
		SessionMinutes: 60,
		WorkoutPlace:   "gym",
		PreferredStyle: "strength",
		Injuries:       nil,
	}
	status, err := client.DoJSON(t.Context(), http.MethodPut, "/preferences", prefs, nil)
	if err != nil {
		t.Fatalf("Failed to save preferences: %v", err)
	}
	if status != http.StatusNoContent {
		t.Fatalf("Expected status %d saving preferences, got %d", http.StatusNoContent, status)
	}
}

func generatePlan(t *testing.T, client *e2etest.Client, body any) planner.Plan {
	t.Helper()
	var plan planner.Plan
	status, err := client.DoJSON(t.Context(), http.MethodPost, "/plans/generate", body, &plan)
	if err != nil {
		t.Fatalf("Failed to generate plan: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("Expected status %d generating plan, got %d", http.StatusCreated, status)
	}
	return plan
}

func Test_application_plans(t *testing.T) {
	var (
		ctx    = t.Context()
		server = startServer(t)
		client = server.User(1)
	)

	t.Run("Generate requires preferences", func(t *testing.T) {
		status, err := server.User(2).DoJSON(ctx, http.MethodPost, "/plans/generate", nil, nil)
		if err != nil {
			t.Fatalf("Failed to generate plan: %v", err)
		}
		if status != http.StatusNotFound {
			t.Errorf("Expected status %d, got %d", http.StatusNotFound, status)
		}
	})

	saveStrengthPreferences(t, client)
	plan := generatePlan(t, client, nil)

	t.Run("Generated plan covers the week", func(t *testing.T) {
		if got := len(plan.Days); got != 7 {
			t.Fatalf("Expected 7 days, got %d", got)
		}
		if plan.TemplateID != 1 {
			t.Errorf("Expected template 1, got %d", plan.TemplateID)
		}
		training := 0
		for _, day := range plan.Days {
			if !day.IsRest {
				training++
			}
		}
		if training != 3 {
			t.Errorf("Expected 3 training days, got %d", training)
		}
	})

	t.Run("Active plan is the generated plan", func(t *testing.T) {
		var active planner.Plan
		status, err := client.DoJSON(ctx, http.MethodGet, "/plans/active", nil, &active)
		if err != nil {
			t.Fatalf("Failed to get active plan: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, status)
		}
		if active.ID != plan.ID {
			t.Errorf("Expected active plan %d, got %d", plan.ID, active.ID)
		}
	})

	t.Run("Other users cannot read the plan", func(t *testing.T) {
		status, err := server.User(2).DoJSON(ctx, http.MethodGet, "/plans/"+strconv.Itoa(plan.ID), nil, nil)
		if err != nil {
			t.Fatalf("Failed to get plan: %v", err)
		}
		if status != http.StatusForbidden {
			t.Errorf("Expected status %d, got %d", http.StatusForbidden, status)
		}
	})

	t.Run("Recalibrate requires facility", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPost, "/plans/"+strconv.Itoa(plan.ID)+"/recalibrate",
			recalibrateRequest{FacilityID: 0, SetAsFacility: false, ClearDayOverrides: false}, nil)
		if err != nil {
			t.Fatalf("Failed to recalibrate: %v", err)
		}
		if status != http.StatusUnprocessableEntity {
			t.Errorf("Expected status %d, got %d", http.StatusUnprocessableEntity, status)
		}
	})

	t.Run("Recalibrate to unknown facility", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPost, "/plans/"+strconv.Itoa(plan.ID)+"/recalibrate",
			recalibrateRequest{FacilityID: 404, SetAsFacility: false, ClearDayOverrides: false}, nil)
		if err != nil {
			t.Fatalf("Failed to recalibrate: %v", err)
		}
		if status != http.StatusNotFound {
			t.Errorf("Expected status %d, got %d", http.StatusNotFound, status)
		}
	})

	t.Run("Recalibrate single day", func(t *testing.T) {
		monday := plan.Days[0]
		var body dayRecalibrationBody
		status, err := client.DoJSON(ctx, http.MethodPost, "/plan-days/"+strconv.Itoa(monday.ID)+"/recalibrate",
			recalibrateRequest{FacilityID: homeCorner, SetAsFacility: false, ClearDayOverrides: false}, &body)
		if err != nil {
			t.Fatalf("Failed to recalibrate day: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, status)
		}
		if body.Day.ID != monday.ID || body.Day.FacilityID != homeCorner {
			t.Errorf("Expected day %d at facility %d, got day %d at facility %d",
				monday.ID, homeCorner, body.Day.ID, body.Day.FacilityID)
		}
		if body.Notices == nil {
			t.Error("Expected notices to be an array")
		}
		for _, n := range body.Notices {
			if n["scope"] != string(planner.ScopeDay) {
				t.Errorf("Expected day scope, got %v", n["scope"])
			}
		}
	})

	t.Run("Single day rejects plan-wide options", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPost, "/plan-days/"+strconv.Itoa(plan.Days[0].ID)+"/recalibrate",
			recalibrateRequest{FacilityID: homeCorner, SetAsFacility: true, ClearDayOverrides: false}, nil)
		if err != nil {
			t.Fatalf("Failed to recalibrate day: %v", err)
		}
		if status != http.StatusUnprocessableEntity {
			t.Errorf("Expected status %d, got %d", http.StatusUnprocessableEntity, status)
		}
	})

	t.Run("Recalibrate whole plan to empty studio", func(t *testing.T) {
		var body planRecalibrationBody
		status, err := client.DoJSON(ctx, http.MethodPost, "/plans/"+strconv.Itoa(plan.ID)+"/recalibrate",
			recalibrateRequest{FacilityID: emptyStudio, SetAsFacility: true, ClearDayOverrides: false}, &body)
		if err != nil {
			t.Fatalf("Failed to recalibrate plan: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, status)
		}
		if body.Plan.FacilityID != emptyStudio {
			t.Errorf("Expected plan facility %d, got %d", emptyStudio, body.Plan.FacilityID)
		}
		if !strings.Contains(body.Summary, "removed") {
			t.Errorf("Expected summary about removed exercises, got %q", body.Summary)
		}
		dropped := 0
		for _, n := range body.Notices {
			if n["type"] == planner.NoticeExerciseDropped {
				dropped++
			}
		}
		if dropped == 0 {
			t.Error("Expected dropped exercise notices")
		}
	})

	t.Run("Recalibrate back to the gym", func(t *testing.T) {
		var body planRecalibrationBody
		status, err := client.DoJSON(ctx, http.MethodPost, "/plans/"+strconv.Itoa(plan.ID)+"/recalibrate",
			recalibrateRequest{FacilityID: commercialGym, SetAsFacility: true, ClearDayOverrides: true}, &body)
		if err != nil {
			t.Fatalf("Failed to recalibrate plan: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, status)
		}
		for _, day := range body.Plan.Days {
			if day.FacilityID != 0 {
				t.Errorf("Expected day %s without facility override, got %d", day.WeekdayName, day.FacilityID)
			}
		}
	})

	t.Run("Generate with invalid goal override", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPost, "/plans/generate", map[string]any{"goal": "fly"}, nil)
		if err != nil {
			t.Fatalf("Failed to generate plan: %v", err)
		}
		if status != http.StatusUnprocessableEntity {
			t.Errorf("Expected status %d, got %d", http.StatusUnprocessableEntity, status)
		}
	})

	t.Run("Regenerate with facility override replaces the plan", func(t *testing.T) {
		next := generatePlan(t, client, map[string]any{"facility_id": emptyStudio})
		if next.ID == plan.ID {
			t.Fatal("Expected a new plan")
		}
		if next.FacilityID != emptyStudio {
			t.Errorf("Expected plan facility %d, got %d", emptyStudio, next.FacilityID)
		}
		status, err := client.DoJSON(ctx, http.MethodGet, "/plans/"+strconv.Itoa(plan.ID), nil, nil)
		if err != nil {
			t.Fatalf("Failed to get old plan: %v", err)
		}
		if status != http.StatusNotFound {
			t.Errorf("Expected old plan to be gone with status %d, got %d", http.StatusNotFound, status)
		}
	})
}
