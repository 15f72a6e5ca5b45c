package main

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/gymplan/internal/planner"
)

func Test_application_preferences(t *testing.T) {
	var (
		ctx    = t.Context()
		server = startServer(t)
		client = server.User(1)
	)

	t.Run("Requires authentication", func(t *testing.T) {
		status, err := server.Client().DoJSON(ctx, http.MethodGet, "/preferences", nil, nil)
		if err != nil {
			t.Fatalf("Failed to get preferences: %v", err)
		}
		if status != http.StatusUnauthorized {
			t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, status)
		}
	})

	t.Run("Not found before saving", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodGet, "/preferences", nil, nil)
		if err != nil {
			t.Fatalf("Failed to get preferences: %v", err)
		}
		if status != http.StatusNotFound {
			t.Errorf("Expected status %d, got %d", http.StatusNotFound, status)
		}
	})

	t.Run("Round trip", func(t *testing.T) {
		want := planner.Preferences{
			Goal:           "strength",
			ActivityLevel:  "moderate",
			WorkoutLevel:   "intermediate",
			WorkoutDays:    3,
			SessionMinutes: 60,
			WorkoutPlace:   "gym",
			PreferredStyle: "strength",
			Injuries:       []string{"left wrist"},
		}
		status, err := client.DoJSON(ctx, http.MethodPut, "/preferences", want, nil)
		if err != nil {
			t.Fatalf("Failed to put preferences: %v", err)
		}
		if status != http.StatusNoContent {
			t.Fatalf("Expected status %d, got %d", http.StatusNoContent, status)
		}

		var got planner.Preferences
		if status, err = client.DoJSON(ctx, http.MethodGet, "/preferences", nil, &got); err != nil {
			t.Fatalf("Failed to get preferences: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, status)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Preferences mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Rejects invalid goal", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPut, "/preferences", planner.Preferences{Goal: "get_famous"}, nil)
		if err != nil {
			t.Fatalf("Failed to put preferences: %v", err)
		}
		if status != http.StatusUnprocessableEntity {
			t.Errorf("Expected status %d, got %d", http.StatusUnprocessableEntity, status)
		}
	})

	t.Run("Rejects invalid level", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPut, "/preferences",
			planner.Preferences{WorkoutLevel: "expert"}, nil)
		if err != nil {
			t.Fatalf("Failed to put preferences: %v", err)
		}
		if status != http.StatusUnprocessableEntity {
			t.Errorf("Expected status %d, got %d", http.StatusUnprocessableEntity, status)
		}
	})

	t.Run("Rejects unknown fields", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPut, "/preferences", map[string]any{"favourite_colour": "red"}, nil)
		if err != nil {
			t.Fatalf("Failed to put preferences: %v", err)
		}
		if status != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, status)
		}
	})

	t.Run("Sets preferred equipment", func(t *testing.T) {
		status, err := client.DoJSON(ctx, http.MethodPut, "/preferences/equipment",
			preferredEquipmentRequest{EquipmentIDs: []int{50, 35}}, nil)
		if err != nil {
			t.Fatalf("Failed to put preferred equipment: %v", err)
		}
		if status != http.StatusNoContent {
			t.Fatalf("Expected status %d, got %d", http.StatusNoContent, status)
		}
		count, err := server.Count(ctx, `SELECT COUNT(*) FROM user_preferred_equipment WHERE user_id = ?`, 1)
		if err != nil {
			t.Fatalf("Failed to count preferred equipment: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 preferred equipment rows, got %d", count)
		}
	})
}
