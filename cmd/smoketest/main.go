package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/gymplan/internal/e2etest"
	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/logging"
	"github.com/myrjola/gymplan/internal/planner"
	"github.com/myrjola/gymplan/internal/testhelpers"
)

// smokeUserID is reserved for smoke tests so that real users are never touched.
const smokeUserID = 999_999_999

func expectStatus(got, want int, what string) error {
	if got != want {
		return errors.New("unexpected status", slog.String("call", what), slog.Int("got", got), slog.Int("want", want))
	}
	return nil
}

// testPlanLifecycle saves preferences, generates a plan and recalibrates it to the first facility.
func testPlanLifecycle(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	prefs := planner.Preferences{
		Goal:           "strength",
		ActivityLevel:  "moderate",
		WorkoutLevel:   "",
		WorkoutDays:    3,
		SessionMinutes: 60,
		WorkoutPlace:   "gym",
		PreferredStyle: "",
		Injuries:       nil,
	}
	status, err := client.DoJSON(ctx, http.MethodPut, "/preferences", prefs, nil)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if err = expectStatus(status, http.StatusNoContent, "save preferences"); err != nil {
		return err
	}

	var plan planner.Plan
	if status, err = client.DoJSON(ctx, http.MethodPost, "/plans/generate", nil, &plan); err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}
	if err = expectStatus(status, http.StatusCreated, "generate plan"); err != nil {
		return err
	}

	status, err = client.DoJSON(ctx, http.MethodPost, "/plans/"+strconv.Itoa(plan.ID)+"/recalibrate",
		map[string]any{"facility_id": 1}, nil)
	if err != nil {
		return fmt.Errorf("recalibrate plan: %w", err)
	}
	return expectStatus(status, http.StatusOK, "recalibrate plan")
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}
	if err = testPlanLifecycle(client.AsUser(smokeUserID)); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing plan lifecycle", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful", slog.Duration("duration", time.Since(start)))
}
