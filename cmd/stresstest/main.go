package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myrjola/gymplan/internal/e2etest"
	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/logging"
	"github.com/myrjola/gymplan/internal/planner"
	"github.com/myrjola/gymplan/internal/testhelpers"
)

const (
	scenarioTimeout      = 30 * time.Second
	successRateThreshold = 95.0
	percentageMultiplier = 100
	// firstUserID keeps stress test users apart from real ones.
	firstUserID = 1_000_000_000
)

//nolint:gochecknoglobals // scenario inputs
var (
	goals      = []planner.Goal{planner.GoalStrength, planner.GoalBuildMuscle, planner.GoalLoseFat, planner.GoalEndurance}
	facilities = []int{1, 2, 3, 4}
)

type results struct {
	succeeded atomic.Int64
	failed    atomic.Int64
}

func (r *results) record(err error) {
	if err != nil {
		r.failed.Add(1)
		return
	}
	r.succeeded.Add(1)
}

func (r *results) successRate() float64 {
	total := r.succeeded.Load() + r.failed.Load()
	if total == 0 {
		return 0
	}
	return float64(r.succeeded.Load()) / float64(total) * percentageMultiplier
}

// runScenario stores preferences for the user, generates a plan and recalibrates it to every facility.
func runScenario(ctx context.Context, client *e2etest.Client, user int, res *results) error {
	ctx, cancel := context.WithTimeout(ctx, scenarioTimeout)
	defer cancel()

	prefs := planner.Preferences{
		Goal:           goals[user%len(goals)],
		ActivityLevel:  "",
		WorkoutLevel:   planner.LevelIntermediate,
		WorkoutDays:    2 + user%5, //nolint:mnd // two to six days
		SessionMinutes: 45,         //nolint:mnd // a typical session
		WorkoutPlace:   "",
		PreferredStyle: "",
		Injuries:       nil,
	}
	status, err := client.DoJSON(ctx, http.MethodPut, "/preferences", prefs, nil)
	if err == nil && status != http.StatusNoContent {
		err = fmt.Errorf("save preferences: status %d", status)
	}
	res.record(err)
	if err != nil {
		return err
	}

	var plan planner.Plan
	status, err = client.DoJSON(ctx, http.MethodPost, "/plans/generate", nil, &plan)
	if err == nil && status != http.StatusCreated {
		err = fmt.Errorf("generate plan: status %d", status)
	}
	res.record(err)
	if err != nil {
		return err
	}

	for _, facilityID := range facilities {
		status, err = client.DoJSON(ctx, http.MethodPost, "/plans/"+strconv.Itoa(plan.ID)+"/recalibrate",
			map[string]any{"facility_id": facilityID, "set_as_facility": true}, nil)
		if err == nil && status != http.StatusOK {
			err = fmt.Errorf("recalibrate plan to facility %d: status %d", facilityID, status)
		}
		res.record(err)
	}
	return nil
}

func run(ctx context.Context, logger *slog.Logger, url string, users, concurrency int) error {
	client, err := e2etest.NewClient(url)
	if err != nil {
		return errors.Wrap(err, "new client")
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for ready")
	}

	var (
		res   results
		start = time.Now()
		g     errgroup.Group
	)
	g.SetLimit(concurrency)
	for i := range users {
		g.Go(func() error {
			if scenarioErr := runScenario(ctx, client.AsUser(firstUserID+i), i, &res); scenarioErr != nil {
				logger.LogAttrs(ctx, slog.LevelWarn, "scenario failed",
					slog.Int("user", i), errors.SlogError(scenarioErr))
			}
			return nil
		})
	}
	_ = g.Wait()

	rate := res.successRate()
	logger.LogAttrs(ctx, slog.LevelInfo, "stress test finished",
		slog.Int64("succeeded", res.succeeded.Load()),
		slog.Int64("failed", res.failed.Load()),
		slog.Float64("success_rate", rate),
		slog.Duration("duration", time.Since(start)))
	if rate < successRateThreshold {
		return errors.New("success rate below threshold", slog.Float64("success_rate", rate))
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	users := flag.Int("users", 50, "number of simulated users")           //nolint:mnd // default load
	concurrency := flag.Int("concurrency", 10, "concurrent scenarios") //nolint:mnd // default load
	flag.Parse()
	if flag.NArg() != 1 {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest [-users n] [-concurrency n] <hostname>")
		os.Exit(1)
	}

	hostname := flag.Arg(0)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if err := run(ctx, logger, url, *users, *concurrency); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "stress test failed", errors.SlogError(err))
		os.Exit(1)
	}
}
