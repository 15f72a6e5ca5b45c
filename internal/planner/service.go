// Package planner generates seven-day workout plans from templates and recalibrates them to the equipment of a
// facility.
package planner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/logging"
	"github.com/myrjola/gymplan/internal/sqlite"
)

// Service is the entry point for plan generation and recalibration. Every mutation runs in one transaction and
// mutations of the same user are serialised.
type Service struct {
	db     *sqlite.Database
	logger *slog.Logger
	locks  *userLocks
	now    func() time.Time
}

// NewService creates a new planner service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		locks:  newUserLocks(),
		now:    time.Now,
	}
}

// withUserTx runs fn in a transaction while holding the lock of userID.
func (s *Service) withUserTx(ctx context.Context, userID int, fn func(repos repositories) error) error {
	release, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer release()
	return s.db.WithTx(ctx, func(tx *sql.Tx) error { //nolint:wrapcheck // fn errors are wrapped by callers
		return fn(newRepositories(tx))
	})
}

func (s *Service) recalibrator(repos repositories) recalibrator {
	return recalibrator{
		catalog:  repos.catalog,
		plans:    repos.plans,
		selector: selector{catalog: repos.catalog, logger: s.logger},
		logger:   s.logger,
	}
}

// GeneratePlan replaces the active plan of the user with a freshly generated one. When o.FacilityID is set the new
// plan is recalibrated to that facility in the same transaction.
func (s *Service) GeneratePlan(ctx context.Context, userID int, o Overrides) (Plan, error) {
	ctx = logging.WithAttrs(ctx, slog.Int("user_id", userID))
	var plan Plan
	err := s.withUserTx(ctx, userID, func(repos repositories) error {
		prefs, err := repos.prefs.Get(ctx, userID)
		if err != nil {
			return err
		}
		preferred, err := repos.catalog.PreferredEquipmentIDs(ctx, userID)
		if err != nil {
			return err
		}
		gc, err := ResolveContext(userID, prefs, preferred, o)
		if err != nil {
			return err
		}
		if o.FacilityID != nil {
			if err = ensureFacility(ctx, repos.catalog, *o.FacilityID); err != nil {
				return err
			}
		}

		templates, err := repos.catalog.TemplatesByGoal(ctx, gc.Goal)
		if err != nil {
			return err
		}
		tpl, err := SelectTemplate(templates, gc)
		if err != nil {
			return err
		}
		days, err := repos.catalog.TemplateDays(ctx, tpl.ID)
		if err != nil {
			return err
		}
		gen := generator{
			catalog:  repos.catalog,
			selector: selector{catalog: repos.catalog, logger: s.logger},
			logger:   s.logger,
		}
		built, err := gen.build(ctx, gc, tpl, days, s.now())
		if err != nil {
			return fmt.Errorf("build plan: %w", err)
		}

		if err = repos.plans.DeleteActivePlan(ctx, userID); err != nil {
			return err
		}
		if plan, err = repos.plans.Create(ctx, built); err != nil {
			return err
		}
		ctx = logging.WithAttrs(ctx, slog.Int("plan_id", plan.ID))
		s.logger.LogAttrs(ctx, slog.LevelInfo, "generated plan", slog.Int("template_id", tpl.ID))

		if o.FacilityID != nil {
			notices, err := s.recalibratePlan(ctx, repos, gc, &plan, tpl, *o.FacilityID, true, false)
			if err != nil {
				return err
			}
			s.logger.LogAttrs(ctx, slog.LevelInfo, "recalibrated generated plan",
				slog.Int("facility_id", *o.FacilityID), slog.String("summary", Summary(notices)))
		}
		plan, err = repos.plans.Get(ctx, plan.ID)
		return err
	})
	if err != nil {
		return Plan{}, errors.Wrap(err, "generate plan", slog.Int("user_id", userID))
	}
	return plan, nil
}

// RecalibrateWholePlan adapts every day of a plan to the equipment of a facility. setAsFacility makes the facility
// the plan facility and clearDayOverrides removes the facility overrides of the days instead of pointing them to
// the facility.
func (s *Service) RecalibrateWholePlan(
	ctx context.Context,
	userID, planID, facilityID int,
	setAsFacility, clearDayOverrides bool,
) (Plan, []Notice, error) {
	ctx = logging.WithAttrs(ctx, slog.Int("user_id", userID), slog.Int("plan_id", planID))
	var (
		plan    Plan
		notices []Notice
	)
	err := s.withUserTx(ctx, userID, func(repos repositories) error {
		var err error
		if plan, err = repos.plans.Get(ctx, planID); err != nil {
			return err
		}
		if plan.UserID != userID {
			return errors.Wrap(ErrUnauthorized, "recalibrate plan", slog.Int("plan_id", planID))
		}
		gc, tpl, err := s.recalibrationInputs(ctx, repos, userID, plan.TemplateID, facilityID)
		if err != nil {
			return err
		}
		if notices, err = s.recalibratePlan(ctx, repos, gc, &plan, tpl, facilityID, setAsFacility,
			clearDayOverrides); err != nil {
			return err
		}
		plan, err = repos.plans.Get(ctx, planID)
		return err
	})
	if err != nil {
		return Plan{}, nil, errors.Wrap(err, "recalibrate whole plan", slog.Int("facility_id", facilityID))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "recalibrated plan",
		slog.Int("facility_id", facilityID), slog.String("summary", Summary(notices)))
	return plan, notices, nil
}

// RecalibrateSingleDay adapts one plan day to the equipment of a facility and records the facility on the day.
func (s *Service) RecalibrateSingleDay(
	ctx context.Context,
	userID, planDayID, facilityID int,
) (PlanDay, []Notice, error) {
	ctx = logging.WithAttrs(ctx, slog.Int("user_id", userID), slog.Int("plan_day_id", planDayID))
	var (
		day     PlanDay
		notices []Notice
	)
	err := s.withUserTx(ctx, userID, func(repos repositories) error {
		var (
			owner int
			err   error
		)
		if day, owner, err = repos.plans.GetDay(ctx, planDayID); err != nil {
			return err
		}
		if owner != userID {
			return errors.Wrap(ErrUnauthorized, "recalibrate day", slog.Int("plan_day_id", planDayID))
		}
		plan, err := repos.plans.Get(ctx, day.PlanID)
		if err != nil {
			return err
		}
		gc, tpl, err := s.recalibrationInputs(ctx, repos, userID, plan.TemplateID, facilityID)
		if err != nil {
			return err
		}
		rc := recalibration{
			gc:     gc,
			policy: NewTimePolicy(gc.SessionMinutes, tpl.SessionMinutesMin, tpl.SessionMinutesMax),
			scope:  ScopeDay,
			planID: plan.ID,
		}
		if notices, err = s.recalibrator(repos).day(ctx, rc, &day); err != nil {
			return err
		}
		day.FacilityID = facilityID
		if err = repos.plans.UpdateDay(ctx, day); err != nil {
			return err
		}
		day, _, err = repos.plans.GetDay(ctx, planDayID)
		return err
	})
	if err != nil {
		return PlanDay{}, nil, errors.Wrap(err, "recalibrate single day", slog.Int("facility_id", facilityID))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "recalibrated day",
		slog.Int("facility_id", facilityID), slog.String("summary", Summary(notices)))
	return day, notices, nil
}

// recalibrationInputs loads what a recalibration needs and validates the facility before anything is written.
func (s *Service) recalibrationInputs(
	ctx context.Context,
	repos repositories,
	userID, templateID, facilityID int,
) (GenerationContext, Template, error) {
	prefs, err := repos.prefs.Get(ctx, userID)
	if err != nil {
		return GenerationContext{}, Template{}, err
	}
	if err = ensureFacility(ctx, repos.catalog, facilityID); err != nil {
		return GenerationContext{}, Template{}, err
	}
	preferred, err := repos.catalog.PreferredEquipmentIDs(ctx, userID)
	if err != nil {
		return GenerationContext{}, Template{}, err
	}
	available, err := repos.catalog.FacilityEquipmentIDs(ctx, facilityID)
	if err != nil {
		return GenerationContext{}, Template{}, err
	}
	tpl, err := repos.catalog.Template(ctx, templateID)
	if err != nil {
		return GenerationContext{}, Template{}, err
	}
	gc := buildContext(userID, prefs, preferred, Overrides{}).withAvailableEquipment(available)
	return gc, tpl, nil
}

// recalibratePlan runs the day loop over every day of plan and records the facility association.
func (s *Service) recalibratePlan(
	ctx context.Context,
	repos repositories,
	gc GenerationContext,
	plan *Plan,
	tpl Template,
	facilityID int,
	setAsFacility, clearDayOverrides bool,
) ([]Notice, error) {
	if len(gc.AvailableEquipmentIDs) == 0 {
		available, err := repos.catalog.FacilityEquipmentIDs(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		gc = gc.withAvailableEquipment(available)
	}
	rc := recalibration{
		gc:     gc,
		policy: NewTimePolicy(gc.SessionMinutes, tpl.SessionMinutesMin, tpl.SessionMinutesMax),
		scope:  ScopePlan,
		planID: plan.ID,
	}
	rec := s.recalibrator(repos)
	var notices []Notice
	for i := range plan.Days {
		day := &plan.Days[i]
		dayNotices, err := rec.day(ctx, rc, day)
		if err != nil {
			return nil, fmt.Errorf("recalibrate %s: %w", day.WeekdayName, err)
		}
		notices = append(notices, dayNotices...)
		day.FacilityID = facilityID
		if clearDayOverrides {
			day.FacilityID = 0
		}
		if err = repos.plans.UpdateDay(ctx, *day); err != nil {
			return nil, err
		}
	}
	if setAsFacility {
		plan.FacilityID = facilityID
		if err := repos.plans.SetFacility(ctx, plan.ID, facilityID); err != nil {
			return nil, err
		}
	}
	return notices, nil
}

func ensureFacility(ctx context.Context, catalog Catalog, facilityID int) error {
	exists, err := catalog.FacilityExists(ctx, facilityID)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the catalog
	}
	if !exists {
		return errors.Wrap(ErrFacilityNotFound, "ensure facility", slog.Int("facility_id", facilityID))
	}
	return nil
}

// GetPlan returns a plan owned by the user.
func (s *Service) GetPlan(ctx context.Context, userID, planID int) (Plan, error) {
	plan, err := newRepositories(s.db.ReadOnly).plans.Get(ctx, planID)
	if err != nil {
		return Plan{}, errors.Wrap(err, "get plan")
	}
	if plan.UserID != userID {
		return Plan{}, errors.Wrap(ErrUnauthorized, "get plan", slog.Int("plan_id", planID))
	}
	return plan, nil
}

// ActivePlan returns the active plan of the user or ErrPlanNotFound.
func (s *Service) ActivePlan(ctx context.Context, userID int) (Plan, error) {
	repos := newRepositories(s.db.ReadOnly)
	planID, err := repos.plans.ActivePlanID(ctx, userID)
	if err != nil {
		return Plan{}, errors.Wrap(err, "active plan")
	}
	plan, err := repos.plans.Get(ctx, planID)
	if err != nil {
		return Plan{}, errors.Wrap(err, "active plan")
	}
	return plan, nil
}

// Preferences returns the stored preferences or ErrPreferencesNotFound.
func (s *Service) Preferences(ctx context.Context, userID int) (Preferences, error) {
	prefs, err := newRepositories(s.db.ReadOnly).prefs.Get(ctx, userID)
	if err != nil {
		return Preferences{}, errors.Wrap(err, "get preferences")
	}
	return prefs, nil
}

// SavePreferences validates and stores preferences. Goal and workout days may be left empty but must be valid
// when set.
func (s *Service) SavePreferences(ctx context.Context, userID int, prefs Preferences) error {
	prefs.Goal = Goal(normalize(string(prefs.Goal)))
	if prefs.Goal != "" && !prefs.Goal.valid() {
		return errors.Wrap(ErrInvalidGoal, "save preferences", slog.String("goal", string(prefs.Goal)))
	}
	prefs.WorkoutLevel = Level(normalize(string(prefs.WorkoutLevel)))
	if prefs.WorkoutLevel != "" && !prefs.WorkoutLevel.valid() {
		return errors.Wrap(ErrInvalidLevel, "save preferences", slog.String("level", string(prefs.WorkoutLevel)))
	}
	if prefs.WorkoutDays != 0 && (prefs.WorkoutDays < 1 || prefs.WorkoutDays > 7) {
		return errors.Wrap(ErrInvalidSchedule, "save preferences", slog.Int("days", prefs.WorkoutDays))
	}
	if err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return newRepositories(tx).prefs.Set(ctx, userID, prefs)
	}); err != nil {
		return errors.Wrap(err, "save preferences")
	}
	return nil
}

// SetPreferredEquipment replaces the equipment the user prefers to train with.
func (s *Service) SetPreferredEquipment(ctx context.Context, userID int, equipmentIDs []int) error {
	if err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return newRepositories(tx).prefs.SetPreferredEquipment(ctx, userID, equipmentIDs)
	}); err != nil {
		return errors.Wrap(err, "set preferred equipment")
	}
	return nil
}
