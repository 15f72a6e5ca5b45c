package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/myrjola/gymplan/internal/errors"
)

// sqlitePreferenceRepository stores user preferences and preferred equipment.
type sqlitePreferenceRepository struct {
	q queryer
}

// Get returns ErrPreferencesNotFound when the user has never saved preferences.
func (r *sqlitePreferenceRepository) Get(ctx context.Context, userID int) (Preferences, error) {
	var (
		prefs                               Preferences
		goal, activity, level, place, style sql.NullString
		days, minutes                       sql.NullInt64
		injuries                            string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT goal, activity_level, workout_level, workout_days, session_minutes, workout_place, preferred_style,
		       injuries
		FROM user_preferences
		WHERE user_id = ?`, userID).Scan(
		&goal, &activity, &level, &days, &minutes, &place, &style, &injuries)
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, errors.Wrap(ErrPreferencesNotFound, "get preferences", slog.Int("user_id", userID))
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("query preferences: %w", err)
	}
	prefs.Goal = Goal(goal.String)
	prefs.ActivityLevel = activity.String
	prefs.WorkoutLevel = Level(level.String)
	prefs.WorkoutDays = int(days.Int64)
	prefs.SessionMinutes = int(minutes.Int64)
	prefs.WorkoutPlace = place.String
	prefs.PreferredStyle = style.String
	if err = json.Unmarshal([]byte(injuries), &prefs.Injuries); err != nil {
		return Preferences{}, fmt.Errorf("unmarshal injuries: %w", err)
	}
	return prefs, nil
}

// Set creates the user when needed and replaces the stored preferences.
func (r *sqlitePreferenceRepository) Set(ctx context.Context, userID int, prefs Preferences) error {
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, goal, activity_level, workout_level, workout_days, session_minutes,
		                              workout_place, preferred_style, injuries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET goal            = excluded.goal,
		                                    activity_level  = excluded.activity_level,
		                                    workout_level   = excluded.workout_level,
		                                    workout_days    = excluded.workout_days,
		                                    session_minutes = excluded.session_minutes,
		                                    workout_place   = excluded.workout_place,
		                                    preferred_style = excluded.preferred_style,
		                                    injuries        = excluded.injuries`,
		userID,
		nullString(string(prefs.Goal)),
		nullString(prefs.ActivityLevel),
		nullString(string(prefs.WorkoutLevel)),
		nullID(prefs.WorkoutDays),
		nullID(prefs.SessionMinutes),
		nullString(prefs.WorkoutPlace),
		nullString(prefs.PreferredStyle),
		jsonArray(prefs.Injuries),
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// SetPreferredEquipment replaces the preferred equipment of the user. Unknown equipment ids are ignored.
func (r *sqlitePreferenceRepository) SetPreferredEquipment(ctx context.Context, userID int, equipmentIDs []int) error {
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM user_preferred_equipment WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear preferred equipment: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO user_preferred_equipment (user_id, equipment_id)
		SELECT DISTINCT ?, value
		FROM json_each(?)
		WHERE value IN (SELECT id FROM equipment)`, userID, jsonArray(equipmentIDs)); err != nil {
		return fmt.Errorf("insert preferred equipment: %w", err)
	}
	return nil
}

func (r *sqlitePreferenceRepository) ensureUser(ctx context.Context, userID int) error {
	if _, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id) VALUES (?) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
