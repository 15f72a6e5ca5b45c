package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/planner"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body. Encoding failures are only logged because the header has already been
// sent.
func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to write response", errors.SlogError(err))
	}
}

// readJSON decodes the request body into dst and rejects unknown fields.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("body must contain a single JSON value")
	}
	return nil
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	app.writeJSON(w, r, status, errorResponse{Error: msg})
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.clientError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// plannerError maps the planner sentinels to client errors and everything else to 500.
func (app *application) plannerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, planner.ErrInvalidGoal),
		errors.Is(err, planner.ErrInvalidLevel),
		errors.Is(err, planner.ErrInvalidSchedule),
		errors.Is(err, planner.ErrInvalidExerciseEdit),
		errors.Is(err, planner.ErrExerciseNotFound):
		app.clientError(w, r, http.StatusUnprocessableEntity, rootMessage(err))
	case errors.Is(err, planner.ErrPreferencesNotFound),
		errors.Is(err, planner.ErrPlanNotFound),
		errors.Is(err, planner.ErrPlanDayNotFound),
		errors.Is(err, planner.ErrPlanExerciseNotFound),
		errors.Is(err, planner.ErrFacilityNotFound),
		errors.Is(err, planner.ErrNoTemplateFound):
		app.clientError(w, r, http.StatusNotFound, rootMessage(err))
	case errors.Is(err, planner.ErrUnauthorized):
		app.clientError(w, r, http.StatusForbidden, rootMessage(err))
	default:
		app.serverError(w, r, err)
	}
}

// rootMessage is the message of the innermost error so that internal context is not leaked to the client.
func rootMessage(err error) string {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err.Error()
		}
		err = inner
	}
}

// parseIDParam parses the "id" path parameter. On failure it responds with 404 Not Found.
func (app *application) parseIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		app.notFound(w, r)
		return 0, false
	}
	return id, true
}
