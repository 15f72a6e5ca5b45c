package main

import (
	"net/http"

	"github.com/myrjola/gymplan/internal/contexthelpers"
	"github.com/myrjola/gymplan/internal/planner"
)

// planExercisePATCH swaps the exercise or edits the volume of a plan exercise. Omitted fields are kept.
func (app *application) planExercisePATCH(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	var edit planner.ExerciseEdit
	if err := readJSON(w, r, &edit); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	row, err := app.planner.UpdatePlanExercise(r.Context(), userID, id, edit)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, row)
}

// planExerciseDELETE removes a plan exercise and responds with the day it belonged to.
func (app *application) planExerciseDELETE(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	day, err := app.planner.DeletePlanExercise(r.Context(), userID, id)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, day)
}
