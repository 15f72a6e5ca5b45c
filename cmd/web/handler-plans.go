package main

import (
	"io"
	"net/http"

	"github.com/myrjola/gymplan/internal/contexthelpers"
	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/planner"
)

type recalibrateRequest struct {
	FacilityID        int  `json:"facility_id"`
	SetAsFacility     bool `json:"set_as_facility"`
	ClearDayOverrides bool `json:"clear_day_overrides"`
}

type planRecalibrationResponse struct {
	Plan    planner.Plan     `json:"plan"`
	Notices []planner.Notice `json:"notices"`
	Summary string           `json:"summary"`
}

type dayRecalibrationResponse struct {
	Day     planner.PlanDay  `json:"day"`
	Notices []planner.Notice `json:"notices"`
	Summary string           `json:"summary"`
}

// planGeneratePOST generates a new active plan. The body holds optional overrides and may be empty.
func (app *application) planGeneratePOST(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	var o planner.Overrides
	if err := readJSON(w, r, &o); err != nil && !errors.Is(err, io.EOF) {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	plan, err := app.planner.GeneratePlan(r.Context(), userID, o)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, plan)
}

func (app *application) planActiveGET(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	plan, err := app.planner.ActivePlan(r.Context(), userID)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, plan)
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	plan, err := app.planner.GetPlan(r.Context(), userID, planID)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, plan)
}

func (app *application) planRecalibratePOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	req, ok := app.readRecalibrateRequest(w, r)
	if !ok {
		return
	}
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	plan, notices, err := app.planner.RecalibrateWholePlan(r.Context(), userID, planID, req.FacilityID,
		req.SetAsFacility, req.ClearDayOverrides)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, planRecalibrationResponse{
		Plan:    plan,
		Notices: nonNilNotices(notices),
		Summary: planner.Summary(notices),
	})
}

func (app *application) planDayRecalibratePOST(w http.ResponseWriter, r *http.Request) {
	planDayID, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	req, ok := app.readRecalibrateRequest(w, r)
	if !ok {
		return
	}
	if req.SetAsFacility || req.ClearDayOverrides {
		app.clientError(w, r, http.StatusUnprocessableEntity, "plan-wide options are not supported for a single day")
		return
	}
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	day, notices, err := app.planner.RecalibrateSingleDay(r.Context(), userID, planDayID, req.FacilityID)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, dayRecalibrationResponse{
		Day:     day,
		Notices: nonNilNotices(notices),
		Summary: planner.Summary(notices),
	})
}

func (app *application) readRecalibrateRequest(w http.ResponseWriter, r *http.Request) (recalibrateRequest, bool) {
	var req recalibrateRequest
	if err := readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return recalibrateRequest{}, false
	}
	if req.FacilityID <= 0 {
		app.clientError(w, r, http.StatusUnprocessableEntity, "facility_id is required")
		return recalibrateRequest{}, false
	}
	return req, true
}

func nonNilNotices(notices []planner.Notice) []planner.Notice {
	if notices == nil {
		return []planner.Notice{}
	}
	return notices
}
