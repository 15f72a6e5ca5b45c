package main

import (
	"net/http"

	"github.com/myrjola/gymplan/internal/contexthelpers"
	"github.com/myrjola/gymplan/internal/planner"
)

type preferredEquipmentRequest struct {
	EquipmentIDs []int `json:"equipment_ids"`
}

func (app *application) preferencesGET(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	prefs, err := app.planner.Preferences(r.Context(), userID)
	if err != nil {
		app.plannerError(w, r, err)
		return
	}
	if prefs.Injuries == nil {
		prefs.Injuries = []string{}
	}
	app.writeJSON(w, r, http.StatusOK, prefs)
}

func (app *application) preferencesPUT(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	var prefs planner.Preferences
	if err := readJSON(w, r, &prefs); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := app.planner.SavePreferences(r.Context(), userID, prefs); err != nil {
		app.plannerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) preferredEquipmentPUT(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	var req preferredEquipmentRequest
	if err := readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := app.planner.SetPreferredEquipment(r.Context(), userID, req.EquipmentIDs); err != nil {
		app.plannerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
