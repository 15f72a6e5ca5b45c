package main

import (
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(app.recoverPanic(secureHeaders(noCache(app.timeout(next)))))
		}
		authenticated = func(next http.Handler) http.Handler {
			return shared(app.authenticate(app.mustAuthenticate(next)))
		}
	)

	mux.Handle("GET /api/healthy", shared(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/test/timeout", shared(http.HandlerFunc(app.testTimeout)))

	mux.Handle("GET /preferences", authenticated(http.HandlerFunc(app.preferencesGET)))
	mux.Handle("PUT /preferences", authenticated(http.HandlerFunc(app.preferencesPUT)))
	mux.Handle("PUT /preferences/equipment", authenticated(http.HandlerFunc(app.preferredEquipmentPUT)))

	mux.Handle("POST /plans/generate", authenticated(http.HandlerFunc(app.planGeneratePOST)))
	mux.Handle("GET /plans/active", authenticated(http.HandlerFunc(app.planActiveGET)))
	mux.Handle("GET /plans/{id}", authenticated(http.HandlerFunc(app.planGET)))
	mux.Handle("POST /plans/{id}/recalibrate", authenticated(http.HandlerFunc(app.planRecalibratePOST)))
	mux.Handle("POST /plan-days/{id}/recalibrate", authenticated(http.HandlerFunc(app.planDayRecalibratePOST)))
	mux.Handle("PATCH /plan-exercises/{id}", authenticated(http.HandlerFunc(app.planExercisePATCH)))
	mux.Handle("DELETE /plan-exercises/{id}", authenticated(http.HandlerFunc(app.planExerciseDELETE)))

	mux.Handle("/", shared(http.HandlerFunc(app.notFound)))

	return mux
}
