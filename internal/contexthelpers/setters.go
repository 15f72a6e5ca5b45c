package contexthelpers

import (
	"context"
	"net/http"
)

func AuthenticateContext(r *http.Request, userID int) *http.Request {
	ctx := context.WithValue(r.Context(), AuthenticatedUserIDContextKey, userID)
	return r.WithContext(ctx)
}

func SetRequestID(r *http.Request, requestID string) *http.Request {
	ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
	return r.WithContext(ctx)
}
