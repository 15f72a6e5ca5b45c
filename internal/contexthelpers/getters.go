package contexthelpers

import (
	"context"
)

// AuthenticatedUserID returns the user id set by the authentication middleware, or 0 when absent.
func AuthenticatedUserID(ctx context.Context) int {
	userID, ok := ctx.Value(AuthenticatedUserIDContextKey).(int)
	if !ok {
		return 0
	}

	return userID
}

func IsAuthenticated(ctx context.Context) bool {
	return AuthenticatedUserID(ctx) > 0
}

func RequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDContextKey).(string)
	if !ok {
		return ""
	}

	return requestID
}
