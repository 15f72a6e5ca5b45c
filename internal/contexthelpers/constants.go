package contexthelpers

type contextKey string

const AuthenticatedUserIDContextKey = contextKey("authenticatedUserID")
const RequestIDContextKey = contextKey("requestID")
