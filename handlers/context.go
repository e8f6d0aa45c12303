// Package handlers holds the HTTP endpoints. Handlers stay thin: parse the
// request, call a service, write the envelope. All rules live in services.
package handlers

import "net/http"

type contextKey string

// UserIDContextKey is where the auth middleware puts the verified caller id.
const UserIDContextKey contextKey = "user_id"

// callerID pulls the authenticated user id off the request context.
func callerID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(UserIDContextKey).(string)
	return id, ok && id != ""
}
