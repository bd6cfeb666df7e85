// Package common contains shared constants and sentinel errors used across
// PinShare components.
package common

const (
	// AuthTokenKey is the client storage key holding the bearer token.
	AuthTokenKey = "authToken"

	// UserIDKey is the client storage key holding the current user id.
	UserIDKey = "userId"

	// AuthorizationHeaderName carries the bearer token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "

	// LoginRoute is where expired sessions are redirected.
	LoginRoute = "/login"

	// SessionExpiredMessage is shown to the user when a session ends on its own.
	SessionExpiredMessage = "Your session has expired. Please log in again."
)

// CredentialKeys lists every key a session owns in client storage.
var CredentialKeys = []string{AuthTokenKey, UserIDKey}
