// Package session tracks whether the stored credentials still authorize the
// user and performs the expiry side effects (credential wipe, notification,
// redirect to the login route) exactly once per transition.
//
// A Monitor re-validates the stored token on a fixed interval driven by
// robfig/cron and wraps outgoing requests so that a 401 from the backend
// ends the session the same way a locally expired token does.
package session
