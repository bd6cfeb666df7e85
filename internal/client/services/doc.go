// Package services contains the application services of the PinShare client.
//
// SharingService coordinates the two storage backends: content goes to the
// pinning service, metadata to the metadata service. AuthService wraps the
// account endpoints and hands issued tokens to the session monitor.
package services
