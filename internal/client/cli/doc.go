// Package cli provides the interactive PinShare command-line client.
//
// It wires configuration, local token storage, the session monitor, the
// request gateways, the sharing and auth services, and a REPL whose
// commands are routed through the navigation guard. While the REPL runs a
// background monitor re-validates the stored session and sends the user
// back to login when it ends.
//
// Key features:
//   - Login / Signup / Verify / Logout
//   - Upload, list and delete pinned files
//   - Create, list and delete share links
//   - Open a public share without a session
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and the navigation package for details.
package cli
