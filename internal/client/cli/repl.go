package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/pinshare/internal/client/navigation"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	navigate(ctx context.Context, to navigation.Route) bool

	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Verify(ctx context.Context, otp, id string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error

	Upload(ctx context.Context, path string) error
	Files(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Share(ctx context.Context, id, hours string) error
	Links(ctx context.Context) error
	Unshare(ctx context.Context, shareID string) error
	Open(ctx context.Context, shareID string) error
}

const (
	guestHelp = "Available commands: login, signup, verify <code> [id], open <shareId>, help, exit"
	authHelp  = "Available commands: upload <path>, files, delete <id>, share <id> <hours>, links, " +
		"unshare <shareId>, open <shareId>, whoami, logout, help, exit"
)

// runREPL starts a simple read–eval–print loop for the PinShare CLI.
//
// Each command maps to a navigation route; the route guard runs before the
// handler so commands needing a session redirect to login instead. The
// loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Guest:
//	  - login                      sign in
//	  - signup                     create an account
//	  - verify <code> [id]         confirm a signup
//
//	Signed in:
//	  - upload <path>              pin and register a file
//	  - files                      list files
//	  - delete <id>                delete a file and unpin it
//	  - share <id> <hours>         create a share link
//	  - links                      list share links
//	  - unshare <shareId>          delete a share link
//	  - whoami                     show the profile
//	  - logout                     sign out
//
//	Always:
//	  - open <shareId>             show a public share
//	  - help, exit | quit
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors to the user. Handlers prompt on the same reader, so the
// loop reads one line at a time instead of buffering ahead.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "pinshare %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		enter := func(name string, params ...string) bool {
			return a.navigate(ctx, navigation.Routes[name].Resolve(params...))
		}
		usage := func(n int, text string) bool {
			if len(args) < n {
				fmt.Fprintln(w, "Usage:", text)
				return false
			}
			return true
		}

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				fmt.Fprintln(w, authHelp)
			} else {
				fmt.Fprintln(w, guestHelp)
			}

		case "login":
			if enter(navigation.Login) {
				_ = a.Login(ctx)
			}

		case "signup", "register":
			if enter(navigation.Signup) {
				_ = a.Signup(ctx)
			}

		case "verify":
			if usage(1, "verify <code> [id]") {
				id := ""
				if len(args) > 1 {
					id = args[1]
				}
				if enter(navigation.OTP, id) {
					_ = a.Verify(ctx, args[0], id)
				}
			}

		case "upload":
			if usage(1, "upload <path>") && enter(navigation.Upload) {
				_ = a.Upload(ctx, strings.Join(args, " "))
			}

		case "files", "list", "l":
			if enter(navigation.Home) {
				_ = a.Files(ctx)
			}

		case "delete", "rm":
			if usage(1, "delete <id>") && enter(navigation.DeleteFile, args[0]) {
				_ = a.Delete(ctx, args[0])
			}

		case "share":
			if usage(2, "share <id> <hours>") && enter(navigation.Share, args[0]) {
				_ = a.Share(ctx, args[0], args[1])
			}

		case "links":
			if enter(navigation.Links) {
				_ = a.Links(ctx)
			}

		case "unshare":
			if usage(1, "unshare <shareId>") && enter(navigation.Unshare, args[0]) {
				_ = a.Unshare(ctx, args[0])
			}

		case "whoami":
			if enter(navigation.Profile) {
				_ = a.WhoAmI(ctx)
			}

		case "logout":
			if enter(navigation.Logout) {
				_ = a.Logout(ctx)
			}

		case "open":
			if usage(1, "open <shareId>") && enter(navigation.SharedFile, args[0]) {
				_ = a.Open(ctx, args[0])
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
