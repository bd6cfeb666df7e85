package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pinshare/internal/client/navigation"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for an email and password and signs in. On success the
// client moves to the home route.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	if _, err := a.auth.Login(ctx, email, string(password)); err != nil {
		a.printf("Login unsuccessful: %v\n", err)
		return err
	}

	a.mu.Lock()
	a.userName = email
	a.mu.Unlock()
	a.setCurrent(navigation.Routes[navigation.Home])
	a.printf("Login successful\n")
	return nil
}

// Signup creates an account. The backend answers with a pending id that
// Verify confirms with the emailed code.
func (a *App) Signup(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	resp, err := a.auth.Signup(ctx, username, email, string(password))
	if err != nil {
		a.printf("Signup unsuccessful: %v\n", err)
		return err
	}

	a.mu.Lock()
	a.pendingID = resp.ID.String()
	a.mu.Unlock()
	a.setCurrent(navigation.Routes[navigation.OTP].Resolve(resp.ID.String()))
	if resp.Message != "" {
		a.printf("%s\n", resp.Message)
	}
	a.printf("Enter the code you received with: verify <code>\n")
	return nil
}

// Verify confirms a signup with the one-time code. id defaults to the
// account created by the last Signup.
func (a *App) Verify(ctx context.Context, otp, id string) error {
	if id == "" {
		a.mu.Lock()
		id = a.pendingID
		a.mu.Unlock()
	}
	if id == "" {
		return fmt.Errorf("no pending signup, usage: verify <code> <id>")
	}

	resp, err := a.auth.VerifyOTP(ctx, otp, id)
	if err != nil {
		a.printf("Verification failed: %v\n", err)
		return err
	}

	a.mu.Lock()
	a.pendingID = ""
	a.mu.Unlock()
	if resp.Token != "" {
		a.setCurrent(navigation.Routes[navigation.Home])
		a.printf("Account verified, you are signed in\n")
	} else {
		a.setCurrent(navigation.Routes[navigation.Login])
		a.printf("Account verified, type 'login' to sign in\n")
	}
	return nil
}

// Logout ends the session. Local credentials are cleared even when the
// backend call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	a.mu.Lock()
	a.userName = ""
	a.mu.Unlock()
	a.setCurrent(navigation.Routes[navigation.Login])
	if err != nil {
		a.printf("Logged out locally: %v\n", err)
		return err
	}
	a.printf("Logged out\n")
	return nil
}

// WhoAmI prints the profile of the signed-in user.
func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.auth.CurrentUser(ctx)
	if err != nil {
		a.printf("Could not load profile: %v\n", err)
		return err
	}
	a.mu.Lock()
	if u.Email != "" {
		a.userName = u.Email
	}
	a.mu.Unlock()
	a.printf("id: %s\nusername: %s\nemail: %s\n", u.ID, u.Username, u.Email)
	return nil
}
