package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/pinshare/internal/client/gateway"
	"github.com/dmitrijs2005/pinshare/internal/client/models"
	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/dmitrijs2005/pinshare/internal/logging"
)

// ErrNoToken is returned when /login answers without a token.
var ErrNoToken = errors.New("login response has no token")

// AuthService defines the account operations of the client.
//
// Contract:
//   - Login: authenticate and persist the issued token and user id.
//   - Signup: create an account; verification happens with VerifyOTP.
//   - VerifyOTP: confirm the account; a returned token is persisted.
//   - Logout: notify the backend and drop local credentials regardless
//     of the backend's answer.
//   - CurrentUser: fetch the profile of the logged-in user.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Signup(ctx context.Context, username, email, password string) (*models.SignupResponse, error)
	VerifyOTP(ctx context.Context, otp, id string) (*models.LoginResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Sessions is the part of the session monitor the auth service drives.
type Sessions interface {
	Authenticate(ctx context.Context, token, userID string) error
	Logout(ctx context.Context) error
}

type authService struct {
	api      gateway.Client
	sessions Sessions
	log      logging.Logger
}

func NewAuthService(api gateway.Client, sessions Sessions, log logging.Logger) AuthService {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &authService{api: api, sessions: sessions, log: log}
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	res, err := a.api.Request(ctx, "/login", gateway.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	var out models.LoginResponse
	if err := res.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" {
		return nil, ErrNoToken
	}
	if err := a.sessions.Authenticate(ctx, out.Token, out.UserID.String()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	a.log.Info(ctx, "logged in", "user_id", out.UserID.String())
	return &out, nil
}

func (a *authService) Signup(ctx context.Context, username, email, password string) (*models.SignupResponse, error) {
	res, err := a.api.Request(ctx, "/signup", gateway.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"username": username, "email": email, "password": password},
	})
	if err != nil {
		return nil, fmt.Errorf("signup error: %w", err)
	}

	var out models.SignupResponse
	if err := res.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	return &out, nil
}

// VerifyOTP persists a token only when the backend returns one.
func (a *authService) VerifyOTP(ctx context.Context, otp, id string) (*models.LoginResponse, error) {
	res, err := a.api.Request(ctx, "/verify", gateway.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"otp": otp, "id": id},
	})
	if err != nil {
		return nil, fmt.Errorf("verify error: %w", err)
	}

	var out models.LoginResponse
	if err := res.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	if out.Token != "" {
		if err := a.sessions.Authenticate(ctx, out.Token, out.UserID.String()); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
	}
	return &out, nil
}

// Logout returns the backend error, if any, after local credentials are
// gone. A rejected token means the session was already over.
func (a *authService) Logout(ctx context.Context) error {
	_, reqErr := a.api.Request(ctx, "/logout", gateway.Options{Method: http.MethodPost})
	if errors.Is(reqErr, common.ErrSessionExpired) {
		reqErr = nil
	}
	if reqErr != nil {
		a.log.Warn(ctx, "logout request failed", "error", reqErr)
		reqErr = fmt.Errorf("logout error: %w", reqErr)
	}

	if err := a.sessions.Logout(ctx); err != nil {
		return errors.Join(reqErr, err)
	}
	return reqErr
}

func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	res, err := a.api.Request(ctx, "/getUser", gateway.Options{})
	if err != nil {
		return nil, fmt.Errorf("get user error: %w", err)
	}
	var u models.User
	if err := res.Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}
