package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/metrics"
	"github.com/Ammar-alrfee/fit-manager/internal/middleware"
	"github.com/Ammar-alrfee/fit-manager/internal/session"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	issuer   *auth.Issuer
	throttle *auth.Throttle
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service. throttle may be nil.
func NewAuthService(issuer *auth.Issuer, throttle *auth.Throttle, logger *slog.Logger) *AuthService {
	return &AuthService{
		issuer:   issuer,
		throttle: throttle,
		logger:   logger,
	}
}

// Routes returns the service's handlers.
func (s *AuthService) Routes(opts ...connect.HandlerOption) []Route {
	return []Route{
		{ProcedureLogin, connect.NewUnaryHandler(ProcedureLogin, s.Login, opts...)},
		{ProcedureMe, connect.NewUnaryHandler(ProcedureMe, s.Me, opts...)},
	}
}

// Login authenticates a staff member and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	s.logger.Info("Login request", "username", req.Msg.Username)

	// Missing fields can never match an account
	if req.Msg.Username == "" || req.Msg.Password == "" {
		metrics.Logins.WithLabelValues(metrics.ResultInvalid).Inc()
		s.logger.Warn("Login failed", "username", req.Msg.Username, "reason", "missing credentials")
		return nil, toConnectError(auth.ErrInvalidCredentials)
	}

	if !s.throttle.Allow(req.Msg.Username) {
		metrics.Logins.WithLabelValues(metrics.ResultThrottled).Inc()
		s.logger.Warn("Login throttled", "username", req.Msg.Username)
		return nil, toConnectError(auth.ErrTooManyAttempts)
	}

	grant, err := s.issuer.Login(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues(metrics.ResultInvalid).Inc()
			s.logger.Warn("Login failed", "username", req.Msg.Username)
			return nil, toConnectError(auth.ErrInvalidCredentials)
		}
		metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("Failed to issue token", "username", req.Msg.Username, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	metrics.Logins.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info("User logged in successfully", "user_id", grant.Identity.ID, "role", grant.Identity.Role)
	return connect.NewResponse(&LoginResponse{
		User:      grant.Identity,
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
	}), nil
}

// Me returns the caller's identity as carried by the token, with the areas
// its role may reach.
func (s *AuthService) Me(ctx context.Context, req *connect.Request[MeRequest]) (*connect.Response[MeResponse], error) {
	identity, ok := middleware.GetIdentity(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	return connect.NewResponse(&MeResponse{
		User:  identity,
		Areas: session.Areas(identity.Role),
	}), nil
}
