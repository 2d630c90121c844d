package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"pokemcp/internal/identity"
	"pokemcp/internal/profile"
	"pokemcp/pkg/logging"
)

// DefaultIntrospectionTimeout bounds each introspection call.
const DefaultIntrospectionTimeout = 10 * time.Second

const subsystem = "TokenValidator"

// ErrUnauthenticated is the only error Authenticate returns.
var ErrUnauthenticated = errors.New("unauthenticated")

// ValidatorConfig configures a TokenValidator.
type ValidatorConfig struct {
	// Backend introspects tokens. Required.
	Backend identity.Backend

	// Profiles enriches principals. Optional.
	Profiles profile.Store

	// Timeout defaults to DefaultIntrospectionTimeout.
	Timeout time.Duration
}

// TokenValidator converts bearer tokens into principals. It keeps no state
// between calls.
type TokenValidator struct {
	backend  identity.Backend
	profiles profile.Store
	timeout  time.Duration
}

// NewTokenValidator creates a validator.
func NewTokenValidator(cfg ValidatorConfig) (*TokenValidator, error) {
	if cfg.Backend == nil {
		return nil, errors.New("identity backend is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultIntrospectionTimeout
	}

	return &TokenValidator{
		backend:  cfg.Backend,
		profiles: cfg.Profiles,
		timeout:  timeout,
	}, nil
}

// Authenticate introspects token and returns the principal it belongs to.
// Every failure yields ErrUnauthenticated; the cause is logged only.
func (v *TokenValidator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		logging.Debug(subsystem, "Rejecting call without bearer token")
		return nil, ErrUnauthenticated
	}

	introspectCtx, cancel := context.WithTimeout(ctx, v.timeout)
	user, err := v.backend.Introspect(introspectCtx, token)
	cancel()

	if err != nil {
		if identity.IsTransportError(err) || errors.Is(err, context.DeadlineExceeded) {
			logging.Warn(subsystem, "Introspection unavailable, failing closed: %v", err)
			v.audit("introspection_unavailable")
		} else {
			logging.Info(subsystem, "Identity provider rejected token: %v", err)
			v.audit("token_rejected")
		}
		return nil, ErrUnauthenticated
	}
	if user == nil || user.ID == "" {
		logging.Warn(subsystem, "Introspection returned no user, failing closed")
		v.audit("introspection_empty")
		return nil, ErrUnauthenticated
	}

	// The token was accepted by the provider just above; only now may its
	// claims be read without verification.
	claims, err := decodeClaims(token)
	if err != nil {
		logging.Warn(subsystem, "Introspected token has unreadable claims: %v", err)
		v.audit("claims_undecodable")
		return nil, ErrUnauthenticated
	}
	if claims.Subject != "" && claims.Subject != user.ID {
		logging.Warn(subsystem, "Token subject does not match introspected user %s", user.ID)
		v.audit("subject_mismatch")
		return nil, ErrUnauthenticated
	}

	email := user.Email
	if email == "" {
		email = claims.Email
	}

	return &Principal{
		UserID:        user.ID,
		Email:         email,
		Scopes:        claims.Scopes,
		ExpiresAt:     claims.ExpiresAt,
		Introspection: user,
	}, nil
}

// UserContext authenticates token and looks up the user's profile. A user
// without a profile is still authenticated.
func (v *TokenValidator) UserContext(ctx context.Context, token string) (*UserContext, error) {
	p, err := v.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	uc := &UserContext{User: p.Introspection}
	if v.profiles != nil {
		uc.Profile = v.profiles.Get(ctx, p.UserID)
	}
	return uc, nil
}

// Enrich attaches the principal's profile, creating an empty one on first
// use. Profile failures never reject the call.
func (v *TokenValidator) Enrich(ctx context.Context, p *Principal) {
	if v.profiles == nil || p == nil {
		return
	}

	p.Profile = profile.GetOrCreate(ctx, v.profiles, p.UserID, p.Email)
	if p.Profile == nil {
		logging.Warn(subsystem, "Continuing without profile for %s", p.UserID)
	}
}

func (v *TokenValidator) audit(reason string) {
	logging.Audit("auth_rejected", "Tool call rejected", "reason", reason)
}
