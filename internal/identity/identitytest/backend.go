// Package identitytest provides an in-memory identity provider for tests.
//
// Backend implements identity.Backend directly and, through Handler, the
// subset of the GoTrue REST API that identity.GoTrueClient speaks. Passwords
// are stored as bcrypt hashes and access tokens are HS256 JWTs carrying sub,
// email, exp and scopes claims, so tokens issued here decode the same way
// real provider tokens do.
package identitytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pokemcp/internal/identity"
)

// Operation names accepted by Calls.
const (
	OpSignIn     = "sign_in"
	OpSignUp     = "sign_up"
	OpRefresh    = "refresh"
	OpSignOut    = "sign_out"
	OpIntrospect = "introspect"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = time.Hour

// ErrUserExists is returned by SignUp for an email that is already registered.
var ErrUserExists = errors.New("user already registered")

type account struct {
	user         identity.User
	passwordHash []byte
	confirmed    bool
}

// Backend is a fake identity provider. The exported fields may be set before
// the backend is used; the hook fields replace the default behavior of the
// corresponding operation while still being counted.
type Backend struct {
	// Now is the clock used to issue and check tokens. Defaults to time.Now.
	Now func() time.Time

	// TokenTTL is the access token lifetime. Defaults to DefaultTokenTTL.
	TokenTTL time.Duration

	// Scopes are embedded in every issued access token.
	Scopes []string

	// AutoConfirm marks new sign-ups as verified immediately.
	AutoConfirm bool

	// APIKey, when set, must be presented as the apikey header to Handler.
	APIKey string

	SignInFunc     func(ctx context.Context, email, password string) (*identity.AuthResponse, error)
	SignUpFunc     func(ctx context.Context, email, password string) (*identity.User, error)
	RefreshFunc    func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error)
	SignOutFunc    func(ctx context.Context, accessToken string) error
	IntrospectFunc func(ctx context.Context, accessToken string) (*identity.User, error)

	mu            sync.Mutex
	secret        []byte
	accounts      map[string]*account // by email
	refreshTokens map[string]string   // refresh token -> email
	revoked       map[string]bool     // jti
	calls         map[string]int
}

// New returns an empty backend with a random signing secret.
func New() *Backend {
	return &Backend{
		secret:        []byte(uuid.NewString()),
		accounts:      make(map[string]*account),
		refreshTokens: make(map[string]string),
		revoked:       make(map[string]bool),
		calls:         make(map[string]int),
	}
}

var _ identity.Backend = (*Backend)(nil)

func (b *Backend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Backend) ttl() time.Duration {
	if b.TokenTTL > 0 {
		return b.TokenTTL
	}
	return DefaultTokenTTL
}

func (b *Backend) record(op string) {
	b.mu.Lock()
	b.calls[op]++
	b.mu.Unlock()
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// AddUser registers a verified account and returns its user record.
func (b *Backend) AddUser(email, password string) *identity.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("identitytest: hashing password: %v", err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acct := &account{
		user: identity.User{
			ID:        uuid.NewString(),
			Email:     email,
			Metadata:  map[string]any{},
			CreatedAt: b.now().UTC().Truncate(time.Second),
		},
		passwordHash: hash,
		confirmed:    true,
	}
	b.accounts[email] = acct

	u := acct.user
	return &u
}

// Confirm marks an account as verified.
func (b *Backend) Confirm(email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acct, ok := b.accounts[email]; ok {
		acct.confirmed = true
	}
}

// SignToken signs arbitrary claims with the backend secret. Tests use it to
// craft tokens with unusual claim shapes.
func (b *Backend) SignToken(claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("identitytest: signing token: %v", err))
	}
	return token
}

// IssueSession signs in an existing account without checking its password.
func (b *Backend) IssueSession(email string) (*identity.AuthResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[email]
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	return b.issueLocked(acct), nil
}

func (b *Backend) issueLocked(acct *account) *identity.AuthResponse {
	now := b.now()
	expiresAt := now.Add(b.ttl())

	claims := jwt.MapClaims{
		"sub":   acct.user.ID,
		"email": acct.user.Email,
		"role":  "authenticated",
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"jti":   uuid.NewString(),
	}
	if len(b.Scopes) > 0 {
		claims["scopes"] = append([]string(nil), b.Scopes...)
	}

	refresh := uuid.NewString()
	b.refreshTokens[refresh] = acct.user.Email

	user := acct.user
	return &identity.AuthResponse{
		Session: &identity.Tokens{
			AccessToken:  b.SignToken(claims),
			RefreshToken: refresh,
			TokenType:    "bearer",
			ExpiresIn:    int64(b.ttl().Seconds()),
			ExpiresAt:    expiresAt.Unix(),
		},
		User: &user,
	}
}

// SignInWithPassword implements identity.Backend.
func (b *Backend) SignInWithPassword(ctx context.Context, email, password string) (*identity.AuthResponse, error) {
	b.record(OpSignIn)
	if b.SignInFunc != nil {
		return b.SignInFunc(ctx, email, password)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[email]
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		return nil, identity.ErrInvalidCredentials
	}
	if !acct.confirmed {
		return nil, identity.ErrEmailNotConfirmed
	}
	return b.issueLocked(acct), nil
}

// SignUp implements identity.Backend.
func (b *Backend) SignUp(ctx context.Context, email, password string) (*identity.User, error) {
	b.record(OpSignUp)
	if b.SignUpFunc != nil {
		return b.SignUpFunc(ctx, email, password)
	}

	b.mu.Lock()
	_, exists := b.accounts[email]
	b.mu.Unlock()
	if exists {
		return nil, ErrUserExists
	}

	user := b.AddUser(email, password)
	if !b.AutoConfirm {
		b.mu.Lock()
		b.accounts[email].confirmed = false
		b.mu.Unlock()
	}
	return user, nil
}

// Refresh implements identity.Backend. Refresh tokens are single use.
func (b *Backend) Refresh(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
	b.record(OpRefresh)
	if b.RefreshFunc != nil {
		return b.RefreshFunc(ctx, refreshToken)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email, ok := b.refreshTokens[refreshToken]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	delete(b.refreshTokens, refreshToken)

	acct, ok := b.accounts[email]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return b.issueLocked(acct), nil
}

// SignOut implements identity.Backend. It revokes the access token and every
// refresh token of its user.
func (b *Backend) SignOut(ctx context.Context, accessToken string) error {
	b.record(OpSignOut)
	if b.SignOutFunc != nil {
		return b.SignOutFunc(ctx, accessToken)
	}

	claims, err := b.verify(accessToken)
	if err != nil {
		return identity.ErrInvalidToken
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if jti, _ := claims["jti"].(string); jti != "" {
		b.revoked[jti] = true
	}
	email, _ := claims["email"].(string)
	for rt, owner := range b.refreshTokens {
		if owner == email {
			delete(b.refreshTokens, rt)
		}
	}
	return nil
}

// Introspect implements identity.Backend.
func (b *Backend) Introspect(ctx context.Context, accessToken string) (*identity.User, error) {
	b.record(OpIntrospect)
	if b.IntrospectFunc != nil {
		return b.IntrospectFunc(ctx, accessToken)
	}

	claims, err := b.verify(accessToken)
	if err != nil {
		return nil, identity.ErrInvalidToken
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if jti, _ := claims["jti"].(string); jti != "" && b.revoked[jti] {
		return nil, identity.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	for _, acct := range b.accounts {
		if acct.user.ID == sub {
			u := acct.user
			return &u, nil
		}
	}
	return nil, identity.ErrInvalidToken
}

func (b *Backend) verify(accessToken string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims,
		func(t *jwt.Token) (interface{}, error) { return b.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(b.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
