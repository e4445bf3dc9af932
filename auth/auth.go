// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingToken       = errors.New("missing bearer token")
)

// Identity is who a request belongs to. SessionID is unique per login and
// keys the respondent's navigation state.
type Identity struct {
	Username  string
	IsAdmin   bool
	SessionID string
}

// Provider authenticates requests.
type Provider interface {
	Authenticate(r *http.Request) (Identity, error)
}

// Claims are the JWT claims of a login token.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

const issuerName = "quickly-survey"

// Issuer signs and verifies login tokens with HS256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a token for a fresh login session.
func (i *Issuer) Issue(username string, isAdmin bool) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)

	claims := Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a token and returns the identity it carries.
func (i *Issuer) Parse(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Username == "" || claims.ID == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{Username: claims.Username, IsAdmin: claims.IsAdmin, SessionID: claims.ID}, nil
}

// Authenticator is the Provider backed by a credentials file and signed
// bearer tokens.
type Authenticator struct {
	creds  *Credentials
	issuer *Issuer
}

func NewAuthenticator(creds *Credentials, issuer *Issuer) *Authenticator {
	return &Authenticator{creds: creds, issuer: issuer}
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}

// Login checks a password and issues a token.
func (a *Authenticator) Login(username, password string) (LoginResult, error) {
	user, err := a.creds.Verify(username, password)
	if err != nil {
		return LoginResult{}, err
	}

	token, expires, err := a.issuer.Issue(username, user.Admin)
	if err != nil {
		return LoginResult{}, err
	}
	identity, err := a.issuer.Parse(token)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Identity: identity, ExpiresAt: expires}, nil
}

// Authenticate reads the bearer token of a request.
func (a *Authenticator) Authenticate(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return Identity{}, ErrMissingToken
	}
	return a.issuer.Parse(strings.TrimSpace(token))
}

type contextKey struct{}

// WithIdentity stores an identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
