// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, JWT signing)
// from the domain logic. The auth service and the auth guard depend on it;
// it depends on nothing inside the application.
//
// # Token Kinds
//
// Access and refresh tokens are HS256 JWTs signed with two distinct secrets.
// A leaked access secret cannot mint refresh tokens, and the reverse.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/vidstream/pkg/uuid"
)

// # Token Types

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// # Verification Errors

var (
	// ErrTokenMalformed is returned for tokens that cannot be parsed or carry
	// unexpected claims.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired is returned for tokens past their "exp" claim.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenSignatureInvalid is returned when the signature does not verify
	// against the expected secret or algorithm.
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
)

// TokenError reports why a token failed verification.
// Kind is one of [ErrTokenMalformed], [ErrTokenExpired], [ErrTokenSignatureInvalid].
type TokenError struct {
	Kind  error
	Cause error
}

func (e *TokenError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

// Is lets [errors.Is] match the verification kind.
func (e *TokenError) Is(target error) bool { return target == e.Kind }

func (e *TokenError) Unwrap() error { return e.Cause }

// # Claims

// Identity is the minimal user projection embedded into an access token.
type Identity struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

// AccessClaims represents the payload embedded inside a JWT access token.
//
// Custom claims are abbreviated to keep the JWT payload small.
type AccessClaims struct {
	jwt.RegisteredClaims

	UserID    string `json:"uid"`
	Username  string `json:"unm"`
	Email     string `json:"eml"`
	FullName  string `json:"fnm"`
	TokenType string `json:"typ"`
}

// RefreshClaims represents the payload of a JWT refresh token. It carries
// only the user ID.
type RefreshClaims struct {
	jwt.RegisteredClaims

	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
}

// # Issuer

// TokenIssuerConfig holds the secrets and lifetimes for [NewTokenIssuer].
type TokenIssuerConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenIssuer creates and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenIssuer creates a new [TokenIssuer].
// It fails when either secret is empty or both secrets are equal.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("sec_token_issuer: secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("sec_token_issuer: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("sec_token_issuer: token lifetimes must be positive")
	}

	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// WithClock returns a copy of the issuer reading time from now. Used by tests
// to mint tokens in the past.
func (issuer *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *issuer
	clone.now = now
	return &clone
}

// AccessTTL returns the access token lifetime.
func (issuer *TokenIssuer) AccessTTL() time.Duration { return issuer.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (issuer *TokenIssuer) RefreshTTL() time.Duration { return issuer.refreshTTL }

// IssueAccess creates a signed access token for the given identity.
func (issuer *TokenIssuer) IssueAccess(subject Identity) (string, error) {
	currentTime := issuer.now()
	claims := AccessClaims{
		RegisteredClaims: issuer.registered(subject.UserID, currentTime, issuer.accessTTL),
		UserID:           subject.UserID,
		Username:         subject.Username,
		Email:            subject.Email,
		FullName:         subject.FullName,
		TokenType:        TokenTypeAccess,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(issuer.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sec_issue_access: %w", err)
	}
	return signedToken, nil
}

// IssueRefresh creates a signed refresh token for the given user.
func (issuer *TokenIssuer) IssueRefresh(userID string) (string, error) {
	currentTime := issuer.now()
	claims := RefreshClaims{
		RegisteredClaims: issuer.registered(userID, currentTime, issuer.refreshTTL),
		UserID:           userID,
		TokenType:        TokenTypeRefresh,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(issuer.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sec_issue_refresh: %w", err)
	}
	return signedToken, nil
}

// VerifyAccess checks signature and expiry of an access token.
// On failure the error is a [*TokenError].
func (issuer *TokenIssuer) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := issuer.parse(tokenString, claims, issuer.accessSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess || claims.UserID == "" {
		return nil, &TokenError{Kind: ErrTokenMalformed}
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry of a refresh token.
// On failure the error is a [*TokenError].
func (issuer *TokenIssuer) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := issuer.parse(tokenString, claims, issuer.refreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh || claims.UserID == "" {
		return nil, &TokenError{Kind: ErrTokenMalformed}
	}
	return claims, nil
}

// registered builds the standard claims. The random "jti" keeps two tokens
// minted within the same second distinct.
func (issuer *TokenIssuer) registered(subject string, issuedAt time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.New(),
		Subject:   subject,
		Issuer:    issuer.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
}

func (issuer *TokenIssuer) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	if tokenString == "" {
		return &TokenError{Kind: ErrTokenMalformed}
	}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithTimeFunc(issuer.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer.issuer),
	)
	if err == nil {
		return nil
	}

	return classify(err)
}

// classify maps a jwt parse error onto one of the three verification kinds.
func classify(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: ErrTokenExpired, Cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &TokenError{Kind: ErrTokenSignatureInvalid, Cause: err}
	default:
		return &TokenError{Kind: ErrTokenMalformed, Cause: err}
	}
}
