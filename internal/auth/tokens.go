// Package auth implements password hashing and JWT issuance/verification.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uzmarket/delivery/internal/errors"
)

const (
	// TypeAccess marks short-lived tokens accepted by authenticated routes.
	TypeAccess = "access"
	// TypeRefresh marks long-lived tokens accepted only by the refresh route.
	TypeRefresh = "refresh"
)

// Claims is the JWT payload. The username travels as the registered subject.
type Claims struct {
	TokenType string `json:"token_type"`
	IsStaff   bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer signs and verifies tokens with a shared HS256 secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer constructs an Issuer. Non-positive lifetimes fall back to the
// defaults of one hour and three days.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 72 * time.Hour
	}
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssueAccess returns a signed access token for the given username.
func (i *Issuer) IssueAccess(username string, isStaff bool) (string, error) {
	return i.sign(username, isStaff, TypeAccess, i.accessTTL)
}

// IssueRefresh returns a signed refresh token for the given username.
func (i *Issuer) IssueRefresh(username string, isStaff bool) (string, error) {
	return i.sign(username, isStaff, TypeRefresh, i.refreshTTL)
}

// IssuePair returns an access/refresh token pair for the given username.
func (i *Issuer) IssuePair(username string, isStaff bool) (TokenPair, error) {
	access, err := i.IssueAccess(username, isStaff)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.IssueRefresh(username, isStaff)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(username string, isStaff bool, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		TokenType: tokenType,
		IsStaff:   isStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses tokenString and checks its signature, expiry and token type.
func (i *Issuer) Verify(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}
	if claims.TokenType != wantType {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "wrong token type")
	}
	if claims.Subject == "" {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "missing subject")
	}
	return claims, nil
}
