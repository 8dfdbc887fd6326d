// Package auth implements signup, login and token refresh.
package auth

import (
	"context"
	"strings"

	"github.com/uzmarket/delivery/internal/auth"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/errors"
	"github.com/uzmarket/delivery/internal/storage"
	"github.com/uzmarket/delivery/pkg/logger"
)

// Service handles account registration and credential exchange.
type Service struct {
	users  storage.UserStore
	tokens *auth.Issuer
	hasher *auth.Hasher
	log    *logger.Logger
}

// New constructs an auth service.
func New(users storage.UserStore, tokens *auth.Issuer, hasher *auth.Hasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		log:    log,
	}
}

// Signup registers a new user. Username and email must be unique; the
// password is stored only as a bcrypt hash.
func (s *Service) Signup(ctx context.Context, username, email, password string, isStaff, isActive bool) (user.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return user.User{}, errors.Validation("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, errors.Validation("a valid email is required")
	}
	if password == "" {
		return user.User{}, errors.Validation("password is required")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, errors.Conflict("email already registered")
	} else if !storage.IsNotFound(err) {
		return user.User{}, err
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return user.User{}, errors.Conflict("username already taken")
	} else if !storage.IsNotFound(err) {
		return user.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.User{}, errors.Internal("hash password", err)
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      isStaff,
		IsActive:     isActive,
	})
	if err != nil {
		// The pre-checks race against concurrent signups; the unique index
		// is the authority.
		if storage.IsDuplicate(err) {
			return user.User{}, errors.Conflict("username or email already registered")
		}
		return user.User{}, err
	}

	s.log.WithField("user_id", created.ID).
		WithField("username", created.Username).
		Info("user registered")
	return created, nil
}

// Login exchanges a username or email plus password for a token pair. The
// failure mode never reveals whether the principal exists.
func (s *Service) Login(ctx context.Context, login, password string) (auth.TokenPair, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return auth.TokenPair{}, errors.InvalidCredentials()
	}

	u, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if storage.IsNotFound(err) {
			return auth.TokenPair{}, errors.InvalidCredentials()
		}
		return auth.TokenPair{}, err
	}
	if !s.hasher.Compare(u.PasswordHash, password) {
		return auth.TokenPair{}, errors.InvalidCredentials()
	}

	pair, err := s.tokens.IssuePair(u.Username, u.IsStaff)
	if err != nil {
		return auth.TokenPair{}, errors.Internal("issue tokens", err)
	}

	s.log.WithField("user_id", u.ID).Info("user logged in")
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", errors.Unauthorized("missing refresh token")
	}

	claims, err := s.tokens.Verify(refreshToken, auth.TypeRefresh)
	if err != nil {
		return "", err
	}

	u, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", errors.NotFound("user", claims.Subject)
		}
		return "", err
	}

	access, err := s.tokens.IssueAccess(u.Username, u.IsStaff)
	if err != nil {
		return "", errors.Internal("issue access token", err)
	}
	return access, nil
}

// Resolve loads the user behind a verified access token subject.
func (s *Service) Resolve(ctx context.Context, username string) (user.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if storage.IsNotFound(err) {
			return user.User{}, errors.Unauthorized("unknown token subject")
		}
		return user.User{}, err
	}
	return u, nil
}
