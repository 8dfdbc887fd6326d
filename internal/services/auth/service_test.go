package auth

import (
	"context"
	"testing"
	"time"

	"github.com/uzmarket/delivery/internal/auth"
	"github.com/uzmarket/delivery/internal/errors"
	"github.com/uzmarket/delivery/internal/storage/memory"
)

func newTestService() *Service {
	issuer := auth.NewIssuer("test-secret", time.Hour, 72*time.Hour)
	return New(memory.New(), issuer, auth.NewHasher(4), nil)
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, "ann", "ann@example.com", "pass123", false, true)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected id to be generated")
	}
	if u.PasswordHash == "pass123" {
		t.Fatalf("password must not be stored in plaintext")
	}

	t.Run("login by username", func(t *testing.T) {
		pair, err := svc.Login(ctx, "ann", "pass123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if pair.AccessToken == "" || pair.RefreshToken == "" {
			t.Fatalf("expected both tokens")
		}
	})

	t.Run("login by email", func(t *testing.T) {
		if _, err := svc.Login(ctx, "ann@example.com", "pass123"); err != nil {
			t.Fatalf("login by email: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "ann", "nope")
		if !errors.Is(err, errors.CodeInvalidCredentials) {
			t.Fatalf("expected invalid credentials, got %v", err)
		}
	})

	t.Run("unknown user matches wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost", "pass123")
		if !errors.Is(err, errors.CodeInvalidCredentials) {
			t.Fatalf("expected invalid credentials, got %v", err)
		}
	})
}

func TestSignupConflicts(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "ann", "ann@example.com", "pass123", false, true); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Signup(ctx, "other", "ann@example.com", "pass123", false, true); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if _, err := svc.Signup(ctx, "ann", "other@example.com", "pass123", false, true); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "", "a@b.c", "x", false, true); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for empty username, got %v", err)
	}
	if _, err := svc.Signup(ctx, "ann", "not-an-email", "x", false, true); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for bad email, got %v", err)
	}
	if _, err := svc.Signup(ctx, "ann", "a@b.c", "", false, true); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for empty password, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "ann", "ann@example.com", "pass123", false, true); err != nil {
		t.Fatalf("signup: %v", err)
	}
	pair, err := svc.Login(ctx, "ann", "pass123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" {
		t.Fatalf("expected new access token")
	}

	t.Run("access token rejected", func(t *testing.T) {
		if _, err := svc.Refresh(ctx, pair.AccessToken); err == nil {
			t.Fatalf("expected access token to be rejected on refresh")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := svc.Refresh(ctx, "not-a-token"); err == nil {
			t.Fatalf("expected malformed token to be rejected")
		}
	})

	t.Run("vanished subject", func(t *testing.T) {
		other := newTestService()
		if _, err := other.Refresh(ctx, pair.RefreshToken); !errors.Is(err, errors.CodeNotFound) {
			t.Fatalf("expected not found for vanished user, got %v", err)
		}
	})
}
