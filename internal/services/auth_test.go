package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/repos/testutil"
	"github.com/verithos/policyforge-backend/internal/types"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)
	userRepo := repos.NewUserRepo(db, log)
	userTokenRepo := repos.NewUserTokenRepo(db, log)
	return NewAuthService(db, log, userRepo, userTokenRepo, "test-secret", time.Hour, 24*time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "Ana@Example.com", "s3cret-pass", "Ana", "Pérez")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Password == "s3cret-pass" {
		t.Fatal("password stored in plaintext")
	}
	if user.Plan != types.PlanFree {
		t.Fatalf("new user plan = %q", user.Plan)
	}

	// Duplicate email conflicts.
	if _, err := svc.RegisterUser(ctx, "ana@example.com", "other-pass", "A", "B"); err == nil {
		t.Fatal("expected duplicate email to fail")
	} else if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T: %v", err, err)
	}

	access, refresh, err := svc.LoginUser(ctx, "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("login returned empty tokens")
	}

	if _, _, err := svc.LoginUser(ctx, "ana@example.com", "wrong"); err == nil {
		t.Fatal("expected wrong password to fail")
	}
	if _, _, err := svc.LoginUser(ctx, "nobody@example.com", "s3cret-pass"); err == nil {
		t.Fatal("expected unknown email to fail")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, "not-an-email", "short", "A", "B")
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Fields["email"] == "" || verr.Fields["password"] == "" {
		t.Fatalf("missing field messages: %v", verr.Fields)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "ana@example.com", "s3cret-pass", "Ana", "Pérez"); err != nil {
		t.Fatalf("register: %v", err)
	}
	access, refresh, err := svc.LoginUser(ctx, "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	authedCtx, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}
	newAccess, newRefresh, err := svc.RefreshUser(authedCtx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if newAccess == "" || newRefresh == refresh {
		t.Fatal("refresh did not rotate the token pair")
	}

	// The new access token resolves to the same user.
	authedCtx, err = svc.SetContextFromToken(ctx, newAccess)
	if err != nil {
		t.Fatalf("set context after refresh: %v", err)
	}
	if err := svc.LogoutUser(authedCtx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// A tampered token is rejected.
	if _, err := svc.SetContextFromToken(ctx, access+"x"); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestRejectsUnsignedToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, unsigned); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}
