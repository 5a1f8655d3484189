package jwt

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fakeUUID struct{}

func (fakeUUID) Generate() string { return "0198f1e2-aaaa-bbbb-cccc-ddddeeeeffff" }

func newTestJWT(t *testing.T, clk *fakeClock) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte("s"), 64),
		Issuer:    "otpgate",
		Audiences: []string{"otpgate-api"},
		TTL:       24 * time.Hour,
		Clock:     clk,
		UUID:      fakeUUID{},
	})
	if err != nil {
		t.Fatalf("NewHS512: %v", err)
	}

	return j
}

func TestNewHS512ShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestSymmetricRoundTrip(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	j := newTestJWT(t, clk)

	token, err := j.Generate(42, "alice", []string{"ROLE_USER", "ROLE_ADMIN"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" || claims.Subject != "alice" {
		t.Errorf("expected subject alice, got %q / %q", claims.Username, claims.Subject)
	}
	if !claims.HasRole("ROLE_ADMIN") {
		t.Errorf("expected ROLE_ADMIN in %v", claims.Roles)
	}
	if claims.HasRole("ROLE_SUPER") {
		t.Errorf("unexpected ROLE_SUPER in %v", claims.Roles)
	}
}

func TestSymmetricVerifyExpired(t *testing.T) {
	clk := &fakeClock{now: time.Now().Add(-48 * time.Hour)}
	j := newTestJWT(t, clk)

	token, err := j.Generate(1, "bob", []string{"ROLE_USER"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := j.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSymmetricVerifyWrongSecret(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	j := newTestJWT(t, clk)

	other, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte("x"), 64),
		Issuer:    "otpgate",
		Audiences: []string{"otpgate-api"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      fakeUUID{},
	})
	if err != nil {
		t.Fatalf("NewHS512: %v", err)
	}

	token, err := other.Generate(1, "mallory", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := j.Verify(token); err == nil {
		t.Fatal("expected verification failure for foreign signature")
	}
}

func TestSymmetricVerifyMalformed(t *testing.T) {
	j := newTestJWT(t, &fakeClock{now: time.Now()})

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := j.Verify(tok); err == nil {
			t.Fatalf("expected error for %q", tok)
		}
	}
}

func TestAuthContext(t *testing.T) {
	ctx := t.Context()

	if got := GetAuth(ctx); got != nil {
		t.Fatalf("expected nil claims on fresh context, got %+v", got)
	}

	ctx = SetAuth(ctx, Claims{UserID: 7, Username: "carol", Roles: []string{"ROLE_USER"}})

	got := GetAuth(ctx)
	if got == nil || got.UserID != 7 || got.Username != "carol" {
		t.Fatalf("unexpected claims: %+v", got)
	}
}
