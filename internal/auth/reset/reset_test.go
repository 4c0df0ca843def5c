package reset

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rolodexhq/rolodex/internal/clock"
)

// memStore is an in-memory cache.Store for tests.
type memStore struct {
	entries map[string]time.Time
	clk     *clock.FakeClock
}

func newMemStore(clk *clock.FakeClock) *memStore {
	return &memStore{entries: make(map[string]time.Time), clk: clk}
}

func (m *memStore) GetJSON(ctx context.Context, key string) ([]byte, bool) {
	if !m.Exists(ctx, key) {
		return nil, false
	}
	return []byte("1"), true
}

func (m *memStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool {
	expiry := time.Time{}
	if ttl > 0 {
		expiry = m.clk.Now().Add(ttl)
	}
	m.entries[key] = expiry
	return true
}

func (m *memStore) Delete(ctx context.Context, key string) bool {
	delete(m.entries, key)
	return true
}

func (m *memStore) Exists(ctx context.Context, key string) bool {
	expiry, ok := m.entries[key]
	if !ok {
		return false
	}
	if !expiry.IsZero() && m.clk.Now().After(expiry) {
		delete(m.entries, key)
		return false
	}
	return true
}

func newTestIssuer(t *testing.T) (*Issuer, *clock.FakeClock, *memStore) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	store := newMemStore(clk)
	return NewIssuer("reset-secret", 30*time.Minute, store, clk, zap.NewNop()), clk, store
}

func TestResetTokenRoundTrip(t *testing.T) {
	issuer, _, _ := newTestIssuer(t)
	ctx := context.Background()

	token, jti, err := issuer.Create(ctx, 42, "alice@example.com")
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	if jti == "" {
		t.Fatal("expected non-empty jti")
	}

	p, ok := issuer.Validate(ctx, token)
	if !ok {
		t.Fatal("expected token to validate")
	}
	if p.Sub != 42 {
		t.Fatalf("expected sub 42, got %d", p.Sub)
	}
	if p.Email != "alice@example.com" {
		t.Fatalf("expected email, got %q", p.Email)
	}
	if p.JTI != jti {
		t.Fatalf("expected jti %q, got %q", jti, p.JTI)
	}
}

func TestResetTokenSingleUse(t *testing.T) {
	issuer, _, _ := newTestIssuer(t)
	ctx := context.Background()

	token, jti, err := issuer.Create(ctx, 42, "alice@example.com")
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if _, ok := issuer.Validate(ctx, token); !ok {
		t.Fatal("expected first validation to pass")
	}

	issuer.Invalidate(ctx, jti)

	if _, ok := issuer.Validate(ctx, token); ok {
		t.Fatal("expected consumed token to be rejected")
	}
}

func TestResetTokenExpiry(t *testing.T) {
	issuer, clk, _ := newTestIssuer(t)
	ctx := context.Background()

	token, _, err := issuer.Create(ctx, 42, "alice@example.com")
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	clk.Advance(31 * time.Minute)
	if _, ok := issuer.Validate(ctx, token); ok {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestResetTokenTampered(t *testing.T) {
	issuer, _, _ := newTestIssuer(t)
	ctx := context.Background()

	token, _, err := issuer.Create(ctx, 42, "alice@example.com")
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	if _, ok := issuer.Validate(ctx, tampered); ok {
		t.Fatal("expected tampered token to be rejected")
	}

	for _, raw := range []string{"", "nodot", ".", "a.b"} {
		if _, ok := issuer.Validate(ctx, raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestResetTokenWrongSecret(t *testing.T) {
	issuer, clk, store := newTestIssuer(t)
	other := NewIssuer("other-secret", 30*time.Minute, store, clk, zap.NewNop())
	ctx := context.Background()

	token, _, err := other.Create(ctx, 42, "alice@example.com")
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	if _, ok := issuer.Validate(ctx, token); ok {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestResetWithoutCacheSkipsSingleUse(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewIssuer("reset-secret", 30*time.Minute, nil, clk, zap.NewNop())
	ctx := context.Background()

	token, jti, err := issuer.Create(ctx, 42, "alice@example.com")
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	// No JTI tracking: the token stays valid even after Invalidate.
	if _, ok := issuer.Validate(ctx, token); !ok {
		t.Fatal("expected token to validate without a cache")
	}
	issuer.Invalidate(ctx, jti)
	if _, ok := issuer.Validate(ctx, token); !ok {
		t.Fatal("expected token to remain valid without a cache")
	}
}
