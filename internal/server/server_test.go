package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rolodexhq/rolodex/internal/auth/reset"
	"github.com/rolodexhq/rolodex/internal/auth/token"
	"github.com/rolodexhq/rolodex/internal/clock"
	"github.com/rolodexhq/rolodex/internal/config"
	contactdomain "github.com/rolodexhq/rolodex/internal/contact/domain"
	contactrepo "github.com/rolodexhq/rolodex/internal/contact/repository"
	contactservice "github.com/rolodexhq/rolodex/internal/contact/service"
	"github.com/rolodexhq/rolodex/internal/providers/email"
	userdomain "github.com/rolodexhq/rolodex/internal/user/domain"
	userrepo "github.com/rolodexhq/rolodex/internal/user/repository"
	userservice "github.com/rolodexhq/rolodex/internal/user/service"
	"github.com/rolodexhq/rolodex/pkg/db"
)

// memStore is an in-memory cache.Store.
type memStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string][]byte)}
}

func (m *memStore) GetJSON(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	return raw, ok
}

func (m *memStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return true
}

func (m *memStore) Delete(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return true
}

func (m *memStore) Exists(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

type fakeStorage struct{}

func (fakeStorage) Save(ctx context.Context, name, contentType string, content []byte) (string, error) {
	return "http://localhost:8080/avatars/" + name, nil
}

type fixture struct {
	srv   *Server
	codec *token.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&userdomain.User{}, &contactdomain.Contact{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to build snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC))
	store := newMemStore()
	codec := token.NewCodec("test-secret", 30*time.Minute, 24*time.Hour, clk)
	issuer := reset.NewIssuer("test-reset-secret", 30*time.Minute, store, clk, zap.NewNop())
	cfg := config.Config{PublicURL: "http://localhost:8080", AppVersion: "test"}

	usersvc := userservice.New(userservice.Params{
		Config:  cfg,
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    userrepo.Provide(),
		Tokens:  codec,
		Reset:   issuer,
		Cache:   store,
		Email:   &email.NoOpProvider{},
		Storage: fakeStorage{},
	})

	contactsvc := contactservice.New(contactservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  contactrepo.Provide(),
	})

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	srv := NewServer(ServerParams{
		Gin:        r,
		Cfg:        cfg,
		DB:         conn,
		Log:        zap.NewNop(),
		GenID:      node,
		Usersvc:    usersvc,
		Contactsvc: contactsvc,
	})

	return &fixture{srv: srv, codec: codec}
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.srv.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]map[string]any](t, rec)
	typ, _ := body["error"]["type"].(string)
	return typ
}

// registerAndLogin walks the full register, verify, login flow and returns
// the access token.
func (f *fixture) registerAndLogin(t *testing.T, addr string) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     addr,
		"password":  "correct horse",
		"full_name": "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	verifyTok, err := f.codec.IssueEmailVerification(strings.ToLower(addr))
	if err != nil {
		t.Fatalf("failed to issue verification token: %v", err)
	}
	rec = f.do(t, http.MethodGet, "/api/auth/verify?token="+verifyTok, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    addr,
		"password": "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]string](t, rec)
	if body["token_type"] != "bearer" {
		t.Fatalf("expected bearer token type, got %q", body["token_type"])
	}
	if body["access_token"] == "" {
		t.Fatal("expected an access token")
	}
	return body["access_token"]
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	f := newFixture(t)

	access := f.registerAndLogin(t, "alice@example.com")

	rec := f.do(t, http.MethodGet, "/api/users/me", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	me := decode[map[string]any](t, rec)
	if me["email"] != "alice@example.com" {
		t.Fatalf("unexpected profile %v", me)
	}
	if _, ok := me["password_hash"]; ok {
		t.Fatal("password hash must never be serialized")
	}
}

func TestLoginUnverified(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "bob@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "bob@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "not_verified" {
		t.Fatalf("expected not_verified, got %q", typ)
	}
}

func TestRegisterConflict(t *testing.T) {
	f := newFixture(t)
	f.registerAndLogin(t, "alice@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "ALICE@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "conflict" {
		t.Fatalf("expected conflict, got %q", typ)
	}
}

func TestVerifyInvalidToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/auth/verify?token=garbage", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "invalid_token" {
		t.Fatalf("expected invalid_token, got %q", typ)
	}
}

func TestAuthGates(t *testing.T) {
	f := newFixture(t)

	// No token.
	rec := f.do(t, http.MethodGet, "/api/users/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Garbage token.
	rec = f.do(t, http.MethodGet, "/api/users/me", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Non-admin on an admin route.
	access := f.registerAndLogin(t, "alice@example.com")
	rec = f.do(t, http.MethodPatch, "/api/users/1/role", access, gin.H{"role": "admin"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "forbidden" {
		t.Fatalf("expected forbidden, got %q", typ)
	}
}

func TestPasswordResetEndpoints(t *testing.T) {
	f := newFixture(t)
	f.registerAndLogin(t, "alice@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/request-password-reset", "", gin.H{
		"email": "alice@example.com",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	// Unknown address gets the identical response.
	rec = f.do(t, http.MethodPost, "/api/auth/request-password-reset", "", gin.H{
		"email": "unknown@example.com",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for unknown email, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/auth/reset-password?token=garbage", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token":        "garbage",
		"new_password": "another pass",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "invalid_token" {
		t.Fatalf("expected invalid_token, got %q", typ)
	}
}

func TestContactEndpoints(t *testing.T) {
	f := newFixture(t)
	access := f.registerAndLogin(t, "alice@example.com")
	other := f.registerAndLogin(t, "mallory@example.com")

	rec := f.do(t, http.MethodPost, "/api/contacts", access, gin.H{
		"first_name": "Grace",
		"last_name":  "Hopper",
		"email":      "grace@navy.mil",
		"birthday":   "1906-12-09",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected string id in %v", created)
	}

	// Duplicate email conflicts even for another owner.
	rec = f.do(t, http.MethodPost, "/api/contacts", other, gin.H{
		"first_name": "Copy",
		"last_name":  "Cat",
		"email":      "grace@navy.mil",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// Owner-scoped reads.
	rec = f.do(t, http.MethodGet, "/api/contacts/"+id, access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/contacts/"+id, other, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign get: expected 404, got %d", rec.Code)
	}

	// Search.
	rec = f.do(t, http.MethodGet, "/api/contacts?q=hopper", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	list := decode[map[string]any](t, rec)
	if total := list["total"].(float64); total != 1 {
		t.Fatalf("expected total 1, got %v", total)
	}

	// Partial update.
	rec = f.do(t, http.MethodPatch, "/api/contacts/"+id, access, gin.H{"phone": "+1 555 0100"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Upcoming birthdays window validation.
	rec = f.do(t, http.MethodGet, "/api/contacts/upcoming-birthdays?days=999", access, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range window, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/contacts/upcoming-birthdays?days=365", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Delete.
	rec = f.do(t, http.MethodDelete, "/api/contacts/"+id, access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/contacts/"+id, access, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
