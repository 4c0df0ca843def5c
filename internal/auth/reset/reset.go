// Package reset implements the password-reset token protocol. Tokens are
// URL-safe strings signed with HMAC-SHA256 under a secret independent of the
// access-token secret, carry an issue timestamp and a unique token identifier
// (JTI), and are single-use: the JTI is tracked in the cache for the validity
// window and consumed on redemption. When no cache is configured the JTI
// check is skipped and single-use enforcement is lost.
package reset

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rolodexhq/rolodex/internal/cache"
	"github.com/rolodexhq/rolodex/internal/clock"
)

// Payload is the signed content of a reset token.
type Payload struct {
	Sub      int64  `json:"sub"`
	Email    string `json:"email"`
	JTI      string `json:"jti"`
	IssuedAt int64  `json:"iat"`
}

// Issuer creates and validates password-reset tokens.
type Issuer struct {
	secret []byte
	window time.Duration
	store  cache.Store
	clock  clock.Clock
	log    *zap.Logger
}

// NewIssuer builds an Issuer. store may be nil, which disables single-use
// tracking.
func NewIssuer(secret string, window time.Duration, store cache.Store, clk clock.Clock, log *zap.Logger) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		window: window,
		store:  store,
		clock:  clk,
		log:    log.Named("auth.reset"),
	}
}

// Window returns the validity window tokens are issued with.
func (i *Issuer) Window() time.Duration {
	return i.window
}

// Create issues a reset token for the user and records its JTI in the cache
// for the validity window. Failure to record the JTI is logged and does not
// block issuance; such a token skips the single-use check on redemption.
func (i *Issuer) Create(ctx context.Context, userID int64, email string) (token, jti string, err error) {
	p := Payload{
		Sub:      userID,
		Email:    email,
		JTI:      uuid.NewString(),
		IssuedAt: i.clock.Now().Unix(),
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	token = encoded + "." + i.sign(encoded)

	if i.store == nil || !i.store.SetJSON(ctx, cache.ResetKey(p.JTI), 1, i.window) {
		i.log.Warn("reset token issued without single-use tracking",
			zap.Int64("user_id", userID))
	}
	return token, p.JTI, nil
}

// Validate checks a token's signature, age and, when a cache is configured,
// its JTI record. It does not consume the token; a valid token remains
// redeemable until Invalidate is called.
func (i *Issuer) Validate(ctx context.Context, raw string) (*Payload, bool) {
	p, ok := i.decode(raw)
	if !ok {
		return nil, false
	}

	issued := time.Unix(p.IssuedAt, 0)
	now := i.clock.Now()
	if issued.After(now) || now.Sub(issued) > i.window {
		return nil, false
	}

	if i.store != nil && !i.store.Exists(ctx, cache.ResetKey(p.JTI)) {
		return nil, false
	}
	return &p, true
}

// Invalidate consumes a token's JTI so the token cannot be redeemed again.
// Idempotent.
func (i *Issuer) Invalidate(ctx context.Context, jti string) bool {
	if i.store == nil {
		return false
	}
	return i.store.Delete(ctx, cache.ResetKey(jti))
}

func (i *Issuer) decode(raw string) (Payload, bool) {
	var p Payload

	encoded, sig, found := strings.Cut(raw, ".")
	if !found || encoded == "" || sig == "" {
		return p, false
	}
	if subtle.ConstantTimeCompare([]byte(sig), []byte(i.sign(encoded))) != 1 {
		return p, false
	}

	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return p, false
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, false
	}
	if p.Sub == 0 || p.JTI == "" {
		return p, false
	}
	return p, true
}

func (i *Issuer) sign(encoded string) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
