// Package token issues and decodes the signed JWTs used for API access and
// email verification. Both families share the primary secret and HS256;
// password-reset tokens live in the reset package with their own secret.
package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rolodexhq/rolodex/internal/clock"
)

const (
	signingMethod         = "HS256"
	typeEmailVerification = "email_verification"
)

// AccessClaims is the decoded payload of an access token.
type AccessClaims struct {
	UserID int64
	Email  string
}

// Codec signs and verifies access and email-verification tokens.
type Codec struct {
	secret          []byte
	accessTTL       time.Duration
	verificationTTL time.Duration
	clock           clock.Clock
}

func NewCodec(secret string, accessTTL, verificationTTL time.Duration, clk clock.Clock) *Codec {
	return &Codec{
		secret:          []byte(secret),
		accessTTL:       accessTTL,
		verificationTTL: verificationTTL,
		clock:           clk,
	}
}

type jwtAccessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type jwtVerificationClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// IssueAccess signs a short-lived bearer token for the user. When ttl is
// omitted the configured default applies.
func (c *Codec) IssueAccess(userID int64, email string, ttl ...time.Duration) (string, error) {
	expiry := c.accessTTL
	if len(ttl) > 0 {
		expiry = ttl[0]
	}

	now := c.clock.Now()
	claims := jwtAccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// DecodeAccess verifies signature and expiry. It is total: malformed, badly
// signed, and expired tokens all come back as !ok, never as an error.
func (c *Codec) DecodeAccess(raw string) (*AccessClaims, bool) {
	var claims jwtAccessClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, c.keyFunc,
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil || !tok.Valid {
		return nil, false
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		userID = 0
	}
	return &AccessClaims{UserID: userID, Email: claims.Email}, true
}

// IssueEmailVerification signs a token proving ownership of the address.
func (c *Codec) IssueEmailVerification(email string) (string, error) {
	now := c.clock.Now()
	claims := jwtVerificationClaims{
		TokenType: typeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.verificationTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// VerifyEmailVerification returns the verified email address. A valid
// signature is not enough: the type discriminator must match too.
func (c *Codec) VerifyEmailVerification(raw string) (string, bool) {
	var claims jwtVerificationClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, c.keyFunc,
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil || !tok.Valid {
		return "", false
	}
	if claims.TokenType != typeEmailVerification {
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func (c *Codec) keyFunc(_ *jwt.Token) (interface{}, error) {
	return c.secret, nil
}
