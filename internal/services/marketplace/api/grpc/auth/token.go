// Package auth issues and verifies the bearer tokens that name the caller of
// marketplace mutations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/joshorndorff/marketplace/internal/platform/requestctx"
	grpcmeta "github.com/joshorndorff/marketplace/internal/services/marketplace/api/grpc/metadata"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
)

// Issuer is the iss claim of every marketplace token.
const Issuer = "marketplace"

// AuthorizationHeader carries "Bearer <token>".
const AuthorizationHeader = "authorization"

const bearerPrefix = "bearer "

// minKeyLen is the shortest accepted HS256 key.
const minKeyLen = 16

var (
	// ErrTokenInvalid reports a malformed, forged or expired token.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrKeyTooShort reports a signing key below minKeyLen bytes.
	ErrKeyTooShort = fmt.Errorf("token key must be at least %d bytes", minKeyLen)
)

// Tokens signs and verifies HS256 caller tokens.
type Tokens struct {
	key []byte
	now func() time.Time
}

// NewTokens returns a signer for key.
func NewTokens(key []byte, now func() time.Time) (*Tokens, error) {
	if len(key) < minKeyLen {
		return nil, ErrKeyTooShort
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{key: append([]byte(nil), key...), now: now}, nil
}

// Issue returns a token naming account. A zero ttl never expires.
func (t *Tokens) Issue(account listing.AccountID, ttl time.Duration) (string, error) {
	if account.IsZero() {
		return "", errors.New("account is required")
	}
	now := t.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:   Issuer,
		Subject:  string(account),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the account a token names.
func (t *Tokens) Verify(token string) (listing.AccountID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	account := listing.AccountID(strings.TrimSpace(claims.Subject))
	if account.IsZero() {
		return "", fmt.Errorf("%w: subject is required", ErrTokenInvalid)
	}
	return account, nil
}

// UnaryServerInterceptor verifies the bearer token on methods for which
// protected returns true and stores the caller in the handler context.
// Calls without a token proceed anonymously and are rejected by the market.
func UnaryServerInterceptor(tokens *Tokens, protected func(fullMethod string) bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if protected != nil && !protected(info.FullMethod) {
			return handler(ctx, req)
		}
		header := grpcmeta.IncomingValue(ctx, AuthorizationHeader)
		if header == "" {
			return handler(ctx, req)
		}
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return nil, status.Error(codes.Unauthenticated, "authorization must be a bearer token")
		}
		account, err := tokens.Verify(header[len(bearerPrefix):])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(requestctx.WithAccountID(ctx, string(account)), req)
	}
}

// BearerCredentials attaches a token to every outgoing call.
type BearerCredentials struct {
	Token string
}

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (c BearerCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	if c.Token == "" {
		return nil, nil
	}
	return map[string]string{AuthorizationHeader: "Bearer " + c.Token}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials.
func (BearerCredentials) RequireTransportSecurity() bool { return false }

var _ credentials.PerRPCCredentials = BearerCredentials{}
