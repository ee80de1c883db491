package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joshorndorff/marketplace/internal/platform/requestctx"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func fixedClock(at time.Time) func() time.Time { return func() time.Time { return at } }

func TestNewTokensRejectsShortKey(t *testing.T) {
	_, err := NewTokens([]byte("short"), nil)
	require.ErrorIs(t, err, ErrKeyTooShort)
}

func TestIssueAndVerify(t *testing.T) {
	tokens, err := NewTokens(testKey, nil)
	require.NoError(t, err)

	token, err := tokens.Issue("alice", time.Hour)
	require.NoError(t, err)
	account, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", string(account))

	_, err = tokens.Issue("", time.Hour)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer, err := NewTokens(testKey, fixedClock(start))
	require.NoError(t, err)
	token, err := issuer.Issue("alice", time.Minute)
	require.NoError(t, err)

	later, err := NewTokens(testKey, fixedClock(start.Add(time.Hour)))
	require.NoError(t, err)
	_, err = later.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsOtherKeyAndIssuer(t *testing.T) {
	tokens, err := NewTokens(testKey, nil)
	require.NoError(t, err)
	other, err := NewTokens([]byte("fedcba9876543210fedcba9876543210"), nil)
	require.NoError(t, err)

	token, err := other.Issue("alice", 0)
	require.NoError(t, err)
	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  "someone-else",
		Subject: "alice",
	}).SignedString(testKey)
	require.NoError(t, err)
	_, err = tokens.Verify(foreign)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = tokens.Verify("not-a-token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	tokens, err := NewTokens(testKey, nil)
	require.NoError(t, err)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: Issuer}).SignedString(testKey)
	require.NoError(t, err)
	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestUnaryServerInterceptor(t *testing.T) {
	tokens, err := NewTokens(testKey, nil)
	require.NoError(t, err)
	token, err := tokens.Issue("bob", 0)
	require.NoError(t, err)

	interceptor := UnaryServerInterceptor(tokens, func(method string) bool { return method == "/svc/Mutate" })
	call := func(method, header string) (string, error) {
		ctx := context.Background()
		if header != "" {
			ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(AuthorizationHeader, header))
		}
		var caller string
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, func(ctx context.Context, _ any) (any, error) {
			caller = requestctx.AccountIDFromContext(ctx)
			return nil, nil
		})
		return caller, err
	}

	caller, err := call("/svc/Mutate", "Bearer "+token)
	require.NoError(t, err)
	require.Equal(t, "bob", caller)

	caller, err = call("/svc/Mutate", "")
	require.NoError(t, err)
	require.Empty(t, caller)

	caller, err = call("/svc/Read", "Bearer garbage")
	require.NoError(t, err)
	require.Empty(t, caller)

	_, err = call("/svc/Mutate", "Bearer garbage")
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = call("/svc/Mutate", "Basic abc")
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestBearerCredentials(t *testing.T) {
	md, err := BearerCredentials{Token: "tok"}.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", md[AuthorizationHeader])

	md, err = BearerCredentials{}.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	require.Empty(t, md)
	require.False(t, BearerCredentials{}.RequireTransportSecurity())
}
