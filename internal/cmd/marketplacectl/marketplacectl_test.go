package marketplacectl

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	server "github.com/joshorndorff/marketplace/internal/services/marketplace/app"
)

const testTokenKey = "0123456789abcdef0123456789abcdef"

func startMarketplace(t *testing.T) string {
	t.Helper()
	srv, err := server.New(context.Background(), server.Config{
		Addr:            "127.0.0.1:0",
		JournalDisabled: true,
		TokenKey:        testTokenKey,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})
	return srv.Addr()
}

func run(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	if err := Execute(context.Background(), &out, args); err != nil {
		return nil, err
	}
	var fields map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &fields))
	return fields, nil
}

func issue(t *testing.T, account string) string {
	t.Helper()
	fields, err := run(t, "token", account)
	require.NoError(t, err)
	token, ok := fields["token"].(string)
	require.True(t, ok)
	return token
}

func TestCommandsDriveLifecycle(t *testing.T) {
	t.Setenv("MARKETPLACE_TOKEN_KEY", testTokenKey)
	t.Setenv("MARKETPLACE_ADDR", startMarketplace(t))
	alice := issue(t, "alice")
	bob := issue(t, "bob")

	fields, err := run(t, "next-id")
	require.NoError(t, err)
	require.Equal(t, float64(0), fields["next_id"])

	fields, err = run(t, "post", "250", "3", "--token", alice)
	require.NoError(t, err)
	require.Equal(t, float64(0), fields["listing_id"])

	_, err = run(t, "buy", "0", "--token", bob)
	require.NoError(t, err)

	fields, err = run(t, "listing", "0")
	require.NoError(t, err)
	require.Equal(t, "sold", fields["status"])
	require.Equal(t, "bob", fields["buyer"])
	require.Equal(t, float64(250), fields["price"])

	_, err = run(t, "review", "0", "positive", "--token", bob)
	require.NoError(t, err)
	_, err = run(t, "review", "0", "positive", "--token", alice)
	require.NoError(t, err)

	fields, err = run(t, "reputation", "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", fields["account"])
	require.Equal(t, float64(1), fields["score"])

	_, err = run(t, "listing", "0")
	require.ErrorContains(t, err, "Listing 0 does not exist.")
}

func TestCommandErrors(t *testing.T) {
	t.Setenv("MARKETPLACE_TOKEN_KEY", testTokenKey)
	t.Setenv("MARKETPLACE_ADDR", startMarketplace(t))

	_, err := run(t, "post", "1", "1")
	require.ErrorContains(t, err, "You must be signed in to do that.")

	_, err = run(t, "post", "lots", "1")
	require.ErrorContains(t, err, "price")

	_, err = run(t, "review", "0", "great")
	require.Error(t, err)

	_, err = run(t, "buy")
	require.Error(t, err)
}

func TestTokenRequiresKey(t *testing.T) {
	t.Setenv("MARKETPLACE_TOKEN_KEY", "")
	_, err := run(t, "token", "alice")
	require.ErrorContains(t, err, "MARKETPLACE_TOKEN_KEY")
}
