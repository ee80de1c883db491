package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sample(t *testing.T, typ Type, id string) Event {
	t.Helper()
	evt, err := New(typ, "alice", EntityListing, id, map[string]any{"listing_id": 0}, time.Date(2026, 1, 2, 3, 4, 5, 678901234, time.UTC))
	require.NoError(t, err)
	return evt
}

func TestNewValidates(t *testing.T) {
	evt := sample(t, TypeListingPosted, "0")
	require.NoError(t, evt.Validate())

	evt.Type = "listing.bogus"
	require.Error(t, evt.Validate())

	evt = sample(t, TypeListingSold, "")
	require.Error(t, evt.Validate())

	evt = sample(t, TypeListingSold, "1")
	evt.PayloadJSON = []byte("{")
	require.Error(t, evt.Validate())
}

func TestEventHashIgnoresSubMillisecondAndChainFields(t *testing.T) {
	evt := sample(t, TypeListingPosted, "0")
	first, err := EventHash(evt)
	require.NoError(t, err)

	evt.Timestamp = NormalizeTimestamp(evt.Timestamp)
	evt.Seq = 99
	evt.ChainHash = "ignored"
	second, err := EventHash(evt)
	require.NoError(t, err)
	require.Equal(t, first, second)

	evt.ActorID = "bob"
	third, err := EventHash(evt)
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestSealAndVerifyChain(t *testing.T) {
	batch := []Event{sample(t, TypeListingPosted, "0"), sample(t, TypeListingSold, "0")}

	sealed, err := Seal(batch, 0, "")
	require.NoError(t, err)
	require.Equal(t, uint64(1), sealed[0].Seq)
	require.Equal(t, uint64(2), sealed[1].Seq)
	require.Empty(t, sealed[0].PrevHash)
	require.Equal(t, sealed[0].ChainHash, sealed[1].PrevHash)
	require.NoError(t, VerifyChain(sealed, ""))

	next, err := Seal([]Event{sample(t, TypeListingReviewed, "0")}, 2, sealed[1].ChainHash)
	require.NoError(t, err)
	require.Equal(t, uint64(3), next[0].Seq)
	require.NoError(t, VerifyChain(append(sealed, next...), ""))

	tampered := append([]Event(nil), sealed...)
	tampered[0].PayloadJSON = []byte(`{"listing_id":1}`)
	require.Error(t, VerifyChain(tampered, ""))
}

func TestChainHashRequiresContentHash(t *testing.T) {
	_, err := ChainHash(Event{Seq: 1}, "")
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	evt := sample(t, TypeListingPosted, "0")
	var payload struct {
		ListingID int `json:"listing_id"`
	}
	require.NoError(t, evt.Decode(&payload))
	require.Equal(t, 0, payload.ListingID)

	evt.PayloadJSON = []byte("[")
	require.Error(t, evt.Decode(&payload))
}
