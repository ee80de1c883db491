package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

func seedJournal(t *testing.T) (*memJournal, *Market[reputation.Feedback, int32]) {
	t.Helper()
	ctx := context.Background()
	journal := &memJournal{}
	m := newMarket(t, newRecordingPort(), WithJournal(journal))

	for i := 0; i < 4; i++ {
		_, err := m.PostListing(ctx, alice, uint32(100+i), uint32(i))
		require.NoError(t, err)
	}
	require.NoError(t, m.CancelListing(ctx, alice, 1))
	require.NoError(t, m.Buy(ctx, bob, 0))
	require.NoError(t, m.Review(ctx, bob, 0, reputation.Positive))
	require.NoError(t, m.Review(ctx, alice, 0, reputation.Negative))
	require.NoError(t, m.Buy(ctx, carol, 2))
	require.NoError(t, m.Review(ctx, alice, 2, reputation.Positive))
	return journal, m
}

func TestReplayRebuildsState(t *testing.T) {
	journal, original := seedJournal(t)

	port := newRecordingPort()
	rebuilt := newMarket(t, port)
	result, err := rebuilt.Replay(context.Background(), journal, ReplayOptions{PageSize: 3, VerifyChain: true})
	require.NoError(t, err)
	require.Equal(t, len(journal.events), result.Applied)
	require.Equal(t, uint64(len(journal.events)), result.LastSeq)
	require.Equal(t, original.LastSeq(), rebuilt.LastSeq())

	for id := listing.ID(0); id < 5; id++ {
		wantListing, wantOK := original.Listing(id)
		gotListing, gotOK := rebuilt.Listing(id)
		require.Equal(t, wantOK, gotOK, "listing %d", id)
		require.Equal(t, wantListing, gotListing)

		wantStatus, _ := original.Status(id)
		gotStatus, _ := rebuilt.Status(id)
		require.Equal(t, wantStatus, gotStatus)

		wantBuyer, _ := original.Buyer(id)
		gotBuyer, _ := rebuilt.Buyer(id)
		require.Equal(t, wantBuyer, gotBuyer)
	}
	for _, account := range []listing.AccountID{alice, bob, carol} {
		require.Equal(t, original.Reputation(account), rebuilt.Reputation(account), "reputation of %s", account)
	}
	require.Len(t, port.calls, 3)

	next, err := rebuilt.NextID()
	require.NoError(t, err)
	require.Equal(t, listing.ID(4), next)
	requireConsistent(t, rebuilt)
}

func TestReplayThenContinueWriting(t *testing.T) {
	journal, _ := seedJournal(t)
	m := newMarket(t, newRecordingPort(), WithJournal(journal))
	_, err := m.Replay(context.Background(), journal, ReplayOptions{})
	require.NoError(t, err)

	id, err := m.PostListing(context.Background(), carol, 1, 1)
	require.NoError(t, err)
	require.Equal(t, listing.ID(4), id)
	require.Equal(t, uint64(len(journal.events)), m.LastSeq())
	require.NoError(t, event.VerifyChain(journal.events, ""))
}

func TestReplayDetectsSequenceGap(t *testing.T) {
	journal, _ := seedJournal(t)
	journal.events = append(journal.events[:2], journal.events[3:]...)

	m := newMarket(t, newRecordingPort())
	_, err := m.Replay(context.Background(), journal, ReplayOptions{})
	require.ErrorContains(t, err, "sequence gap")
}

func TestReplayDetectsTampering(t *testing.T) {
	journal, _ := seedJournal(t)
	journal.events[1].PayloadJSON = []byte(`{"seller":"mallory","listing_id":1,"listing":{"seller":"mallory","price":1,"description":1}}`)

	m := newMarket(t, newRecordingPort())
	_, err := m.Replay(context.Background(), journal, ReplayOptions{VerifyChain: true})
	require.ErrorContains(t, err, "hash mismatch")
}

func TestReplayRequiresSource(t *testing.T) {
	m := newMarket(t, newRecordingPort())
	_, err := m.Replay(context.Background(), nil, ReplayOptions{})
	require.ErrorIs(t, err, ErrEventSourceRequired)
}
