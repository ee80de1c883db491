package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

type hashEnvelope struct {
	Type        Type            `json:"type"`
	Timestamp   string          `json:"timestamp"`
	ActorID     string          `json:"actor_id"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	PayloadJSON json.RawMessage `json:"payload"`
}

type chainEnvelope struct {
	Seq      uint64 `json:"seq"`
	Hash     string `json:"hash"`
	PrevHash string `json:"prev_hash"`
}

// NormalizeTimestamp is applied by journals before hashing so that stored
// millisecond timestamps hash identically on read.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// EventHash returns the SHA-256 content hash of an envelope.
// Sequence and chain fields are excluded.
func EventHash(evt Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("null")
	}
	return digest(hashEnvelope{
		Type:        evt.Type,
		Timestamp:   NormalizeTimestamp(evt.Timestamp).Format(time.RFC3339Nano),
		ActorID:     evt.ActorID,
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		PayloadJSON: payload,
	})
}

// ChainHash links evt, which must already carry Seq and Hash, to the chain
// hash of its predecessor. The first event links to "".
func ChainHash(evt Event, prevHash string) (string, error) {
	if evt.Hash == "" {
		return "", fmt.Errorf("event %d: content hash is required", evt.Seq)
	}
	return digest(chainEnvelope{Seq: evt.Seq, Hash: evt.Hash, PrevHash: prevHash})
}

func digest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode hash envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Seal assigns sequence numbers and hashes to events, continuing a chain
// whose last sequence is lastSeq and last chain hash is prevHash.
func Seal(events []Event, lastSeq uint64, prevHash string) ([]Event, error) {
	sealed := make([]Event, len(events))
	for i, evt := range events {
		evt.Seq = lastSeq + uint64(i) + 1
		evt.Timestamp = NormalizeTimestamp(evt.Timestamp)
		hash, err := EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d hash: %w", i, err)
		}
		evt.Hash = hash
		chain, err := ChainHash(evt, prevHash)
		if err != nil {
			return nil, fmt.Errorf("event %d chain hash: %w", i, err)
		}
		evt.PrevHash = prevHash
		evt.ChainHash = chain
		prevHash = chain
		sealed[i] = evt
	}
	return sealed, nil
}

// VerifyChain recomputes hashes for a contiguous run of events starting after
// a predecessor whose chain hash is prevHash.
func VerifyChain(events []Event, prevHash string) error {
	for _, evt := range events {
		if evt.PrevHash != prevHash {
			return fmt.Errorf("event %d: prev hash mismatch", evt.Seq)
		}
		hash, err := EventHash(evt)
		if err != nil {
			return err
		}
		if hash != evt.Hash {
			return fmt.Errorf("event %d: content hash mismatch", evt.Seq)
		}
		chain, err := ChainHash(evt, prevHash)
		if err != nil {
			return err
		}
		if chain != evt.ChainHash {
			return fmt.Errorf("event %d: chain hash mismatch", evt.Seq)
		}
		prevHash = chain
	}
	return nil
}
