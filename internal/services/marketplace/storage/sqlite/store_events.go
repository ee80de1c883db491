package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/storage"
)

// AppendEvents seals events after the current journal head and writes them,
// with their projection updates, in one transaction.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, storage.ErrEventsRequired
	}
	for i, evt := range events {
		if err := evt.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var lastSeq uint64
	var prevHash string
	err = tx.QueryRowContext(ctx, "SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1").Scan(&lastSeq, &prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load journal head: %w", err)
	}

	sealed, err := event.Seal(events, lastSeq, prevHash)
	if err != nil {
		return nil, err
	}
	for i, evt := range sealed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (
			   seq, event_hash, prev_hash, chain_hash, timestamp,
			   event_type, actor_id, entity_type, entity_id, payload_json
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(evt.Seq), evt.Hash, evt.PrevHash, evt.ChainHash, toMillis(evt.Timestamp),
			string(evt.Type), evt.ActorID, evt.EntityType, evt.EntityID, string(evt.PayloadJSON),
		); err != nil {
			return nil, fmt.Errorf("append event %d: %w", i, err)
		}
		if err := applyProjection(ctx, tx, evt); err != nil {
			return nil, fmt.Errorf("project event %d (%s): %w", evt.Seq, evt.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sealed, nil
}

// ListEvents returns up to limit events with seq > afterSeq, ascending.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, event_hash, prev_hash, chain_hash, timestamp,
		        event_type, actor_id, entity_type, entity_id, payload_json
		   FROM events WHERE seq > ? ORDER BY seq LIMIT ?`,
		int64(afterSeq), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt       event.Event
			seq       int64
			millis    int64
			eventType string
			payload   string
		)
		if err := rows.Scan(&seq, &evt.Hash, &evt.PrevHash, &evt.ChainHash, &millis,
			&eventType, &evt.ActorID, &evt.EntityType, &evt.EntityID, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Timestamp = fromMillis(millis)
		evt.Type = event.Type(eventType)
		evt.PayloadJSON = []byte(payload)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LatestSeq returns the highest journaled sequence, 0 when empty.
func (s *Store) LatestSeq(ctx context.Context) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var seq sql.NullInt64
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT MAX(seq) FROM events").Scan(&seq); err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return uint64(seq.Int64), nil
}
