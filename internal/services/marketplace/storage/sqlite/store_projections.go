package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/codec"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/market"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/storage"
)

func applyProjection(ctx context.Context, tx *sql.Tx, evt event.Event) error {
	seq := int64(evt.Seq)
	switch evt.Type {
	case event.TypeListingPosted:
		var p market.PostedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		id := int64(p.ListingID)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO listings (listing_id, seller, listing, posted_seq) VALUES (?, ?, ?, ?)",
			id, string(p.Listing.Seller), codec.EncodeListing(p.Listing), seq,
		); err != nil {
			return fmt.Errorf("insert listing: %w", err)
		}
		if err := setStatus(ctx, tx, p.ListingID, listing.StatusActive, seq); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO next_id (singleton, value) VALUES (0, ?)
			 ON CONFLICT (singleton) DO UPDATE SET value = excluded.value`,
			id+1,
		); err != nil {
			return fmt.Errorf("advance next id: %w", err)
		}

	case event.TypeListingCancelled:
		var p market.CancelledPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		return deleteListing(ctx, tx, p.ListingID)

	case event.TypeListingSettled:
		var p market.SettledPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		return deleteListing(ctx, tx, p.ListingID)

	case event.TypeListingSold:
		var p market.SoldPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO buyers (listing_id, buyer) VALUES (?, ?)",
			int64(p.ListingID), string(p.Buyer),
		); err != nil {
			return fmt.Errorf("insert buyer: %w", err)
		}
		return setStatus(ctx, tx, p.ListingID, listing.StatusSold, seq)

	case event.TypeListingReviewed:
		var p market.ReviewedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		return setStatus(ctx, tx, p.ListingID, p.Status, seq)

	case event.TypeReputationRated:
		var p market.RatedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		var blob []byte
		var fb reputation.Feedback
		if err := json.Unmarshal(p.Feedback, &fb); err == nil {
			blob = codec.EncodeFeedback(fb)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ratings (seq, listing_id, rater, ratee, feedback, feedback_json)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			seq, int64(p.ListingID), string(p.Rater), string(p.Ratee), blob, string(p.Feedback),
		); err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}
	}
	return nil
}

func setStatus(ctx context.Context, tx *sql.Tx, id listing.ID, status listing.Status, seq int64) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO statuses (listing_id, status, updated_seq) VALUES (?, ?, ?)
		 ON CONFLICT (listing_id) DO UPDATE SET status = excluded.status, updated_seq = excluded.updated_seq`,
		int64(id), codec.EncodeStatus(status), seq,
	); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func deleteListing(ctx context.Context, tx *sql.Tx, id listing.ID) error {
	for _, table := range []string{"buyers", "statuses", "listings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE listing_id = ?", int64(id)); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

// NextID returns the projected next listing id, 0 before any post.
func (s *Store) NextID(ctx context.Context) (listing.ID, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var value int64
	err := s.sqlDB.QueryRowContext(ctx, "SELECT value FROM next_id WHERE singleton = 0").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get next id: %w", err)
	}
	return listing.ID(value), nil
}

// RatingSummary counts the ratings account has received.
func (s *Store) RatingSummary(ctx context.Context, account listing.AccountID) (storage.RatingSummary, error) {
	if err := s.ready(ctx); err != nil {
		return storage.RatingSummary{}, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT feedback, COUNT(*) FROM ratings WHERE ratee = ? GROUP BY feedback",
		string(account),
	)
	if err != nil {
		return storage.RatingSummary{}, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	summary := storage.RatingSummary{Account: account}
	for rows.Next() {
		var blob []byte
		var count uint64
		if err := rows.Scan(&blob, &count); err != nil {
			return storage.RatingSummary{}, fmt.Errorf("scan rating: %w", err)
		}
		fb, err := codec.DecodeFeedback(blob)
		if err != nil {
			summary.Other += count
			continue
		}
		switch fb {
		case reputation.Positive:
			summary.Positive += count
		case reputation.Neutral:
			summary.Neutral += count
		case reputation.Negative:
			summary.Negative += count
		}
	}
	if err := rows.Err(); err != nil {
		return storage.RatingSummary{}, fmt.Errorf("iterate ratings: %w", err)
	}
	return summary, nil
}
