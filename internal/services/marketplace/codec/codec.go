// Package codec is the stable, versioned binary encoding of listings, statuses
// and feedback shared with external observers of the projection tables.
//
// Every message starts with field 1, the format version. Remaining fields
// follow declaration order. Decoders reject unknown versions and out-of-range
// enum values and skip fields they do not know, so later versions can append
// fields without breaking older readers.
package codec

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

// Version is the only format version this package reads and writes.
const Version = 1

const (
	fieldVersion     protowire.Number = 1
	fieldSeller      protowire.Number = 2
	fieldPrice       protowire.Number = 3
	fieldDescription protowire.Number = 4
	fieldValue       protowire.Number = 2
)

var (
	// ErrUnsupportedVersion is returned for messages of an unknown version.
	ErrUnsupportedVersion = errors.New("codec: unsupported version")
	// ErrMissingVersion is returned when field 1 is absent.
	ErrMissingVersion = errors.New("codec: missing version")
)

// EncodeListing encodes l.
func EncodeListing(l listing.Listing) []byte {
	b := appendVersion(nil)
	b = protowire.AppendTag(b, fieldSeller, protowire.BytesType)
	b = protowire.AppendString(b, string(l.Seller))
	b = protowire.AppendTag(b, fieldPrice, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(l.Price))
	b = protowire.AppendTag(b, fieldDescription, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(l.Description))
	return b
}

// DecodeListing decodes a listing written by EncodeListing.
func DecodeListing(data []byte) (listing.Listing, error) {
	var l listing.Listing
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch {
		case num == fieldSeller && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			l.Seller = listing.AccountID(v)
			return n, true, nil
		case num == fieldPrice && typ == protowire.VarintType:
			n, err := consumeUint32(b, &l.Price)
			return n, true, err
		case num == fieldDescription && typ == protowire.VarintType:
			n, err := consumeUint32(b, &l.Description)
			return n, true, err
		}
		return 0, false, nil
	})
	if err != nil {
		return listing.Listing{}, fmt.Errorf("decode listing: %w", err)
	}
	return l, nil
}

// EncodeStatus encodes s.
func EncodeStatus(s listing.Status) []byte {
	return encodeEnum(uint64(s))
}

// DecodeStatus decodes a status written by EncodeStatus.
func DecodeStatus(data []byte) (listing.Status, error) {
	v, err := decodeEnum(data)
	if err != nil {
		return 0, fmt.Errorf("decode status: %w", err)
	}
	s := listing.Status(v)
	if v > math.MaxUint8 || !s.Valid() {
		return 0, fmt.Errorf("decode status: value %d out of range", v)
	}
	return s, nil
}

// EncodeFeedback encodes f.
func EncodeFeedback(f reputation.Feedback) []byte {
	return encodeEnum(uint64(f))
}

// DecodeFeedback decodes feedback written by EncodeFeedback.
func DecodeFeedback(data []byte) (reputation.Feedback, error) {
	v, err := decodeEnum(data)
	if err != nil {
		return 0, fmt.Errorf("decode feedback: %w", err)
	}
	f := reputation.Feedback(v)
	if v > math.MaxUint8 || !f.Valid() {
		return 0, fmt.Errorf("decode feedback: value %d out of range", v)
	}
	return f, nil
}

func appendVersion(b []byte) []byte {
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	return protowire.AppendVarint(b, Version)
}

func encodeEnum(v uint64) []byte {
	b := appendVersion(nil)
	b = protowire.AppendTag(b, fieldValue, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func decodeEnum(data []byte) (uint64, error) {
	var value uint64
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		if num == fieldValue && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			value = v
			return n, true, nil
		}
		return 0, false, nil
	})
	return value, err
}

func consumeUint32(b []byte, dst *uint32) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("value %d overflows uint32", v)
	}
	*dst = uint32(v)
	return n, nil
}

// walk checks the version field and hands every other field to visit, which
// reports the bytes it consumed, or known=false to have the field skipped.
func walk(data []byte, visit func(protowire.Number, protowire.Type, []byte) (n int, known bool, err error)) error {
	sawVersion := false
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		if num == fieldVersion {
			if typ != protowire.VarintType {
				return fmt.Errorf("version has wire type %d", typ)
			}
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if v != Version {
				return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
			}
			sawVersion = true
			data = data[m:]
			continue
		}
		if !sawVersion {
			return ErrMissingVersion
		}

		m, known, err := visit(num, typ, data)
		if err != nil {
			return err
		}
		if !known {
			m = protowire.ConsumeFieldValue(num, typ, data)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		data = data[m:]
	}
	if !sawVersion {
		return ErrMissingVersion
	}
	return nil
}
