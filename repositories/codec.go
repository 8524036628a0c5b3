package repositories

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored as protobuf wire messages built by hand: strings use
// the bytes wire type and timestamps are unix nanoseconds as varints.
// Unknown fields are skipped so old records stay readable.

type encoder []byte

func (e encoder) str(num protowire.Number, v string) encoder {
	if v == "" {
		return e
	}
	b := protowire.AppendTag(e, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func (e encoder) time(num protowire.Number, t time.Time) encoder {
	if t.IsZero() {
		return e
	}
	b := protowire.AppendTag(e, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(t.UnixNano()))
}

type record struct {
	strings map[protowire.Number]string
	varints map[protowire.Number]uint64
}

func (r record) str(num protowire.Number) string { return r.strings[num] }

func (r record) time(num protowire.Number) time.Time {
	v, ok := r.varints[num]
	if !ok {
		return time.Time{}
	}
	return time.Unix(0, int64(v)).UTC()
}

func decode(b []byte) (record, error) {
	r := record{
		strings: make(map[protowire.Number]string),
		varints: make(map[protowire.Number]uint64),
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return r, fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
			}
			r.strings[num] = v
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return r, fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
			}
			r.varints[num] = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return r, fmt.Errorf("skip field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return r, nil
}
