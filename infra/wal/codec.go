package wal

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

// Submission payloads use the protobuf wire format directly, so no
// generated bindings are needed and other runtimes can still decode
// the journal.
const (
	fieldSide  protowire.Number = 1
	fieldPrice protowire.Number = 2
	fieldQty   protowire.Number = 3
)

// ErrBadPayload marks a submission payload that does not parse.
var ErrBadPayload = errors.New("wal: malformed submission payload")

// AppendSubmission encodes one submission intent into buf. Price is
// in ticks; side is the domain side as a byte.
func AppendSubmission(buf []byte, side uint8, priceTicks, qty int64) []byte {
	buf = protowire.AppendTag(buf, fieldSide, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(side))
	buf = protowire.AppendTag(buf, fieldPrice, protowire.VarintType)
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(priceTicks))
	buf = protowire.AppendTag(buf, fieldQty, protowire.VarintType)
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(qty))
	return buf
}

// ParseSubmission decodes a payload written by AppendSubmission.
// Unknown fields are skipped so the format can grow without breaking
// old readers.
func ParseSubmission(b []byte) (side uint8, priceTicks, qty int64, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, 0, 0, ErrBadPayload
		}
		b = b[n:]

		if typ != protowire.VarintType {
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return 0, 0, 0, ErrBadPayload
			}
			b = b[m:]
			continue
		}

		v, m := protowire.ConsumeVarint(b)
		if m < 0 {
			return 0, 0, 0, ErrBadPayload
		}
		b = b[m:]

		switch num {
		case fieldSide:
			side = uint8(v)
		case fieldPrice:
			priceTicks = protowire.DecodeZigZag(v)
		case fieldQty:
			qty = protowire.DecodeZigZag(v)
		}
	}
	return side, priceTicks, qty, nil
}
