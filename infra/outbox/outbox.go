// Package outbox is the durable trade outbox: every execution is
// stored before it is published, and the broadcaster walks the
// pending records until Kafka acknowledges them. Records live in a
// pebble keyspace ordered by trade id.
package outbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

// Record is one outbox entry. Payload is the serialized trade event,
// written once at PutNew and carried unchanged through state changes.
type Record struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// value encoding: [state:1][retries:4][lastAttempt:8][payload...]
func encodeRecord(r Record) []byte {
	buf := make([]byte, 1+4+8+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[13:], r.Payload)
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < 13 {
		return Record{}, errors.New("outbox: invalid record length")
	}
	payload := make([]byte, len(b)-13)
	copy(payload, b[13:])
	return Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- Outbox --------------------

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // trades must survive a crash
	})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// -------------------- API --------------------

// PutNew stores a fresh trade event in state NEW.
func (o *Outbox) PutNew(tradeID uint64, payload []byte) error {
	rec := Record{
		State:   StateNew,
		Payload: payload,
	}
	return o.db.Set(keyFor(tradeID), encodeRecord(rec), pebble.Sync)
}

// MarkSent flags a record as handed to the producer and counts the
// attempt.
func (o *Outbox) MarkSent(tradeID uint64) error {
	return o.transition(tradeID, StateSent, true)
}

// MarkAcked flags a record as acknowledged by the sink.
func (o *Outbox) MarkAcked(tradeID uint64) error {
	return o.transition(tradeID, StateAcked, false)
}

// MarkFailed flags a record for a later retry.
func (o *Outbox) MarkFailed(tradeID uint64) error {
	return o.transition(tradeID, StateFailed, false)
}

func (o *Outbox) transition(tradeID uint64, state State, countAttempt bool) error {
	rec, err := o.Get(tradeID)
	if err != nil {
		return err
	}
	rec.State = state
	rec.LastAttempt = time.Now().UnixNano()
	if countAttempt {
		rec.Retries++
	}
	return o.db.Set(keyFor(tradeID), encodeRecord(rec), pebble.Sync)
}

// Get returns the record for one trade.
func (o *Outbox) Get(tradeID uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(tradeID))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(val)
}

// Delete removes one record regardless of state.
func (o *Outbox) Delete(tradeID uint64) error {
	return o.db.Delete(keyFor(tradeID), pebble.Sync)
}

// -------------------- Scans --------------------

// ScanByState visits records in the given state, in trade id order.
func (o *Outbox) ScanByState(state State, fn func(tradeID uint64, rec Record) error) error {
	return o.scan(func(id uint64, rec Record) error {
		if rec.State != state {
			return nil
		}
		return fn(id, rec)
	})
}

// ScanPending visits every record not yet acknowledged: NEW, FAILED,
// and SENT entries left behind by a crash mid-publish. The
// broadcaster re-sends all of them, which keeps delivery
// at-least-once.
func (o *Outbox) ScanPending(fn func(tradeID uint64, rec Record) error) error {
	return o.scan(func(id uint64, rec Record) error {
		if rec.State == StateAcked {
			return nil
		}
		return fn(id, rec)
	})
}

func (o *Outbox) scan(fn func(tradeID uint64, rec Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// TruncateAckedUpTo deletes acknowledged records with id at or below
// upTo. The snapshot job calls it after a successful snapshot.
func (o *Outbox) TruncateAckedUpTo(upTo uint64) error {
	var doomed []uint64
	err := o.ScanByState(StateAcked, func(id uint64, _ Record) error {
		if id <= upTo {
			doomed = append(doomed, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, id := range doomed {
		if err := o.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

// -------------------- Helpers --------------------

const keyPrefix = "trade/"

func keyFor(tradeID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, tradeID))
}

func parseKey(b []byte) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(keyPrefix))), "%d", &id)
	return id, err
}
