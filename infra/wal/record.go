package wal

import "time"

// RecordType defines journal intent. Only submissions exist today;
// the byte stays in the frame so the format can grow.
type RecordType uint8

const (
	RecordSubmit RecordType = iota
)

// Record is an immutable journal entry.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
