package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrCorruptRecord marks a record whose CRC or framing is broken in
// the middle of the journal. A torn tail in the newest segment is not
// corruption; Replay stops cleanly there.
var ErrCorruptRecord = errors.New("wal: corrupt record")

type ReplayHandler func(*Record) error

// Replay walks every segment in order and hands each record to fn,
// returning the last sequence seen. Sequences must be strictly
// monotonic across the whole journal.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := listSegments(dir)
	if err != nil {
		return 0, err
	}

	for i, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return lastSeq, err
		}
		lastFile := i == len(files)-1

		for {
			rec, err := readRecord(f)
			if err == io.EOF {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				// Torn tail from a crash mid-append. Acceptable only
				// on the newest segment.
				if lastFile {
					break
				}
				_ = f.Close()
				return lastSeq, fmt.Errorf("%w: truncated segment %s", ErrCorruptRecord, path)
			}
			if err != nil {
				_ = f.Close()
				return lastSeq, err
			}

			if rec.Seq <= lastSeq {
				_ = f.Close()
				return lastSeq, fmt.Errorf("wal: non-monotonic seq %d after %d", rec.Seq, lastSeq)
			}
			lastSeq = rec.Seq

			if err := fn(rec); err != nil {
				_ = f.Close()
				return lastSeq, err
			}
		}
		_ = f.Close()
	}

	return lastSeq, nil
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])

	body := make([]byte, l+4)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	payload := body[:l]
	crc := binary.BigEndian.Uint32(body[l:])

	if frameCRC(header, payload) != crc {
		return nil, fmt.Errorf("%w: crc mismatch", ErrCorruptRecord)
	}

	return &Record{
		Type: t,
		Seq:  seq,
		Time: int64(ts),
		Data: payload,
	}, nil
}
