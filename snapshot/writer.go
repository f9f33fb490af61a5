package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"midas/domain/orderbook"
)

// Capture builds a point-in-time checkpoint of eng covering journal
// position seq. The caller owns consistency between seq and the book:
// the snapshot job reads both under the service write lock.
func Capture(seq uint64, eng *orderbook.MatchingEngine) Snapshot {
	lastOrderID, lastTradeID := eng.Counters()

	s := Snapshot{
		Seq:         seq,
		LastOrderID: lastOrderID,
		LastTradeID: lastTradeID,
		Created:     time.Now(),
		Orders:      make([]OrderEntry, 0, 1024),
	}

	eng.ForEachResting(func(o orderbook.Order) bool {
		s.Orders = append(s.Orders, OrderEntry{
			ID:    o.ID,
			Side:  int(o.Side),
			Price: o.Price,
			Qty:   o.Remaining(),
		})
		return true
	})

	return s
}

// Writer persists checkpoints into Dir. Each write lands under a
// temporary name and is renamed over the previous checkpoint, so a
// crash mid-write never destroys the last good one.
type Writer struct {
	Dir string
}

func (w *Writer) Write(s Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(w.Dir, FileName+".tmp-*")
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(tmp).Encode(&s); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(w.Dir, FileName))
}
