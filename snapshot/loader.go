package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"midas/domain/orderbook"
)

// Load reads the checkpoint in dir. A missing checkpoint is a fresh
// system, not an error: the zero Snapshot makes replay start from the
// beginning of the journal.
func Load(dir string) (Snapshot, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Restore loads s into eng: every checkpointed order rests under its
// original id, and the id counters resume past the checkpoint.
// Checkpointed books are never crossed, so no matching pass runs.
func Restore(s Snapshot, eng *orderbook.MatchingEngine) {
	for _, e := range s.Orders {
		eng.Restore(e.ID, orderbook.Side(e.Side), e.Price, e.Qty)
	}
	eng.SetCounters(s.LastOrderID, s.LastTradeID)
}
