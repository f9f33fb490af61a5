package snapshot

import "time"

// FileName is the checkpoint file inside the snapshot directory.
const FileName = "snapshot.bin"

// Snapshot is one on-disk checkpoint: the resting book plus the state
// needed to resume id assignment and journal replay after it.
type Snapshot struct {
	Seq         uint64
	LastOrderID uint64
	LastTradeID uint64
	Created     time.Time
	Orders      []OrderEntry
}

// OrderEntry is one resting order. Qty is the remaining quantity;
// partially filled orders are checkpointed at their remainder.
type OrderEntry struct {
	ID    uint64
	Side  int
	Price int64
	Qty   int64
}
