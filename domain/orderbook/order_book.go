package orderbook

// OrderBook holds the resting orders for one instrument: a tree of
// price levels per side, FIFO within each level. Bids read best-first
// from the max end, asks from the min end.
//
// The book only stores and removes orders. Matching lives in
// MatchingEngine, which also provides the locking; the book itself is
// not safe for concurrent use.
type OrderBook struct {
	Bids *RBTree
	Asks *RBTree
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids: NewRBTree(),
		Asks: NewRBTree(),
	}
}

// Insert enqueues o at the tail of its price level, creating the
// level when absent. Insert never matches; callers run the uncross
// afterwards.
func (b *OrderBook) Insert(o *Order) {
	b.sideTree(o.Side).UpsertLevel(o.Price).Enqueue(o)
}

// BestBid returns the front order of the highest bid level, nil when
// the side is empty.
func (b *OrderBook) BestBid() *Order {
	if lvl := b.Bids.MaxLevel(); lvl != nil {
		return lvl.Head()
	}
	return nil
}

// BestAsk returns the front order of the lowest ask level, nil when
// the side is empty.
func (b *OrderBook) BestAsk() *Order {
	if lvl := b.Asks.MinLevel(); lvl != nil {
		return lvl.Head()
	}
	return nil
}

// Crossed reports whether the best bid and best ask overlap. After
// every matching pass this must be false.
func (b *OrderBook) Crossed() bool {
	bid := b.Bids.MaxLevel()
	ask := b.Asks.MinLevel()
	return bid != nil && ask != nil && bid.Price >= ask.Price
}

// removeHead pops the front order of lvl and drops the level from its
// side when it empties.
func (b *OrderBook) removeHead(side Side, lvl *PriceLevel) *Order {
	o := lvl.PopHead()
	if lvl.Empty() {
		b.sideTree(side).DeleteLevel(lvl.Price)
	}
	return o
}

func (b *OrderBook) sideTree(s Side) *RBTree {
	if s == Bid {
		return b.Bids
	}
	return b.Asks
}

// ---- traversal helpers ----

// BidsWalk visits bid levels best-first (descending price).
func (b *OrderBook) BidsWalk(fn func(*PriceLevel) bool) {
	b.Bids.ForEachDescending(fn)
}

// AsksWalk visits ask levels best-first (ascending price).
func (b *OrderBook) AsksWalk(fn func(*PriceLevel) bool) {
	b.Asks.ForEachAscending(fn)
}
