package orderbook

import "time"

// Trade is a single execution print. Price is the ask side's price in
// ticks; BidID and AskID name the matched orders.
type Trade struct {
	ID    uint64
	BidID uint64
	AskID uint64
	Price int64
	Qty   int64
	Time  time.Time
}

// PriceFloat returns the print price in units.
func (t Trade) PriceFloat() float64 {
	return FromTicks(t.Price)
}

// TradeHandler observes executions. Handlers run synchronously on the
// submitting goroutine while the engine lock is held: they must be
// fast and must not call back into the engine.
type TradeHandler func(Trade)
