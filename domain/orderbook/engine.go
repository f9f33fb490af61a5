package orderbook

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidOrder rejects submissions before they touch the book.
var ErrInvalidOrder = errors.New("orderbook: invalid order")

// Allocator hands out Order values for the engine and takes filled
// ones back. memory.Pool satisfies it; the engine falls back to plain
// allocation when none is given.
type Allocator interface {
	Get() *Order
	Put(*Order)
}

type heapAllocator struct{}

func (heapAllocator) Get() *Order { return new(Order) }
func (heapAllocator) Put(*Order)  {}

// OrderEntry is one resting order in a copied book view.
type OrderEntry struct {
	ID    uint64
	Price float64
	Qty   int64
}

// BookSnapshot is a copied view of the resting book: bids descending,
// asks ascending, FIFO within each price. Qty is remaining quantity.
type BookSnapshot struct {
	Bids []OrderEntry
	Asks []OrderEntry
}

// MatchingEngine serializes submissions onto one OrderBook and
// uncrosses it to fixed point after every insert. A single mutex
// guards the book, the id counters, and handler dispatch, so each
// call is indivisible and arrival order under the lock is time
// priority. Ids are handed out monotonically from 1 and never reused.
type MatchingEngine struct {
	mu   sync.Mutex
	book *OrderBook

	nextOrderID uint64
	nextTradeID uint64

	alloc    Allocator
	handlers []TradeHandler
}

func NewMatchingEngine(alloc Allocator) *MatchingEngine {
	if alloc == nil {
		alloc = heapAllocator{}
	}
	return &MatchingEngine{
		book:        NewOrderBook(),
		nextOrderID: 1,
		nextTradeID: 1,
		alloc:       alloc,
	}
}

// RegisterTradeHandler adds h to the dispatch list. Handlers see
// every trade exactly once, in execution order.
func (e *MatchingEngine) RegisterTradeHandler(h TradeHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// ValidateOrder checks a submission before it touches any state and
// converts its price to ticks. Rejection keeps the reference's
// unchecked inputs out of the book deliberately: non-positive prices
// and quantities are defects, not orders.
func ValidateOrder(side Side, price float64, qty int64) (int64, error) {
	if side != Bid && side != Ask {
		return 0, fmt.Errorf("%w: unknown side %d", ErrInvalidOrder, side)
	}
	if qty <= 0 {
		return 0, fmt.Errorf("%w: quantity %d", ErrInvalidOrder, qty)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: price %v", ErrInvalidOrder, price)
	}
	ticks, err := ToTicks(price)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	return ticks, nil
}

// Submit validates one limit order, inserts it, and matches to fixed
// point. It returns the assigned id and the executions the order
// produced. On validation failure the book is untouched and no id is
// consumed.
func (e *MatchingEngine) Submit(side Side, price float64, qty int64) (uint64, []Trade, error) {
	ticks, err := ValidateOrder(side, price, qty)
	if err != nil {
		return 0, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id, trades := e.apply(side, ticks, qty)
	for _, tr := range trades {
		for _, h := range e.handlers {
			h(tr)
		}
	}
	return id, trades, nil
}

// Apply runs one pre-validated submission without notifying trade
// handlers. Journal replay uses it to rebuild state that was already
// reported once.
func (e *MatchingEngine) Apply(side Side, priceTicks, qty int64) (uint64, []Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(side, priceTicks, qty)
}

// Restore inserts a resting order under its original id with no
// matching pass and advances the id counter past it. Snapshot load is
// the only caller; restored books are never crossed.
func (e *MatchingEngine) Restore(id uint64, side Side, priceTicks, qty int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o := e.newOrder(side, priceTicks, qty)
	o.ID = id
	e.book.Insert(o)

	if id >= e.nextOrderID {
		e.nextOrderID = id + 1
	}
}

// Snapshot copies the resting book without mutating it.
func (e *MatchingEngine) Snapshot() BookSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var snap BookSnapshot
	e.book.BidsWalk(func(lvl *PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			snap.Bids = append(snap.Bids, OrderEntry{ID: o.ID, Price: FromTicks(o.Price), Qty: o.Remaining()})
		}
		return true
	})
	e.book.AsksWalk(func(lvl *PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			snap.Asks = append(snap.Asks, OrderEntry{ID: o.ID, Price: FromTicks(o.Price), Qty: o.Remaining()})
		}
		return true
	})
	return snap
}

// ForEachResting visits every resting order under the engine lock,
// bids best-first then asks best-first, passing copies.
func (e *MatchingEngine) ForEachResting(fn func(Order) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stop := false
	e.book.BidsWalk(func(lvl *PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if !fn(*o) {
				stop = true
				return false
			}
		}
		return true
	})
	if stop {
		return
	}
	e.book.AsksWalk(func(lvl *PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if !fn(*o) {
				return false
			}
		}
		return true
	})
}

// Counters returns the last handed-out order and trade ids.
func (e *MatchingEngine) Counters() (orderID, tradeID uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextOrderID - 1, e.nextTradeID - 1
}

// SetCounters fast-forwards the id counters during restore. Counters
// never rewind.
func (e *MatchingEngine) SetCounters(orderID, tradeID uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if orderID >= e.nextOrderID {
		e.nextOrderID = orderID + 1
	}
	if tradeID >= e.nextTradeID {
		e.nextTradeID = tradeID + 1
	}
}

/******************** Matching core ********************/

func (e *MatchingEngine) apply(side Side, priceTicks, qty int64) (uint64, []Trade) {
	o := e.newOrder(side, priceTicks, qty)
	o.ID = e.nextOrderID
	e.nextOrderID++

	e.book.Insert(o)
	return o.ID, e.uncross()
}

func (e *MatchingEngine) newOrder(side Side, priceTicks, qty int64) *Order {
	o := e.alloc.Get()
	o.reset()
	o.Side = side
	o.Price = priceTicks
	o.Qty = qty
	o.Status = Resting
	return o
}

// uncross drains crossed levels until one side empties or the best
// bid sits below the best ask. Every execution prints at the ask
// level's price, whichever side arrived last.
func (e *MatchingEngine) uncross() []Trade {
	var trades []Trade
	for {
		bidLvl := e.book.Bids.MaxLevel()
		askLvl := e.book.Asks.MinLevel()
		if bidLvl == nil || askLvl == nil || bidLvl.Price < askLvl.Price {
			return trades
		}

		buy := bidLvl.Head()
		sell := askLvl.Head()
		n := min(buy.Remaining(), sell.Remaining())

		buy.Filled += n
		sell.Filled += n
		bidLvl.Reduce(n)
		askLvl.Reduce(n)

		trades = append(trades, Trade{
			ID:    e.nextTradeID,
			BidID: buy.ID,
			AskID: sell.ID,
			Price: askLvl.Price,
			Qty:   n,
			Time:  time.Now(),
		})
		e.nextTradeID++

		e.settle(Bid, bidLvl, buy)
		e.settle(Ask, askLvl, sell)
	}
}

// settle finalizes o after a fill: exhausted orders leave the book
// and return to the allocator, partials keep their queue position.
func (e *MatchingEngine) settle(side Side, lvl *PriceLevel, o *Order) {
	if o.Remaining() > 0 {
		o.Status = PartiallyFilled
		return
	}
	o.Status = Filled
	e.book.removeHead(side, lvl)
	e.alloc.Put(o)
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
