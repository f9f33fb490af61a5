package orderbook

import (
	"errors"
	"testing"
)

func TestSubmitRestsWhenUncrossed(t *testing.T) {
	e := NewMatchingEngine(nil)

	id, trades, err := e.Submit(Ask, 101.0, 25)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("lone ask should not trade, got %d trades", len(trades))
	}

	snap := e.Snapshot()
	if len(snap.Asks) != 1 || snap.Asks[0].ID != id || snap.Asks[0].Price != 101.0 || snap.Asks[0].Qty != 25 {
		t.Errorf("ask should rest unchanged, got %+v", snap.Asks)
	}
}

func TestFourOrderSequence(t *testing.T) {
	e := NewMatchingEngine(nil)

	b1, _, _ := e.Submit(Bid, 100.0, 100)
	b2, _, _ := e.Submit(Bid, 99.0, 50)

	_, trades, err := e.Submit(Ask, 100.0, 75)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d", len(trades))
	}
	if trades[0].Qty != 75 || trades[0].PriceFloat() != 100.0 {
		t.Errorf("expected 75 @ 100.0, got %d @ %v", trades[0].Qty, trades[0].PriceFloat())
	}

	a2, trades2, _ := e.Submit(Ask, 101.0, 25)
	if len(trades2) != 0 {
		t.Errorf("ask above best bid should rest, got %d trades", len(trades2))
	}

	snap := e.Snapshot()
	if len(snap.Bids) != 2 {
		t.Fatalf("expected 2 resting bids, got %d", len(snap.Bids))
	}
	if snap.Bids[0].ID != b1 || snap.Bids[0].Price != 100.0 || snap.Bids[0].Qty != 25 {
		t.Errorf("best bid should be 25 @ 100.0, got %+v", snap.Bids[0])
	}
	if snap.Bids[1].ID != b2 || snap.Bids[1].Price != 99.0 || snap.Bids[1].Qty != 50 {
		t.Errorf("second bid should be 50 @ 99.0, got %+v", snap.Bids[1])
	}
	if len(snap.Asks) != 1 || snap.Asks[0].ID != a2 || snap.Asks[0].Price != 101.0 || snap.Asks[0].Qty != 25 {
		t.Errorf("asks should hold 25 @ 101.0, got %+v", snap.Asks)
	}
}

func TestExecutionAtAskPriceIncomingBid(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Submit(Ask, 100.0, 10)

	_, trades, _ := e.Submit(Bid, 101.0, 10)
	if len(trades) != 1 {
		t.Fatalf("expected one trade, got %d", len(trades))
	}
	if trades[0].PriceFloat() != 100.0 {
		t.Errorf("incoming bid must print at resting ask price 100.0, got %v", trades[0].PriceFloat())
	}
}

func TestExecutionAtAskPriceIncomingAsk(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Submit(Bid, 100.0, 10)

	_, trades, _ := e.Submit(Ask, 99.0, 10)
	if len(trades) != 1 {
		t.Fatalf("expected one trade, got %d", len(trades))
	}
	// The print follows the ask side even when the ask is the newcomer.
	if trades[0].PriceFloat() != 99.0 {
		t.Errorf("incoming ask must print at its own price 99.0, got %v", trades[0].PriceFloat())
	}
}

func TestFIFOAtSamePrice(t *testing.T) {
	e := NewMatchingEngine(nil)
	first, _, _ := e.Submit(Ask, 100.0, 10)
	second, _, _ := e.Submit(Ask, 100.0, 10)

	_, trades, _ := e.Submit(Bid, 100.0, 15)
	if len(trades) != 2 {
		t.Fatalf("expected two trades, got %d", len(trades))
	}
	if trades[0].AskID != first || trades[0].Qty != 10 {
		t.Errorf("first ask in should fill first: %+v", trades[0])
	}
	if trades[1].AskID != second || trades[1].Qty != 5 {
		t.Errorf("second ask should fill the remainder: %+v", trades[1])
	}

	snap := e.Snapshot()
	if len(snap.Asks) != 1 || snap.Asks[0].ID != second || snap.Asks[0].Qty != 5 {
		t.Errorf("second ask should rest with 5 left, got %+v", snap.Asks)
	}
}

func TestPartialFillKeepsPriority(t *testing.T) {
	e := NewMatchingEngine(nil)
	big, _, _ := e.Submit(Bid, 100.0, 100)
	e.Submit(Bid, 100.0, 50)

	e.Submit(Ask, 100.0, 30)

	snap := e.Snapshot()
	if snap.Bids[0].ID != big || snap.Bids[0].Qty != 70 {
		t.Errorf("partially filled bid must keep the front of the queue, got %+v", snap.Bids[0])
	}
}

func TestSweepAcrossLevels(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Submit(Ask, 100.0, 10)
	e.Submit(Ask, 101.0, 10)
	e.Submit(Ask, 102.0, 10)

	_, trades, _ := e.Submit(Bid, 102.0, 25)
	if len(trades) != 3 {
		t.Fatalf("expected three trades, got %d", len(trades))
	}
	wantPrices := []float64{100.0, 101.0, 102.0}
	wantQtys := []int64{10, 10, 5}
	for i, tr := range trades {
		if tr.PriceFloat() != wantPrices[i] || tr.Qty != wantQtys[i] {
			t.Errorf("trade %d: got %d @ %v, want %d @ %v", i, tr.Qty, tr.PriceFloat(), wantQtys[i], wantPrices[i])
		}
	}

	snap := e.Snapshot()
	if len(snap.Bids) != 0 {
		t.Errorf("bid should be fully consumed, got %+v", snap.Bids)
	}
	if len(snap.Asks) != 1 || snap.Asks[0].Price != 102.0 || snap.Asks[0].Qty != 5 {
		t.Errorf("top ask level should keep 5, got %+v", snap.Asks)
	}
}

func TestOrderIDsMonotonic(t *testing.T) {
	e := NewMatchingEngine(nil)
	var last uint64
	for i := 0; i < 10; i++ {
		side := Bid
		if i%2 == 0 {
			side = Ask
		}
		id, _, err := e.Submit(side, 100.0+float64(i), 1)
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		if id <= last {
			t.Fatalf("ids must strictly increase: %d after %d", id, last)
		}
		last = id
	}
}

func TestRejectedSubmitConsumesNothing(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Submit(Bid, 100.0, 10)

	cases := []struct {
		name  string
		side  Side
		price float64
		qty   int64
	}{
		{"zero quantity", Ask, 100.0, 0},
		{"negative quantity", Ask, 100.0, -5},
		{"zero price", Ask, 0, 10},
		{"negative price", Ask, -1.0, 10},
		{"bad side", Side(7), 100.0, 10},
		{"sub-tick price", Ask, 100.00001, 10},
	}
	for _, tc := range cases {
		_, trades, err := e.Submit(tc.side, tc.price, tc.qty)
		if !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("%s: expected ErrInvalidOrder, got %v", tc.name, err)
		}
		if trades != nil {
			t.Errorf("%s: rejected submit must not trade", tc.name)
		}
	}

	// Rejections consume no ids and leave the book alone.
	id, _, _ := e.Submit(Bid, 99.0, 1)
	if id != 2 {
		t.Errorf("expected next id 2 after one accepted order, got %d", id)
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 2 || len(snap.Asks) != 0 {
		t.Errorf("book should hold only the two accepted bids: %+v", snap)
	}
}

func TestSnapshotDoesNotMutate(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Submit(Bid, 100.0, 10)
	e.Submit(Ask, 101.0, 5)

	first := e.Snapshot()
	second := e.Snapshot()
	if len(first.Bids) != len(second.Bids) || len(first.Asks) != len(second.Asks) {
		t.Fatal("repeated snapshots should be identical")
	}
	for i := range first.Bids {
		if first.Bids[i] != second.Bids[i] {
			t.Errorf("bid %d changed between snapshots", i)
		}
	}
	for i := range first.Asks {
		if first.Asks[i] != second.Asks[i] {
			t.Errorf("ask %d changed between snapshots", i)
		}
	}
}

func TestTradeHandlerSeesExecutionsInOrder(t *testing.T) {
	e := NewMatchingEngine(nil)

	var seen []Trade
	e.RegisterTradeHandler(func(tr Trade) {
		seen = append(seen, tr)
	})

	e.Submit(Ask, 100.0, 10)
	e.Submit(Ask, 101.0, 10)
	_, returned, _ := e.Submit(Bid, 101.0, 20)

	if len(seen) != len(returned) {
		t.Fatalf("handler saw %d trades, submit returned %d", len(seen), len(returned))
	}
	for i := range seen {
		if seen[i].ID != returned[i].ID {
			t.Errorf("handler order diverged at %d", i)
		}
	}
	if len(seen) != 2 || seen[0].ID >= seen[1].ID {
		t.Errorf("trade ids must increase within a submission: %+v", seen)
	}
}

func TestApplySkipsHandlers(t *testing.T) {
	e := NewMatchingEngine(nil)
	calls := 0
	e.RegisterTradeHandler(func(Trade) { calls++ })

	e.Apply(Ask, 100_0000, 10)
	_, trades := e.Apply(Bid, 100_0000, 10)
	if len(trades) != 1 {
		t.Fatalf("apply should still match, got %d trades", len(trades))
	}
	if calls != 0 {
		t.Errorf("apply must not dispatch handlers, got %d calls", calls)
	}
}

func TestRestoreRebuildsBook(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Restore(7, Bid, 100_0000, 25)
	e.Restore(9, Ask, 101_0000, 10)
	e.SetCounters(9, 3)

	snap := e.Snapshot()
	if len(snap.Bids) != 1 || snap.Bids[0].ID != 7 {
		t.Errorf("restored bid missing: %+v", snap.Bids)
	}
	if len(snap.Asks) != 1 || snap.Asks[0].ID != 9 {
		t.Errorf("restored ask missing: %+v", snap.Asks)
	}

	id, _, _ := e.Submit(Bid, 99.0, 1)
	if id != 10 {
		t.Errorf("ids must continue past restored state, got %d", id)
	}

	orderID, tradeID := e.Counters()
	if orderID != 10 || tradeID != 3 {
		t.Errorf("counters wrong after restore: order=%d trade=%d", orderID, tradeID)
	}
}

func TestStatusTransitions(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Submit(Bid, 100.0, 100)
	e.Submit(Ask, 100.0, 30)

	var statuses []Status
	e.ForEachResting(func(o Order) bool {
		statuses = append(statuses, o.Status)
		return true
	})
	if len(statuses) != 1 || statuses[0] != PartiallyFilled {
		t.Errorf("partially filled bid should report PartiallyFilled, got %v", statuses)
	}
}

func TestTickPricesSurviveRoundTrip(t *testing.T) {
	e := NewMatchingEngine(nil)
	e.Submit(Bid, 99.95, 1)
	e.Submit(Bid, 0.0001, 1)

	snap := e.Snapshot()
	if snap.Bids[0].Price != 99.95 {
		t.Errorf("99.95 should survive exactly, got %v", snap.Bids[0].Price)
	}
	if snap.Bids[1].Price != 0.0001 {
		t.Errorf("one tick should survive exactly, got %v", snap.Bids[1].Price)
	}
}

func TestPooledOrdersAreReset(t *testing.T) {
	e := NewMatchingEngine(&dirtyAlloc{})

	// Fill and recycle, then make sure a fresh submission is clean.
	e.Submit(Bid, 100.0, 10)
	e.Submit(Ask, 100.0, 10)

	id, trades, err := e.Submit(Bid, 50.0, 3)
	if err != nil || len(trades) != 0 {
		t.Fatalf("fresh submit after recycle: id=%d trades=%d err=%v", id, len(trades), err)
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 1 || snap.Bids[0].Qty != 3 {
		t.Errorf("recycled order leaked state: %+v", snap.Bids)
	}
}

// dirtyAlloc hands back orders full of stale state to exercise reset.
type dirtyAlloc struct {
	spare *Order
}

func (a *dirtyAlloc) Get() *Order {
	if a.spare != nil {
		o := a.spare
		a.spare = nil
		return o
	}
	return &Order{Filled: 42, Status: Filled}
}

func (a *dirtyAlloc) Put(o *Order) { a.spare = o }
