package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"midas/domain/orderbook"
	"midas/infra/kafka"
	"midas/infra/memory"
	"midas/infra/monitoring"
	"midas/infra/outbox"
	"midas/infra/sequence"
	"midas/infra/wal"
)

// OrderService is the only write entry point into the system. Every
// submission is validated, journaled, applied to the engine, and
// fanned out to the outbox, the trade tape, and registered listeners,
// in that order, under one lock. Journal order therefore equals
// apply order, which is what makes replay deterministic.
type OrderService struct {
	mu sync.Mutex

	engine *orderbook.MatchingEngine
	seq    *sequence.Sequencer
	wal    *wal.WAL
	outbox *outbox.Outbox
	tape   *memory.Ring[orderbook.Trade]
	log    *zap.Logger

	onTrade []func(orderbook.Trade)
}

// NewOrderService wires all dependencies. ob may be nil when trade
// broadcast is disabled; tape may be nil when no recent-trade history
// is wanted.
func NewOrderService(
	eng *orderbook.MatchingEngine,
	seq *sequence.Sequencer,
	w *wal.WAL,
	ob *outbox.Outbox,
	tape *memory.Ring[orderbook.Trade],
	log *zap.Logger,
) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		engine: eng,
		seq:    seq,
		wal:    w,
		outbox: ob,
		tape:   tape,
		log:    log,
	}
}

// OnTrade registers fn on the execution path. Listeners run on the
// submitting goroutine under the service lock, after the trade is
// durable in the outbox; they must be fast and must not call back
// into the service.
func (s *OrderService) OnTrade(fn func(orderbook.Trade)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTrade = append(s.onTrade, fn)
}

/******************** Commands ********************/

// PlaceOrder submits a new limit order. It returns the engine's
// assigned order id and the executions the order produced. Rejected
// orders consume no sequence and leave the journal and the book
// untouched.
func (s *OrderService) PlaceOrder(side orderbook.Side, price float64, qty int64) (uint64, []orderbook.Trade, error) {
	ticks, err := orderbook.ValidateOrder(side, price, qty)
	if err != nil {
		monitoring.OrdersRejected.Inc()
		return 0, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Journal the intent before touching the book. A crash after the
	// append replays the order; a crash before it never saw the order.
	seq := s.seq.Next()
	payload := wal.AppendSubmission(nil, uint8(side), ticks, qty)
	if err := s.wal.Append(wal.NewRecord(wal.RecordSubmit, seq, payload)); err != nil {
		return 0, nil, fmt.Errorf("service: journal append: %w", err)
	}

	id, trades := s.engine.Apply(side, ticks, qty)

	monitoring.OrdersSubmitted.WithLabelValues(side.String()).Inc()
	for _, tr := range trades {
		s.recordTrade(tr)
	}
	return id, trades, nil
}

// recordTrade pushes one execution through the read-side plumbing:
// metrics, tape, outbox, listeners. Runs under the service lock.
func (s *OrderService) recordTrade(tr orderbook.Trade) {
	monitoring.TradesExecuted.Inc()
	monitoring.VolumeTraded.Add(float64(tr.Qty))

	if s.tape != nil {
		s.tape.Append(tr)
	}

	if s.outbox != nil {
		ev := kafka.NewTradeEvent(tr.ID, tr.BidID, tr.AskID, tr.PriceFloat(), tr.Qty, tr.Time.UnixNano())
		payload, err := kafka.EncodeTradeEvent(ev)
		if err == nil {
			err = s.outbox.PutNew(tr.ID, payload)
		}
		if err != nil {
			// The trade itself is safe: the book state and the journal
			// carry it. Only the broadcast is at risk.
			s.log.Error("outbox write failed",
				zap.Uint64("trade_id", tr.ID),
				zap.Error(err))
		}
	}

	for _, fn := range s.onTrade {
		fn(tr)
	}
}

/******************** Queries ********************/

// Snapshot returns the resting book, both sides in priority order.
// The engine copies it out under its own lock, so a snapshot never
// observes a half-matched book.
func (s *OrderService) Snapshot() orderbook.BookSnapshot {
	return s.engine.Snapshot()
}

// RecentTrades returns up to n of the latest executions, newest
// first. n < 0 returns everything the tape still holds.
func (s *OrderService) RecentTrades(n int) []orderbook.Trade {
	if s.tape == nil {
		return nil
	}
	return s.tape.Recent(n)
}
