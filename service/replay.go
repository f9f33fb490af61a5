package service

import (
	"fmt"

	"go.uber.org/zap"

	"midas/domain/orderbook"
	"midas/infra/sequence"
	"midas/infra/wal"
	"midas/snapshot"
)

// Recover rebuilds engine state on boot: the newest checkpoint is
// restored first, then the journal tail past it is re-applied in
// order. It must finish before the write path accepts traffic.
//
// Replay runs through MatchingEngine.Apply, so the rebuilt book, the
// order ids, and the trade ids all come out exactly as they did the
// first time. Trades produced during replay are not fanned out again;
// the outbox already holds them from the original run.
func Recover(
	eng *orderbook.MatchingEngine,
	seq *sequence.Sequencer,
	walDir, snapDir string,
	log *zap.Logger,
) error {
	snap, err := snapshot.Load(snapDir)
	if err != nil {
		return fmt.Errorf("service: load checkpoint: %w", err)
	}
	snapshot.Restore(snap, eng)

	replayed := 0
	lastSeq, err := wal.Replay(walDir, func(rec *wal.Record) error {
		// Records at or below the checkpoint sequence are already
		// part of the restored book.
		if rec.Type != wal.RecordSubmit || rec.Seq <= snap.Seq {
			return nil
		}
		side, ticks, qty, err := wal.ParseSubmission(rec.Data)
		if err != nil {
			return err
		}
		eng.Apply(orderbook.Side(side), ticks, qty)
		replayed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("service: journal replay: %w", err)
	}

	if lastSeq < snap.Seq {
		lastSeq = snap.Seq
	}
	seq.Reset(lastSeq)

	log.Info("recovery complete",
		zap.Uint64("checkpoint_seq", snap.Seq),
		zap.Int("restored_orders", len(snap.Orders)),
		zap.Int("replayed_records", replayed),
		zap.Uint64("last_seq", lastSeq))
	return nil
}
