package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"midas/snapshot"
)

// StartSnapshotJob checkpoints the engine every interval until ctx is
// done. After a successful checkpoint the journal segments it covers
// are dropped and acknowledged outbox records up to it are garbage
// collected.
func (s *OrderService) StartSnapshotJob(ctx context.Context, dir string, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := s.CheckpointNow(w); err != nil {
					s.log.Error("checkpoint failed", zap.Error(err))
				}
			}
		}
	}()
}

// CheckpointNow captures and persists one checkpoint synchronously.
// The capture and the journal sync run under the write lock so the
// checkpoint sequence and the book agree; the disk write happens
// outside it.
func (s *OrderService) CheckpointNow(w *snapshot.Writer) error {
	s.mu.Lock()
	snap := snapshot.Capture(s.seq.Current(), s.engine)
	syncErr := s.wal.Sync()
	s.mu.Unlock()
	if syncErr != nil {
		return syncErr
	}

	if err := w.Write(snap); err != nil {
		return err
	}

	// The journal is not safe for concurrent use, so truncation also
	// holds the write lock.
	s.mu.Lock()
	truncErr := s.wal.TruncateBefore(snap.Seq)
	s.mu.Unlock()
	if truncErr != nil {
		s.log.Warn("journal truncate failed", zap.Error(truncErr))
	}

	if s.outbox != nil {
		if err := s.outbox.TruncateAckedUpTo(snap.LastTradeID); err != nil {
			s.log.Warn("outbox gc failed", zap.Error(err))
		}
	}

	s.log.Info("checkpoint written",
		zap.Uint64("seq", snap.Seq),
		zap.Int("resting_orders", len(snap.Orders)))
	return nil
}
