// Package broadcaster publishes executed trades to Kafka. It drains
// the durable outbox on a ticker, so delivery survives restarts and
// broker outages: a record is only acknowledged once Kafka accepted
// it, and everything else is re-sent on the next pass
// (at-least-once).
package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"midas/infra/outbox"
)

type Broadcaster struct {
	outbox   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger
}

// Dial builds the synchronous producer the broadcaster publishes
// with: full-ISR acks and bounded retries.
func Dial(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	return sarama.NewSyncProducer(brokers, cfg)
}

// New wires a broadcaster over an already-open outbox and producer.
// The producer is injected so tests can substitute a mock.
func New(ob *outbox.Outbox, producer sarama.SyncProducer, topic string, interval time.Duration, log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		outbox:   ob,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}
}

// Start runs the publish loop until ctx is done.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info("broadcaster started",
		zap.String("topic", b.topic),
		zap.Duration("interval", b.interval))

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.publishPending()
			}
		}
	}()
}

// publishPending walks every record Kafka has not acknowledged yet
// and re-sends it, including SENT records left behind by a crash
// mid-publish.
func (b *Broadcaster) publishPending() {
	err := b.outbox.ScanPending(func(id uint64, rec outbox.Record) error {
		if err := b.outbox.MarkSent(id); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(id, 10)),
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn("trade publish failed",
				zap.Uint64("trade_id", id),
				zap.Error(err))
			// Flag for the next pass and keep draining.
			return b.outbox.MarkFailed(id)
		}

		return b.outbox.MarkAcked(id)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
