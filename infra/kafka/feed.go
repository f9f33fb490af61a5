package kafka

import (
	"context"
	"errors"

	kafkago "github.com/segmentio/kafka-go"
)

// PriceFeed consumes trade events from the trade topic and yields
// their execution prices in arrival order. New consumer groups start
// from the earliest offset so a backtest sees the full history.
type PriceFeed struct {
	reader *kafkago.Reader
}

func NewPriceFeed(brokers []string, topic, group string) *PriceFeed {
	return &PriceFeed{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     group,
			MinBytes:    1,
			MaxBytes:    10 << 20,
			StartOffset: kafkago.FirstOffset,
		}),
	}
}

// ReadPrices reads up to max trade events and returns their prices.
// max <= 0 means no cap. A context deadline or cancellation is not an
// error here: the feed hands back whatever it drained so far, which
// is how a backtest stops on a quiet topic. Messages that do not
// decode as trade events are skipped.
func (f *PriceFeed) ReadPrices(ctx context.Context, max int) ([]float64, error) {
	var prices []float64
	for max <= 0 || len(prices) < max {
		m, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return prices, nil
			}
			return prices, err
		}
		ev, err := DecodeTradeEvent(m.Value)
		if err != nil {
			continue
		}
		prices = append(prices, ev.Price)
	}
	return prices, nil
}

func (f *PriceFeed) Close() error {
	return f.reader.Close()
}
