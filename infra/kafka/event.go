// Package kafka holds the trade event wire format and the consumer
// used by the backtester. Publishing is the broadcaster job's duty;
// it drains the outbox into the trade topic.
package kafka

import "encoding/json"

// TradeEvent is the JSON shape published to the trade topic. V
// versions the schema for downstream consumers.
type TradeEvent struct {
	V       int     `json:"v"`
	TradeID uint64  `json:"trade_id"`
	BidID   uint64  `json:"bid_order_id"`
	AskID   uint64  `json:"ask_order_id"`
	Price   float64 `json:"price"`
	Qty     int64   `json:"qty"`
	Time    int64   `json:"ts"`
}

const eventVersion = 1

// NewTradeEvent stamps the current schema version.
func NewTradeEvent(tradeID, bidID, askID uint64, price float64, qty, ts int64) TradeEvent {
	return TradeEvent{
		V:       eventVersion,
		TradeID: tradeID,
		BidID:   bidID,
		AskID:   askID,
		Price:   price,
		Qty:     qty,
		Time:    ts,
	}
}

func EncodeTradeEvent(ev TradeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

func DecodeTradeEvent(b []byte) (TradeEvent, error) {
	var ev TradeEvent
	err := json.Unmarshal(b, &ev)
	return ev, err
}
