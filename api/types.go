package api

import (
	"fmt"

	"midas/domain/orderbook"
)

// SubmitOrderRequest is the POST /api/v1/orders body.
type SubmitOrderRequest struct {
	Side  string  `json:"side"` // "buy" or "sell"
	Price float64 `json:"price"`
	Qty   int64   `json:"qty"`
}

// SubmitOrderResponse reports the assigned id and whatever the order
// executed against on the way in.
type SubmitOrderResponse struct {
	OrderID uint64      `json:"orderId"`
	Status  string      `json:"status"` // "resting", "partial", "filled"
	Trades  []TradeInfo `json:"trades,omitempty"`
}

// OrderInfo is one resting order in a book view, in priority order.
type OrderInfo struct {
	OrderID uint64  `json:"orderId"`
	Price   float64 `json:"price"`
	Qty     int64   `json:"qty"`
}

// BookResponse is the GET /api/v1/orderbook body: bids descending,
// asks ascending, FIFO within a price.
type BookResponse struct {
	Bids      []OrderInfo `json:"bids"`
	Asks      []OrderInfo `json:"asks"`
	Timestamp int64       `json:"timestamp"` // unix milliseconds
}

// TradeInfo is one execution as reported over the API.
type TradeInfo struct {
	TradeID   uint64  `json:"tradeId"`
	BidID     uint64  `json:"bidOrderId"`
	AskID     uint64  `json:"askOrderId"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// TradeUpdate is the message pushed to trade-stream subscribers.
type TradeUpdate struct {
	Type string `json:"type"` // always "trade"
	TradeInfo
}

// WSSubscribeRequest is the client-to-server WS control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ParseSide maps the wire spelling onto the domain side. Both the
// trading names and the book names are accepted.
func ParseSide(s string) (orderbook.Side, error) {
	switch s {
	case "buy", "bid":
		return orderbook.Bid, nil
	case "sell", "ask":
		return orderbook.Ask, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

func tradeInfo(tr orderbook.Trade) TradeInfo {
	return TradeInfo{
		TradeID:   tr.ID,
		BidID:     tr.BidID,
		AskID:     tr.AskID,
		Price:     tr.PriceFloat(),
		Qty:       tr.Qty,
		Timestamp: tr.Time.UnixMilli(),
	}
}

func tradeInfos(trades []orderbook.Trade) []TradeInfo {
	if len(trades) == 0 {
		return nil
	}
	out := make([]TradeInfo, len(trades))
	for i, tr := range trades {
		out[i] = tradeInfo(tr)
	}
	return out
}

func orderInfos(entries []orderbook.OrderEntry) []OrderInfo {
	out := make([]OrderInfo, len(entries))
	for i, e := range entries {
		out[i] = OrderInfo{OrderID: e.ID, Price: e.Price, Qty: e.Qty}
	}
	return out
}

// orderStatus classifies a submission by how much of it executed
// immediately.
func orderStatus(qty int64, trades []orderbook.Trade) string {
	var filled int64
	for _, tr := range trades {
		filled += tr.Qty
	}
	switch {
	case filled == 0:
		return "resting"
	case filled < qty:
		return "partial"
	default:
		return "filled"
	}
}
