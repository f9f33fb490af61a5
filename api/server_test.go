package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midas/domain/orderbook"
	"midas/infra/memory"
	"midas/infra/sequence"
	"midas/infra/wal"
	"midas/service"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	w, err := wal.Open(wal.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	svc := service.NewOrderService(
		orderbook.NewMatchingEngine(nil),
		sequence.New(0),
		w,
		nil,
		memory.NewRing[orderbook.Trade](16),
		nil,
	)

	srv := NewServer(svc, nil)
	svc.OnTrade(srv.BroadcastTrade)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postOrder(t *testing.T, ts *httptest.Server, body string) (*http.Response, SubmitOrderResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out SubmitOrderResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestSubmitOrderRests(t *testing.T) {
	_, ts := newTestServer(t)

	resp, out := postOrder(t, ts, `{"side":"sell","price":101.0,"qty":25}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(1), out.OrderID)
	assert.Equal(t, "resting", out.Status)
	assert.Empty(t, out.Trades)
}

func TestSubmitOrderExecutes(t *testing.T) {
	_, ts := newTestServer(t)

	postOrder(t, ts, `{"side":"buy","price":100.0,"qty":100}`)
	resp, out := postOrder(t, ts, `{"side":"sell","price":100.0,"qty":75}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "filled", out.Status)
	require.Len(t, out.Trades, 1)
	assert.Equal(t, 100.0, out.Trades[0].Price)
	assert.Equal(t, int64(75), out.Trades[0].Qty)
}

func TestSubmitOrderRejections(t *testing.T) {
	_, ts := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"zero qty", `{"side":"buy","price":100.0,"qty":0}`},
		{"negative price", `{"side":"buy","price":-5.0,"qty":10}`},
		{"bad side", `{"side":"hold","price":100.0,"qty":10}`},
		{"not json", `price=100`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := postOrder(t, ts, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// Nothing of the above may have reached the book.
	resp, err := http.Get(ts.URL + "/api/v1/orderbook")
	require.NoError(t, err)
	defer resp.Body.Close()
	var book BookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&book))
	assert.Empty(t, book.Bids)
	assert.Empty(t, book.Asks)
}

func TestOrderbookEndpointOrdering(t *testing.T) {
	_, ts := newTestServer(t)

	postOrder(t, ts, `{"side":"buy","price":99.0,"qty":50}`)
	postOrder(t, ts, `{"side":"buy","price":100.0,"qty":100}`)
	postOrder(t, ts, `{"side":"sell","price":101.0,"qty":25}`)
	postOrder(t, ts, `{"side":"sell","price":102.0,"qty":10}`)

	resp, err := http.Get(ts.URL + "/api/v1/orderbook")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var book BookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&book))

	// Bids descending, asks ascending.
	require.Len(t, book.Bids, 2)
	assert.Equal(t, 100.0, book.Bids[0].Price)
	assert.Equal(t, 99.0, book.Bids[1].Price)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, 101.0, book.Asks[0].Price)
	assert.Equal(t, 102.0, book.Asks[1].Price)
}

func TestTradesEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/trades")
	require.NoError(t, err)
	var empty []TradeInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	resp.Body.Close()
	assert.Empty(t, empty)

	postOrder(t, ts, `{"side":"sell","price":100.0,"qty":10}`)
	postOrder(t, ts, `{"side":"sell","price":101.0,"qty":10}`)
	postOrder(t, ts, `{"side":"buy","price":101.0,"qty":20}`)

	resp, err = http.Get(ts.URL + "/api/v1/trades?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var trades []TradeInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trades))
	require.Len(t, trades, 1)
	// Newest first: the second execution at 101.
	assert.Equal(t, 101.0, trades[0].Price)

	bad, err := http.Get(ts.URL + "/api/v1/trades?limit=nope")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketTradeStream(t *testing.T) {
	srv, ts := newTestServer(t)
	defer srv.Shutdown(context.Background())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSSubscribeRequest{Op: "subscribe", Channels: []string{ChannelTrades}}))

	// Give the read pump a moment to process the subscription before
	// the trade fires.
	time.Sleep(50 * time.Millisecond)

	postOrder(t, ts, `{"side":"sell","price":100.0,"qty":10}`)
	postOrder(t, ts, `{"side":"buy","price":100.0,"qty":10}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update TradeUpdate
	require.NoError(t, conn.ReadJSON(&update))

	assert.Equal(t, "trade", update.Type)
	assert.Equal(t, 100.0, update.Price)
	assert.Equal(t, int64(10), update.Qty)
}
