// Package api exposes the matching engine over HTTP JSON and a
// WebSocket trade stream. It is a thin transport: every write goes
// through the order service, and the package holds no book state of
// its own.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"midas/domain/orderbook"
	"midas/infra/monitoring"
)

// Service is the surface the transport needs from the order service.
type Service interface {
	PlaceOrder(side orderbook.Side, price float64, qty int64) (uint64, []orderbook.Trade, error)
	Snapshot() orderbook.BookSnapshot
	RecentTrades(n int) []orderbook.Trade
}

const defaultTradeLimit = 50

// Server handles the REST API and WebSocket connections.
type Server struct {
	svc     Service
	router  *mux.Router
	handler http.Handler
	hub     *Hub
	log     *zap.Logger
	http    *http.Server
}

func NewServer(svc Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(s.router)
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods(http.MethodGet)
	api.HandleFunc("/trades", s.handleGetTrades).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.Use(s.countRequests)
}

// Handler returns the fully wrapped HTTP handler. Tests and embedders
// use it directly; Start serves it.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("api server starting", zap.String("addr", addr))

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and drops WebSocket sessions,
// which Shutdown alone would leave hanging on their hijacked
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.CloseAll()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// BroadcastTrade pushes one execution to trade-stream subscribers.
// Wire it into the service with OnTrade.
func (s *Server) BroadcastTrade(tr orderbook.Trade) {
	s.hub.BroadcastToChannel(ChannelTrades, TradeUpdate{Type: "trade", TradeInfo: tradeInfo(tr)})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		monitoring.HTTPRequests.WithLabelValues(r.Method, route).Inc()
		next.ServeHTTP(w, r)
	})
}

/******************** REST handlers ********************/

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	id, trades, err := s.svc.PlaceOrder(side, req.Price, req.Qty)
	if err != nil {
		if errors.Is(err, orderbook.ErrInvalidOrder) {
			respondError(w, http.StatusBadRequest, "order rejected", err.Error())
			return
		}
		s.log.Error("order submission failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "submission failed", "")
		return
	}

	respondJSON(w, http.StatusOK, SubmitOrderResponse{
		OrderID: id,
		Status:  orderStatus(req.Qty, trades),
		Trades:  tradeInfos(trades),
	})
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	respondJSON(w, http.StatusOK, BookResponse{
		Bids:      orderInfos(snap.Bids),
		Asks:      orderInfos(snap.Asks),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := defaultTradeLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", q)
			return
		}
		limit = n
	}
	trades := tradeInfos(s.svc.RecentTrades(limit))
	if trades == nil {
		trades = []TradeInfo{}
	}
	respondJSON(w, http.StatusOK, trades)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg, detail string) {
	respondJSON(w, status, ErrorResponse{Error: errMsg, Message: detail})
}
