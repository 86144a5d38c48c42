// Package api exposes the operator over HTTP and WebSocket: order intake,
// order queries, match building, and a live order-event feed.
package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/operator"
	"github.com/aurora-markets/aurora/pkg/order"
)

// Server handles REST and WebSocket connections for one operator.
type Server struct {
	svc    *operator.Service
	router *mux.Router
	hub    *Hub
	log    *zap.Logger
}

func NewServer(svc *operator.Service, log *zap.Logger) *Server {
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/orders/{hash}", s.handleGetOrder).Methods("GET")
	api.HandleFunc("/markets/{market}/orders", s.handleListMarket).Methods("GET")
	api.HandleFunc("/match", s.handleMatch).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the event pump, the hub, and the HTTP listener. Blocks until
// the listener fails.
func (s *Server) Start(addr string, allowedOrigins []string) error {
	go s.hub.Run()
	go s.pumpEvents()

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.log.Info("api server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// pumpEvents forwards operator events to subscribed WebSocket clients,
// on both the firehose channel and the per-market channel.
func (s *Server) pumpEvents() {
	events, _ := s.svc.Subscribe() // subscription lives as long as the server
	for ev := range events {
		s.hub.BroadcastToChannel("orders", ev)
		if ev.Market != "" {
			s.hub.BroadcastToChannel("orders:"+ev.Market, ev)
		}
	}
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	raw, err := hex.DecodeString(req.Order)
	if err != nil {
		respondError(w, http.StatusBadRequest, "order must be hex", err.Error())
		return
	}
	o, err := order.DecodeFull(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed order", err.Error())
		return
	}

	hash, err := s.svc.Ingest(o)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "order rejected", err.Error())
		return
	}
	respondJSON(w, SubmitOrderResponse{Status: "accepted", Hash: fmt.Sprintf("%x", hash)})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	hash, err := parseHash(mux.Vars(r)["hash"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid hash", err.Error())
		return
	}
	o, err := s.svc.Get(hash)
	if err != nil {
		respondError(w, http.StatusNotFound, "order not found", err.Error())
		return
	}
	respondJSON(w, orderInfo(o))
}

func (s *Server) handleListMarket(w http.ResponseWriter, r *http.Request) {
	market, err := ledger.PubkeyFromHex(mux.Vars(r)["market"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid market", err.Error())
		return
	}
	orders, err := s.svc.ListMarket(market)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list failed", err.Error())
		return
	}
	out := make([]OrderInfo, len(orders))
	for i, o := range orders {
		out[i] = orderInfo(o)
	}
	respondJSON(w, out)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	hash, err := parseHash(req.Hash)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid hash", err.Error())
		return
	}
	if err := s.svc.Cancel(hash); err != nil {
		respondError(w, http.StatusInternalServerError, "cancel failed", err.Error())
		return
	}
	respondJSON(w, map[string]string{"status": "cancelled", "hash": req.Hash})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	hash, err := parseHash(req.TakerHash)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid taker hash", err.Error())
		return
	}
	baseMint, err := ledger.PubkeyFromHex(req.BaseMint)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid base mint", err.Error())
		return
	}
	quoteMint, err := ledger.PubkeyFromHex(req.QuoteMint)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote mint", err.Error())
		return
	}

	taker, err := s.svc.Get(hash)
	if err != nil {
		respondError(w, http.StatusNotFound, "taker order not found", err.Error())
		return
	}
	plan, err := s.svc.PlanMatch(taker)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "no match", err.Error())
		return
	}
	tx, err := s.svc.BuildMatch(plan, baseMint, quoteMint)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "match build failed", err.Error())
		return
	}

	resp := MatchResponse{
		Status:    "built",
		TakerHash: req.TakerHash,
		Bitmask:   plan.Bitmask,
	}
	for i, m := range plan.Makers {
		mh := m.Hash()
		resp.MakerHashes = append(resp.MakerHashes, fmt.Sprintf("%x", mh))
		resp.MakerFills = append(resp.MakerFills, strconv.FormatUint(plan.MakerFills[i], 10))
		resp.TakerFills = append(resp.TakerFills, strconv.FormatUint(plan.TakerFills[i], 10))
	}
	for _, ix := range tx.Instructions {
		resp.Instructions = append(resp.Instructions, InstructionInfo{
			ProgramID: ix.ProgramID.Hex(),
			Accounts:  len(ix.Accounts),
			Data:      hex.EncodeToString(ix.Data),
		})
	}
	respondJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func parseHash(s string) ([order.HashLen]byte, error) {
	var hash [order.HashLen]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return hash, err
	}
	if len(raw) != order.HashLen {
		return hash, fmt.Errorf("hash must be %d bytes, got %d", order.HashLen, len(raw))
	}
	copy(hash[:], raw)
	return hash, nil
}

func orderInfo(o order.Order) OrderInfo {
	hash := o.Hash()
	return OrderInfo{
		Hash:        fmt.Sprintf("%x", hash),
		Nonce:       o.Nonce,
		Maker:       o.Maker.Hex(),
		Market:      o.Market.Hex(),
		BaseMint:    o.BaseMint.Hex(),
		QuoteMint:   o.QuoteMint.Hex(),
		Side:        o.Side.String(),
		MakerAmount: strconv.FormatUint(o.MakerAmount, 10),
		TakerAmount: strconv.FormatUint(o.TakerAmount, 10),
		Expiration:  o.Expiration,
		Signature:   o.Signature.Hex(),
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
