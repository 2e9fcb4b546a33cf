package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vertexd/pkg/export"
	"vertexd/pkg/history"
	"vertexd/pkg/instrument"
	"vertexd/pkg/ledger"
	"vertexd/pkg/utils/metrics/exporter"
	"vertexd/pkg/valuation"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type ConfigWeb struct {
	BindingPort string
	Ledger      *ledger.Ledger
	History     *history.Buffer
	Instruments []instrument.Instrument
}

// Server is the HTTP and WebSocket surface the dashboard UI talks to.
type Server struct {
	logger      logrus.FieldLogger
	ledger      *ledger.Ledger
	history     *history.Buffer
	instruments []instrument.Instrument
	hub         *Hub
	srv         *http.Server
}

func NewServer(cfg *ConfigWeb, logger logrus.FieldLogger) *Server {
	s := &Server{
		logger:      logger.WithField("module", "web"),
		ledger:      cfg.Ledger,
		history:     cfg.History,
		instruments: cfg.Instruments,
		hub:         NewHub(logger),
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/state", s.handleGetState).Methods(http.MethodGet)
	router.HandleFunc("/api/history/{symbol}", s.handleGetHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/orders.csv", s.handleOrdersCSV).Methods(http.MethodGet)
	router.HandleFunc("/api/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	router.HandleFunc("/api/profile", s.handleProfile).Methods(http.MethodPost)
	router.Handle("/metrics", exporter.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.hub.handle)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.BindingPort),
		Handler: c.Handler(router),
	}

	return s
}

func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("web server stopped")
		}
	}()

	s.logger.Infof("web server listening on %s", s.srv.Addr)
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("web server shutdown error")
	}

	s.logger.Info("web server successful stop")
}

// PublishState pushes a freshly rendered state view to all websocket
// clients.
func (s *Server) PublishState(state ledger.State) {
	s.hub.Broadcast(s.stateView(state))
}

// ---- handlers ----

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	state, err := s.ledger.Snapshot()
	if err != nil {
		s.logger.WithError(err).Error("fail load state")
		respondError(w, http.StatusInternalServerError, "state unavailable")
		return
	}

	respondJSON(w, s.stateView(state))
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbolID := mux.Vars(r)["symbol"]

	var ins instrument.Instrument
	var known bool
	for _, i := range s.instruments {
		if i.SymbolID == symbolID {
			ins, known = i, true
			break
		}
	}
	if !known {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown instrument: %s", symbolID))
		return
	}

	base := ins.SeedPrice()
	if state, err := s.ledger.Snapshot(); err == nil {
		if snap, ok := state.Snapshots[symbolID]; ok && snap.Price > 0 {
			base = snap.Price
		}
	}

	series := s.history.Series(symbolID)

	respondJSON(w, historyView{
		SymbolID: symbolID,
		Series:   series,
		Svg:      history.SparklineSVG(series, base),
	})
}

func (s *Server) handleOrdersCSV(w http.ResponseWriter, _ *http.Request) {
	state, err := s.ledger.Snapshot()
	if err != nil {
		s.logger.WithError(err).Error("fail load state")
		respondError(w, http.StatusInternalServerError, "state unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="vertex_orders.csv"`)

	if err := export.OrdersCSV(w, state.Orders); err != nil {
		s.logger.WithError(err).Error("fail write orders csv")
	}
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SymbolID  string  `json:"symbol"`
		Side      string  `json:"side"`
		AmountUsd float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	var ord ledger.Order
	var err error

	switch req.Side {
	case ledger.OrderSideBuy:
		ord, err = s.ledger.Buy(req.SymbolID, req.AmountUsd)
	case ledger.OrderSideSell:
		ord, err = s.ledger.Sell(req.SymbolID, req.AmountUsd)
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown order side: %s", req.Side))
		return
	}

	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ledger.ErrInsufficientPosition):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.WithError(err).Error("fail submit order")
		respondError(w, http.StatusInternalServerError, "order failed")
		return
	}

	if state, err := s.ledger.Snapshot(); err == nil {
		s.PublishState(state)
	}

	respondJSON(w, orderView(ord))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Theme    string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	state, err := s.ledger.SetProfile(req.Username, req.Name, req.Theme)
	if err != nil {
		s.logger.WithError(err).Error("fail update profile")
		respondError(w, http.StatusInternalServerError, "profile update failed")
		return
	}

	s.PublishState(state)
	respondJSON(w, s.stateView(state))
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ---- view shapes ----

type stateView struct {
	Account       accountView   `json:"account"`
	Settings      settingsView  `json:"settings"`
	Market        []marketRow   `json:"market"`
	Positions     []positionRow `json:"positions"`
	Orders        []orderRow    `json:"orders"`
	TotalNetWorth float64       `json:"totalNetWorth"`
}

type accountView struct {
	Username string  `json:"username"`
	Name     string  `json:"name"`
	CashUsd  float64 `json:"cash"`
}

type settingsView struct {
	Theme string `json:"theme"`
}

type marketRow struct {
	SymbolID   string  `json:"symbol"`
	Display    string  `json:"display"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Price      float64 `json:"price"`
	ObservedAt string  `json:"observedAt,omitempty"`
}

type positionRow struct {
	SymbolID     string  `json:"symbol"`
	CostBasisUsd float64 `json:"sizeUsd"`
	AvgPrice     float64 `json:"avgPrice"`
	MarketValue  float64 `json:"marketValue"`
}

type orderRow struct {
	ID        string  `json:"id"`
	Time      string  `json:"time"`
	SymbolID  string  `json:"symbol"`
	Side      string  `json:"type"`
	AmountUsd float64 `json:"amount"`
	Price     float64 `json:"price"`
	Status    string  `json:"status"`
}

type historyView struct {
	SymbolID string    `json:"symbol"`
	Series   []float64 `json:"series"`
	Svg      string    `json:"svg"`
}

func orderView(o ledger.Order) orderRow {
	return orderRow{
		ID:        o.ID,
		Time:      o.Time.Format(time.RFC3339),
		SymbolID:  o.SymbolID,
		Side:      o.Side,
		AmountUsd: o.AmountUsd,
		Price:     o.Price,
		Status:    o.Status,
	}
}

func (s *Server) stateView(state ledger.State) stateView {
	v := valuation.Valuate(state)

	view := stateView{
		Account: accountView{
			Username: state.Account.Username,
			Name:     state.Account.Name,
			CashUsd:  state.Account.CashUsd,
		},
		Settings:      settingsView{Theme: state.Settings.Theme},
		Market:        make([]marketRow, 0, len(s.instruments)),
		Positions:     make([]positionRow, 0, len(state.Positions)),
		Orders:        make([]orderRow, 0, len(state.Orders)),
		TotalNetWorth: v.TotalNetWorth,
	}

	for _, ins := range s.instruments {
		row := marketRow{
			SymbolID: ins.SymbolID,
			Display:  ins.Display,
			Name:     ins.Name,
			Kind:     ins.Kind,
		}
		if snap, ok := state.Snapshots[ins.SymbolID]; ok {
			row.Price = snap.Price
			row.ObservedAt = snap.ObservedAt.Format(time.RFC3339)
		}
		view.Market = append(view.Market, row)

		if pos, ok := state.Positions[ins.SymbolID]; ok {
			view.Positions = append(view.Positions, positionRow{
				SymbolID:     pos.SymbolID,
				CostBasisUsd: pos.CostBasisUsd,
				AvgPrice:     pos.AvgPrice,
				MarketValue:  v.PerPosition[pos.SymbolID],
			})
		}
	}

	for _, o := range state.Orders {
		view.Orders = append(view.Orders, orderView(o))
	}

	return view
}
