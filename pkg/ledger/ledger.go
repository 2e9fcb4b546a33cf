package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"vertexd/pkg/feed"
	"vertexd/pkg/instrument"
	"vertexd/pkg/storage"
	"vertexd/pkg/utils/metrics/exporter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidInput rejects non positive amounts, unknown
	// instruments and instruments without a current price.
	ErrInvalidInput = errors.New("ledger: invalid input")

	// ErrInsufficientPosition rejects a sell exceeding the held cost
	// basis. Unlike an underfunded buy it leaves no order behind.
	ErrInsufficientPosition = errors.New("ledger: insufficient position")
)

var (
	metricOrders     = exporter.GetCounter("vertexd", "ledger_orders_total", []string{"side", "status"})
	metricOpLatency  = exporter.GetGauge("vertexd", "ledger_op_latency_ms", []string{"op"})
	metricCashedUsd  = exporter.GetGauge("vertexd", "ledger_cash_usd", []string{"account"})
	metricStoreReset = exporter.GetCounter("vertexd", "ledger_store_resets_total", []string{"account"})
)

type ConfigLedger struct {
	Storer    storage.Storer
	Catalog   instrument.Catalog
	StartCash float64
}

// Ledger owns all mutations of the application state. Every operation
// is a full load-mutate-save round trip through the Storer under one
// mutex, no caller ever observes a half applied mutation.
type Ledger struct {
	logger    logrus.FieldLogger
	m         sync.Mutex
	storer    storage.Storer
	catalog   instrument.Catalog
	startCash float64
}

func New(cfg *ConfigLedger, logger logrus.FieldLogger) *Ledger {
	return &Ledger{
		logger:    logger.WithField("module", "ledger"),
		storer:    cfg.Storer,
		catalog:   cfg.Catalog,
		startCash: cfg.StartCash,
	}
}

// Buy commits amountUsd of cash into symbolID at the current snapshot
// price. An amount exceeding available cash is not an error: it is
// recorded as a declined order with cash and positions untouched.
func (l *Ledger) Buy(symbolID string, amountUsd float64) (Order, error) {
	l.m.Lock()
	defer l.m.Unlock()
	defer l.observe("buy", time.Now())

	if amountUsd <= 0 {
		return Order{}, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidInput, amountUsd)
	}
	if !l.catalog.Has(symbolID) {
		return Order{}, fmt.Errorf("%w: unknown instrument: %s", ErrInvalidInput, symbolID)
	}

	state, err := l.load()
	if err != nil {
		return Order{}, err
	}

	snap, ok := state.Snapshots[symbolID]
	if !ok || snap.Price <= 0 {
		return Order{}, fmt.Errorf("%w: no current price for instrument: %s", ErrInvalidInput, symbolID)
	}

	logger := l.logger.
		WithField("side", OrderSideBuy).
		WithField("symbol", symbolID).
		WithField("amount", amountUsd)

	ord := Order{
		ID:        newOrderID(),
		Time:      time.Now().UTC(),
		SymbolID:  symbolID,
		Side:      OrderSideBuy,
		AmountUsd: amountUsd,
		Price:     snap.Price,
	}

	// insufficient funds never clamps the amount, the attempt is
	// logged and declined whole
	if amountUsd > state.Account.CashUsd {
		ord.Status = OrderStatusDeclined
		state.Orders = append(state.Orders, ord)

		if err := l.save(state); err != nil {
			return Order{}, err
		}

		logger.WithField("order", fmt.Sprintf("%+v", ord)).Info("buy declined, insufficient cash")
		metricOrders.With(prometheus.Labels{"side": OrderSideBuy, "status": OrderStatusDeclined}).Inc()

		return ord, nil
	}

	ord.Status = OrderStatusExecuted
	if amountUsd >= PendingAmountThreshold {
		ord.Status = OrderStatusPending
	}

	state.Account.CashUsd -= amountUsd

	pos, ok := state.Positions[symbolID]
	if !ok {
		pos = Position{SymbolID: symbolID, AvgPrice: snap.Price}
	}

	// cost weighted average of the old basis at its average price and
	// the new tranche at the current price
	pos.AvgPrice = (pos.CostBasisUsd*pos.AvgPrice + amountUsd*snap.Price) / (pos.CostBasisUsd + amountUsd)
	pos.CostBasisUsd += amountUsd
	state.Positions[symbolID] = pos

	state.Orders = append(state.Orders, ord)

	if err := l.save(state); err != nil {
		return Order{}, err
	}

	logger.WithField("order", fmt.Sprintf("%+v", ord)).Info("buy accepted")
	metricOrders.With(prometheus.Labels{"side": OrderSideBuy, "status": ord.Status}).Inc()
	metricCashedUsd.With(prometheus.Labels{"account": state.Account.Username}).Set(state.Account.CashUsd)

	return ord, nil
}

// Sell withdraws amountUsd from the position into cash. Overselling is
// rejected outright with no order appended, the average price of the
// remaining basis is unchanged by a partial sell.
func (l *Ledger) Sell(symbolID string, amountUsd float64) (Order, error) {
	l.m.Lock()
	defer l.m.Unlock()
	defer l.observe("sell", time.Now())

	if amountUsd <= 0 {
		return Order{}, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidInput, amountUsd)
	}

	state, err := l.load()
	if err != nil {
		return Order{}, err
	}

	pos, ok := state.Positions[symbolID]
	if !ok {
		return Order{}, fmt.Errorf("%w: no position in %s", ErrInsufficientPosition, symbolID)
	}
	if amountUsd > pos.CostBasisUsd {
		return Order{}, fmt.Errorf("%w: %s holds %v, requested %v",
			ErrInsufficientPosition, symbolID, pos.CostBasisUsd, amountUsd)
	}

	price := pos.AvgPrice
	if snap, ok := state.Snapshots[symbolID]; ok && snap.Price > 0 {
		price = snap.Price
	}

	state.Account.CashUsd += amountUsd
	pos.CostBasisUsd -= amountUsd

	if pos.CostBasisUsd <= positionEpsilon {
		// a near zero residual must not linger as an open position
		delete(state.Positions, symbolID)
	} else {
		state.Positions[symbolID] = pos
	}

	ord := Order{
		ID:        newOrderID(),
		Time:      time.Now().UTC(),
		SymbolID:  symbolID,
		Side:      OrderSideSell,
		AmountUsd: amountUsd,
		Price:     price,
		Status:    OrderStatusExecuted,
	}
	state.Orders = append(state.Orders, ord)

	if err := l.save(state); err != nil {
		return Order{}, err
	}

	l.logger.
		WithField("side", OrderSideSell).
		WithField("symbol", symbolID).
		WithField("order", fmt.Sprintf("%+v", ord)).
		Info("sell executed")
	metricOrders.With(prometheus.Labels{"side": OrderSideSell, "status": OrderStatusExecuted}).Inc()
	metricCashedUsd.With(prometheus.Labels{"account": state.Account.Username}).Set(state.Account.CashUsd)

	return ord, nil
}

// ApplyQuotes replaces the price snapshots with a freshly refreshed
// set and persists the result.
func (l *Ledger) ApplyQuotes(snapshots map[string]feed.Snapshot) (State, error) {
	l.m.Lock()
	defer l.m.Unlock()
	defer l.observe("apply_quotes", time.Now())

	state, err := l.load()
	if err != nil {
		return State{}, err
	}

	state.Snapshots = make(map[string]feed.Snapshot, len(snapshots))
	for symbolID, snap := range snapshots {
		state.Snapshots[symbolID] = snap
	}

	if err := l.save(state); err != nil {
		return State{}, err
	}

	return state, nil
}

// SetProfile updates the cosmetic account fields, empty values leave
// the current ones in place.
func (l *Ledger) SetProfile(username, name, theme string) (State, error) {
	l.m.Lock()
	defer l.m.Unlock()

	state, err := l.load()
	if err != nil {
		return State{}, err
	}

	if username != "" {
		state.Account.Username = username
	}
	if name != "" {
		state.Account.Name = name
	}
	if theme != "" {
		state.Settings.Theme = theme
	}

	if err := l.save(state); err != nil {
		return State{}, err
	}

	return state, nil
}

// Snapshot returns the current state without mutating it.
func (l *Ledger) Snapshot() (State, error) {
	l.m.Lock()
	defer l.m.Unlock()

	return l.load()
}

func (l *Ledger) load() (State, error) {
	stored, err := l.storer.Load()
	if err == nil {
		return castStorageState(stored), nil
	}

	if !errors.Is(err, storage.ErrNoState) {
		return State{}, fmt.Errorf("ledger: fail load state, err: %w", err)
	}

	// first run or corrupt blob: reset to defaults and persist them so
	// the next load is consistent
	state := defaultState(l.startCash)
	if err := l.save(state); err != nil {
		return State{}, err
	}

	l.logger.Info("no stored state, initialized defaults")
	metricStoreReset.With(prometheus.Labels{"account": state.Account.Username}).Inc()

	return state, nil
}

func (l *Ledger) save(state State) error {
	if err := l.storer.Save(castToStorageState(state)); err != nil {
		return fmt.Errorf("ledger: fail save state, err: %w", err)
	}
	return nil
}

func (l *Ledger) observe(op string, start time.Time) {
	ms := float64(time.Since(start)) / float64(time.Millisecond)
	metricOpLatency.With(prometheus.Labels{"op": op}).Set(ms)
}

func newOrderID() string {
	return strconv.FormatInt(rand.Int63n(1<<41), 36)
}
