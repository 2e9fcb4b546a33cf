package vertexd

// package vertexd is responsible for:
// - wiring storage, quoter, ledger, history and web surface together
// - looping at the refresh interval and ticking the price feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vertexd/pkg/feed"
	"vertexd/pkg/history"
	"vertexd/pkg/instrument"
	"vertexd/pkg/ledger"
	"vertexd/pkg/storage"
	"vertexd/pkg/utils/metrics/exporter"
	"vertexd/pkg/valuation"
	"vertexd/pkg/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	quoteProviderCoinGecko = "coingecko"
	quoteProviderBinance   = "binance"
	quoteProviderNone      = "none"
)

var (
	metricRefreshLatency = exporter.GetGauge("vertexd", "refresh_latency_ms", []string{"provider"})
	metricNetWorth       = exporter.GetGauge("vertexd", "net_worth_usd", []string{"account"})
)

type ConfigVertexd struct {
	Interval                time.Duration
	StateFile               string
	StorageConnectionString string
	QuoteProvider           string
	CoinGeckoURL            string
	BinanceApiKey           string
	BinanceSecretKey        string
	WebBindingPort          string
	HistoryLimit            int
	StartCash               float64
}

type Vertexd struct {
	ctx           context.Context
	logger        *logrus.Logger
	cfg           ConfigVertexd
	quoteProvider string
	instruments   []instrument.Instrument
	storer        storage.Storer
	feed          *feed.Feed
	ledger        *ledger.Ledger
	history       *history.Buffer
	web           *web.Server
	done          chan struct{}
}

func New(ctx context.Context, cfg *ConfigVertexd, logger *logrus.Logger) *Vertexd {
	return &Vertexd{
		ctx:           ctx,
		logger:        logger,
		cfg:           *cfg,
		quoteProvider: cfg.QuoteProvider,
		instruments:   instrument.DefaultCatalog(),
		done:          make(chan struct{}),
	}
}

func (v *Vertexd) Start() error {
	if err := v.validate(); err != nil {
		return err
	}

	if err := v.initStorer(); err != nil {
		return err
	}

	if err := v.initFeed(); err != nil {
		return err
	}

	v.ledger = ledger.New(&ledger.ConfigLedger{
		Storer:    v.storer,
		Catalog:   instrument.NewCatalog(v.instruments),
		StartCash: v.cfg.StartCash,
	}, v.logger)

	v.history = history.NewBuffer(v.cfg.HistoryLimit)

	v.web = web.NewServer(&web.ConfigWeb{
		BindingPort: v.cfg.WebBindingPort,
		Ledger:      v.ledger,
		History:     v.history,
		Instruments: v.instruments,
	}, v.logger)
	v.web.Start()

	go func() {
		for {
			select {
			case <-v.ctx.Done():
				v.web.Stop()
				v.done <- struct{}{}
				return
			default:
				v.run()
				<-time.After(v.cfg.Interval)
			}
		}
	}()

	return nil
}

func (v *Vertexd) Wait() {
	<-v.done
}

func (v *Vertexd) validate() error {
	switch v.quoteProvider {
	case quoteProviderCoinGecko, quoteProviderBinance, quoteProviderNone:
	default:
		return fmt.Errorf("unknown quote provider: %s", v.quoteProvider)
	}

	if v.cfg.StartCash <= 0 {
		return errors.New("start cash should be greater than 0")
	}

	if v.cfg.WebBindingPort == "" {
		return errors.New("web binding port can not be empty")
	}

	return nil
}

func (v *Vertexd) initStorer() error {
	if v.cfg.StorageConnectionString != "" {
		sql, err := storage.NewMysql(v.cfg.StorageConnectionString, v.logger)
		if err != nil {
			return err
		}
		v.storer = sql
		return nil
	}

	v.storer = storage.NewFile(v.cfg.StateFile, v.logger)
	return nil
}

func (v *Vertexd) initFeed() error {
	var quoter feed.Quoter

	switch v.quoteProvider {
	case quoteProviderCoinGecko:
		quoter = feed.NewCoinGecko(&feed.CoinGeckoConfig{
			BaseURL: v.cfg.CoinGeckoURL,
			Timeout: v.cfg.Interval,
		})
	case quoteProviderBinance:
		quoter = feed.NewBinance(&feed.BinanceConfig{
			ApiKey:    v.cfg.BinanceApiKey,
			SecretKey: v.cfg.BinanceSecretKey,
		}, v.logger)
	case quoteProviderNone:
		quoter = feed.None{}
	}

	v.feed = feed.New(&feed.ConfigFeed{Quoter: quoter}, v.logger)
	return nil
}

// run performs one refresh cycle: fetch or synthesize prices, record
// them in the history window, persist the snapshots and push the new
// state to the dashboard.
func (v *Vertexd) run() {
	time0 := time.Now()

	prev := map[string]feed.Snapshot{}
	if state, err := v.ledger.Snapshot(); err == nil {
		prev = state.Snapshots
	}

	// a slow fetch degrades to synthetic pricing rather than stalling
	// the cycle, it gets at most one interval to answer
	ctx, cancel := context.WithTimeout(v.ctx, v.cfg.Interval)
	defer cancel()

	snapshots := v.feed.Refresh(ctx, v.instruments, prev)

	for _, ins := range v.instruments {
		if snap, ok := snapshots[ins.SymbolID]; ok {
			v.history.Append(ins.SymbolID, snap.Price)
		}
	}

	state, err := v.ledger.ApplyQuotes(snapshots)
	if err != nil {
		v.logger.WithError(err).Error("fail apply refreshed quotes")
		return
	}

	v.web.PublishState(state)

	total := valuation.Valuate(state).TotalNetWorth
	metricNetWorth.With(prometheus.Labels{"account": state.Account.Username}).Set(total)

	ms := float64(time.Since(time0)) / float64(time.Millisecond)
	metricRefreshLatency.With(prometheus.Labels{"provider": v.quoteProvider}).Set(ms)
}
