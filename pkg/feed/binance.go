package feed

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/sirupsen/logrus"
)

type BinanceConfig struct {
	ApiKey    string
	SecretKey string
}

// Binance quotes instruments whose feed id is an exchange symbol,
// e.g. BTCUSDT. One list-prices call covers the whole batch.
type Binance struct {
	logger     logrus.FieldLogger
	connection *binance.Client
}

func NewBinance(cfg *BinanceConfig, logger logrus.FieldLogger) *Binance {
	return &Binance{
		logger:     logger.WithField("module", "feed"),
		connection: binance.NewClient(cfg.ApiKey, cfg.SecretKey),
	}
}

func (b *Binance) Quotes(ctx context.Context, feedIDs []string) (map[string]float64, error) {
	if len(feedIDs) == 0 {
		return map[string]float64{}, nil
	}

	prices, err := b.connection.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(feedIDs))
	for _, id := range feedIDs {
		wanted[id] = true
	}

	quotes := make(map[string]float64, len(feedIDs))
	for _, p := range prices {
		if !wanted[p.Symbol] {
			continue
		}

		val, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			b.logger.WithError(err).Errorf("could not parse price for symbol: %s", p.Symbol)
			continue
		}
		if val > 0 {
			quotes[p.Symbol] = val
		}
	}

	return quotes, nil
}
