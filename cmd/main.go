package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vertexd/pkg/vertexd"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Interval                time.Duration `env:"INTERVAL" env-default:"3s"`
	StateFile               string        `env:"STATE_FILE" env-default:"data/vertex_state.json"`
	StorageConnectionString string        `env:"STORAGE_CONNECTION_STRING" env-default:""`
	QuoteProvider           string        `env:"QUOTE_PROVIDER" env-default:"coingecko"`
	CoinGeckoURL            string        `env:"COINGECKO_URL" env-default:""`
	BinanceApiKey           string        `env:"BINANCE_API_KEY" env-default:""`
	BinanceSecretKey        string        `env:"BINANCE_SECRET_KEY" env-default:""`
	WebBindingPort          string        `env:"WEB_BINDING_PORT" env-default:"8087"`
	HistoryLimit            int           `env:"HISTORY_LIMIT" env-default:"30"`
	StartCash               float64       `env:"START_CASH" env-default:"1000000"`
}

func (c *Config) validate() error {
	if c.Interval < 100*time.Millisecond {
		return errors.New("[CONFIG] Interval should be greater than 100ms")
	}

	if c.StateFile == "" && c.StorageConnectionString == "" {
		return errors.New("[CONFIG] StateFile or StorageConnectionString must be set")
	}

	return nil
}

func main() {
	logger := logger()

	// optional .env for local runs
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		logger.WithError(err).Fatal("can not read env vars")
	}
	if err := cfg.validate(); err != nil {
		logger.WithError(err).Fatal("can not validate config")
	}

	ctx, cancel := context.WithCancel(context.Background())

	configVertexd := &vertexd.ConfigVertexd{
		Interval:                cfg.Interval,
		StateFile:               cfg.StateFile,
		StorageConnectionString: cfg.StorageConnectionString,
		QuoteProvider:           cfg.QuoteProvider,
		CoinGeckoURL:            cfg.CoinGeckoURL,
		BinanceApiKey:           cfg.BinanceApiKey,
		BinanceSecretKey:        cfg.BinanceSecretKey,
		WebBindingPort:          cfg.WebBindingPort,
		HistoryLimit:            cfg.HistoryLimit,
		StartCash:               cfg.StartCash,
	}

	v := vertexd.New(ctx, configVertexd, logger)
	if err := v.Start(); err != nil {
		logger.WithError(err).Fatal("unsuccessful start, everything stopped.")
	}

	logger.Info("successful start, press Ctrl + C to graceful shutdown")
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	logger.Info("vertexd stopping ...")
	cancel()
	v.Wait()

	logger.Info("vertexd successful stop.")
}

type UTCFormatter struct {
	logrus.Formatter
}

func (u UTCFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.UTC()
	return u.Formatter.Format(e)
}

func logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(
		UTCFormatter{
			&logrus.TextFormatter{
				TimestampFormat: time.RFC3339,
				FullTimestamp:   true,
				DisableColors:   false,
				DisableSorting:  false,
			},
		},
	)

	return logger
}
