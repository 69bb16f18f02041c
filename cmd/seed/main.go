// Package main populates a running reputation service with sample reviews
// through its HTTP API, so lookups, flags and sharing can be tried by hand.
package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	pkgconfig "github.com/utafrali/PatronScore/pkg/config"
	"github.com/utafrali/PatronScore/pkg/httpclient"
	"github.com/utafrali/PatronScore/pkg/logger"
)

type seedConfig struct {
	APIURL             string        `env:"SEED_API_URL" envDefault:"http://localhost:8080"`
	Customers          int           `env:"SEED_CUSTOMERS" envDefault:"25"`
	ReviewsPerCustomer int           `env:"SEED_REVIEWS_PER_CUSTOMER" envDefault:"4"`
	Seed               uint64        `env:"SEED_RANDOM" envDefault:"42"`
	Timeout            time.Duration `env:"SEED_TIMEOUT" envDefault:"2m"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("reputation-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientCfg := httpclient.DefaultConfig()
	clientCfg.MaxRetries = 2
	s := newSeeder(httpclient.New(clientCfg), cfg.APIURL, rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)), log)

	sum, err := s.run(ctx, cfg.Customers, cfg.ReviewsPerCustomer)
	if err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete",
		slog.Int("customers", sum.Customers),
		slog.Int("reviews", sum.Reviews),
		slog.Int("failed", sum.Failed),
		slog.Int("flagged", sum.Flagged),
	)
}
