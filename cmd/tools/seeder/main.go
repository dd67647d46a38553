package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/noah-isme/livvitt-quotes/internal/app"
	"github.com/noah-isme/livvitt-quotes/internal/config"
	"github.com/noah-isme/livvitt-quotes/internal/obs"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/quote"
	"github.com/noah-isme/livvitt-quotes/internal/render"
)

func main() {
	keepBook := flag.Bool("keep-book", false, "leave an existing saved price book untouched")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLoggerTo(os.Stderr, "console", cfg.Obs.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	if !*keepBook {
		if err := deps.Store.SavePriceBook(ctx, pricebook.Default()); err != nil {
			logger.Fatal().Err(err).Msg("seed price book")
		}
		logger.Info().Msg("default price book written")
	}

	priced, err := deps.Quotes.NewQuote(ctx, quote.DemoDraft())
	if err != nil {
		logger.Fatal().Err(err).Msg("seed demo quote")
	}
	logger.Info().
		Str("store", cfg.StoreDriver).
		Str("id", priced.Document.ID).
		Str("number", priced.Document.Number).
		Str("total", render.Money(priced.Totals.Total, cfg.CurrencyCode)).
		Msg("demo quote written")
}
