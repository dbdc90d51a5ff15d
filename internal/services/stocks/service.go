package stocks

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/TrackNotify/internal/integrations/market"
	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/BearBump/TrackNotify/internal/render"
	"github.com/pkg/errors"
)

const Job = "stock-report"

// ErrNoPreviousClose marks a quote whose change cannot be computed.
var ErrNoPreviousClose = errors.New("quote has no previous close")

const (
	BucketA = "A"
	BucketB = "B"
)

type Repository interface {
	ListStocks(ctx context.Context) ([]*models.WatchedSymbol, error)
}

type Notifier interface {
	Send(ctx context.Context, content string) error
}

type QuoteCache interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, bool, error)
	SetQuote(ctx context.Context, q models.Quote, ttl time.Duration) error
}

type Service struct {
	repo     Repository
	quotes   market.Client
	notifier Notifier

	cache    QuoteCache
	cacheTTL time.Duration

	loc *time.Location
	now func() time.Time
}

func New(repo Repository, quotes market.Client, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		quotes:   quotes,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *Service) WithCache(c QuoteCache, ttl time.Duration) *Service {
	if c != nil && ttl > 0 {
		s.cache = c
		s.cacheTTL = ttl
	}
	return s
}

type Report struct {
	Symbols int  `json:"symbols"`
	NoData  int  `json:"noData"`
	Errors  int  `json:"errors"`
	Alerts  int  `json:"alerts"`
	Sent    bool `json:"sent"`
}

// CanonicalBucket trims and uppercases b; anything but "A" is bucket B.
func CanonicalBucket(b string) string {
	if strings.ToUpper(strings.TrimSpace(b)) == BucketA {
		return BucketA
	}
	return BucketB
}

// Run builds the price report over every watched symbol and sends it.
// A failing symbol is rendered as an error line and never aborts the run.
func (s *Service) Run(ctx context.Context, runID string) (Report, error) {
	log := slog.With("job", Job, "run_id", runID)
	var rep Report

	watched, err := s.repo.ListStocks(ctx)
	if err != nil {
		err = errors.Wrap(err, "list stocks")
		log.Error("select stocks", "error", err.Error())
		return rep, err
	}
	rep.Symbols = len(watched)

	r := render.StockReport{At: s.now().In(s.loc)}
	var alertsA, alertsB []render.BuyZoneAlert
	for _, w := range watched {
		line, alert := s.line(ctx, log, w)
		switch {
		case line.Err != nil:
			rep.Errors++
		case line.Price == nil:
			rep.NoData++
		}

		if CanonicalBucket(w.Bucket) == BucketA {
			r.BucketA = append(r.BucketA, line)
			if alert != nil {
				alertsA = append(alertsA, *alert)
			}
		} else {
			r.BucketB = append(r.BucketB, line)
			if alert != nil {
				alertsB = append(alertsB, *alert)
			}
		}
	}
	r.Alerts = append(alertsA, alertsB...)
	rep.Alerts = len(r.Alerts)

	if err := s.notifier.Send(ctx, render.PriceReport(r)); err != nil {
		log.Error("send price report", "kind", "notify", "error", err.Error())
	} else {
		rep.Sent = true
	}

	log.Info("stock report finished", "symbols", rep.Symbols, "no_data", rep.NoData, "errors", rep.Errors, "alerts", rep.Alerts)
	return rep, nil
}

func (s *Service) line(ctx context.Context, log *slog.Logger, w *models.WatchedSymbol) (render.StockLine, *render.BuyZoneAlert) {
	line := render.StockLine{Symbol: w.Symbol}

	q, err := s.quote(ctx, log, w.Symbol)
	if err != nil {
		log.Warn("fetch quote", "symbol", w.Symbol, "error", err.Error())
		line.Err = err
		return line, nil
	}
	line.Price = q.LastPrice
	line.PreviousClose = q.PreviousClose
	if q.LastPrice == nil {
		return line, nil
	}
	if q.PreviousClose == nil || *q.PreviousClose == 0 {
		log.Warn("quote without previous close", "symbol", w.Symbol)
		line.Err = ErrNoPreviousClose
		return line, nil
	}

	if *q.LastPrice < w.TargetPrice {
		return line, &render.BuyZoneAlert{Symbol: w.Symbol, Price: *q.LastPrice, Target: w.TargetPrice}
	}
	return line, nil
}

func (s *Service) quote(ctx context.Context, log *slog.Logger, symbol string) (models.Quote, error) {
	if s.cache != nil {
		q, ok, err := s.cache.GetQuote(ctx, symbol)
		if err != nil {
			log.Warn("quote cache get", "symbol", symbol, "error", err.Error())
		} else if ok {
			return q, nil
		}
	}

	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}

	if s.cache != nil && q.LastPrice != nil {
		if err := s.cache.SetQuote(ctx, q, s.cacheTTL); err != nil {
			log.Warn("quote cache set", "symbol", symbol, "error", err.Error())
		}
	}
	return q, nil
}
