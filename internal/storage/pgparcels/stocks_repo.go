package pgparcels

import (
	"context"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) ListStocks(ctx context.Context) ([]*models.WatchedSymbol, error) {
	rows, err := s.db.Query(ctx, `
SELECT symbol, target_price::float8, bucket
FROM stocks
ORDER BY symbol ASC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select stocks")
	}
	defer rows.Close()

	var out []*models.WatchedSymbol
	for rows.Next() {
		var w models.WatchedSymbol
		if err := rows.Scan(&w.Symbol, &w.TargetPrice, &w.Bucket); err != nil {
			return nil, errors.Wrap(err, "scan stock")
		}
		out = append(out, &w)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
