package market

import (
	"context"

	"github.com/BearBump/TrackNotify/internal/models"
)

// Client looks up the latest quote of one symbol.
type Client interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
}
