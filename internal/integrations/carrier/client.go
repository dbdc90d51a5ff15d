package carrier

import (
	"context"
	"fmt"

	"github.com/BearBump/TrackNotify/internal/models"
)

// MaxBatchSize is the most numbers the provider accepts in one request.
const MaxBatchSize = 40

// Client fetches the latest status of a batch of tracking numbers.
// Any returned error means the batch as a whole failed.
type Client interface {
	GetTrackInfo(ctx context.Context, numbers []string) ([]models.ProviderStatusRecord, error)
}

// APIError is a request-level rejection reported inside a 2xx response body.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider api code=%d: %s", e.Code, e.Message)
}
