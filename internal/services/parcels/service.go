package parcels

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/TrackNotify/internal/broker/messages"
	"github.com/BearBump/TrackNotify/internal/integrations/carrier"
	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/BearBump/TrackNotify/internal/tracking"
	"github.com/pkg/errors"
)

const (
	JobPoll   = "parcel-poll"
	JobDigest = "parcel-report"
)

type Repository interface {
	ListParcels(ctx context.Context, filter models.ParcelFilter) ([]*models.Parcel, error)
	UpdateParcelStatus(ctx context.Context, id uint64, status string) error
	DeleteParcels(ctx context.Context, ids []uint64) error
}

type Notifier interface {
	Send(ctx context.Context, content string) error
}

type Publisher interface {
	PublishStatusChanged(ctx context.Context, msg messages.ParcelStatusChanged) error
}

type QuotaLimiter interface {
	AllowN(ctx context.Context, name string, n, limit int64, window time.Duration) (bool, int64, error)
}

type quota struct {
	l      QuotaLimiter
	limit  int64
	window time.Duration
}

type Service struct {
	repo      Repository
	provider  carrier.Client
	notifier  Notifier
	publisher Publisher
	quota     *quota

	now func() time.Time
}

func New(repo Repository, provider carrier.Client, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithPublisher enables ParcelStatusChanged messages after each persisted change.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithQuota caps how many numbers are sent to the provider per window.
func (s *Service) WithQuota(l QuotaLimiter, limit int64, window time.Duration) *Service {
	if l != nil && limit > 0 && window > 0 {
		s.quota = &quota{l: l, limit: limit, window: window}
	}
	return s
}

// RunReport summarises one Poll or Digest run.
type RunReport struct {
	Items     int `json:"items"`
	Records   int `json:"records"`
	Matched   int `json:"matched"`
	Changed   int `json:"changed"`
	Notified  int `json:"notified"`
	Persisted int `json:"persisted"`
	Deleted   int `json:"deleted"`
	Errors    int `json:"errors"`
}

func (r RunReport) LogAttrs() []any {
	return []any{
		"items", r.Items,
		"records", r.Records,
		"matched", r.Matched,
		"changed", r.Changed,
		"notified", r.Notified,
		"persisted", r.Persisted,
		"deleted", r.Deleted,
		"errors", r.Errors,
	}
}

// index groups stored parcels by canonical number and returns the unique
// numbers in first-seen order.
func index(items []*models.Parcel) (map[string][]*models.Parcel, []string) {
	byNumber := make(map[string][]*models.Parcel, len(items))
	numbers := make([]string, 0, len(items))
	for _, it := range items {
		key := tracking.CanonicalNumber(it.TrackingNumber)
		if key == "" {
			continue
		}
		if _, ok := byNumber[key]; !ok {
			numbers = append(numbers, key)
		}
		byNumber[key] = append(byNumber[key], it)
	}
	return byNumber, numbers
}

func (s *Service) fetch(ctx context.Context, numbers []string) ([]models.ProviderStatusRecord, error) {
	if s.quota != nil {
		ok, used, err := s.quota.l.AllowN(ctx, "17track", int64(len(numbers)), s.quota.limit, s.quota.window)
		if err != nil {
			// quota bookkeeping is best effort
			slog.Warn("provider quota check", "error", err.Error())
		} else if !ok {
			return nil, withKind(ErrProviderRequest, errors.Errorf("provider quota exhausted (%d/%d)", used, s.quota.limit))
		}
	}

	recs, err := s.provider.GetTrackInfo(ctx, numbers)
	if err != nil {
		return nil, withKind(ErrProviderRequest, err)
	}
	return recs, nil
}
