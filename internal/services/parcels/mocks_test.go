package parcels

import (
	"context"
	"time"

	"github.com/BearBump/TrackNotify/internal/broker/messages"
	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/stretchr/testify/mock"
)

type providerMock struct {
	mock.Mock
}

func (m *providerMock) GetTrackInfo(ctx context.Context, numbers []string) ([]models.ProviderStatusRecord, error) {
	args := m.Called(ctx, numbers)
	recs, _ := args.Get(0).([]models.ProviderStatusRecord)
	return recs, args.Error(1)
}

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) Send(ctx context.Context, content string) error {
	return m.Called(ctx, content).Error(0)
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) PublishStatusChanged(ctx context.Context, msg messages.ParcelStatusChanged) error {
	return m.Called(ctx, msg).Error(0)
}

type quotaMock struct {
	mock.Mock
}

func (m *quotaMock) AllowN(ctx context.Context, name string, n, limit int64, window time.Duration) (bool, int64, error) {
	args := m.Called(ctx, name, n, limit, window)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

type repoMock struct {
	mock.Mock
}

func (m *repoMock) ListParcels(ctx context.Context, filter models.ParcelFilter) ([]*models.Parcel, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]*models.Parcel)
	return items, args.Error(1)
}

func (m *repoMock) UpdateParcelStatus(ctx context.Context, id uint64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *repoMock) DeleteParcels(ctx context.Context, ids []uint64) error {
	return m.Called(ctx, ids).Error(0)
}
