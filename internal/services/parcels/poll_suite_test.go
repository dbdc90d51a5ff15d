package parcels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/TrackNotify/internal/broker/messages"
	"github.com/BearBump/TrackNotify/internal/integrations/carrier"
	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/BearBump/TrackNotify/internal/storage/memstore"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PollSuite struct {
	suite.Suite

	store    *memstore.Store
	provider *providerMock
	notifier *notifierMock
	svc      *Service
}

func (s *PollSuite) SetupTest() {
	s.store = memstore.New()
	s.provider = &providerMock{}
	s.notifier = &notifierMock{}
	s.svc = New(s.store, s.provider, s.notifier)
}

func (s *PollSuite) TearDownTest() {
	s.provider.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
}

func (s *PollSuite) TestChangedStatus_NotifiesAndPersists() {
	id := s.store.AddParcel("ED1", "In Transit", "42")
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{
			Number:      "ED1",
			Stage:       models.IntStage(10),
			Description: "Arrived at Hub",
			Location:    "Bangkok",
		}}, nil).
		Once()
	s.notifier.On("Send", mock.Anything, "🚚 **Update for <@42>!**\nTracking: `ED1`\nStatus: **Arrived at Hub, Bangkok**").
		Return(nil).
		Once()

	rep, err := s.svc.Poll(context.Background(), "run-1")
	s.Require().NoError(err)
	s.Require().Equal(RunReport{Items: 1, Records: 1, Matched: 1, Changed: 1, Notified: 1, Persisted: 1}, rep)

	p, _ := s.store.Parcel(id)
	s.Require().Equal("Arrived at Hub, Bangkok", p.LastStatus)
}

func (s *PollSuite) TestUnchangedStatus_NoNotifyNoWrite() {
	repo := &repoMock{}
	svc := New(repo, s.provider, s.notifier)

	repo.On("ListParcels", mock.Anything, models.ParcelFilter{ExcludeStatus: models.StatusDelivered}).
		Return([]*models.Parcel{{ID: 1, TrackingNumber: "ED1", LastStatus: "Arrived at Hub, Bangkok", OwnerHandle: "42"}}, nil).
		Once()
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{
			Number:      "ED1",
			Stage:       models.IntStage(10),
			Description: "Arrived at Hub",
			Location:    "Bangkok",
		}}, nil).
		Once()

	rep, err := svc.Poll(context.Background(), "run-2")
	s.Require().NoError(err)
	s.Require().Equal(0, rep.Changed)
	repo.AssertExpectations(s.T())
	repo.AssertNotCalled(s.T(), "UpdateParcelStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PollSuite) TestDelivered_PersistsSentinel() {
	id := s.store.AddParcel("ED1", "Out for Delivery", "42")
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{
			Number:      "ED1",
			Stage:       models.StringStage("Delivered"),
			Description: "Left at front door",
			Location:    "Bangkok",
		}}, nil).
		Once()
	s.notifier.On("Send", mock.Anything, "✅ **Update for <@42>!**\nTracking: `ED1`\nStatus: **Delivered**").
		Return(nil).
		Once()

	_, err := s.svc.Poll(context.Background(), "run-3")
	s.Require().NoError(err)

	p, _ := s.store.Parcel(id)
	s.Require().Equal(models.StatusDelivered, p.LastStatus)

	// delivered parcels are no longer polled
	rep, err := s.svc.Poll(context.Background(), "run-4")
	s.Require().NoError(err)
	s.Require().Equal(0, rep.Items)
}

func (s *PollSuite) TestProviderAPIError_AbortsWithoutMutation() {
	repo := &repoMock{}
	svc := New(repo, s.provider, s.notifier)

	repo.On("ListParcels", mock.Anything, mock.Anything).
		Return([]*models.Parcel{{ID: 1, TrackingNumber: "ED1", LastStatus: "In Transit"}}, nil).
		Once()
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return(nil, &carrier.APIError{Code: 1, Message: "rate limited"}).
		Once()

	rep, err := svc.Poll(context.Background(), "run-5")
	s.Require().Error(err)
	s.Require().ErrorIs(err, ErrProviderRequest)
	s.Require().Equal("provider_request", Kind(err))

	var apiErr *carrier.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Require().Equal(1, apiErr.Code)

	s.Require().Equal(0, rep.Persisted)
	repo.AssertNotCalled(s.T(), "UpdateParcelStatus", mock.Anything, mock.Anything, mock.Anything)
	s.notifier.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything)
}

func (s *PollSuite) TestAbsentStageAndDescription_UsesSentinel() {
	id := s.store.AddParcel("ED1", "", "42")
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{Number: "ED1"}}, nil).
		Once()
	s.notifier.On("Send", mock.Anything, "🚚 **Update for <@42>!**\nTracking: `ED1`\nStatus: **Tracking...**").
		Return(nil).
		Once()

	_, err := s.svc.Poll(context.Background(), "run-6")
	s.Require().NoError(err)

	p, _ := s.store.Parcel(id)
	s.Require().Equal("Tracking...", p.LastStatus)
}

func (s *PollSuite) TestCanonicalNumberMatching() {
	id := s.store.AddParcel(" ed123abc ", "In Transit", "42")
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED123ABC"}).
		Return([]models.ProviderStatusRecord{
			{Number: "ED123ABC", Stage: models.IntStage(30)},
			{Number: "UNKNOWN1", Stage: models.IntStage(10)},
		}, nil).
		Once()
	s.notifier.On("Send", mock.Anything, "📦 **Update for <@42>!**\nTracking: `ED123ABC`\nStatus: **Ready for Pickup**").
		Return(nil).
		Once()

	rep, err := s.svc.Poll(context.Background(), "run-7")
	s.Require().NoError(err)
	s.Require().Equal(2, rep.Records)
	s.Require().Equal(1, rep.Matched)

	p, _ := s.store.Parcel(id)
	s.Require().Equal("Ready for Pickup", p.LastStatus)
}

func (s *PollSuite) TestEmptySelection_NoProviderCall() {
	s.store.AddParcel("ED1", models.StatusDelivered, "42")

	rep, err := s.svc.Poll(context.Background(), "run-8")
	s.Require().NoError(err)
	s.Require().Equal(RunReport{}, rep)
	s.provider.AssertNotCalled(s.T(), "GetTrackInfo", mock.Anything, mock.Anything)
}

func (s *PollSuite) TestNoDuplicateNotify_AcrossRuns() {
	s.store.AddParcel("ED1", "In Transit", "42")
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{Number: "ED1", Stage: models.IntStage(10), Description: "Departed"}}, nil).
		Twice()
	s.notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.svc.Poll(context.Background(), "run-9")
	s.Require().NoError(err)
	rep, err := s.svc.Poll(context.Background(), "run-10")
	s.Require().NoError(err)
	s.Require().Equal(0, rep.Notified)
}

func (s *PollSuite) TestNotifyFailure_StillPersists() {
	id := s.store.AddParcel("ED1", "In Transit", "42")
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{Number: "ED1", Stage: models.IntStage(50)}}, nil).
		Once()
	s.notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("webhook 500")).Once()

	rep, err := s.svc.Poll(context.Background(), "run-11")
	s.Require().NoError(err)
	s.Require().Equal(1, rep.Errors)
	s.Require().Equal(0, rep.Notified)
	s.Require().Equal(1, rep.Persisted)

	p, _ := s.store.Parcel(id)
	s.Require().Equal("Exception / Alert", p.LastStatus)
}

func (s *PollSuite) TestPersistFailure_CountedAndNotPublished() {
	pub := &publisherMock{}
	s.svc.WithPublisher(pub)
	s.store.AddParcel("ED1", "In Transit", "42")
	s.store.FailUpdate = true

	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{Number: "ED1", Stage: models.IntStage(30)}}, nil).
		Once()
	s.notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	rep, err := s.svc.Poll(context.Background(), "run-12")
	s.Require().NoError(err)
	s.Require().Equal(1, rep.Notified)
	s.Require().Equal(0, rep.Persisted)
	s.Require().Equal(1, rep.Errors)
	pub.AssertNotCalled(s.T(), "PublishStatusChanged", mock.Anything, mock.Anything)
}

func (s *PollSuite) TestPublishesAfterPersist() {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	pub := &publisherMock{}
	s.svc.WithPublisher(pub)
	s.svc.now = func() time.Time { return at }
	id := s.store.AddParcel("ed1", "In Transit", "42")

	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{Number: "ED1", Stage: models.IntStage(30)}}, nil).
		Once()
	s.notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	pub.On("PublishStatusChanged", mock.Anything, messages.ParcelStatusChanged{
		RunID:          "run-13",
		ParcelID:       id,
		TrackingNumber: "ED1",
		OwnerHandle:    "42",
		PreviousStatus: "In Transit",
		Status:         "Ready for Pickup",
		Class:          "ReadyForPickup",
		Notified:       true,
		ChangedAt:      at,
	}).Return(errors.New("broker down")).Once()

	rep, err := s.svc.Poll(context.Background(), "run-13")
	s.Require().NoError(err)
	s.Require().Equal(0, rep.Errors)
	pub.AssertExpectations(s.T())
}

func (s *PollSuite) TestQuotaExhausted_AbortsBeforeProvider() {
	q := &quotaMock{}
	s.svc.WithQuota(q, 100, 24*time.Hour)
	s.store.AddParcel("ED1", "In Transit", "42")

	q.On("AllowN", mock.Anything, "17track", int64(1), int64(100), 24*time.Hour).
		Return(false, int64(101), nil).
		Once()

	_, err := s.svc.Poll(context.Background(), "run-14")
	s.Require().ErrorIs(err, ErrProviderRequest)
	s.provider.AssertNotCalled(s.T(), "GetTrackInfo", mock.Anything, mock.Anything)
	q.AssertExpectations(s.T())
}

func (s *PollSuite) TestQuotaBackendError_DoesNotBlock() {
	q := &quotaMock{}
	s.svc.WithQuota(q, 100, time.Hour)
	s.store.AddParcel("ED1", "Tracking...", "42")

	q.On("AllowN", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, int64(0), errors.New("redis down")).
		Once()
	s.provider.On("GetTrackInfo", mock.Anything, []string{"ED1"}).
		Return([]models.ProviderStatusRecord{{Number: "ED1"}}, nil).
		Once()

	rep, err := s.svc.Poll(context.Background(), "run-15")
	s.Require().NoError(err)
	s.Require().Equal(0, rep.Changed)
}

func (s *PollSuite) TestListFailure_StorageKind() {
	repo := &repoMock{}
	svc := New(repo, s.provider, s.notifier)
	repo.On("ListParcels", mock.Anything, mock.Anything).Return(nil, errors.New("conn refused")).Once()

	_, err := svc.Poll(context.Background(), "run-16")
	s.Require().ErrorIs(err, ErrStorage)
	s.Require().Equal("storage", Kind(err))
}

func TestPollSuite(t *testing.T) {
	suite.Run(t, new(PollSuite))
}
