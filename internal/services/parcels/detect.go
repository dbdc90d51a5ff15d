package parcels

import (
	"context"
	"log/slog"

	"github.com/BearBump/TrackNotify/internal/broker/messages"
	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/BearBump/TrackNotify/internal/render"
	"github.com/BearBump/TrackNotify/internal/tracking"
)

// Changed reports whether st differs from what is stored. Comparison is
// byte-exact on the display text.
func Changed(item *models.Parcel, st tracking.CanonicalStatus) bool {
	return st.DisplayText != item.LastStatus
}

// apply runs the change detector for one matched parcel: notify, then persist
// regardless of the notify outcome, then publish.
func (s *Service) apply(ctx context.Context, log *slog.Logger, runID string, item *models.Parcel, st tracking.CanonicalStatus, rep *RunReport) {
	if !Changed(item, st) {
		return
	}
	rep.Changed++
	log = log.With("parcel_id", item.ID, "tracking_number", item.TrackingNumber)

	notified := true
	msg := render.ParcelAlert(render.ParcelUpdate{
		OwnerHandle:    item.OwnerHandle,
		TrackingNumber: tracking.CanonicalNumber(item.TrackingNumber),
		Status:         st,
	})
	if err := s.notifier.Send(ctx, msg); err != nil {
		notified = false
		rep.Errors++
		err = withKind(ErrNotify, err)
		log.Error("send parcel alert", "kind", Kind(err), "error", err.Error())
	} else {
		rep.Notified++
	}

	previous := item.LastStatus
	if err := s.repo.UpdateParcelStatus(ctx, item.ID, st.DisplayText); err != nil {
		rep.Errors++
		err = withKind(ErrStorage, err)
		log.Error("persist parcel status", "kind", Kind(err), "error", err.Error())
		return
	}
	rep.Persisted++
	item.LastStatus = st.DisplayText
	log.Info("parcel status changed", "from", previous, "to", st.DisplayText, "class", st.Class.String())

	if s.publisher == nil {
		return
	}
	ev := messages.ParcelStatusChanged{
		RunID:          runID,
		ParcelID:       item.ID,
		TrackingNumber: tracking.CanonicalNumber(item.TrackingNumber),
		OwnerHandle:    item.OwnerHandle,
		PreviousStatus: previous,
		Status:         st.DisplayText,
		Class:          st.Class.String(),
		Notified:       notified,
		ChangedAt:      s.now(),
	}
	if err := s.publisher.PublishStatusChanged(ctx, ev); err != nil {
		log.Warn("publish status changed", "error", err.Error())
	}
}
