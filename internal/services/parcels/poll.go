package parcels

import (
	"context"
	"log/slog"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/BearBump/TrackNotify/internal/tracking"
	"github.com/pkg/errors"
)

// Poll checks every parcel not yet delivered and alerts the owner of each one
// whose status changed. A provider failure aborts the run before any write.
func (s *Service) Poll(ctx context.Context, runID string) (RunReport, error) {
	log := slog.With("job", JobPoll, "run_id", runID)
	var rep RunReport

	items, err := s.repo.ListParcels(ctx, models.ParcelFilter{ExcludeStatus: models.StatusDelivered})
	if err != nil {
		err = withKind(ErrStorage, errors.Wrap(err, "list parcels"))
		log.Error("select parcels", "kind", Kind(err), "error", err.Error())
		return rep, err
	}
	rep.Items = len(items)

	byNumber, numbers := index(items)
	if len(numbers) == 0 {
		log.Info("no parcels to check")
		return rep, nil
	}

	records, err := s.fetch(ctx, numbers)
	if err != nil {
		log.Error("provider request", "kind", Kind(err), "numbers", len(numbers), "error", err.Error())
		return rep, err
	}
	rep.Records = len(records)

	for _, rec := range records {
		matched := byNumber[tracking.CanonicalNumber(rec.Number)]
		if len(matched) == 0 {
			log.Debug("unmatched provider record", "tracking_number", rec.Number)
			continue
		}
		st := tracking.Normalize(rec)
		for _, item := range matched {
			rep.Matched++
			s.apply(ctx, log, runID, item, st, &rep)
		}
	}

	log.Info("poll finished", rep.LogAttrs()...)
	return rep, nil
}
