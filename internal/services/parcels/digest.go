package parcels

import (
	"context"
	"log/slog"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/BearBump/TrackNotify/internal/render"
	"github.com/BearBump/TrackNotify/internal/tracking"
	"github.com/pkg/errors"
)

// Digest sends one summary of every tracked parcel and then removes the ones
// that are delivered. It never rewrites last_status.
func (s *Service) Digest(ctx context.Context, runID string) (RunReport, error) {
	log := slog.With("job", JobDigest, "run_id", runID)
	var rep RunReport

	items, err := s.repo.ListParcels(ctx, models.ParcelFilter{})
	if err != nil {
		err = withKind(ErrStorage, errors.Wrap(err, "list parcels"))
		log.Error("select parcels", "kind", Kind(err), "error", err.Error())
		return rep, err
	}
	rep.Items = len(items)

	byNumber, numbers := index(items)
	if len(numbers) == 0 {
		log.Info("no parcels to report")
		return rep, nil
	}

	records, err := s.fetch(ctx, numbers)
	if err != nil {
		log.Error("provider request", "kind", Kind(err), "numbers", len(numbers), "error", err.Error())
		return rep, err
	}
	rep.Records = len(records)

	lines := make([]render.DigestLine, 0, len(records))
	var toDelete []uint64
	seen := map[uint64]bool{}
	for _, rec := range records {
		key := tracking.CanonicalNumber(rec.Number)
		st := tracking.Normalize(rec)
		lines = append(lines, render.DigestLine{TrackingNumber: key, Status: st})

		matched := byNumber[key]
		rep.Matched += len(matched)
		for _, item := range matched {
			if Changed(item, st) {
				rep.Changed++
			}
			if st.Class == tracking.StageDelivered && !seen[item.ID] {
				seen[item.ID] = true
				toDelete = append(toDelete, item.ID)
			}
		}
	}

	if msg := render.Digest(lines, len(toDelete) > 0); msg != "" {
		if err := s.notifier.Send(ctx, msg); err != nil {
			rep.Errors++
			err = withKind(ErrNotify, err)
			log.Error("send digest", "kind", Kind(err), "error", err.Error())
		} else {
			rep.Notified++
		}
	}

	if len(toDelete) > 0 {
		if err := s.repo.DeleteParcels(ctx, toDelete); err != nil {
			rep.Errors++
			err = withKind(ErrStorage, err)
			log.Error("delete delivered parcels", "kind", Kind(err), "ids", toDelete, "error", err.Error())
		} else {
			rep.Deleted = len(toDelete)
			log.Info("delivered parcels removed", "ids", toDelete)
		}
	}

	log.Info("digest finished", rep.LogAttrs()...)
	return rep, nil
}
