package pgparcels

import (
	"context"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) ListParcels(ctx context.Context, filter models.ParcelFilter) ([]*models.Parcel, error) {
	q := `
SELECT id, tracking_number, COALESCE(last_status, ''), discord_user_id
FROM parcels
`
	var args []any
	if filter.ExcludeStatus != "" {
		// NULL last_status means "never checked"; it must still be polled.
		q += `WHERE last_status IS DISTINCT FROM $1
`
		args = append(args, filter.ExcludeStatus)
	}
	q += `ORDER BY id ASC`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select parcels")
	}
	defer rows.Close()

	var out []*models.Parcel
	for rows.Next() {
		var p models.Parcel
		if err := rows.Scan(&p.ID, &p.TrackingNumber, &p.LastStatus, &p.OwnerHandle); err != nil {
			return nil, errors.Wrap(err, "scan parcel")
		}
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) UpdateParcelStatus(ctx context.Context, id uint64, status string) error {
	_, err := s.db.Exec(ctx, `UPDATE parcels SET last_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return errors.Wrap(err, "update parcel status")
	}
	return nil
}

func (s *Storage) DeleteParcels(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `DELETE FROM parcels WHERE id = ANY($1)`, ids)
	if err != nil {
		return errors.Wrap(err, "delete parcels")
	}
	return nil
}
