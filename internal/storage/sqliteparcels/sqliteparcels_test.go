package sqliteparcels

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "data", "parcels.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("  ")
	require.Error(t, err)
}

func TestSQLiteParcels_RepoFlow(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t)

	_, err := st.db.Exec(`
INSERT INTO parcels (tracking_number, last_status, discord_user_id) VALUES
  ('AB1', 'In Transit', 'u1'),
  ('AB2', 'Delivered', 'u2'),
  ('AB3', NULL, 'u3')`)
	require.NoError(t, err)

	open, err := st.ListParcels(ctx, models.ParcelFilter{ExcludeStatus: models.StatusDelivered})
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, "AB1", open[0].TrackingNumber)
	require.Equal(t, "u1", open[0].OwnerHandle)
	require.Equal(t, "", open[1].LastStatus)

	require.NoError(t, st.UpdateParcelStatus(ctx, open[1].ID, "In Transit, Bangkok"))

	all, err := st.ListParcels(ctx, models.ParcelFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "In Transit, Bangkok", all[2].LastStatus)

	require.NoError(t, st.DeleteParcels(ctx, []uint64{all[0].ID, all[1].ID}))
	require.NoError(t, st.DeleteParcels(ctx, nil))

	all, err = st.ListParcels(ctx, models.ParcelFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "AB3", all[0].TrackingNumber)
}

func TestSQLiteParcels_UniqueCanonicalNumber(t *testing.T) {
	st := newStorage(t)

	_, err := st.db.Exec(`INSERT INTO parcels (tracking_number) VALUES ('ab1')`)
	require.NoError(t, err)
	_, err = st.db.Exec(`INSERT INTO parcels (tracking_number) VALUES (' AB1 ')`)
	require.Error(t, err)
}

func TestSQLiteParcels_ListStocks(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t)

	_, err := st.db.Exec(`
INSERT INTO stocks (symbol, target_price, bucket) VALUES
  ('NVDA', 120.5, 'A'),
  ('AAPL', 180, 'b')`)
	require.NoError(t, err)

	stocks, err := st.ListStocks(ctx)
	require.NoError(t, err)
	require.Len(t, stocks, 2)
	require.Equal(t, "AAPL", stocks[0].Symbol)
	require.Equal(t, "b", stocks[0].Bucket)
	require.Equal(t, 120.5, stocks[1].TargetPrice)
}
