package sqliteparcels

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Storage keeps parcels and watched symbols in a local SQLite file.
type Storage struct {
	db *sql.DB
}

func New(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create sqlite dir")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init sqlite schema")
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Storage) ListParcels(ctx context.Context, filter models.ParcelFilter) ([]*models.Parcel, error) {
	q := `SELECT id, tracking_number, COALESCE(last_status, ''), discord_user_id FROM parcels`
	var args []any
	if filter.ExcludeStatus != "" {
		q += ` WHERE last_status IS NOT ?`
		args = append(args, filter.ExcludeStatus)
	}
	q += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
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
	return out, errors.Wrap(rows.Err(), "rows")
}

func (s *Storage) UpdateParcelStatus(ctx context.Context, id uint64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE parcels SET last_status = ? WHERE id = ?`, status, id)
	return errors.Wrap(err, "update parcel status")
}

func (s *Storage) DeleteParcels(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM parcels WHERE id IN (`+placeholders+`)`, args...)
	return errors.Wrap(err, "delete parcels")
}

func (s *Storage) ListStocks(ctx context.Context) ([]*models.WatchedSymbol, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, target_price, bucket FROM stocks ORDER BY symbol ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "select stocks")
	}
	defer rows.Close()

	var out []*models.WatchedSymbol
	for rows.Next() {
		var w models.WatchedSymbol
		if err := rows.Scan(&w.Symbol, &w.TargetPrice, &w.Bucket); err != nil {
			return nil, errors.Wrap(err, "scan stock")
		}
		out = append(out, &w)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}
