package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
)

// Store is an in-process backend for tests and dry runs.
type Store struct {
	mu      sync.Mutex
	nextID  uint64
	parcels map[uint64]models.Parcel
	stocks  []models.WatchedSymbol

	// FailUpdate and FailDelete make the matching operation return an error.
	FailUpdate bool
	FailDelete bool
}

func New() *Store {
	return &Store{parcels: map[uint64]models.Parcel{}}
}

// AddParcel inserts a parcel and returns its id.
func (s *Store) AddParcel(number, lastStatus, owner string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.parcels[s.nextID] = models.Parcel{
		ID:             s.nextID,
		TrackingNumber: number,
		LastStatus:     lastStatus,
		OwnerHandle:    owner,
	}
	return s.nextID
}

func (s *Store) AddStock(w models.WatchedSymbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks = append(s.stocks, w)
}

// Parcel returns a copy of the stored row.
func (s *Store) Parcel(id uint64) (models.Parcel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[id]
	return p, ok
}

func (s *Store) Close() {}

func (s *Store) ListParcels(_ context.Context, filter models.ParcelFilter) ([]*models.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Parcel, 0, len(s.parcels))
	for _, p := range s.parcels {
		if filter.ExcludeStatus != "" && p.LastStatus == filter.ExcludeStatus {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateParcelStatus(_ context.Context, id uint64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpdate {
		return errors.New("memstore: update failed")
	}
	p, ok := s.parcels[id]
	if !ok {
		return nil
	}
	p.LastStatus = status
	s.parcels[id] = p
	return nil
}

func (s *Store) DeleteParcels(_ context.Context, ids []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete {
		return errors.New("memstore: delete failed")
	}
	for _, id := range ids {
		delete(s.parcels, id)
	}
	return nil
}

func (s *Store) ListStocks(_ context.Context) ([]*models.WatchedSymbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.WatchedSymbol, 0, len(s.stocks))
	for _, w := range s.stocks {
		w := w
		out = append(out, &w)
	}
	return out, nil
}
