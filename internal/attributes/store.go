package attributes

import (
	"context"
	"sync"

	"github.com/justestif/go-spotify-playlist-sorter/internal/db"
)

// MemoryStore keeps attribute records in memory. It backs the service when
// no database is configured, so the cache lives for the process only.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory attribute store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) GetForTracks(_ context.Context, trackIDs []string) (map[string]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]Record)
	for _, id := range trackIDs {
		if rec, ok := s.records[id]; ok {
			found[id] = rec
		}
	}
	return found, nil
}

func (s *MemoryStore) UpsertBatch(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		s.records[rec.TrackID] = rec
	}
	return nil
}

// DBStore persists attribute records in Postgres.
type DBStore struct {
	db *db.DB
}

// NewDBStore creates an attribute store backed by the given database.
func NewDBStore(database *db.DB) *DBStore {
	return &DBStore{db: database}
}

func (s *DBStore) GetForTracks(ctx context.Context, trackIDs []string) (map[string]Record, error) {
	rows, err := s.db.Attributes().GetForTracks(ctx, trackIDs)
	if err != nil {
		return nil, err
	}

	found := make(map[string]Record, len(rows))
	for id, attrs := range rows {
		found[id] = Record{
			TrackID:   attrs.TrackID,
			Camelot:   attrs.Camelot,
			BPM:       attrs.BPM,
			Energy:    attrs.Energy,
			FetchedAt: attrs.FetchedAt,
		}
	}
	return found, nil
}

func (s *DBStore) UpsertBatch(ctx context.Context, records []Record) error {
	attrs := make([]db.TrackAttributes, len(records))
	for i, rec := range records {
		attrs[i] = db.TrackAttributes{
			TrackID:   rec.TrackID,
			Camelot:   rec.Camelot,
			BPM:       rec.BPM,
			Energy:    rec.Energy,
			FetchedAt: rec.FetchedAt,
		}
	}
	return s.db.Attributes().UpsertBatch(ctx, attrs)
}
