package sorter

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-playlist-sorter/internal/db"
)

// ErrRunNotFound is returned when a sort run does not exist.
var ErrRunNotFound = errors.New("sort run not found")

// Run is one recorded sort: the proposed track order and enough metadata to
// apply it later or list it in a history view.
type Run struct {
	ID           uuid.UUID
	UserID       string
	PlaylistID   string
	PlaylistName string
	TrackIDs     []string
	AverageCost  float64
	Applied      bool
	CreatedAt    time.Time
}

// RunStore persists sort runs.
type RunStore interface {
	Create(ctx context.Context, run Run) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	MarkApplied(ctx context.Context, id uuid.UUID) error
	GetForUser(ctx context.Context, userID string) ([]Run, error)
}

// MemoryRunStore keeps runs in memory, for running without a database.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
}

// NewMemoryRunStore creates an empty in-memory run store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[uuid.UUID]Run)}
}

func (s *MemoryRunStore) Create(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryRunStore) Get(_ context.Context, id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

func (s *MemoryRunStore) MarkApplied(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.Applied = true
	s.runs[id] = run
	return nil
}

func (s *MemoryRunStore) GetForUser(_ context.Context, userID string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []Run
	for _, run := range s.runs {
		if run.UserID == userID {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// DBRunStore persists runs in Postgres.
type DBRunStore struct {
	db *db.DB
}

// NewDBRunStore creates a run store backed by the given database.
func NewDBRunStore(database *db.DB) *DBRunStore {
	return &DBRunStore{db: database}
}

func (s *DBRunStore) Create(ctx context.Context, run Run) error {
	dbRun := toDBRun(run)
	return s.db.SortRuns().Create(ctx, &dbRun)
}

func (s *DBRunStore) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	dbRun, err := s.db.SortRuns().Get(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	run := fromDBRun(*dbRun)
	return &run, nil
}

func (s *DBRunStore) MarkApplied(ctx context.Context, id uuid.UUID) error {
	err := s.db.SortRuns().MarkApplied(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrRunNotFound
	}
	return err
}

func (s *DBRunStore) GetForUser(ctx context.Context, userID string) ([]Run, error) {
	dbRuns, err := s.db.SortRuns().GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, len(dbRuns))
	for i, r := range dbRuns {
		runs[i] = fromDBRun(r)
	}
	return runs, nil
}

func toDBRun(run Run) db.SortRun {
	return db.SortRun{
		ID:           run.ID,
		UserID:       run.UserID,
		PlaylistID:   run.PlaylistID,
		PlaylistName: run.PlaylistName,
		TrackIDs:     run.TrackIDs,
		AverageCost:  run.AverageCost,
		Applied:      run.Applied,
		CreatedAt:    run.CreatedAt,
	}
}

func fromDBRun(run db.SortRun) Run {
	return Run{
		ID:           run.ID,
		UserID:       run.UserID,
		PlaylistID:   run.PlaylistID,
		PlaylistName: run.PlaylistName,
		TrackIDs:     run.TrackIDs,
		AverageCost:  run.AverageCost,
		Applied:      run.Applied,
		CreatedAt:    run.CreatedAt,
	}
}
