// Package memory provides a mutex-guarded in-memory implementation of
// storage.Storage. It backs the service unit tests; semantics mirror the
// postgres implementation except that transactions are not isolated (writes
// are visible immediately and rollback is a no-op).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"checkin/pkg/domain"
	"checkin/pkg/storage"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Store holds all records in process memory.
type Store struct {
	mu sync.RWMutex

	locations map[uuid.UUID]domain.Location
	grants    map[uuid.UUID]grantRec
	checkIns  []domain.CheckIn
	exports   map[uuid.UUID]exportRec
	jobs      []river.JobArgs

	seq int64
}

type grantRec struct {
	grant domain.AccessGrant
	seq   int64
}

type exportRec struct {
	export domain.ReportExport
	seq    int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		locations: make(map[uuid.UUID]domain.Location),
		grants:    make(map[uuid.UUID]grantRec),
		exports:   make(map[uuid.UUID]exportRec),
	}
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close() error { return nil }

// Begin returns a handle sharing the same state. The memory store has no
// transaction isolation; Commit and Rollback are no-ops.
func (s *Store) Begin(_ context.Context) (storage.TxStorage, error) {
	return &tx{Store: s}, nil
}

// WithTx invokes the callback against the shared state. Changes made before a
// callback error are not rolled back.
func (s *Store) WithTx(_ context.Context, cb func(storage storage.AllStorage) error) error {
	return cb(s)
}

type tx struct {
	*Store
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }

// AddJob records the job args without executing anything. It always reports
// the job as inserted.
func (s *Store) AddJob(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, args)

	return true, nil
}

// Jobs returns the recorded job args, oldest first.
func (s *Store) Jobs() []river.JobArgs {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]river.JobArgs, len(s.jobs))
	copy(out, s.jobs)

	return out
}

func (s *Store) StoreLocations(_ context.Context, locations ...domain.Location) ([]domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Location, 0, len(locations))
	for _, l := range locations {
		if uuid.UUID(l.ID) == uuid.Nil {
			l.ID = domain.LocationID(uuid.New())
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now().UTC()
		}
		s.locations[uuid.UUID(l.ID)] = l
		out = append(out, l)
	}

	return out, nil
}

func (s *Store) LocationByID(_ context.Context, id domain.LocationID) (*domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.locations[uuid.UUID(id)]
	if !ok {
		return nil, nil
	}
	l.CheckInCount = s.checkInCountLocked(id)

	return &l, nil
}

func (s *Store) Locations(_ context.Context) ([]domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Location, 0, len(s.locations))
	for _, l := range s.locations {
		l.CheckInCount = s.checkInCountLocked(l.ID)
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *Store) checkInCountLocked(id domain.LocationID) int64 {
	var n int64
	for _, c := range s.checkIns {
		if c.LocationID == id {
			n++
		}
	}

	return n
}

func (s *Store) StoreGrants(_ context.Context, grants ...domain.AccessGrant) ([]domain.AccessGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AccessGrant, 0, len(grants))
	for _, g := range grants {
		if uuid.UUID(g.ID) == uuid.Nil {
			g.ID = domain.GrantID(uuid.New())
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = time.Now().UTC()
		}
		if g.Version == 0 {
			g.Version = 1
		}
		s.seq++
		s.grants[uuid.UUID(g.ID)] = grantRec{grant: g, seq: s.seq}
		out = append(out, g)
	}

	return out, nil
}

func (s *Store) GrantByID(_ context.Context, id domain.GrantID) (*domain.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.grants[uuid.UUID(id)]
	if !ok {
		return nil, nil
	}
	g := rec.grant

	return &g, nil
}

func (s *Store) GrantsByLocation(_ context.Context, locationID domain.LocationID) ([]domain.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]grantRec, 0)
	for _, rec := range s.grants {
		if rec.grant.LocationID == locationID {
			recs = append(recs, rec)
		}
	}
	// most recently created first
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	out := make([]domain.AccessGrant, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.grant)
	}

	return out, nil
}

func (s *Store) UpdateGrant(_ context.Context,
	id domain.GrantID,
	expectedVersion int64,
	grant domain.AccessGrant) (*domain.AccessGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.grants[uuid.UUID(id)]
	if !ok || rec.grant.Version != expectedVersion {
		return nil, nil
	}

	grant.ID = id
	grant.Version = rec.grant.Version + 1
	grant.CreatedAt = rec.grant.CreatedAt
	grant.UpdatedAt = time.Now().UTC()
	rec.grant = grant
	s.grants[uuid.UUID(id)] = rec

	return &grant, nil
}

func (s *Store) DeleteGrant(_ context.Context, id domain.GrantID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.grants[uuid.UUID(id)]; !ok {
		return false, nil
	}
	delete(s.grants, uuid.UUID(id))

	return true, nil
}

func (s *Store) StoreCheckIns(_ context.Context, checkIns ...domain.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkIns = append(s.checkIns, checkIns...)

	return nil
}

func (s *Store) CheckInsByEmail(_ context.Context,
	email string,
	window domain.TimeRange) ([]domain.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CheckIn, 0)
	for _, c := range s.checkIns {
		if c.Email == email && window.Contains(c.Timestamp) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	return out, nil
}

func (s *Store) EmailsAtLocation(_ context.Context,
	locationID domain.LocationID,
	window domain.TimeRange) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, c := range s.checkIns {
		if c.LocationID != locationID || !window.Contains(c.Timestamp) {
			continue
		}
		if _, ok := seen[c.Email]; ok {
			continue
		}
		seen[c.Email] = struct{}{}
		out = append(out, c.Email)
	}
	sort.Strings(out)

	return out, nil
}

func (s *Store) CheckInsAtLocation(_ context.Context,
	locationID domain.LocationID,
	window domain.TimeRange) ([]domain.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CheckIn, 0)
	for _, c := range s.checkIns {
		if c.LocationID == locationID && window.Contains(c.Timestamp) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	return out, nil
}

func (s *Store) StoreExports(_ context.Context, exports ...domain.ReportExport) ([]domain.ReportExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ReportExport, 0, len(exports))
	for _, e := range exports {
		if uuid.UUID(e.ID) == uuid.Nil {
			e.ID = domain.ExportID(uuid.New())
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		e.ReportedEmail = strings.ToLower(e.ReportedEmail)
		s.seq++
		s.exports[uuid.UUID(e.ID)] = exportRec{export: e, seq: s.seq}
		out = append(out, e)
	}

	return out, nil
}

func (s *Store) ExportByID(_ context.Context, id domain.ExportID) (*domain.ReportExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.exports[uuid.UUID(id)]
	if !ok {
		return nil, nil
	}
	e := rec.export

	return &e, nil
}

func (s *Store) UpdateExportByID(_ context.Context,
	id domain.ExportID,
	updates storage.ExportUpdates) (*domain.ReportExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.exports[uuid.UUID(id)]
	if !ok {
		return nil, nil
	}

	e := rec.export
	e.Attempts++
	e.UpdatedAt = time.Now().UTC()
	if updates.Status == domain.ExportStatusFailed && updates.MaxAttempts > 0 {
		if int(e.Attempts) >= updates.MaxAttempts {
			e.Status = domain.ExportStatusFailed
		}
	} else if updates.Status != "" {
		e.Status = updates.Status
	}
	if updates.Report != nil {
		report := *updates.Report
		e.Report = &report
	}
	if updates.LastError != nil {
		e.LastError = *updates.LastError
	}

	rec.export = e
	s.exports[uuid.UUID(id)] = rec

	return &e, nil
}

func (s *Store) Exports(_ context.Context, cursor time.Time, limit uint) (storage.ExportPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]exportRec, 0, len(s.exports))
	for _, rec := range s.exports {
		if !cursor.IsZero() && !rec.export.CreatedAt.Before(cursor) {
			continue
		}
		recs = append(recs, rec)
	}
	// newest first
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	var nextCursor *time.Time
	if uint(len(recs)) > limit {
		recs = recs[:limit]
		t := recs[len(recs)-1].export.CreatedAt
		nextCursor = &t
	}

	out := make([]domain.ReportExport, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.export)
	}

	return storage.ExportPage{Exports: out, NextCursor: nextCursor}, nil
}

var _ storage.Storage = (*Store)(nil)
