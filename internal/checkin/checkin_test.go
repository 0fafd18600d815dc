package checkin

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkin/internal/access"
	"checkin/pkg/domain"
	"checkin/pkg/serrors"
	"checkin/pkg/storage/memory"
)

func newTestService(t *testing.T, now time.Time) (*memory.Store, access.Access, *service) {
	t.Helper()

	st := memory.New()
	accessSvc := access.New(st, access.Options{}, nil)
	svc := &service{
		storage: st,
		access:  accessSvc,
		metrics: nil,
		now:     func() time.Time { return now },
	}

	return st, accessSvc, svc
}

func TestCheckIn_OpenLocation(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	st, accessSvc, svc := newTestService(t, now)

	location, err := accessSvc.CreateLocation(context.Background(), "foyer", domain.AccessTypeOpen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	visit, err := svc.CheckIn(context.Background(), " Alice@Example.COM ", location.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visit.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", visit.Email)
	}
	if !visit.Timestamp.Equal(now) {
		t.Fatalf("expected timestamp %v, got %v", now, visit.Timestamp)
	}

	stored, err := st.CheckInsByEmail(context.Background(), "alice@example.com",
		domain.TimeRange{From: now.Add(-time.Minute), To: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored check-in, got %d", len(stored))
	}
}

func TestCheckIn_RestrictedLocation(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	st, accessSvc, svc := newTestService(t, now)

	location, err := accessSvc.CreateLocation(context.Background(), "lab 1", domain.AccessTypeCodeRequired)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := accessSvc.Create(context.Background(), access.NewGrant{
		LocationID:    location.ID,
		AllowedEmails: []string{"alice@example.com"},
		Windows: []domain.TimeRange{
			{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
		},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.CheckIn(context.Background(), "alice@example.com", location.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// unlisted visitor is rejected and nothing is recorded
	_, err = svc.CheckIn(context.Background(), "mallory@example.com", location.ID)
	if !errors.Is(err, serrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	stored, err := st.CheckInsByEmail(context.Background(), "mallory@example.com",
		domain.TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("denied check-in must not be recorded, got %d", len(stored))
	}
}

func TestCheckIn_ExpiredGrant(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	_, accessSvc, svc := newTestService(t, now)

	location, err := accessSvc.CreateLocation(context.Background(), "lab 1", domain.AccessTypeCodeRequired)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := accessSvc.Create(context.Background(), access.NewGrant{
		LocationID:    location.ID,
		AllowedEmails: []string{"alice@example.com"},
		Windows: []domain.TimeRange{
			{From: now.Add(-48 * time.Hour), To: now.Add(-24 * time.Hour)},
		},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.CheckIn(context.Background(), "alice@example.com", location.ID)
	if !errors.Is(err, serrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for expired grant, got %v", err)
	}
}

func TestCheckIn_InvalidEmail(t *testing.T) {
	_, _, svc := newTestService(t, time.Now())

	_, err := svc.CheckIn(context.Background(), "not-an-email", domain.LocationID{})
	if !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestCheckIn_UnknownLocation(t *testing.T) {
	_, _, svc := newTestService(t, time.Now())

	_, err := svc.CheckIn(context.Background(), "alice@example.com", domain.LocationID{})
	if !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
