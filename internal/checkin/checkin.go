// Package checkin records visits. Every check-in is gated by the access
// evaluator and appended to the visit log the exposure reports are built from.
package checkin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"checkin/internal/access"
	"checkin/pkg/domain"
	"checkin/pkg/metrics"
	"checkin/pkg/serrors"
	"checkin/pkg/storage"
)

// Service records check-ins at locations.
type Service interface {
	// CheckIn validates the email, evaluates access at the current instant
	// and appends the visit to the log. Denied visitors get a forbidden
	// error and nothing is recorded.
	CheckIn(ctx context.Context, email string, locationID domain.LocationID) (*domain.CheckIn, error)
}

type service struct {
	storage storage.Storage
	access  access.Access
	metrics *metrics.Metrics

	// now is swapped out in tests
	now func() time.Time
}

// New creates a check-in service backed by the provided storage and evaluator.
func New(strg storage.Storage, accessSvc access.Access, m *metrics.Metrics) Service {
	return &service{
		storage: strg,
		access:  accessSvc,
		metrics: m,
		now:     time.Now,
	}
}

func (s *service) CheckIn(ctx context.Context, email string, locationID domain.LocationID) (*domain.CheckIn, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !access.ValidEmail(email) {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid email address")
	}

	now := s.now().UTC()

	allowed, err := s.access.IsAllowed(ctx, email, locationID, now)
	if err != nil {
		return nil, fmt.Errorf("could not evaluate access: %w", err)
	}
	if !allowed {
		return nil, serrors.With(serrors.ErrForbidden, "access denied")
	}

	visit := domain.CheckIn{
		Email:      email,
		LocationID: locationID,
		Timestamp:  now,
	}
	if err := s.storage.StoreCheckIns(ctx, visit); err != nil {
		return nil, fmt.Errorf("could not store check-in: %w", err)
	}

	s.metrics.RecordCheckIn(ctx)

	return &visit, nil
}
