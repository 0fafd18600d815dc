// Package access implements the access grant store and the evaluator that
// gates every check-in attempt.
package access

import (
	"context"
	"fmt"
	"strings"
	"time"

	"checkin/internal/config"
	"checkin/pkg/domain"
	"checkin/pkg/metrics"
	"checkin/pkg/serrors"
	"checkin/pkg/storage"
)

// Options configure grant validation.
type Options struct {
	// MaxNoteLength bounds the free-form note and reason fields. Zero
	// disables the check.
	MaxNoteLength int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxNoteLength: cfg.Access.MaxNoteLength,
	}
}

// service is the concrete implementation of the Access interface.
type service struct {
	options Options
	storage storage.Storage
	metrics *metrics.Metrics
}

// New creates a new Access service backed by the provided storage.
func New(strg storage.Storage, options Options, m *metrics.Metrics) Access {
	return &service{
		options: options,
		storage: strg,
		metrics: m,
	}
}

func (s *service) Create(ctx context.Context, req NewGrant) (*domain.AccessGrant, error) {
	location, err := s.storage.LocationByID(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch location: %w", err)
	}
	if location == nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest,
			FieldError{Field: "locationId", Message: "unknown location"}, "invalid access grant")
	}

	grant := domain.AccessGrant{
		LocationID:    req.LocationID,
		AllowedEmails: NormalizeEmails(req.AllowedEmails),
		Windows:       req.Windows,
		Note:          req.Note,
		Reason:        req.Reason,
		Version:       1,
	}
	if err := validateGrant(grant, s.options.MaxNoteLength); err != nil {
		return nil, err
	}

	stored, err := s.storage.StoreGrants(ctx, grant)
	if err != nil {
		return nil, fmt.Errorf("could not store grant: %w", err)
	}

	return &stored[0], nil
}

// Edit merges the supplied fields into the stored record, re-validates the
// result and writes it back guarded by the optimistic version token. An edit
// supplying no fields is a no-op that returns the unchanged record, provided
// the token still matches.
func (s *service) Edit(ctx context.Context,
	id domain.GrantID,
	expectedVersion int64,
	updates GrantUpdates) (*domain.AccessGrant, error) {
	grant, err := s.storage.GrantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not fetch grant: %w", err)
	}
	if grant == nil {
		return nil, serrors.With(serrors.ErrNotFound, "grant not found")
	}
	if grant.Version != expectedVersion {
		return nil, serrors.With(serrors.ErrConflict,
			"grant was modified concurrently (version %d, expected %d)", grant.Version, expectedVersion)
	}
	if updates.IsZero() {
		return grant, nil
	}

	merged := *grant
	if updates.LocationID != nil {
		location, err := s.storage.LocationByID(ctx, *updates.LocationID)
		if err != nil {
			return nil, fmt.Errorf("could not fetch location: %w", err)
		}
		if location == nil {
			return nil, serrors.Wrap(serrors.ErrBadRequest,
				FieldError{Field: "locationId", Message: "unknown location"}, "invalid access grant")
		}
		merged.LocationID = *updates.LocationID
	}
	if updates.AllowedEmails != nil {
		merged.AllowedEmails = NormalizeEmails(*updates.AllowedEmails)
	}
	if updates.Windows != nil {
		merged.Windows = *updates.Windows
	}
	if updates.Note != nil {
		merged.Note = *updates.Note
	}
	if updates.Reason != nil {
		merged.Reason = *updates.Reason
	}

	if err := validateGrant(merged, s.options.MaxNoteLength); err != nil {
		return nil, err
	}

	updated, err := s.storage.UpdateGrant(ctx, id, expectedVersion, merged)
	if err != nil {
		return nil, fmt.Errorf("could not update grant: %w", err)
	}
	if updated == nil {
		// the row vanished or the version moved between our read and write
		return nil, serrors.With(serrors.ErrConflict, "grant was modified concurrently")
	}

	return updated, nil
}

func (s *service) Get(ctx context.Context, id domain.GrantID) (*domain.AccessGrant, error) {
	grant, err := s.storage.GrantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not fetch grant: %w", err)
	}
	if grant == nil {
		return nil, serrors.With(serrors.ErrNotFound, "grant not found")
	}

	return grant, nil
}

func (s *service) ListByLocation(ctx context.Context, locationID domain.LocationID) ([]domain.AccessGrant, error) {
	grants, err := s.storage.GrantsByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("could not list grants: %w", err)
	}

	return grants, nil
}

func (s *service) Delete(ctx context.Context, id domain.GrantID) error {
	deleted, err := s.storage.DeleteGrant(ctx, id)
	if err != nil {
		return fmt.Errorf("could not delete grant: %w", err)
	}
	if !deleted {
		return serrors.With(serrors.ErrNotFound, "grant not found")
	}

	return nil
}

// IsAllowed is the evaluator consulted on every check-in attempt. It is a
// pure read: OPEN locations admit everyone, otherwise any grant for the
// location whose email set contains the visitor and whose validity windows
// contain the instant admits the visitor. Expired grants simply never match.
func (s *service) IsAllowed(ctx context.Context,
	email string,
	locationID domain.LocationID,
	at time.Time) (bool, error) {
	location, err := s.storage.LocationByID(ctx, locationID)
	if err != nil {
		return false, fmt.Errorf("could not fetch location: %w", err)
	}
	if location == nil {
		return false, serrors.With(serrors.ErrNotFound, "location not found")
	}

	if location.AccessType == domain.AccessTypeOpen {
		s.metrics.RecordAccessCheck(ctx, true)

		return true, nil
	}

	grants, err := s.storage.GrantsByLocation(ctx, locationID)
	if err != nil {
		return false, fmt.Errorf("could not fetch grants: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(email))
	for _, grant := range grants {
		if grant.Allows(needle) && grant.ActiveAt(at) {
			s.metrics.RecordAccessCheck(ctx, true)

			return true, nil
		}
	}

	s.metrics.RecordAccessCheck(ctx, false)

	return false, nil
}

func (s *service) CreateLocation(ctx context.Context,
	name string,
	accessType domain.AccessType) (*domain.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, serrors.Wrap(serrors.ErrBadRequest,
			FieldError{Field: "name", Message: "must not be empty"}, "invalid location")
	}
	switch accessType {
	case domain.AccessTypeOpen, domain.AccessTypeCodeRequired:
	default:
		return nil, serrors.Wrap(serrors.ErrBadRequest,
			FieldError{Field: "accessType", Message: fmt.Sprintf("unknown access type %q", accessType)},
			"invalid location")
	}

	stored, err := s.storage.StoreLocations(ctx, domain.Location{Name: name, AccessType: accessType})
	if err != nil {
		return nil, fmt.Errorf("could not store location: %w", err)
	}

	return &stored[0], nil
}

func (s *service) Locations(ctx context.Context) ([]domain.Location, error) {
	locations, err := s.storage.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list locations: %w", err)
	}

	return locations, nil
}
