package access

import (
	"context"
	"time"

	"checkin/pkg/domain"
)

// NewGrant is the payload for creating an access grant.
type NewGrant struct {
	LocationID    domain.LocationID
	AllowedEmails []string
	Windows       []domain.TimeRange
	Note          string
	Reason        string
}

// GrantUpdates describes a partial edit. A nil field means "leave unchanged";
// a non-nil pointer to an empty collection means "clear it" (which then fails
// validation for AllowedEmails, since a grant must admit someone). The
// pointer-per-field shape keeps "absent" distinct from "empty".
type GrantUpdates struct {
	LocationID    *domain.LocationID
	AllowedEmails *[]string
	Windows       *[]domain.TimeRange
	Note          *string
	Reason        *string
}

// IsZero reports whether no field is supplied.
func (u GrantUpdates) IsZero() bool {
	return u.LocationID == nil && u.AllowedEmails == nil && u.Windows == nil && u.Note == nil && u.Reason == nil
}

// Access manages access grants and answers the per-check-in question "may
// this email enter this location right now?".
type Access interface {
	// Create validates and stores a new grant.
	Create(ctx context.Context, req NewGrant) (*domain.AccessGrant, error)
	// Edit applies a partial update to an existing grant. The merged record
	// is re-validated under the same rules as Create. expectedVersion is the
	// optimistic concurrency token; a stale token fails with a conflict
	// error and the caller is expected to re-fetch and retry.
	Edit(ctx context.Context,
		id domain.GrantID,
		expectedVersion int64,
		updates GrantUpdates) (*domain.AccessGrant, error)
	// Get fetches a grant by ID. Returns a not-found error when it does not exist.
	Get(ctx context.Context, id domain.GrantID) (*domain.AccessGrant, error)
	// ListByLocation returns all grants for a location, most recently created first.
	ListByLocation(ctx context.Context, locationID domain.LocationID) ([]domain.AccessGrant, error)
	// Delete removes a grant. Past check-ins used in historical reports are untouched.
	Delete(ctx context.Context, id domain.GrantID) error
	// IsAllowed decides whether the email may access the location at the
	// given instant. OPEN locations admit everyone; otherwise some grant for
	// the location must list the email and have a validity window containing
	// the instant.
	IsAllowed(ctx context.Context, email string, locationID domain.LocationID, at time.Time) (bool, error)

	// CreateLocation registers a new location.
	CreateLocation(ctx context.Context, name string, accessType domain.AccessType) (*domain.Location, error)
	// Locations lists all locations with their check-in counts.
	Locations(ctx context.Context) ([]domain.Location, error)
}
