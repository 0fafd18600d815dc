package storage

import (
	"context"

	"checkin/pkg/domain"
)

// AccessStorage defines persistence and query operations for access grants.
// Grants are indexed by location so that evaluating a check-in attempt costs
// O(grants at that location), not O(all grants).
type AccessStorage interface {
	// StoreGrants inserts one or more grants and returns the stored rows as
	// they exist in the database (including generated fields).
	StoreGrants(ctx context.Context, grants ...domain.AccessGrant) ([]domain.AccessGrant, error)
	// GrantByID fetches a grant by its ID. Returns nil when not found.
	GrantByID(ctx context.Context, id domain.GrantID) (*domain.AccessGrant, error)
	// GrantsByLocation returns all grants for the given location, most
	// recently created first. Expired grants are included; they stay
	// queryable for historical reports.
	GrantsByLocation(ctx context.Context, locationID domain.LocationID) ([]domain.AccessGrant, error)
	// UpdateGrant replaces the stored record with the provided merged grant,
	// guarded by optimistic versioning: the write only happens when the
	// stored version still equals expectedVersion, and it increments the
	// version. Returns the updated row, or nil when no row matched (either
	// the grant is gone or the version is stale).
	UpdateGrant(ctx context.Context,
		id domain.GrantID,
		expectedVersion int64,
		grant domain.AccessGrant) (*domain.AccessGrant, error)
	// DeleteGrant removes the grant. Returns false when no such grant
	// exists. Past check-ins are untouched; deletion never rewrites the
	// check-in log.
	DeleteGrant(ctx context.Context, id domain.GrantID) (bool, error)
}
