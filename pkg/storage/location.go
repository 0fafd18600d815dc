package storage

import (
	"context"

	"checkin/pkg/domain"
)

// LocationStorage defines persistence operations for locations. Locations are
// owned by moderators; the access and report services only read them.
type LocationStorage interface {
	// StoreLocations inserts one or more locations and returns the stored rows
	// as they exist in the database (including generated fields).
	StoreLocations(ctx context.Context, locations ...domain.Location) ([]domain.Location, error)
	// LocationByID fetches a location by its ID. Returns nil when not found.
	LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error)
	// Locations returns all locations ordered by name, each carrying its total
	// check-in count.
	Locations(ctx context.Context) ([]domain.Location, error)
}
