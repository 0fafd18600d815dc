package storage

import (
	"context"

	"checkin/pkg/domain"
)

// CheckInStorage defines the append-only check-in log. Rows are only ever
// inserted; reports and exports read them back through range scans keyed by
// email or by location.
type CheckInStorage interface {
	// StoreCheckIns appends one or more check-in records.
	StoreCheckIns(ctx context.Context, checkIns ...domain.CheckIn) error
	// CheckInsByEmail returns the check-ins of one user inside the half-open
	// window, ascending by timestamp. The email must be lowercased.
	CheckInsByEmail(ctx context.Context, email string, window domain.TimeRange) ([]domain.CheckIn, error)
	// EmailsAtLocation returns the distinct emails that checked in at the
	// location inside the half-open window, ordered ascending. The DISTINCT
	// runs in the database so the result stays small even over large logs.
	EmailsAtLocation(ctx context.Context, locationID domain.LocationID, window domain.TimeRange) ([]string, error)
	// CheckInsAtLocation returns all check-ins at the location inside the
	// half-open window, ascending by timestamp.
	CheckInsAtLocation(ctx context.Context,
		locationID domain.LocationID,
		window domain.TimeRange) ([]domain.CheckIn, error)
}
