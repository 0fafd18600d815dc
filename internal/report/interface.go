package report

import (
	"context"
	"time"

	"checkin/pkg/domain"
)

// Report generates exposure reports over the check-in log and manages
// asynchronous report exports.
type Report interface {
	// Generate computes the exposure report for the reported email over the
	// half-open window [start, end). It is a pure read over the check-in
	// log; a reported user with no check-ins yields a valid, empty report.
	Generate(ctx context.Context, reportedEmail string, start, end time.Time) (*domain.ExposureReport, error)

	// LocationVisits renders every check-in at the location inside the
	// window as a CSV export.
	LocationVisits(ctx context.Context,
		locationID domain.LocationID,
		window domain.TimeRange) (*domain.LocationVisits, error)

	// EnqueueExport stores a pending export and schedules a background job
	// to compute it. Moderators use this instead of Generate for large
	// check-in histories.
	EnqueueExport(ctx context.Context, reportedEmail string, start, end time.Time) (*domain.ReportExport, error)
	// Export fetches a single export by ID. Returns a not-found error when
	// no matching export exists.
	Export(ctx context.Context, id domain.ExportID) (*domain.ReportExport, error)
	// Exports returns a page of exports, newest first. It supports
	// cursor-based pagination using an RFC3339 timestamp string (fractional
	// seconds allowed) and returns the next cursor when more results are
	// available.
	Exports(ctx context.Context, cursor string, limit uint) ([]domain.ReportExport, string, error)

	// ProcessExport computes and stores the report for a pending export.
	// It is invoked by the background worker; a failure increments the
	// attempt counter and marks the export failed once the retry limit
	// is reached.
	ProcessExport(ctx context.Context, id domain.ExportID) error
}
