package storage

import (
	"context"
	"time"

	"checkin/pkg/domain"
)

// ExportUpdates describes a set of optional fields that can be applied to an
// existing report export during an update. Only non-nil fields will be updated.
type ExportUpdates struct {
	// Status is the new status to set for the export.
	Status domain.ExportStatus
	// Report, when provided, replaces the stored rendered report.
	Report *domain.ExposureReport
	// LastError, when provided, sets the last error text. An empty string
	// value indicates the error should be cleared (set to NULL).
	LastError *string
	// MaxAttempts, when provided alongside a Failed status, ensures that
	// status is only updated to Failed if the attempts after increment would
	// exceed this threshold. A value <= 0 disables this guard.
	MaxAttempts int
}

// ExportPage groups a page of report exports together with an optional
// NextCursor used for pagination.
type ExportPage struct {
	// Exports contains the current page of export records.
	Exports []domain.ReportExport
	// NextCursor points to the timestamp to be used as the cursor for
	// fetching the next page. It is nil when there is no next page.
	NextCursor *time.Time
}

// ExportStorage defines CRUD and query operations for asynchronous report
// exports.
type ExportStorage interface {
	// StoreExports inserts one or more exports and returns the stored rows as
	// they exist in the database (including generated fields).
	StoreExports(ctx context.Context, exports ...domain.ReportExport) ([]domain.ReportExport, error)
	// ExportByID fetches an export by its ID. Returns nil when not found.
	ExportByID(ctx context.Context, id domain.ExportID) (*domain.ReportExport, error)
	// UpdateExportByID updates a single export and returns the updated row.
	// Attempts is incremented by 1 and updated_at is set automatically. Only
	// provided fields are changed.
	UpdateExportByID(ctx context.Context, id domain.ExportID, updates ExportUpdates) (*domain.ReportExport, error)
	// Exports returns a page of exports created before the optional cursor
	// time, newest first, limited by the given limit.
	Exports(ctx context.Context, cursor time.Time, limit uint) (ExportPage, error)
}
