package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExportID uniquely identifies a report export request.
// It wraps uuid.UUID to provide type safety at the domain layer.
type ExportID uuid.UUID

func (id ExportID) String() string { return uuid.UUID(id).String() }

// MarshalText renders the ID in canonical UUID form so JSON payloads carry a
// string instead of a byte array.
func (id ExportID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ExportID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("could not parse export ID: %w", err)
	}
	*id = ExportID(parsed)

	return nil
}

// ParseExportID parses the canonical UUID form of an export ID.
func ParseExportID(s string) (ExportID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ExportID{}, fmt.Errorf("could not parse export ID: %w", err)
	}

	return ExportID(parsed), nil
}

// ExportStatus represents the lifecycle state of a report export.
type ExportStatus string

const (
	// ExportStatusPending indicates the export has been enqueued but not
	// processed yet.
	ExportStatusPending ExportStatus = "PENDING"
	// ExportStatusCompleted indicates the export finished and the rendered
	// report is available.
	ExportStatusCompleted ExportStatus = "COMPLETED"
	// ExportStatusFailed indicates the export ended with an error; see
	// LastError and Attempts for details.
	ExportStatusFailed ExportStatus = "FAILED"
)

// ReportExport is an asynchronously generated exposure report. Moderators
// enqueue an export for large check-in histories instead of waiting on the
// synchronous path; a background worker computes the report and stores the
// rendered snapshot here.
type ReportExport struct {
	// ID is the unique identifier of the export request.
	ID ExportID `json:"id"`

	// ReportedEmail is the infectious user the report is about.
	ReportedEmail string `json:"reportedEmail"`
	// Window is the queried date window, half-open.
	Window TimeRange `json:"window"`

	// Status is the current lifecycle state of the export.
	Status ExportStatus `json:"status"`
	// Report holds the rendered exposure report once completed.
	Report *ExposureReport `json:"report,omitempty"`

	// Attempts is the number of times the worker has tried this export.
	Attempts uint `json:"attempts"`
	// LastError stores the most recent processing error, if any.
	LastError string `json:"-"`

	// CreatedAt is the time the export was requested.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time the export last changed state.
	UpdatedAt time.Time `json:"updatedAt"`
}
