package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LocationID uniquely identifies a location.
// It wraps uuid.UUID to provide type safety at the domain layer.
type LocationID uuid.UUID

func (id LocationID) String() string { return uuid.UUID(id).String() }

// MarshalText renders the ID in canonical UUID form so JSON payloads carry a
// string instead of a byte array.
func (id LocationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *LocationID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("could not parse location ID: %w", err)
	}
	*id = LocationID(parsed)

	return nil
}

// ParseLocationID parses the canonical UUID form of a location ID.
func ParseLocationID(s string) (LocationID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return LocationID{}, fmt.Errorf("could not parse location ID: %w", err)
	}

	return LocationID(parsed), nil
}

// AccessType controls whether a location admits everyone or requires a
// matching access grant at check-in time.
type AccessType string

const (
	// AccessTypeOpen means anyone may check in; grants are not consulted.
	AccessTypeOpen AccessType = "OPEN"
	// AccessTypeCodeRequired means check-in requires a currently valid
	// access grant listing the visitor's email.
	AccessTypeCodeRequired AccessType = "CODE_REQUIRED"
)

// Location is a physical place visitors check in to via its QR code.
type Location struct {
	// ID is the unique identifier of the location.
	ID LocationID `json:"id"`
	// Name is the human-readable display name used in reports.
	Name string `json:"name"`
	// AccessType decides whether grant-based evaluation applies.
	AccessType AccessType `json:"accessType"`

	// CheckInCount is the total number of check-ins recorded at this
	// location. Populated on listing, not stored on the row itself.
	CheckInCount int64 `json:"checkInCount"`

	// CreatedAt is the time the location was registered.
	CreatedAt time.Time `json:"createdAt"`
}
