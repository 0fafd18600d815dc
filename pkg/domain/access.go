package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GrantID uniquely identifies an access grant.
// It wraps uuid.UUID to provide type safety at the domain layer.
type GrantID uuid.UUID

func (id GrantID) String() string { return uuid.UUID(id).String() }

// MarshalText renders the ID in canonical UUID form so JSON payloads carry a
// string instead of a byte array.
func (id GrantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *GrantID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("could not parse grant ID: %w", err)
	}
	*id = GrantID(parsed)

	return nil
}

// ParseGrantID parses the canonical UUID form of a grant ID.
func ParseGrantID(s string) (GrantID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return GrantID{}, fmt.Errorf("could not parse grant ID: %w", err)
	}

	return GrantID(parsed), nil
}

// AccessGrant permits a set of email addresses to access one location during
// one or more validity windows. A grant whose windows are all in the past is
// expired: the evaluator denies access but the record stays queryable so
// historical reports remain correct.
type AccessGrant struct {
	// ID is the unique identifier of the grant.
	ID GrantID `json:"id"`
	// LocationID references the location this grant applies to.
	LocationID LocationID `json:"locationId"`

	// AllowedEmails is the case-insensitive, deduplicated set of emails the
	// grant admits. Stored lowercased. Never empty on a valid grant.
	AllowedEmails []string `json:"allowedEmails"`
	// Windows are the validity windows, ascending by start and mutually
	// non-overlapping. They may be non-contiguous.
	Windows []TimeRange `json:"dateRanges"`

	// Note is free-form moderator text attached to the grant.
	Note string `json:"note"`
	// Reason documents why the grant was issued.
	Reason string `json:"reason"`

	// Version is the optimistic concurrency token. Every successful edit
	// increments it; edits carrying a stale version are rejected.
	Version int64 `json:"version"`

	// CreatedAt is the time the grant was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time of the last successful edit.
	UpdatedAt time.Time `json:"updatedAt"`
}

// ActiveAt reports whether any validity window contains t.
func (g AccessGrant) ActiveAt(t time.Time) bool {
	for _, w := range g.Windows {
		if w.Contains(t) {
			return true
		}
	}

	return false
}

// Allows reports whether the grant lists the given lowercased email.
func (g AccessGrant) Allows(email string) bool {
	for _, e := range g.AllowedEmails {
		if e == email {
			return true
		}
	}

	return false
}
