package domain

import "time"

// CheckIn is a single visit event: one user at one location at one instant.
// Records are append-only; multiple check-ins per user, location and day are
// possible and each counts as a separate visit.
type CheckIn struct {
	// Email identifies the visitor. Stored lowercased.
	Email string `json:"email"`
	// LocationID is the visited location.
	LocationID LocationID `json:"locationId"`
	// Timestamp is the instant of the check-in.
	Timestamp time.Time `json:"timestamp"`
}
