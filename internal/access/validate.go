package access

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"checkin/pkg/domain"
	"checkin/pkg/serrors"
)

// FieldError ties a validation failure to the offending field so callers can
// surface it next to the right input.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// emailPattern is a deliberately loose syntactic check: one @, a non-empty
// local part and a dotted domain. Authenticity of the address is out of scope.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether the string passes the basic syntactic check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmails trims, lowercases and deduplicates the given emails,
// preserving first-seen order. Empty entries are dropped.
func NormalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}

	return out
}

// validateGrant checks a fully merged grant record. Emails are expected to be
// normalized already. All violations are collected so the caller sees every
// offending field at once.
func validateGrant(grant domain.AccessGrant, maxNoteLength int) error {
	var errs []error

	if len(grant.AllowedEmails) == 0 {
		errs = append(errs, FieldError{Field: "allowedEmails", Message: "must not be empty"})
	}
	for _, e := range grant.AllowedEmails {
		if !ValidEmail(e) {
			errs = append(errs, FieldError{Field: "allowedEmails", Message: fmt.Sprintf("invalid email %q", e)})
		}
	}

	if err := domain.ValidateWindows(grant.Windows); err != nil {
		errs = append(errs, FieldError{Field: "dateRanges", Message: err.Error()})
	}

	if maxNoteLength > 0 {
		if len(grant.Note) > maxNoteLength {
			errs = append(errs, FieldError{Field: "note", Message: fmt.Sprintf("longer than %d characters", maxNoteLength)})
		}
		if len(grant.Reason) > maxNoteLength {
			errs = append(errs, FieldError{Field: "reason", Message: fmt.Sprintf("longer than %d characters", maxNoteLength)})
		}
	}

	if len(errs) > 0 {
		return serrors.Wrap(serrors.ErrBadRequest, errors.Join(errs...), "invalid access grant")
	}

	return nil
}
