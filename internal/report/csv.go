package report

import (
	"encoding/csv"
	"strings"
	"time"

	"checkin/pkg/domain"
)

// userLocationsCsv renders the co-exposure rows with an email,date,locationName
// header. encoding/csv quotes fields containing commas, quotes or newlines.
func userLocationsCsv(rows []domain.UserLocation) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	_ = w.Write([]string{"email", "date", "locationName"})
	for _, row := range rows {
		_ = w.Write([]string{row.Email, row.Date, row.LocationName})
	}
	w.Flush()

	return b.String()
}

// visitsCsv renders check-ins at a location with an email,timestamp header,
// timestamps in RFC3339 UTC.
func visitsCsv(visits []domain.CheckIn) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	_ = w.Write([]string{"email", "timestamp"})
	for _, visit := range visits {
		_ = w.Write([]string{visit.Email, visit.Timestamp.UTC().Format(time.RFC3339)})
	}
	w.Flush()

	return b.String()
}

// mailtoLink builds a mailto: URI addressing every impacted email. When the
// full list would exceed maxLength, the recipient list is truncated at an
// email boundary; the CSV export stays authoritative.
func mailtoLink(emails []string, maxLength int) string {
	const scheme = "mailto:"

	var b strings.Builder
	b.WriteString(scheme)
	for i, email := range emails {
		extra := len(email)
		if i > 0 {
			extra++ // joining comma
		}
		if maxLength > 0 && b.Len()+extra > maxLength {
			break
		}
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(email)
	}

	return b.String()
}

// fileNameSlug reduces a location name to a safe file name fragment.
func fileNameSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}
