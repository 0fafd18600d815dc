package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"checkin/pkg/domain"
)

func TestTimeRange_Contains(t *testing.T) {
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)
	r := domain.TimeRange{From: from, To: to}

	cases := map[string]struct {
		at   time.Time
		want bool
	}{
		"before start":       {from.Add(-time.Second), false},
		"at start":           {from, true},
		"inside":             {from.Add(time.Hour), true},
		"just before end":    {to.Add(-time.Second), true},
		"at end is excluded": {to, false},
		"after end":          {to.Add(time.Second), false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := r.Contains(tc.at); got != tc.want {
				t.Fatalf("Contains(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestTimeRange_Overlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := domain.TimeRange{From: base, To: base.Add(2 * time.Hour)}

	cases := map[string]struct {
		other domain.TimeRange
		want  bool
	}{
		"identical": {r, true},
		"contained": {
			domain.TimeRange{From: base.Add(time.Minute), To: base.Add(time.Hour)}, true,
		},
		"partial overlap": {
			domain.TimeRange{From: base.Add(time.Hour), To: base.Add(3 * time.Hour)}, true,
		},
		"abutting after does not overlap": {
			domain.TimeRange{From: base.Add(2 * time.Hour), To: base.Add(3 * time.Hour)}, false,
		},
		"abutting before does not overlap": {
			domain.TimeRange{From: base.Add(-time.Hour), To: base}, false,
		},
		"disjoint": {
			domain.TimeRange{From: base.Add(5 * time.Hour), To: base.Add(6 * time.Hour)}, false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := r.Overlaps(tc.other); got != tc.want {
				t.Fatalf("Overlaps(%v) = %v, want %v", tc.other, got, tc.want)
			}
			// symmetry
			if got := tc.other.Overlaps(r); got != tc.want {
				t.Fatalf("reverse Overlaps(%v) = %v, want %v", tc.other, got, tc.want)
			}
		})
	}
}

func TestTimeRange_Validate(t *testing.T) {
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := (domain.TimeRange{From: from, To: from.Add(time.Hour)}).Validate(); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}
	if err := (domain.TimeRange{From: from, To: from}).Validate(); err == nil {
		t.Fatal("empty range accepted")
	}
	if err := (domain.TimeRange{From: from.Add(time.Hour), To: from}).Validate(); err == nil {
		t.Fatal("inverted range accepted")
	}
}

func TestTimeRange_JSONWire(t *testing.T) {
	r := domain.NewTimeRange(1767225600000, 1767312000000)

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("could not marshal: %v", err)
	}
	if got, want := string(b), `{"from":1767225600000,"to":1767312000000}`; got != want {
		t.Fatalf("marshal = %s, want %s", got, want)
	}

	var back domain.TimeRange
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("could not unmarshal: %v", err)
	}
	if !back.From.Equal(r.From) || !back.To.Equal(r.To) {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", back, r)
	}
}

func TestValidateWindows(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	window := func(startHour, endHour int) domain.TimeRange {
		return domain.TimeRange{
			From: base.Add(time.Duration(startHour) * time.Hour),
			To:   base.Add(time.Duration(endHour) * time.Hour),
		}
	}

	cases := map[string]struct {
		windows []domain.TimeRange
		wantErr bool
	}{
		"empty":              {nil, false},
		"single":             {[]domain.TimeRange{window(0, 2)}, false},
		"sorted disjoint":    {[]domain.TimeRange{window(0, 2), window(3, 5)}, false},
		"abutting":           {[]domain.TimeRange{window(0, 2), window(2, 4)}, false},
		"inverted window":    {[]domain.TimeRange{window(2, 0)}, true},
		"unsorted":           {[]domain.TimeRange{window(3, 5), window(0, 2)}, true},
		"overlapping":        {[]domain.TimeRange{window(0, 3), window(2, 5)}, true},
		"overlap after gap":  {[]domain.TimeRange{window(0, 1), window(2, 6), window(5, 7)}, true},
		"duplicated windows": {[]domain.TimeRange{window(0, 2), window(0, 2)}, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := domain.ValidateWindows(tc.windows)
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
