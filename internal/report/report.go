// Package report implements the exposure report engine: given a reported
// (infectious) user and a date window, it walks that user's check-ins,
// widens each one to an exposure window and collects every other visitor of
// the same locations during those windows.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"checkin/internal/access"
	"checkin/internal/config"
	"checkin/pkg/domain"
	"checkin/pkg/metrics"
	"checkin/pkg/serrors"
	"checkin/pkg/storage"
)

const dateLayout = "2006-01-02"

// Options configure how exposure windows are derived and how exports are
// processed.
type Options struct {
	// ExposurePadding widens the exposure window around a reported
	// check-in: the window is the check-in's UTC calendar day extended by
	// this duration on both sides. Zero means the calendar day only.
	ExposurePadding time.Duration
	// MaxMailtoLength caps the generated mailto: link. When the full
	// recipient list does not fit, the link is truncated at an email
	// boundary and the CSV remains the authoritative list.
	MaxMailtoLength int
	// ExportMaxAttempts is the number of times the background worker
	// retries an export before marking it failed.
	ExportMaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		ExposurePadding:   cfg.Report.ExposurePadding,
		MaxMailtoLength:   cfg.Report.MaxMailtoLength,
		ExportMaxAttempts: cfg.Report.ExportMaxAttempts,
	}
}

type service struct {
	options Options
	storage storage.Storage
	metrics *metrics.Metrics

	now func() time.Time
}

// New creates a report engine backed by the provided storage.
func New(strg storage.Storage, options Options, m *metrics.Metrics) Report {
	return &service{
		options: options,
		storage: strg,
		metrics: m,
		now:     time.Now,
	}
}

// exposureKey identifies one (location, exposure day) pair so repeat visits
// on the same day do not trigger duplicate scans.
type exposureKey struct {
	location domain.LocationID
	day      time.Time
}

func (s *service) Generate(ctx context.Context,
	reportedEmail string,
	start, end time.Time) (*domain.ExposureReport, error) {
	began := s.now()

	reportedEmail = strings.ToLower(strings.TrimSpace(reportedEmail))
	if !access.ValidEmail(reportedEmail) {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid reported email")
	}
	if !start.Before(end) {
		return nil, serrors.With(serrors.ErrBadRequest, "start date must be before end date")
	}

	visits, err := s.storage.CheckInsByEmail(ctx, reportedEmail, domain.TimeRange{From: start, To: end})
	if err != nil {
		return nil, fmt.Errorf("could not fetch reported user's check-ins: %w", err)
	}

	locationNames := make(map[domain.LocationID]string)
	scanned := make(map[exposureKey]struct{})
	impactedSeen := make(map[string]struct{})
	var impacted []string
	rowSeen := make(map[domain.UserLocation]struct{})
	var rows []domain.UserLocation

	// visits arrive in time order, so impacted emails accumulate in a
	// deterministic first-seen order.
	for _, visit := range visits {
		day := visit.Timestamp.UTC().Truncate(24 * time.Hour)
		key := exposureKey{location: visit.LocationID, day: day}
		if _, ok := scanned[key]; ok {
			continue
		}
		scanned[key] = struct{}{}

		name, err := s.locationName(ctx, locationNames, visit.LocationID)
		if err != nil {
			return nil, err
		}

		window := domain.TimeRange{
			From: day.Add(-s.options.ExposurePadding),
			To:   day.Add(24*time.Hour + s.options.ExposurePadding),
		}
		emails, err := s.storage.EmailsAtLocation(ctx, visit.LocationID, window)
		if err != nil {
			return nil, fmt.Errorf("could not fetch emails at location: %w", err)
		}

		for _, email := range emails {
			if email == reportedEmail {
				continue
			}
			if _, ok := impactedSeen[email]; !ok {
				impactedSeen[email] = struct{}{}
				impacted = append(impacted, email)
			}
			row := domain.UserLocation{
				Email:        email,
				Date:         day.Format(dateLayout),
				LocationName: name,
			}
			if _, ok := rowSeen[row]; !ok {
				rowSeen[row] = struct{}{}
				rows = append(rows, row)
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		if rows[i].LocationName != rows[j].LocationName {
			return rows[i].LocationName < rows[j].LocationName
		}

		return rows[i].Email < rows[j].Email
	})

	startDate := start.UTC().Format(dateLayout)
	endDate := end.UTC().Format(dateLayout)

	result := &domain.ExposureReport{
		ImpactedUsersCount:               len(impacted),
		ImpactedUsersMailtoLink:          mailtoLink(impacted, s.options.MaxMailtoLength),
		ImpactedUsersEmailsCsv:           strings.Join(impacted, "\n"),
		ImpactedUsersEmailsCsvFileName:   fmt.Sprintf("impacted_users_emails_%s_%s.csv", startDate, endDate),
		ReportedUserLocations:            rows,
		ReportedUserLocationsCsv:         userLocationsCsv(rows),
		ReportedUserLocationsCsvFileName: fmt.Sprintf("reported_user_locations_%s_%s.csv", startDate, endDate),
		StartDate:                        startDate,
		EndDate:                          endDate,
	}

	s.metrics.RecordReport(ctx, s.now().Sub(began).Seconds())

	return result, nil
}

func (s *service) locationName(ctx context.Context,
	cache map[domain.LocationID]string,
	id domain.LocationID) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}

	location, err := s.storage.LocationByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("could not fetch location: %w", err)
	}

	// a deleted location leaves its check-ins behind; fall back to the raw ID
	name := id.String()
	if location != nil {
		name = location.Name
	}
	cache[id] = name

	return name, nil
}

func (s *service) LocationVisits(ctx context.Context,
	locationID domain.LocationID,
	window domain.TimeRange) (*domain.LocationVisits, error) {
	if err := window.Validate(); err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid time range")
	}

	location, err := s.storage.LocationByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch location: %w", err)
	}
	if location == nil {
		return nil, serrors.With(serrors.ErrNotFound, "location not found")
	}

	visits, err := s.storage.CheckInsAtLocation(ctx, locationID, window)
	if err != nil {
		return nil, fmt.Errorf("could not fetch check-ins: %w", err)
	}

	return &domain.LocationVisits{
		Csv: visitsCsv(visits),
		CsvFileName: fmt.Sprintf("location_visits_%s_%s_%s.csv",
			fileNameSlug(location.Name),
			window.From.UTC().Format(dateLayout),
			window.To.UTC().Format(dateLayout)),
	}, nil
}

func (s *service) EnqueueExport(ctx context.Context,
	reportedEmail string,
	start, end time.Time) (*domain.ReportExport, error) {
	reportedEmail = strings.ToLower(strings.TrimSpace(reportedEmail))
	if !access.ValidEmail(reportedEmail) {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid reported email")
	}
	if !start.Before(end) {
		return nil, serrors.With(serrors.ErrBadRequest, "start date must be before end date")
	}

	var export *domain.ReportExport
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		res, err := tx.StoreExports(ctx, domain.ReportExport{
			ReportedEmail: reportedEmail,
			Window:        domain.TimeRange{From: start, To: end},
			Status:        domain.ExportStatusPending,
		})
		if err != nil {
			return fmt.Errorf("could not store export: %w", err)
		}
		export = &res[0]

		if _, err := tx.AddJob(ctx, JobArgs{
			ExportID:    export.ID,
			maxAttempts: s.options.ExportMaxAttempts,
		}, nil); err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not enqueue export: %w", err)
	}

	return export, nil
}

func (s *service) Export(ctx context.Context, id domain.ExportID) (*domain.ReportExport, error) {
	export, err := s.storage.ExportByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not fetch export: %w", err)
	}
	if export == nil {
		return nil, serrors.With(serrors.ErrNotFound, "export not found")
	}

	return export, nil
}

func (s *service) Exports(ctx context.Context, cursor string, limit uint) ([]domain.ReportExport, string, error) {
	var cursorTime time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
		}
		cursorTime = t
	}

	page, err := s.storage.Exports(ctx, cursorTime, limit)
	if err != nil {
		return nil, "", fmt.Errorf("could not fetch exports: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = page.NextCursor.Format(time.RFC3339Nano)
	}

	return page.Exports, next, nil
}

func (s *service) ProcessExport(ctx context.Context, id domain.ExportID) error {
	export, err := s.storage.ExportByID(ctx, id)
	if err != nil {
		return fmt.Errorf("could not fetch export: %w", err)
	}
	if export == nil {
		// the export row is gone, retrying will never succeed
		return serrors.With(serrors.ErrConflict, "export not found")
	}
	if export.Status == domain.ExportStatusCompleted {
		return nil
	}

	result, err := s.Generate(ctx, export.ReportedEmail, export.Window.From, export.Window.To)
	if err != nil {
		message := err.Error()
		if _, uerr := s.storage.UpdateExportByID(ctx, id, storage.ExportUpdates{
			Status:      domain.ExportStatusFailed,
			LastError:   &message,
			MaxAttempts: s.options.ExportMaxAttempts,
		}); uerr != nil {
			return fmt.Errorf("could not record export failure: %w", uerr)
		}

		return fmt.Errorf("could not generate report: %w", err)
	}

	noError := ""
	if _, err := s.storage.UpdateExportByID(ctx, id, storage.ExportUpdates{
		Status:    domain.ExportStatusCompleted,
		Report:    result,
		LastError: &noError,
	}); err != nil {
		return fmt.Errorf("could not store export result: %w", err)
	}

	return nil
}
