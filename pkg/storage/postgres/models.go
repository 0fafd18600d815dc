package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"checkin/pkg/domain"

	"github.com/google/uuid"
)

// PgLocation mirrors a row of the locations table.
type PgLocation struct {
	ID         uuid.UUID `db:"id"          goqu:"skipinsert"`
	Name       string    `db:"name"`
	AccessType string    `db:"access_type"`

	CheckInCount int64 `db:"check_in_count" goqu:"skipinsert,skipupdate"`

	CreatedAt time.Time `db:"created_at" goqu:"skipinsert"`
}

func (p *PgLocation) ToDomain() *domain.Location {
	return &domain.Location{
		ID:           domain.LocationID(p.ID),
		Name:         p.Name,
		AccessType:   domain.AccessType(p.AccessType),
		CheckInCount: p.CheckInCount,
		CreatedAt:    p.CreatedAt,
	}
}

func (p *PgLocation) FromDomain(location domain.Location) {
	*p = PgLocation{
		ID:         uuid.UUID(location.ID),
		Name:       location.Name,
		AccessType: string(location.AccessType),
		CreatedAt:  location.CreatedAt,
	}
}

// PgGrant mirrors a row of the access_grants table. AllowedEmails and Windows
// are stored as jsonb; windows use the millisecond epoch wire shape of
// domain.TimeRange.
type PgGrant struct {
	ID         uuid.UUID `db:"id"          goqu:"skipinsert"`
	LocationID uuid.UUID `db:"location_id"`

	AllowedEmails json.RawMessage `db:"allowed_emails"`
	Windows       json.RawMessage `db:"windows"`

	Note   string `db:"note"`
	Reason string `db:"reason"`

	Version int64 `db:"version" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
}

func (p *PgGrant) ToDomain() (*domain.AccessGrant, error) {
	var emails []string
	if err := json.Unmarshal(p.AllowedEmails, &emails); err != nil {
		return nil, fmt.Errorf("could not unmarshal allowed emails: %w", err)
	}

	var windows []domain.TimeRange
	if err := json.Unmarshal(p.Windows, &windows); err != nil {
		return nil, fmt.Errorf("could not unmarshal windows: %w", err)
	}

	return &domain.AccessGrant{
		ID:            domain.GrantID(p.ID),
		LocationID:    domain.LocationID(p.LocationID),
		AllowedEmails: emails,
		Windows:       windows,
		Note:          p.Note,
		Reason:        p.Reason,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt.Time,
	}, nil
}

func (p *PgGrant) FromDomain(grant domain.AccessGrant) error {
	emails, err := json.Marshal(grant.AllowedEmails)
	if err != nil {
		return fmt.Errorf("could not marshal allowed emails: %w", err)
	}

	windows, err := json.Marshal(grant.Windows)
	if err != nil {
		return fmt.Errorf("could not marshal windows: %w", err)
	}

	*p = PgGrant{
		ID:            uuid.UUID(grant.ID),
		LocationID:    uuid.UUID(grant.LocationID),
		AllowedEmails: emails,
		Windows:       windows,
		Note:          grant.Note,
		Reason:        grant.Reason,
		Version:       grant.Version,
		CreatedAt:     grant.CreatedAt,
		UpdatedAt: sql.NullTime{
			Time:  grant.UpdatedAt,
			Valid: !grant.UpdatedAt.IsZero(),
		},
	}

	return nil
}

func domainGrantsToPg(grants []domain.AccessGrant) ([]PgGrant, error) {
	out := make([]PgGrant, len(grants))
	for i := range out {
		if err := out[i].FromDomain(grants[i]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func pgGrantsToDomain(grants []PgGrant) ([]domain.AccessGrant, error) {
	out := make([]domain.AccessGrant, 0, len(grants))
	for _, grant := range grants {
		d, err := grant.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}

// PgCheckIn mirrors a row of the check_ins table.
type PgCheckIn struct {
	ID         int64     `db:"id" goqu:"skipinsert"`
	Email      string    `db:"email"`
	LocationID uuid.UUID `db:"location_id"`
	Timestamp  time.Time `db:"timestamp"`
}

func (p *PgCheckIn) ToDomain() *domain.CheckIn {
	return &domain.CheckIn{
		Email:      p.Email,
		LocationID: domain.LocationID(p.LocationID),
		Timestamp:  p.Timestamp,
	}
}

func (p *PgCheckIn) FromDomain(checkIn domain.CheckIn) {
	*p = PgCheckIn{
		Email:      checkIn.Email,
		LocationID: uuid.UUID(checkIn.LocationID),
		Timestamp:  checkIn.Timestamp,
	}
}

// PgExport mirrors a row of the report_exports table. The rendered report is
// stored as jsonb once the worker completes the export.
type PgExport struct {
	ID uuid.UUID `db:"id" goqu:"skipinsert"`

	ReportedEmail string    `db:"reported_email"`
	StartAt       time.Time `db:"start_at"`
	EndAt         time.Time `db:"end_at"`

	Status string          `db:"status"`
	Report json.RawMessage `db:"report" goqu:"skipinsert"`

	Attempts  uint           `db:"attempts"   goqu:"skipinsert"`
	LastError sql.NullString `db:"last_error" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
}

func (p *PgExport) ToDomain() (*domain.ReportExport, error) {
	var report *domain.ExposureReport
	if len(p.Report) > 0 {
		report = &domain.ExposureReport{}
		if err := json.Unmarshal(p.Report, report); err != nil {
			return nil, fmt.Errorf("could not unmarshal export report: %w", err)
		}
	}

	return &domain.ReportExport{
		ID:            domain.ExportID(p.ID),
		ReportedEmail: p.ReportedEmail,
		Window:        domain.TimeRange{From: p.StartAt, To: p.EndAt},
		Status:        domain.ExportStatus(p.Status),
		Report:        report,
		Attempts:      p.Attempts,
		LastError:     p.LastError.String,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt.Time,
	}, nil
}

func (p *PgExport) FromDomain(export domain.ReportExport) error {
	var report json.RawMessage
	if export.Report != nil {
		b, err := json.Marshal(export.Report)
		if err != nil {
			return fmt.Errorf("could not marshal export report: %w", err)
		}
		report = b
	}

	*p = PgExport{
		ID:            uuid.UUID(export.ID),
		ReportedEmail: export.ReportedEmail,
		StartAt:       export.Window.From,
		EndAt:         export.Window.To,
		Status:        string(export.Status),
		Report:        report,
		Attempts:      export.Attempts,
		LastError: sql.NullString{
			String: export.LastError,
			Valid:  export.LastError != "",
		},
		CreatedAt: export.CreatedAt,
		UpdatedAt: sql.NullTime{
			Time:  export.UpdatedAt,
			Valid: !export.UpdatedAt.IsZero(),
		},
	}

	return nil
}

func domainExportsToPg(exports []domain.ReportExport) ([]PgExport, error) {
	out := make([]PgExport, len(exports))
	for i := range out {
		if err := out[i].FromDomain(exports[i]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func pgExportsToDomain(exports []PgExport) ([]domain.ReportExport, error) {
	out := make([]domain.ReportExport, 0, len(exports))
	for _, export := range exports {
		d, err := export.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}
