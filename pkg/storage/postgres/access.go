package postgres

import (
	"context"
	"fmt"

	"checkin/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	grantsTable = "access_grants"
)

func (p *PgSQL) StoreGrants(ctx context.Context, grants ...domain.AccessGrant) ([]domain.AccessGrant, error) {
	if len(grants) == 0 {
		return nil, nil
	}

	pgGrants, err := domainGrantsToPg(grants)
	if err != nil {
		return nil, err
	}

	var result []PgGrant
	if err := p.Builder.Insert(grantsTable).
		Rows(pgGrants).
		Returning(&PgGrant{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store grants into pg: %w", err)
	}

	return pgGrantsToDomain(result)
}

func (p *PgSQL) GrantByID(ctx context.Context, id domain.GrantID) (*domain.AccessGrant, error) {
	var row PgGrant
	found, err := p.Builder.From(grantsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch grant by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// GrantsByLocation serves the evaluator's hot path; it relies on the
// access_grants_location_id_created_at_idx index so a check-in attempt only
// touches the grants of the attempted location.
func (p *PgSQL) GrantsByLocation(ctx context.Context, locationID domain.LocationID) ([]domain.AccessGrant, error) {
	var rows []PgGrant
	if err := p.Builder.From(grantsTable).
		Where(goqu.I("location_id").Eq(uuid.UUID(locationID))).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch grants by location from pg: %w", err)
	}

	return pgGrantsToDomain(rows)
}

// UpdateGrant writes the merged record guarded by optimistic versioning: the
// row is only touched when its version still equals expectedVersion, and the
// version is incremented in the same statement. A nil result means no row
// matched, i.e. the grant is gone or the caller's version is stale.
func (p *PgSQL) UpdateGrant(ctx context.Context,
	id domain.GrantID,
	expectedVersion int64,
	grant domain.AccessGrant) (*domain.AccessGrant, error) {
	var pgGrant PgGrant
	if err := pgGrant.FromDomain(grant); err != nil {
		return nil, err
	}

	var row PgGrant
	found, err := p.Builder.Update(grantsTable).
		Set(goqu.Record{
			"location_id":    pgGrant.LocationID,
			"allowed_emails": pgGrant.AllowedEmails,
			"windows":        pgGrant.Windows,
			"note":           pgGrant.Note,
			"reason":         pgGrant.Reason,
			"version":        goqu.L("version + 1"),
			"updated_at":     goqu.L("CURRENT_TIMESTAMP"),
		}).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("version").Eq(expectedVersion),
	).Returning(&PgGrant{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update grant in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

func (p *PgSQL) DeleteGrant(ctx context.Context, id domain.GrantID) (bool, error) {
	res, err := p.Builder.Delete(grantsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("could not delete grant in pg: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not read affected rows: %w", err)
	}

	return affected > 0, nil
}
