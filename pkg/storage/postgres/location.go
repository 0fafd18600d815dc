package postgres

import (
	"context"
	"fmt"

	"checkin/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	locationsTable = "locations"
	checkInsTable  = "check_ins"
)

func (p *PgSQL) StoreLocations(ctx context.Context, locations ...domain.Location) ([]domain.Location, error) {
	if len(locations) == 0 {
		return nil, nil
	}

	rows := make([]PgLocation, len(locations))
	for i := range rows {
		rows[i].FromDomain(locations[i])
	}

	var result []PgLocation
	if err := p.Builder.Insert(locationsTable).
		Rows(rows).
		Returning(&PgLocation{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store locations into pg: %w", err)
	}

	out := make([]domain.Location, 0, len(result))
	for i := range result {
		out = append(out, *result[i].ToDomain())
	}

	return out, nil
}

func (p *PgSQL) LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error) {
	var row PgLocation
	found, err := p.Builder.From(locationsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch location by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// Locations returns every location with its total check-in count, ordered by
// name. The count is computed with a correlated subquery so the check-in log
// is never materialized.
func (p *PgSQL) Locations(ctx context.Context) ([]domain.Location, error) {
	ds := p.Builder.From(goqu.T(locationsTable).As("l")).
		Select(
			goqu.I("l.id"),
			goqu.I("l.name"),
			goqu.I("l.access_type"),
			goqu.I("l.created_at"),
			goqu.L("(SELECT COUNT(*) FROM check_ins c WHERE c.location_id = l.id)").As("check_in_count"),
		).
		Order(goqu.I("l.name").Asc())

	var rows []PgLocation
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch locations from pg: %w", err)
	}

	out := make([]domain.Location, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}

	return out, nil
}
