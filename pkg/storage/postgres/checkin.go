package postgres

import (
	"context"
	"fmt"

	"checkin/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

func (p *PgSQL) StoreCheckIns(ctx context.Context, checkIns ...domain.CheckIn) error {
	if len(checkIns) == 0 {
		return nil
	}

	rows := make([]PgCheckIn, len(checkIns))
	for i := range rows {
		rows[i].FromDomain(checkIns[i])
	}

	if _, err := p.Builder.Insert(checkInsTable).
		Rows(rows).
		Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not store check-ins into pg: %w", err)
	}

	return nil
}

func (p *PgSQL) CheckInsByEmail(ctx context.Context,
	email string,
	window domain.TimeRange) ([]domain.CheckIn, error) {
	var rows []PgCheckIn
	if err := p.Builder.From(checkInsTable).
		Where(
			goqu.I("email").Eq(email),
			goqu.I("timestamp").Gte(window.From),
			goqu.I("timestamp").Lt(window.To),
		).
		Order(goqu.I("timestamp").Asc(), goqu.I("id").Asc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch check-ins by email from pg: %w", err)
	}

	out := make([]domain.CheckIn, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}

	return out, nil
}

// EmailsAtLocation pushes the DISTINCT into the database so report generation
// over a large log only transfers the deduplicated email set.
func (p *PgSQL) EmailsAtLocation(ctx context.Context,
	locationID domain.LocationID,
	window domain.TimeRange) ([]string, error) {
	var emails []string
	if err := p.Builder.From(checkInsTable).
		Select(goqu.I("email")).
		Distinct().
		Where(
			goqu.I("location_id").Eq(uuid.UUID(locationID)),
			goqu.I("timestamp").Gte(window.From),
			goqu.I("timestamp").Lt(window.To),
		).
		Order(goqu.I("email").Asc()).
		Executor().ScanValsContext(ctx, &emails); err != nil {
		return nil, fmt.Errorf("could not fetch emails at location from pg: %w", err)
	}

	return emails, nil
}

func (p *PgSQL) CheckInsAtLocation(ctx context.Context,
	locationID domain.LocationID,
	window domain.TimeRange) ([]domain.CheckIn, error) {
	var rows []PgCheckIn
	if err := p.Builder.From(checkInsTable).
		Where(
			goqu.I("location_id").Eq(uuid.UUID(locationID)),
			goqu.I("timestamp").Gte(window.From),
			goqu.I("timestamp").Lt(window.To),
		).
		Order(goqu.I("timestamp").Asc(), goqu.I("id").Asc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch check-ins at location from pg: %w", err)
	}

	out := make([]domain.CheckIn, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}

	return out, nil
}
