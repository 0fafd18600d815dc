package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkin/pkg/domain"
	"checkin/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	exportsTable = "report_exports"
)

func (p *PgSQL) StoreExports(ctx context.Context, exports ...domain.ReportExport) ([]domain.ReportExport, error) {
	if len(exports) == 0 {
		return nil, nil
	}

	pgExports, err := domainExportsToPg(exports)
	if err != nil {
		return nil, err
	}

	var result []PgExport
	if err := p.Builder.Insert(exportsTable).
		Rows(pgExports).
		Returning(&PgExport{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store exports into pg: %w", err)
	}

	return pgExportsToDomain(result)
}

func (p *PgSQL) ExportByID(ctx context.Context, id domain.ExportID) (*domain.ReportExport, error) {
	var row PgExport
	found, err := p.Builder.From(exportsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch export by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// UpdateExportByID applies the provided field set to a single export.
// Attempts is incremented by 1 and updated_at is set automatically. If Status
// is Failed and MaxAttempts > 0, status is only set to Failed when the
// attempts after increment would exceed MaxAttempts; otherwise status remains
// unchanged (i.e. stays Pending for another worker retry).
func (p *PgSQL) UpdateExportByID(ctx context.Context,
	id domain.ExportID,
	updates storage.ExportUpdates) (*domain.ReportExport, error) {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		"attempts":   goqu.L("attempts + 1"),
	}
	if updates.Status == domain.ExportStatusFailed && updates.MaxAttempts > 0 {
		rec["status"] = goqu.L("CASE WHEN attempts + 1 >= ? THEN ? ELSE status END",
			updates.MaxAttempts, string(domain.ExportStatusFailed))
	} else if updates.Status != "" {
		rec["status"] = string(updates.Status)
	}
	if updates.Report != nil {
		b, err := json.Marshal(updates.Report)
		if err != nil {
			return nil, fmt.Errorf("could not marshal report: %w", err)
		}

		rec["report"] = b
	}
	if updates.LastError != nil {
		if *updates.LastError == "" {
			// set to NULL when empty string provided
			rec["last_error"] = goqu.L("NULL")
		} else {
			rec["last_error"] = *updates.LastError
		}
	}

	var row PgExport
	found, err := p.Builder.Update(exportsTable).
		Set(rec).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Returning(&PgExport{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update export in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// Exports returns a page of exports created before the optional cursor time,
// newest first. One extra row is fetched to decide whether a next page exists.
func (p *PgSQL) Exports(ctx context.Context, cursor time.Time, limit uint) (storage.ExportPage, error) {
	w := []goqu.Expression{}
	if !cursor.IsZero() {
		w = append(w, goqu.I("created_at").Lt(cursor))
	}

	fetch := limit + 1
	ds := p.Builder.From(exportsTable).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(fetch)

	var rows []PgExport
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.ExportPage{}, fmt.Errorf("could not fetch exports from pg: %w", err)
	}

	var nextCursor *time.Time
	if uint(len(rows)) > limit {
		trimmed := rows[:limit]
		nextCursor = &trimmed[len(trimmed)-1].CreatedAt
		rows = trimmed
	}

	domainRows, err := pgExportsToDomain(rows)
	if err != nil {
		return storage.ExportPage{}, err
	}

	return storage.ExportPage{
		Exports:    domainRows,
		NextCursor: nextCursor,
	}, nil
}
