package worker

import (
	"context"
	"errors"
	"fmt"

	"checkin/internal/report"
	"checkin/pkg/logger"
	"checkin/pkg/serrors"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// ReportExportWorker is a River worker that computes queued exposure report
// exports. The report engine owns the attempt accounting and the final
// failed/completed state; the worker only maps errors to River actions.
type ReportExportWorker struct {
	river.WorkerDefaults[report.JobArgs]

	report report.Report
}

// NewReportExportWorker constructs a ReportExportWorker using the provided
// report engine.
func NewReportExportWorker(reportSvc report.Report) *ReportExportWorker {
	return &ReportExportWorker{
		report: reportSvc,
	}
}

// Work processes a single export job. A conflict means the export row is gone
// or already terminal, so the job is canceled instead of retried.
func (w *ReportExportWorker) Work(ctx context.Context, job *river.Job[report.JobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.String("exportID", job.Args.ExportID.String()))

	if err := w.report.ProcessExport(ctx, job.Args.ExportID); err != nil {
		if errors.Is(err, serrors.ErrConflict) {
			return river.JobCancel(err) //nolint: wrapcheck
		}

		logger.Error(ctx, "error processing report export", zap.Error(err))

		return fmt.Errorf("could not process report export: %w", err)
	}

	logger.Info(ctx, "report export processed")

	return nil
}
