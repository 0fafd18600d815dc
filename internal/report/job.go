package report

import (
	"github.com/riverqueue/river"

	"checkin/pkg/domain"
)

// JobArgs contains the arguments for a report export job submitted to River.
// Each export row gets exactly one job, keyed by its ID.
type JobArgs struct {
	// ExportID references the report_exports row the worker should process.
	ExportID domain.ExportID `json:"exportId"`

	// maxAttempts configures the maximum number of times River should retry
	// the job before giving up.
	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the export
// worker.
func (args JobArgs) Kind() string { return "ReportExportJob" }

// InsertOpts returns the River options that control how the job is enqueued.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
	}
}
