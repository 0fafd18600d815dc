package v1handler

import (
	"net/http"
	"time"

	"checkin/pkg/domain"
	"checkin/pkg/serrors"

	"github.com/gin-gonic/gin"
)

// ReportRequest is the payload for generating an exposure report, bounds in
// millisecond epoch.
type ReportRequest struct {
	ReportedEmail string `json:"reportedEmail" binding:"required"`
	From          int64  `json:"from" binding:"required"`
	To            int64  `json:"to" binding:"required"`
}

// GenerateReport computes an exposure report synchronously.
func (h *Handler) GenerateReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	result, err := h.deps.Report.Generate(c.Request.Context(), req.ReportedEmail,
		time.UnixMilli(req.From).UTC(), time.UnixMilli(req.To).UTC())
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateReportExport enqueues an asynchronous exposure report.
func (h *Handler) CreateReportExport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	export, err := h.deps.Report.EnqueueExport(c.Request.Context(), req.ReportedEmail,
		time.UnixMilli(req.From).UTC(), time.UnixMilli(req.To).UTC())
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusAccepted, export)
}

// GetReportExport fetches an export by ID.
func (h *Handler) GetReportExport(c *gin.Context) {
	id, err := domain.ParseExportID(c.Param("id"))
	if err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid export ID"))

		return
	}

	export, err := h.deps.Report.Export(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, export)
}

// ListReportExports returns a page of exports, newest first, with an optional
// RFC3339 cursor.
func (h *Handler) ListReportExports(c *gin.Context) {
	var query struct {
		Cursor string `form:"cursor"`
		Limit  uint   `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid query parameters"))

		return
	}
	if query.Limit == 0 {
		query.Limit = DefaultLimit
	}

	exports, next, err := h.deps.Report.Exports(c.Request.Context(), query.Cursor, query.Limit)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": exports, "nextCursor": next})
}
