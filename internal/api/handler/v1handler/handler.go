// Package v1handler implements the v1 HTTP handlers on top of gin. Handlers
// translate between JSON payloads and the domain services; all business rules
// live in the services.
package v1handler

import (
	"errors"
	"net/http"

	"checkin/internal/access"
	"checkin/internal/checkin"
	"checkin/internal/report"
	"checkin/pkg/logger"
	"checkin/pkg/serrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultLimit is the page size used when a list request does not specify one.
const DefaultLimit = 20

// Deps groups the services the handlers delegate to.
type Deps struct {
	// Access manages locations, grants and access evaluation.
	Access access.Access
	// CheckIn records visits.
	CheckIn checkin.Service
	// Report generates exposure reports and manages exports.
	Report report.Report
}

// Handler carries the service dependencies for all v1 endpoints.
type Handler struct {
	deps Deps
}

// New builds the v1 API as an http.Handler. Visitor-facing check-in is open;
// every moderator endpoint sits behind bearer authentication.
func New(deps Deps, sec *SecOptions) (http.Handler, error) {
	h := &Handler{deps: deps}

	auth, err := newAuthMiddleware(sec)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")

	// visitor-facing
	v1.POST("/check-ins", h.CreateCheckIn)

	// moderator endpoints
	mod := v1.Group("", auth)
	mod.POST("/locations", h.CreateLocation)
	mod.GET("/locations", h.ListLocations)
	mod.GET("/locations/:id/access-grants", h.ListGrantsByLocation)
	mod.GET("/locations/:id/visits", h.LocationVisits)

	mod.POST("/access-grants", h.CreateGrant)
	mod.GET("/access-grants/:id", h.GetGrant)
	mod.PATCH("/access-grants/:id", h.EditGrant)
	mod.DELETE("/access-grants/:id", h.DeleteGrant)

	mod.GET("/access-checks", h.CheckAccess)

	mod.POST("/reports", h.GenerateReport)
	mod.POST("/report-exports", h.CreateReportExport)
	mod.GET("/report-exports", h.ListReportExports)
	mod.GET("/report-exports/:id", h.GetReportExport)

	return router, nil
}

// respondError maps the semantic error taxonomy onto HTTP statuses. Internal
// errors are logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, serrors.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, serrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, serrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, serrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, serrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "internal error", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
