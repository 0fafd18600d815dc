package v1handler

import (
	"net/http"

	"checkin/pkg/domain"
	"checkin/pkg/serrors"

	"github.com/gin-gonic/gin"
)

// CreateLocationRequest is the payload for registering a location.
type CreateLocationRequest struct {
	Name       string            `json:"name" binding:"required"`
	AccessType domain.AccessType `json:"accessType" binding:"required"`
}

// CreateLocation registers a new location.
func (h *Handler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	location, err := h.deps.Access.CreateLocation(c.Request.Context(), req.Name, req.AccessType)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, location)
}

// ListLocations returns all locations with their check-in counts.
func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.deps.Access.Locations(c.Request.Context())
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": locations})
}

// LocationVisits renders the location's check-ins inside [from, to) as a CSV
// export. Bounds are millisecond epoch query parameters.
func (h *Handler) LocationVisits(c *gin.Context) {
	id, err := domain.ParseLocationID(c.Param("id"))
	if err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid location ID"))

		return
	}

	var query struct {
		From int64 `form:"from" binding:"required"`
		To   int64 `form:"to" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid query parameters"))

		return
	}

	visits, err := h.deps.Report.LocationVisits(c.Request.Context(), id, domain.NewTimeRange(query.From, query.To))
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, visits)
}
