package v1handler

import (
	"net/http"
	"time"

	"checkin/internal/access"
	"checkin/pkg/domain"
	"checkin/pkg/serrors"

	"github.com/gin-gonic/gin"
)

// CreateGrantRequest is the payload for creating an access grant. Windows use
// the millisecond-epoch wire form of TimeRange.
type CreateGrantRequest struct {
	LocationID    domain.LocationID  `json:"locationId" binding:"required"`
	AllowedEmails []string           `json:"allowedEmails"`
	DateRanges    []domain.TimeRange `json:"dateRanges"`
	Note          string             `json:"note"`
	Reason        string             `json:"reason"`
}

// EditGrantRequest is the payload for a partial grant edit. Absent fields are
// left unchanged; Version is the optimistic concurrency token from the last
// read.
type EditGrantRequest struct {
	LocationID    *domain.LocationID  `json:"locationId"`
	AllowedEmails *[]string           `json:"allowedEmails"`
	DateRanges    *[]domain.TimeRange `json:"dateRanges"`
	Note          *string             `json:"note"`
	Reason        *string             `json:"reason"`

	Version int64 `json:"version" binding:"required"`
}

// CreateGrant creates a new access grant.
func (h *Handler) CreateGrant(c *gin.Context) {
	var req CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	grant, err := h.deps.Access.Create(c.Request.Context(), access.NewGrant{
		LocationID:    req.LocationID,
		AllowedEmails: req.AllowedEmails,
		Windows:       req.DateRanges,
		Note:          req.Note,
		Reason:        req.Reason,
	})
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, grant)
}

// GetGrant fetches a grant by ID.
func (h *Handler) GetGrant(c *gin.Context) {
	id, err := domain.ParseGrantID(c.Param("id"))
	if err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid grant ID"))

		return
	}

	grant, err := h.deps.Access.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, grant)
}

// EditGrant applies a partial update to a grant.
func (h *Handler) EditGrant(c *gin.Context) {
	id, err := domain.ParseGrantID(c.Param("id"))
	if err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid grant ID"))

		return
	}

	var req EditGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	grant, err := h.deps.Access.Edit(c.Request.Context(), id, req.Version, access.GrantUpdates{
		LocationID:    req.LocationID,
		AllowedEmails: req.AllowedEmails,
		Windows:       req.DateRanges,
		Note:          req.Note,
		Reason:        req.Reason,
	})
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, grant)
}

// DeleteGrant removes a grant.
func (h *Handler) DeleteGrant(c *gin.Context) {
	id, err := domain.ParseGrantID(c.Param("id"))
	if err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid grant ID"))

		return
	}

	if err := h.deps.Access.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// ListGrantsByLocation returns the location's grants, most recently created
// first.
func (h *Handler) ListGrantsByLocation(c *gin.Context) {
	id, err := domain.ParseLocationID(c.Param("id"))
	if err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid location ID"))

		return
	}

	grants, err := h.deps.Access.ListByLocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": grants})
}

// CheckAccess answers whether the email may access the location at the given
// instant (millisecond epoch, defaulting to now).
func (h *Handler) CheckAccess(c *gin.Context) {
	var query struct {
		Email      string `form:"email" binding:"required"`
		LocationID string `form:"locationId" binding:"required"`
		Timestamp  int64  `form:"timestamp"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid query parameters"))

		return
	}

	locationID, err := domain.ParseLocationID(query.LocationID)
	if err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid location ID"))

		return
	}

	at := time.Now().UTC()
	if query.Timestamp != 0 {
		at = time.UnixMilli(query.Timestamp).UTC()
	}

	allowed, err := h.deps.Access.IsAllowed(c.Request.Context(), query.Email, locationID, at)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}
