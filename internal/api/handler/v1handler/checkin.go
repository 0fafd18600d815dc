package v1handler

import (
	"net/http"

	"checkin/pkg/domain"
	"checkin/pkg/serrors"

	"github.com/gin-gonic/gin"
)

// CreateCheckInRequest is the visitor-facing payload produced by scanning a
// location's QR code.
type CreateCheckInRequest struct {
	Email      string            `json:"email" binding:"required"`
	LocationID domain.LocationID `json:"locationId" binding:"required"`
}

// CreateCheckIn records a visit. A visitor without a currently valid grant at
// a restricted location receives 403 and nothing is recorded.
func (h *Handler) CreateCheckIn(c *gin.Context) {
	var req CreateCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	visit, err := h.deps.CheckIn.CheckIn(c.Request.Context(), req.Email, req.LocationID)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, visit)
}
