package formulary

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medintern-api/internal/model"
	"github.com/jwalitptl/medintern-api/internal/service/caselog"
	apperrors "github.com/jwalitptl/medintern-api/pkg/errors"
	"github.com/jwalitptl/medintern-api/pkg/httputil"
)

type Handler struct {
	service *caselog.Service
}

func NewHandler(service *caselog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	meds := r.Group("/medications")
	{
		meds.GET("", h.ListMedications)
		meds.PATCH("/:name", h.UpdateMedication)
	}
}

func (h *Handler) ListMedications(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.service.ListMedications(c.Request.Context()))
}

// UpdateMedication is the manual-annotation path for classification
// and mechanism notes.
func (h *Handler) UpdateMedication(c *gin.Context) {
	var patch model.MedicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("malformed medication patch", err))
		return
	}

	entry, err := h.service.UpdateMedication(c.Request.Context(), c.Param("name"), &patch)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, entry)
}
