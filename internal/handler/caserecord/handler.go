package caserecord

import (
	"encoding/json"
	"io"

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
	cases := r.Group("/cases")
	{
		cases.POST("", h.IngestCase)
		cases.GET("", h.ListCases)
	}
}

// IngestCase accepts a raw draft from any producer: manual entry with
// just a patient name and a comma-separated diagnosis string is valid
// input.
func (h *Handler) IngestCase(c *gin.Context) {
	// Decoded by hand rather than bound: a literal null body must reach
	// the service as a nil draft and be rejected there, before any
	// collection is touched.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("unreadable request body", err))
		return
	}

	var draft *model.CaseDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("malformed case draft", err))
		return
	}

	rec, err := h.service.Ingest(c.Request.Context(), draft)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, rec)
}

func (h *Handler) ListCases(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.service.ListCases(c.Request.Context()))
}
