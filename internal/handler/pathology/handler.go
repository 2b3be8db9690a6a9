package pathology

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medintern-api/internal/model"
	"github.com/jwalitptl/medintern-api/internal/service/caselog"
	apperrors "github.com/jwalitptl/medintern-api/pkg/errors"
	"github.com/jwalitptl/medintern-api/pkg/httputil"
)

const defaultTopDiagnoses = 5

type Handler struct {
	service *caselog.Service
}

func NewHandler(service *caselog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	paths := r.Group("/pathologies")
	{
		paths.GET("", h.ListPathologies)
		paths.PATCH("/:name", h.UpdatePathology)
	}
	r.GET("/insights/diagnoses", h.TopDiagnoses)
}

func (h *Handler) ListPathologies(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.service.ListPathologies(c.Request.Context()))
}

func (h *Handler) UpdatePathology(c *gin.Context) {
	var patch model.PathologyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("malformed pathology patch", err))
		return
	}

	entry, err := h.service.UpdatePathology(c.Request.Context(), c.Param("name"), &patch)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, entry)
}

func (h *Handler) TopDiagnoses(c *gin.Context) {
	limit := defaultTopDiagnoses
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	httputil.RespondWithSuccess(c, h.service.TopDiagnoses(c.Request.Context(), limit))
}
