package backup

import (
	"fmt"
	"net/http"

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
	backups := r.Group("/backup")
	{
		backups.GET("", h.Export)
		backups.POST("", h.Import)
	}
}

// Export serves the three collections as a single downloadable JSON
// document named with the current date.
func (h *Handler) Export(c *gin.Context) {
	doc, filename, err := h.service.Export(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, doc)
}

// Import replaces all three collections with the uploaded document and
// persists immediately.
func (h *Handler) Import(c *gin.Context) {
	var doc model.Backup
	if err := c.ShouldBindJSON(&doc); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("malformed backup document", err))
		return
	}

	if err := h.service.Import(c.Request.Context(), &doc); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"imported": true})
}
