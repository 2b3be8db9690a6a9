package extraction

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medintern-api/internal/extract"
	apperrors "github.com/jwalitptl/medintern-api/pkg/errors"
	"github.com/jwalitptl/medintern-api/pkg/httputil"
)

type Handler struct {
	service *extract.Service
}

func NewHandler(service *extract.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/extractions", h.ExtractDraft)
}

// ExtractRequest carries either a photographed document or raw text
// that was already recognized elsewhere.
type ExtractRequest struct {
	Image []byte `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

// ExtractDraft runs the OCR/AI collaborators and returns a best-effort
// draft for the user to confirm before ingestion. Collaborator
// failures come back as a notice on a 200, never as a hard error.
func (h *Handler) ExtractDraft(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("malformed extraction request", err))
		return
	}

	result := h.service.Produce(c.Request.Context(), req.Image, req.Text)
	httputil.RespondWithSuccess(c, result)
}
