package diagnosis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fixme-backend/internal/shared/server/middleware"
	"fixme-backend/internal/shared/server/respond"
)

const multipartMemory = 32 << 20

// Handler wires HTTP handlers to the diagnosis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches diagnosis routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/analyze", h.analyze)
}

func (h *Handler) analyze(c *gin.Context) {
	if err := parseForm(c.Request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "Payload Too Large", "Request body too large")
			return
		}
		respond.Error(c, http.StatusBadRequest, "Bad Request", "Invalid form data")
		return
	}
	if form := c.Request.MultipartForm; form != nil {
		defer func() { _ = form.RemoveAll() }()
	}

	req := Request{
		UserID:      c.Request.PostFormValue("user_id"),
		Description: c.Request.PostFormValue("description"),
	}
	if form := c.Request.MultipartForm; form != nil {
		for _, fh := range form.File["files"] {
			req.Images = append(req.Images, FileHeaderUpload(fh))
		}
	}
	middleware.SetUserID(c, req.UserID)

	env, err := h.Svc.Analyze(c.Request.Context(), req)
	if err != nil {
		var vErr *ValidationError
		var uErr *UploadError
		switch {
		case errors.As(err, &vErr):
			respond.Validation(c, vErr.Field, vErr.Message)
		case errors.As(err, &uErr):
			respond.Abort(c, http.StatusBadRequest, respond.ErrorBody{
				Error:   "File processing error",
				Message: uErr.Error(),
				Errors:  uErr.Rejections,
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "Internal Server Error", "Unexpected server error")
		}
		return
	}

	c.Set("diagnosisId", env.RequestID)
	status := http.StatusOK
	if !env.Success {
		status = http.StatusInternalServerError
	}
	respond.JSON(c, status, env)
}

// parseForm accepts multipart and url-encoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}
