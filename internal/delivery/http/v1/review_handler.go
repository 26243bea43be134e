package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"proofhire-backend/internal/delivery/http/middleware"
	"proofhire-backend/internal/delivery/http/response"
	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewUC domain.ReviewUsecase
}

// NewReviewHandler registers reviewer routes. The admin group is already
// restricted to REVIEWER and ADMIN; the usecase enforces per-action roles.
func NewReviewHandler(admin *gin.RouterGroup, reviewUC domain.ReviewUsecase) {
	handler := &ReviewHandler{reviewUC: reviewUC}

	admin.GET("/queue", handler.ListQueue)
	admin.GET("/queue/export", handler.ExportQueue)

	candidates := admin.Group("/candidates")
	{
		candidates.GET("/:id", handler.GetCandidate)
		candidates.POST("/:id/start-review", handler.StartReview)
		candidates.POST("/:id/verify", handler.Verify)
		candidates.POST("/:id/rework", handler.RequestRework)
		candidates.POST("/:id/reject", handler.Reject)
	}
}

func parseQueueFilter(c *gin.Context) (domain.QueueFilter, error) {
	filter := domain.QueueFilter{}
	if statuses := c.Query("status"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				filter.Statuses = append(filter.Statuses, domain.Status(s))
			}
		}
	}
	if page := c.Query("page"); page != "" {
		v, err := strconv.Atoi(page)
		if err != nil {
			return filter, apperror.InvalidInput("Validation failed", map[string]string{"page": "must be an integer"})
		}
		filter.Page = v
	}
	if limit := c.Query("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			return filter, apperror.InvalidInput("Validation failed", map[string]string{"limit": "must be an integer"})
		}
		filter.Limit = v
	}
	return filter, nil
}

// ListQueue godoc
// @Summary      List the review queue
// @Description  Defaults to SUBMITTED, UNDER_REVIEW and REWORK_REQUESTED, most recently updated first
// @Tags         admin
// @Produce      json
// @Param        status  query     string  false  "Comma-separated statuses"
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20, max: 100)"
// @Success      200  {object}  response.Response{data=domain.PaginatedResult[domain.QueueItem]}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /admin/queue [get]
// @Security     BearerAuth
func (h *ReviewHandler) ListQueue(c *gin.Context) {
	filter, err := parseQueueFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := h.reviewUC.ListQueue(c.Request.Context(), middleware.PrincipalFrom(c), filter)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Review queue", result)
}

// ExportQueue godoc
// @Summary      Export the review queue
// @Tags         admin
// @Produce      application/octet-stream
// @Param        format  query     string  false  "Export format (xlsx, csv). Default: xlsx"
// @Param        status  query     string  false  "Comma-separated statuses"
// @Success      200  {file}    binary
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /admin/queue/export [get]
// @Security     BearerAuth
func (h *ReviewHandler) ExportQueue(c *gin.Context) {
	filter, err := parseQueueFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	file, err := h.reviewUC.ExportQueue(c.Request.Context(), middleware.PrincipalFrom(c), filter, c.DefaultQuery("format", "xlsx"))
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// GetCandidate godoc
// @Summary      Get candidate detail
// @Description  Profile, resumes with download URLs, portfolio, referee and review notes
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {object}  response.Response{data=domain.CandidateDetail}
// @Failure      404  {object}  response.Response
// @Router       /admin/candidates/{id} [get]
// @Security     BearerAuth
func (h *ReviewHandler) GetCandidate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	detail, err := h.reviewUC.GetCandidateDetail(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Candidate detail", detail)
}

// StartReview godoc
// @Summary      Start reviewing a submitted candidate
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {object}  response.Response{data=domain.StatusChange}
// @Failure      409  {object}  response.Response
// @Router       /admin/candidates/{id}/start-review [post]
// @Security     BearerAuth
func (h *ReviewHandler) StartReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	change, err := h.reviewUC.StartReview(c.Request.Context(), middleware.PrincipalFrom(c), id)
	h.respondTransition(c, change, err, "Review started")
}

// Verify godoc
// @Summary      Verify a candidate
// @Description  ADMIN only. The note is optional.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true   "Candidate ID"
// @Param        request  body      domain.ReviewActionRequest  false  "Optional note"
// @Success      200  {object}  response.Response{data=domain.StatusChange}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /admin/candidates/{id}/verify [post]
// @Security     BearerAuth
func (h *ReviewHandler) Verify(c *gin.Context) {
	h.noted(c, h.reviewUC.Verify, "Candidate verified")
}

// RequestRework godoc
// @Summary      Request rework from a candidate
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Candidate ID"
// @Param        request  body      domain.ReviewActionRequest  true  "Rework note (10-500 chars)"
// @Success      200  {object}  response.Response{data=domain.StatusChange}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /admin/candidates/{id}/rework [post]
// @Security     BearerAuth
func (h *ReviewHandler) RequestRework(c *gin.Context) {
	h.noted(c, h.reviewUC.RequestRework, "Rework requested")
}

// Reject godoc
// @Summary      Reject a candidate
// @Description  ADMIN only. REJECTED is terminal.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Candidate ID"
// @Param        request  body      domain.ReviewActionRequest  true  "Rejection note (10-500 chars)"
// @Success      200  {object}  response.Response{data=domain.StatusChange}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /admin/candidates/{id}/reject [post]
// @Security     BearerAuth
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.noted(c, h.reviewUC.Reject, "Candidate rejected")
}

type notedAction func(ctx context.Context, principal domain.Principal, candidateID string, req domain.ReviewActionRequest) (*domain.StatusChange, error)

func (h *ReviewHandler) noted(c *gin.Context, action notedAction, message string) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req domain.ReviewActionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	change, err := action(c.Request.Context(), middleware.PrincipalFrom(c), id, req)
	h.respondTransition(c, change, err, message)
}

func (h *ReviewHandler) respondTransition(c *gin.Context, change *domain.StatusChange, err error, message string) {
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, message, change)
}
