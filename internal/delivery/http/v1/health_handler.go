package v1

import (
	"net/http"

	"proofhire-backend/internal/delivery/http/response"
	"proofhire-backend/internal/domain"
	"proofhire-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC usecase.HealthUsecase
}

func NewHealthHandler(public *gin.RouterGroup, healthUC usecase.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}
	public.GET("/health", handler.Health)
}

// Health godoc
// @Summary      Service health
// @Description  Database failure reports down (503); optional dependencies report degraded
// @Tags         system
// @Produce      json
// @Success      200  {object}  response.Response{data=usecase.HealthReport}
// @Failure      503  {object}  response.Response{data=usecase.HealthReport}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.healthUC.Check(c.Request.Context())
	switch report.Status {
	case usecase.HealthDown:
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Success:   false,
			Message:   "System unavailable",
			Data:      report,
			RequestID: c.GetString(string(domain.KeyRequestID)),
		})
	case usecase.HealthDegraded:
		response.Success(c, http.StatusOK, "System degraded", report)
	default:
		response.Success(c, http.StatusOK, "System operational", report)
	}
}
