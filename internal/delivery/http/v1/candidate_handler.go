package v1

import (
	"net/http"

	"proofhire-backend/internal/delivery/http/middleware"
	"proofhire-backend/internal/delivery/http/response"
	"proofhire-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	candidateUC domain.CandidateUsecase
}

func NewCandidateHandler(me *gin.RouterGroup, candidateUC domain.CandidateUsecase) {
	handler := &CandidateHandler{candidateUC: candidateUC}

	me.GET("/profile", handler.GetProfile)
	me.PUT("/profile", handler.UpdateProfile)
	me.POST("/submit", handler.Submit)
	me.PUT("/portfolio", handler.UpsertPortfolio)
}

// GetProfile godoc
// @Summary      Get my verification profile
// @Description  Returns the caller's profile with evidence, proof score and flag. A DRAFT profile is created on first access.
// @Tags         candidates
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.CandidateView}
// @Failure      401  {object}  response.Response
// @Router       /me/profile [get]
// @Security     BearerAuth
func (h *CandidateHandler) GetProfile(c *gin.Context) {
	view, err := h.candidateUC.GetMyProfile(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Candidate profile", view)
}

// UpdateProfile godoc
// @Summary      Update my profile
// @Description  Updates editable fields and optionally submits for review in the same transaction
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ProfileUpdateRequest  true  "Profile fields"
// @Success      200  {object}  response.Response{data=domain.CandidateView}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /me/profile [put]
// @Security     BearerAuth
func (h *CandidateHandler) UpdateProfile(c *gin.Context) {
	var req domain.ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.candidateUC.UpdateMyProfile(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile updated", view)
}

// Submit godoc
// @Summary      Submit my profile for review
// @Tags         candidates
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.StatusChange}
// @Failure      409  {object}  response.Response
// @Router       /me/submit [post]
// @Security     BearerAuth
func (h *CandidateHandler) Submit(c *gin.Context) {
	change, err := h.candidateUC.Submit(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	message := "Profile submitted for review"
	if !change.Changed {
		message = "Profile already verified"
	}
	response.Success(c, http.StatusOK, message, change)
}

// UpsertPortfolio godoc
// @Summary      Replace my portfolio links
// @Description  Each link is optional; an empty string clears it
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        request  body      domain.PortfolioInput  true  "Portfolio links"
// @Success      200  {object}  response.Response{data=domain.PortfolioResult}
// @Failure      400  {object}  response.Response
// @Router       /me/portfolio [put]
// @Security     BearerAuth
func (h *CandidateHandler) UpsertPortfolio(c *gin.Context) {
	var req domain.PortfolioInput
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.candidateUC.UpsertPortfolio(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Portfolio saved", result)
}
