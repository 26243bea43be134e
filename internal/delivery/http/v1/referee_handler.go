package v1

import (
	"net/http"

	"proofhire-backend/internal/delivery/http/middleware"
	"proofhire-backend/internal/delivery/http/response"
	"proofhire-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type RefereeHandler struct {
	refereeUC domain.RefereeUsecase
}

func NewRefereeHandler(public, me *gin.RouterGroup, refereeUC domain.RefereeUsecase, inviteLimit, confirmLimit gin.HandlerFunc) {
	handler := &RefereeHandler{refereeUC: refereeUC}

	public.GET("/referees/confirm", confirmLimit, handler.Confirm)
	me.POST("/referee", inviteLimit, handler.Invite)
}

// Invite godoc
// @Summary      Invite a referee
// @Description  Replaces any earlier invitation and emails a one-time confirmation link. Free mailbox domains are rejected.
// @Tags         referees
// @Accept       json
// @Produce      json
// @Param        request  body      domain.InviteRequest  true  "Referee email"
// @Success      201  {object}  response.Response{data=domain.InviteResult}
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /me/referee [post]
// @Security     BearerAuth
func (h *RefereeHandler) Invite(c *gin.Context) {
	var req domain.InviteRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.refereeUC.Invite(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	message := "Referee invited"
	if !result.Delivered {
		message = "Referee saved but the invitation email could not be sent"
	}
	response.Success(c, http.StatusCreated, message, result)
}

// Confirm godoc
// @Summary      Confirm a referee invitation
// @Description  Redeems a one-time token. Unknown, expired and used tokens all return 404.
// @Tags         referees
// @Produce      json
// @Param        token  query     string  true  "Confirmation token"
// @Success      200  {object}  response.Response{data=domain.ConfirmResult}
// @Failure      404  {object}  response.Response
// @Router       /referees/confirm [get]
func (h *RefereeHandler) Confirm(c *gin.Context) {
	result, err := h.refereeUC.Confirm(c.Request.Context(), c.Query("token"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Reference confirmed. Thank you.", result)
}
