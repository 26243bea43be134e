package v1

import (
	"net/http"

	"proofhire-backend/internal/delivery/http/middleware"
	"proofhire-backend/internal/delivery/http/response"
	"proofhire-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type ResumeHandler struct {
	resumeUC domain.ResumeUsecase
}

// NewResumeHandler registers candidate resume routes under me and the reviewer
// download route under admin. uploadLimit guards credential issuance.
func NewResumeHandler(me, admin *gin.RouterGroup, resumeUC domain.ResumeUsecase, uploadLimit gin.HandlerFunc) {
	handler := &ResumeHandler{resumeUC: resumeUC}

	resumes := me.Group("/resumes")
	{
		resumes.POST("/upload-url", uploadLimit, handler.RequestUpload)
		resumes.POST("/:id/archive", handler.Archive)
	}
	admin.GET("/resumes/:id/download", handler.Download)
}

// RequestUpload godoc
// @Summary      Request a resume upload URL
// @Description  Validates type (PDF, DOC, DOCX) and size (10 MB max), archives earlier versions and returns a presigned PUT URL
// @Tags         resumes
// @Accept       json
// @Produce      json
// @Param        request  body      domain.UploadRequest  true  "Declared file"
// @Success      201  {object}  response.Response{data=domain.UploadTicket}
// @Failure      413  {object}  response.Response
// @Failure      415  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /me/resumes/upload-url [post]
// @Security     BearerAuth
func (h *ResumeHandler) RequestUpload(c *gin.Context) {
	var req domain.UploadRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := h.resumeUC.RequestUpload(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Upload URL issued", ticket)
}

// Archive godoc
// @Summary      Archive one of my resumes
// @Tags         resumes
// @Produce      json
// @Param        id   path      string  true  "Resume ID"
// @Success      200  {object}  response.Response{data=domain.ArchiveResult}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /me/resumes/{id}/archive [post]
// @Security     BearerAuth
func (h *ResumeHandler) Archive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.resumeUC.Archive(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Resume archived", result)
}

// Download godoc
// @Summary      Issue a resume download URL
// @Description  Reviewer-only. The URL is omitted when storage cannot sign one.
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Resume ID"
// @Success      200  {object}  response.Response{data=domain.ResumeDownload}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/resumes/{id}/download [get]
// @Security     BearerAuth
func (h *ResumeHandler) Download(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	download, err := h.resumeUC.IssueDownload(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Resume download", download)
}
