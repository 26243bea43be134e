package middleware

import (
	"errors"
	"net/http"

	"proofhire-backend/internal/delivery/http/response"
	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.Internal(err)
		}

		if appErr.Kind == apperror.KindInternal || appErr.Kind == apperror.KindUpstreamUnavailable {
			// Never expose internal detail; the cause stays server-side.
			logger.Log.Error("Request failed",
				"kind", appErr.Kind,
				"path", c.FullPath(),
				"request_id", c.GetString(string(domain.KeyRequestID)),
				"error", err)
		}

		message := appErr.Message
		if appErr.Kind == apperror.KindInternal {
			message = "An unexpected error occurred. Please try again later."
		}
		code := appErr.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}
		response.Error(c, code, message, &response.ErrorBody{Kind: string(appErr.Kind), Fields: appErr.Fields})
	}
}

// abortWith renders err through the same envelope as ErrorHandler and stops the chain.
func abortWith(c *gin.Context, err *apperror.AppError) {
	response.Error(c, err.Code, err.Message, &response.ErrorBody{Kind: string(err.Kind), Fields: err.Fields})
	c.Abort()
}
