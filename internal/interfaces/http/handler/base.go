package handler

import (
	"github.com/gin-gonic/gin"

	"book-creator-api/internal/interfaces/http/dto"
	apperrors "book-creator-api/pkg/errors"
	"book-creator-api/pkg/logger"
)

// respondError 将应用错误映射为 HTTP 错误响应
func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus >= 500 {
		logger.Error(c.Request.Context(), "request failed", err,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
	}
	dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}
