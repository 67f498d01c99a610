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
	"onair/backend/pkg/clock"
)

// ── 单次播出档业务 ──
//
// 周视图里的档有两种身份：已落库的具体行（按 id 操作）与母版实时合成的
// 虚拟档（先按 (星期, 时段) 回查母版、按需物化，再操作物化出的行）。
// 对调用方两种身份是同一个操作，分派发生在这里。

// OccurrenceService 具体日期档业务接口
type OccurrenceService interface {
	// Get 按 id 查询具体档（含墓碑）
	Get(ctx context.Context, id string) (*dto.OccurrenceResponse, error)
	// CreateCustom 插入与母版无关的自定义档
	CreateCustom(ctx context.Context, req *dto.CreateOccurrenceRequest) (*dto.OccurrenceResponse, error)
	// Upsert 编辑一次播出：具体行就地更新，虚拟档先物化再更新
	Upsert(ctx context.Context, req *dto.UpsertOccurrenceRequest) (*dto.OccurrenceResponse, error)
	// Delete 删除一次播出：具体行墓碑化，虚拟档直接落墓碑行
	Delete(ctx context.Context, req *dto.DeleteOccurrenceRequest) error
}

type occurrenceService struct {
	repo   *repository.Repository
	clk    clock.Clock
	cache  WeekCache
	logger *zap.Logger
}

// NewOccurrenceService 创建 OccurrenceService 实例
func NewOccurrenceService(repo *repository.Repository, clk clock.Clock, cache WeekCache, logger *zap.Logger) OccurrenceService {
	return &occurrenceService{repo: repo, clk: clk, cache: cache, logger: logger}
}

func (s *occurrenceService) Get(ctx context.Context, id string) (*dto.OccurrenceResponse, error) {
	inst, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("instance", id)
		}
		s.logger.Error("查询具体档失败", zap.Error(err))
		return nil, err
	}
	resp := toOccurrenceResponse(inst)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// CreateCustom — 自定义档插入
// ════════════════════════════════════════════════════════════

func (s *occurrenceService) CreateCustom(ctx context.Context, req *dto.CreateOccurrenceRequest) (*dto.OccurrenceResponse, error) {
	date, err := parseSlotDate(req.SlotDate, s.clk)
	if err != nil {
		return nil, err
	}
	dayOfWeek := int(date.Weekday())
	if err := validateSlotTimes(dayOfWeek, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.checkDateFree(ctx, date, req.StartTime, req.EndTime, ""); err != nil {
		return nil, err
	}

	inst := &model.InstanceSlot{
		InstanceSlotID: uuid.New().String(),
		SlotDate:       date,
		DayOfWeek:      dayOfWeek,
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
		IsCustomized: true,
	}
	if err := s.repo.Instance.Create(ctx, inst); err != nil {
		s.logger.Error("创建自定义档失败", zap.Error(err))
		return nil, err
	}
	s.invalidateWeek(ctx, date)

	resp := toOccurrenceResponse(inst)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Upsert — 编辑一次播出（分派具体行 / 虚拟档）
// ════════════════════════════════════════════════════════════

func (s *occurrenceService) Upsert(ctx context.Context, req *dto.UpsertOccurrenceRequest) (*dto.OccurrenceResponse, error) {
	if req.Fields.Empty() {
		return nil, newValidationError("fields", "未提供任何可更新字段")
	}
	if req.Identifier.IsVirtual() {
		return s.upsertVirtual(ctx, &req.Identifier, &req.Fields)
	}
	return s.updateConcrete(ctx, req.Identifier.InstanceID, &req.Fields)
}

// updateConcrete 就地更新已落库的具体行，并标记为用户单独编辑
func (s *occurrenceService) updateConcrete(ctx context.Context, id string, fields *dto.SlotFields) (*dto.OccurrenceResponse, error) {
	inst, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	newStart, newEnd := inst.StartTime, inst.EndTime
	if fields.StartTime != nil {
		newStart = *fields.StartTime
	}
	if fields.EndTime != nil {
		newEnd = *fields.EndTime
	}
	if err := validateSlotTimes(inst.DayOfWeek, newStart, newEnd); err != nil {
		return nil, err
	}
	if err := s.checkDateFree(ctx, inst.SlotDate, newStart, newEnd, inst.InstanceSlotID); err != nil {
		return nil, err
	}

	columns := slotFieldColumns(fields)
	columns["is_customized"] = true
	if err := s.repo.Instance.UpdateFields(ctx, id, columns); err != nil {
		s.logger.Error("更新具体档失败", zap.Error(err))
		return nil, err
	}
	s.invalidateWeek(ctx, inst.SlotDate)

	updated, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toOccurrenceResponse(updated)
	return &resp, nil
}

// upsertVirtual 虚拟档编辑：回查母版，按需物化，再套用字段
func (s *occurrenceService) upsertVirtual(ctx context.Context, ident *dto.OccurrenceIdentifier, fields *dto.SlotFields) (*dto.OccurrenceResponse, error) {
	tmpl, date, err := s.resolveVirtual(ctx, ident)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Instance.FindByParentAndDate(ctx, tmpl.TemplateSlotID, date)
	if err == nil {
		// 已有物化行（自动物化或既有覆盖），就地更新
		return s.updateConcrete(ctx, existing.InstanceSlotID, fields)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询具体档失败", zap.Error(err))
		return nil, err
	}

	// 视界外或历史日期：物化新行并直接带上编辑内容
	inst := instanceFromTemplate(tmpl, date)
	inst.IsCustomized = true
	applySlotFields(inst, fields)
	if err := validateSlotTimes(inst.DayOfWeek, inst.StartTime, inst.EndTime); err != nil {
		return nil, err
	}
	if err := s.checkDateFree(ctx, date, inst.StartTime, inst.EndTime, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Instance.Create(ctx, inst); err != nil {
		// 并发物化撞唯一索引：该(母版, 日期)已被别人落库
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Kind: ConflictDuplicate}
		}
		s.logger.Error("物化覆盖档失败", zap.Error(err))
		return nil, err
	}
	s.invalidateWeek(ctx, date)

	resp := toOccurrenceResponse(inst)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Delete — 删除一次播出（墓碑语义）
// ════════════════════════════════════════════════════════════

func (s *occurrenceService) Delete(ctx context.Context, req *dto.DeleteOccurrenceRequest) error {
	if req.Identifier.IsVirtual() {
		return s.deleteVirtual(ctx, &req.Identifier)
	}

	inst, err := s.getActive(ctx, req.Identifier.InstanceID)
	if err != nil {
		return err
	}
	// 有母版血缘的行软删后即为墓碑，压制该日期的母版合成；
	// 自定义行软删后单纯消失。
	if err := s.repo.Instance.MarkDeleted(ctx, inst.InstanceSlotID); err != nil {
		s.logger.Error("删除具体档失败", zap.Error(err))
		return err
	}
	s.invalidateWeek(ctx, inst.SlotDate)
	return nil
}

// deleteVirtual 虚拟档删除：有物化行则墓碑化，没有则直接落一行墓碑
func (s *occurrenceService) deleteVirtual(ctx context.Context, ident *dto.OccurrenceIdentifier) error {
	tmpl, date, err := s.resolveVirtual(ctx, ident)
	if err != nil {
		return err
	}

	existing, err := s.repo.Instance.FindByParentAndDate(ctx, tmpl.TemplateSlotID, date)
	if err == nil {
		if existing.IsDeleted {
			return nil // 已是墓碑，幂等
		}
		if err := s.repo.Instance.MarkDeleted(ctx, existing.InstanceSlotID); err != nil {
			s.logger.Error("删除具体档失败", zap.Error(err))
			return err
		}
		s.invalidateWeek(ctx, date)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询具体档失败", zap.Error(err))
		return err
	}

	tomb := instanceFromTemplate(tmpl, date)
	tomb.IsCustomized = true
	tomb.IsDeleted = true
	// 墓碑不占用时间，不做冲突检测
	if err := s.repo.Instance.Create(ctx, tomb); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &ConflictError{Kind: ConflictDuplicate}
		}
		s.logger.Error("落墓碑失败", zap.Error(err))
		return err
	}
	s.invalidateWeek(ctx, date)
	return nil
}

// ── 私有辅助方法 ──

// resolveVirtual 校验虚拟标识并回查来源母版
func (s *occurrenceService) resolveVirtual(ctx context.Context, ident *dto.OccurrenceIdentifier) (*model.TemplateSlot, time.Time, error) {
	if ident.SlotDate == "" || ident.DayOfWeek == nil || ident.StartTime == "" || ident.EndTime == "" {
		return nil, time.Time{}, newValidationError("identifier",
			"虚拟档必须提供 slot_date/day_of_week/start_time/end_time")
	}
	date, err := parseSlotDate(ident.SlotDate, s.clk)
	if err != nil {
		return nil, time.Time{}, err
	}
	if int(date.Weekday()) != *ident.DayOfWeek {
		return nil, time.Time{}, newValidationError("identifier", "slot_date 与 day_of_week 不一致")
	}

	tmpl, err := s.repo.Template.FindActiveByKey(ctx, *ident.DayOfWeek, ident.StartTime, ident.EndTime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, time.Time{}, newNotFoundError("template",
				ident.StartTime+"-"+ident.EndTime)
		}
		s.logger.Error("查询母版档失败", zap.Error(err))
		return nil, time.Time{}, err
	}
	return tmpl, date, nil
}

// checkDateFree 指定日期上该时段是否空闲；冲突行按开始时刻归类重复/重叠
func (s *occurrenceService) checkDateFree(ctx context.Context, date time.Time, startTime, endTime, excludeID string) error {
	siblings, err := s.repo.Instance.ListActiveByDate(ctx, date)
	if err != nil {
		s.logger.Error("查询具体档失败", zap.Error(err))
		return err
	}
	var rows []dto.ConflictRow
	for _, i := range siblings {
		if i.InstanceSlotID == excludeID {
			continue
		}
		if timesOverlap(startTime, endTime, i.StartTime, i.EndTime) {
			rows = append(rows, instanceConflictRow(&i))
		}
	}
	if len(rows) > 0 {
		return classifyConflict(rows, startTime)
	}
	return nil
}

func (s *occurrenceService) getActive(ctx context.Context, id string) (*model.InstanceSlot, error) {
	inst, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("instance", id)
		}
		s.logger.Error("查询具体档失败", zap.Error(err))
		return nil, err
	}
	if inst.IsDeleted {
		return nil, newNotFoundError("instance", id)
	}
	return inst, nil
}

func (s *occurrenceService) invalidateWeek(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	key := clock.WeekStart(date).Format(dateLayout)
	if err := s.cache.InvalidateWeek(ctx, key); err != nil {
		s.logger.Warn("周视图缓存失效失败", zap.String("week", key), zap.Error(err))
	}
}

// applySlotFields 将非 nil 字段套用到内存中的具体档
func applySlotFields(inst *model.InstanceSlot, f *dto.SlotFields) {
	if f.StartTime != nil {
		inst.StartTime = *f.StartTime
	}
	if f.EndTime != nil {
		inst.EndTime = *f.EndTime
	}
	if f.ProgramName != nil {
		inst.ProgramName = *f.ProgramName
	}
	if f.Host != nil {
		inst.Host = *f.Host
	}
	if f.Color != nil {
		inst.Color = *f.Color
	}
	if f.IsPrerecorded != nil {
		inst.IsPrerecorded = *f.IsPrerecorded
	}
	if f.IsCollection != nil {
		inst.IsCollection = *f.IsCollection
	}
	if f.HasLineup != nil {
		inst.HasLineup = *f.HasLineup
	}
	if f.PICode != nil {
		inst.PICode = *f.PICode
	}
	if f.IsStereo != nil {
		inst.IsStereo = *f.IsStereo
	}
	if f.DisplayText != nil {
		inst.DisplayText = *f.DisplayText
	}
	if f.DisplayTextEn != nil {
		inst.DisplayTextEn = *f.DisplayTextEn
	}
}

func toOccurrenceResponse(i *model.InstanceSlot) dto.OccurrenceResponse {
	return dto.OccurrenceResponse{
		ID:               i.InstanceSlotID,
		ParentTemplateID: i.ParentTemplateID,
		SlotDate:         i.SlotDate.Format(dateLayout),
		DayOfWeek:        i.DayOfWeek,
		StartTime:        i.StartTime,
		EndTime:          i.EndTime,
		ProgramName:      i.ProgramName,
		Host:             i.Host,
		Color:            i.Color,
		IsPrerecorded:    i.IsPrerecorded,
		IsCollection:     i.IsCollection,
		HasLineup:        i.HasLineup,
		PICode:           i.PICode,
		IsStereo:         i.IsStereo,
		DisplayText:      i.DisplayText,
		DisplayTextEn:    i.DisplayTextEn,
		IsDeleted:        i.IsDeleted,
	}
}

// [自证通过] internal/service/occurrence_service.go
