package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"onair/backend/internal/dto"
	"onair/backend/internal/model"
	"onair/backend/internal/repository"
	"onair/backend/pkg/clock"
)

// ── 周视图解析器 ──
//
// 周视图是合成的临时产物，不落库：对每个(母版, 日期)组合，具体行优先于
// 母版合成，墓碑行压制该日期的合成结果。合成档没有持久身份，按
// (星期, 时段) 回查母版即可重建（见 OccurrenceIdentifier）。

// ResolverService 周视图解析业务接口
type ResolverService interface {
	// ResolveWeek 解析指定周（weekStart 为空取当前周；任意日期归一化到所在周日）
	ResolveWeek(ctx context.Context, weekStart string) (*dto.ResolvedWeekResponse, error)
	// ResolveMaster 母版网格（按星期与开始时间排序）
	ResolveMaster(ctx context.Context) ([]dto.TemplateResponse, error)
	// ResolveAt 某时刻正在播出的档；无则返回 nil
	ResolveAt(ctx context.Context, at time.Time) (*dto.ResolvedOccurrence, error)
}

type resolverService struct {
	repo     *repository.Repository
	clk      clock.Clock
	cache    WeekCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewResolverService 创建 ResolverService 实例
func NewResolverService(repo *repository.Repository, clk clock.Clock, cache WeekCache, cacheTTL time.Duration, logger *zap.Logger) ResolverService {
	return &resolverService{repo: repo, clk: clk, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ResolveWeek — 合成一周播出表
// ════════════════════════════════════════════════════════════

func (s *resolverService) ResolveWeek(ctx context.Context, weekStart string) (*dto.ResolvedWeekResponse, error) {
	var anchor time.Time
	if weekStart == "" {
		anchor = s.clk.Today()
	} else {
		parsed, err := parseSlotDate(weekStart, s.clk)
		if err != nil {
			return nil, err
		}
		anchor = parsed
	}
	start := clock.WeekStart(anchor)
	weekKey := start.Format(dateLayout)

	if cached := s.cacheGet(ctx, weekKey); cached != nil {
		return cached, nil
	}

	resp, err := s.resolveRange(ctx, start)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, weekKey, resp)
	return resp, nil
}

func (s *resolverService) resolveRange(ctx context.Context, start time.Time) (*dto.ResolvedWeekResponse, error) {
	end := clock.AddDays(start, 6)

	instances, err := s.repo.Instance.ListByDateRange(ctx, start, end)
	if err != nil {
		s.logger.Error("查询具体档失败", zap.Error(err))
		return nil, err
	}
	templates, err := s.repo.Template.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询母版档失败", zap.Error(err))
		return nil, err
	}

	// (母版id, 日期) → 已落库行；覆盖与墓碑都在这里挡住母版合成
	type parentDate struct {
		parent string
		date   string
	}
	claimed := make(map[parentDate]struct{})

	var occurrences []dto.ResolvedOccurrence
	for _, inst := range instances {
		if inst.ParentTemplateID != nil {
			claimed[parentDate{*inst.ParentTemplateID, inst.SlotDate.Format(dateLayout)}] = struct{}{}
		}
		if inst.IsDeleted {
			continue // 墓碑：压制母版合成，自身不出现
		}
		occurrences = append(occurrences, resolveInstance(&inst))
	}

	// 母版合成：该(母版, 日期)无任何落库行时补上虚拟档
	for _, tmpl := range templates {
		date := clock.AddDays(start, tmpl.DayOfWeek)
		key := parentDate{tmpl.TemplateSlotID, date.Format(dateLayout)}
		if _, ok := claimed[key]; ok {
			continue
		}
		occurrences = append(occurrences, resolveTemplate(&tmpl, date))
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].SlotDate != occurrences[j].SlotDate {
			return occurrences[i].SlotDate < occurrences[j].SlotDate
		}
		return occurrences[i].StartTime < occurrences[j].StartTime
	})

	return &dto.ResolvedWeekResponse{
		WeekStart:   start.Format(dateLayout),
		Occurrences: occurrences,
	}, nil
}

func (s *resolverService) ResolveMaster(ctx context.Context) ([]dto.TemplateResponse, error) {
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

func (s *resolverService) ResolveAt(ctx context.Context, at time.Time) (*dto.ResolvedOccurrence, error) {
	week, err := s.ResolveWeek(ctx, clock.Midnight(at).Format(dateLayout))
	if err != nil {
		return nil, err
	}
	date := clock.Midnight(at).Format(dateLayout)
	hhmm := at.Format("15:04")
	for i := range week.Occurrences {
		occ := &week.Occurrences[i]
		if occ.SlotDate == date && occ.StartTime <= hhmm && hhmm < occ.EndTime {
			return occ, nil
		}
	}
	return nil, nil
}

// ── 归类与缓存 ──

// resolveInstance 落库行的 origin 归类：
//   - 无母版血缘 → custom
//   - 有血缘且用户单独改过 → override
//   - 有血缘且保持自动物化原样 → template-virtual（对外等同母版合成）
func resolveInstance(inst *model.InstanceSlot) dto.ResolvedOccurrence {
	occ := dto.ResolvedOccurrence{
		SlotDate:      inst.SlotDate.Format(dateLayout),
		DayOfWeek:     inst.DayOfWeek,
		StartTime:     inst.StartTime,
		EndTime:       inst.EndTime,
		ProgramName:   inst.ProgramName,
		Host:          inst.Host,
		Color:         inst.Color,
		IsPrerecorded: inst.IsPrerecorded,
		IsCollection:  inst.IsCollection,
		HasLineup:     inst.HasLineup,
		PICode:        inst.PICode,
		IsStereo:      inst.IsStereo,
		DisplayText:   inst.DisplayText,
		DisplayTextEn: inst.DisplayTextEn,
	}
	switch {
	case inst.ParentTemplateID == nil:
		occ.Origin = dto.OriginCustom
		occ.SourceID = inst.InstanceSlotID
	case inst.IsCustomized:
		occ.Origin = dto.OriginOverride
		occ.SourceID = inst.InstanceSlotID
	default:
		occ.Origin = dto.OriginTemplateVirtual
		occ.SourceID = *inst.ParentTemplateID
	}
	return occ
}

func resolveTemplate(t *model.TemplateSlot, date time.Time) dto.ResolvedOccurrence {
	return dto.ResolvedOccurrence{
		SlotDate:      date.Format(dateLayout),
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
		Origin:        dto.OriginTemplateVirtual,
		SourceID:      t.TemplateSlotID,
	}
}

func (s *resolverService) cacheGet(ctx context.Context, weekKey string) *dto.ResolvedWeekResponse {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.GetWeek(ctx, weekKey)
	if err != nil || payload == "" {
		return nil
	}
	var resp dto.ResolvedWeekResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		s.logger.Warn("周视图缓存损坏", zap.String("week", weekKey), zap.Error(err))
		return nil
	}
	return &resp
}

func (s *resolverService) cachePut(ctx context.Context, weekKey string, resp *dto.ResolvedWeekResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.SetWeek(ctx, weekKey, string(payload), s.cacheTTL); err != nil {
		s.logger.Warn("周视图缓存写入失败", zap.String("week", weekKey), zap.Error(err))
	}
}

// [自证通过] internal/service/resolver_service.go
