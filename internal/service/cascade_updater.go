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

// ── 级联更新器 ──
//
// 母版的创建/更新/删除向其派生的具体日期档传播。刻意独立成类型而不是
// 写操作的内联副作用，便于单独测试与复用（修复操作也经由它）。
//
// 所有多行扇出均为尽力而为：单行失败记录到报告中，不回滚母版本体，
// 也不中断其余行。视界物化按 (母版, 日期) 幂等，可安全重跑。

// CascadeUpdater 级联更新器
type CascadeUpdater struct {
	repo         *repository.Repository
	clk          clock.Clock
	horizonWeeks int
	logger       *zap.Logger
}

// NewCascadeUpdater 创建级联更新器
func NewCascadeUpdater(repo *repository.Repository, clk clock.Clock, horizonWeeks int, logger *zap.Logger) *CascadeUpdater {
	return &CascadeUpdater{
		repo:         repo,
		clk:          clk,
		horizonWeeks: horizonWeeks,
		logger:       logger,
	}
}

// ════════════════════════════════════════════════════════════
// MaterializeHorizon — 向未来物化母版的具体日期档
// ════════════════════════════════════════════════════════════
//
// 从当前周（时钟推导的周日）起共 horizonWeeks+1 周，计算母版星期对应的
// 日期；严格早于今天的日期跳过（周中建档不回填本周已过去的那天）。
// 仅当 (母版, 日期) 尚无任何行时插入，继承母版全部载荷。

func (u *CascadeUpdater) MaterializeHorizon(ctx context.Context, tmpl *model.TemplateSlot) *dto.CascadeReport {
	today := u.clk.Today()
	weekStart := u.clk.WeekStart(today)

	report := &dto.CascadeReport{}
	for offset := 0; offset <= u.horizonWeeks; offset++ {
		date := clock.AddDays(weekStart, offset*7+tmpl.DayOfWeek)
		if date.Before(today) {
			continue
		}

		// 幂等：该日期已有覆盖或墓碑则不动
		_, err := u.repo.Instance.FindByParentAndDate(ctx, tmpl.TemplateSlotID, date)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			report.Total++
			report.Failed++
			report.Results = append(report.Results, dto.CascadeRowResult{
				SlotDate: date.Format(dateLayout), OK: false, Error: err.Error(),
			})
			u.logger.Warn("物化前查询失败", zap.String("template_id", tmpl.TemplateSlotID),
				zap.String("date", date.Format(dateLayout)), zap.Error(err))
			continue
		}

		inst := instanceFromTemplate(tmpl, date)
		report.Total++
		if err := u.repo.Instance.Create(ctx, inst); err != nil {
			// 并发物化撞上唯一索引等价于"已存在"，按成功处理
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				report.Results = append(report.Results, dto.CascadeRowResult{
					SlotDate: date.Format(dateLayout), OK: true,
				})
				continue
			}
			report.Failed++
			report.Results = append(report.Results, dto.CascadeRowResult{
				SlotDate: date.Format(dateLayout), OK: false, Error: err.Error(),
			})
			u.logger.Warn("物化具体档失败", zap.String("template_id", tmpl.TemplateSlotID),
				zap.String("date", date.Format(dateLayout)), zap.Error(err))
			continue
		}
		report.Results = append(report.Results, dto.CascadeRowResult{
			InstanceID: inst.InstanceSlotID, SlotDate: date.Format(dateLayout), OK: true,
		})
	}
	return report
}

// ════════════════════════════════════════════════════════════
// CascadeUpdate — 母版属性变更传播到未来具体档
// ════════════════════════════════════════════════════════════
//
// 作用于 slot_date >= 今天且未删除的派生行，属性无条件覆盖。
// 自动物化行与用户单独改过的行一视同仁（沿用既有行为，母版为权威）。

func (u *CascadeUpdater) CascadeUpdate(ctx context.Context, templateID string, fields *dto.SlotFields) (*dto.CascadeReport, error) {
	columns := slotFieldColumns(fields)
	if len(columns) == 0 {
		return &dto.CascadeReport{}, nil
	}

	rows, err := u.repo.Instance.ListActiveByParentFromDate(ctx, templateID, u.clk.Today())
	if err != nil {
		return nil, err
	}

	report := &dto.CascadeReport{Total: len(rows)}
	for _, row := range rows {
		result := dto.CascadeRowResult{
			InstanceID: row.InstanceSlotID,
			SlotDate:   row.SlotDate.Format(dateLayout),
			OK:         true,
		}
		if err := u.repo.Instance.UpdateFields(ctx, row.InstanceSlotID, columns); err != nil {
			result.OK = false
			result.Error = err.Error()
			report.Failed++
			u.logger.Warn("级联更新单行失败", zap.String("instance_id", row.InstanceSlotID), zap.Error(err))
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// ════════════════════════════════════════════════════════════
// CascadeDelete — 母版删除的全量墓碑化
// ════════════════════════════════════════════════════════════
//
// 不限日期：过去与未来的派生行一并标记删除（刻意的全量级联语义）。

func (u *CascadeUpdater) CascadeDelete(ctx context.Context, templateID string) (*dto.CascadeReport, error) {
	rows, err := u.repo.Instance.ListByParent(ctx, templateID)
	if err != nil {
		return nil, err
	}

	report := &dto.CascadeReport{}
	for _, row := range rows {
		if row.IsDeleted {
			continue
		}
		report.Total++
		result := dto.CascadeRowResult{
			InstanceID: row.InstanceSlotID,
			SlotDate:   row.SlotDate.Format(dateLayout),
			OK:         true,
		}
		if err := u.repo.Instance.MarkDeleted(ctx, row.InstanceSlotID); err != nil {
			result.OK = false
			result.Error = err.Error()
			report.Failed++
			u.logger.Warn("级联删除单行失败", zap.String("instance_id", row.InstanceSlotID), zap.Error(err))
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// ════════════════════════════════════════════════════════════
// RepairLegacySchedule — 遗留数据一次性修复
// ════════════════════════════════════════════════════════════
//
// 迁移旧模型数据：(a) 为缺日期的行按星期投影到当前周回填 slot_date；
// (b) 无母版血缘的合格行提升为母版并建立关联；(c) 对全部母版重跑视界物化。
// 不属于常规请求流程，幂等可重入。

func (u *CascadeUpdater) RepairLegacySchedule(ctx context.Context) (*dto.RepairReport, error) {
	report := &dto.RepairReport{}
	weekStart := u.clk.WeekStart(u.clk.Today())

	legacy, err := u.repo.Instance.ListMissingDate(ctx)
	if err != nil {
		return nil, err
	}

	for _, row := range legacy {
		date := clock.AddDays(weekStart, row.DayOfWeek)

		if row.ParentTemplateID == nil && !row.IsDeleted {
			tmplID, promoted, err := u.ensureTemplateFor(ctx, &row)
			if err != nil {
				u.logger.Warn("提升遗留行为母版失败", zap.String("instance_id", row.InstanceSlotID), zap.Error(err))
			} else {
				if promoted {
					report.TemplatesPromoted++
				}
				if err := u.repo.Instance.UpdateFields(ctx, row.InstanceSlotID, map[string]interface{}{
					"parent_template_id": tmplID,
				}); err != nil {
					u.logger.Warn("关联母版失败", zap.String("instance_id", row.InstanceSlotID), zap.Error(err))
				}
			}
		}

		if err := u.repo.Instance.UpdateFields(ctx, row.InstanceSlotID, map[string]interface{}{
			"slot_date":   date,
			"day_of_week": row.DayOfWeek,
		}); err != nil {
			u.logger.Warn("回填日期失败", zap.String("instance_id", row.InstanceSlotID), zap.Error(err))
			continue
		}
		report.DatesBackfilled++
	}

	templates, err := u.repo.Template.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	horizon := &dto.CascadeReport{}
	for _, tmpl := range templates {
		r := u.MaterializeHorizon(ctx, &tmpl)
		horizon.Total += r.Total
		horizon.Failed += r.Failed
		horizon.Results = append(horizon.Results, r.Results...)
		report.TemplatesProcessed++
	}
	report.Horizon = horizon

	return report, nil
}

// ensureTemplateFor 为遗留行查找或创建同 (星期, 时段) 的母版
func (u *CascadeUpdater) ensureTemplateFor(ctx context.Context, row *model.InstanceSlot) (string, bool, error) {
	existing, err := u.repo.Template.FindActiveByKey(ctx, row.DayOfWeek, row.StartTime, row.EndTime)
	if err == nil {
		return existing.TemplateSlotID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	tmpl := &model.TemplateSlot{
		TemplateSlotID: uuid.New().String(),
		DayOfWeek:      row.DayOfWeek,
		StartTime:      row.StartTime,
		EndTime:        row.EndTime,
		ProgramInfo:    row.ProgramInfo,
	}
	if err := u.repo.Template.Create(ctx, tmpl); err != nil {
		return "", false, err
	}
	return tmpl.TemplateSlotID, true, nil
}

// ── 共用转换 ──

// instanceFromTemplate 由母版派生继承其载荷的具体日期档
func instanceFromTemplate(tmpl *model.TemplateSlot, date time.Time) *model.InstanceSlot {
	parentID := tmpl.TemplateSlotID
	return &model.InstanceSlot{
		InstanceSlotID:   uuid.New().String(),
		ParentTemplateID: &parentID,
		SlotDate:         date,
		DayOfWeek:        tmpl.DayOfWeek,
		StartTime:        tmpl.StartTime,
		EndTime:          tmpl.EndTime,
		ProgramInfo:      tmpl.ProgramInfo,
		IsCustomized:     false,
	}
}

// slotFieldColumns 将字段集合转为列名映射；nil 字段不参与更新。
// 日期/母版身份字段不在 SlotFields 内，天然不可经此修改。
func slotFieldColumns(f *dto.SlotFields) map[string]interface{} {
	columns := make(map[string]interface{})
	if f == nil {
		return columns
	}
	if f.StartTime != nil {
		columns["start_time"] = *f.StartTime
	}
	if f.EndTime != nil {
		columns["end_time"] = *f.EndTime
	}
	if f.ProgramName != nil {
		columns["program_name"] = *f.ProgramName
	}
	if f.Host != nil {
		columns["host"] = *f.Host
	}
	if f.Color != nil {
		columns["color"] = *f.Color
	}
	if f.IsPrerecorded != nil {
		columns["is_prerecorded"] = *f.IsPrerecorded
	}
	if f.IsCollection != nil {
		columns["is_collection"] = *f.IsCollection
	}
	if f.HasLineup != nil {
		columns["has_lineup"] = *f.HasLineup
	}
	if f.PICode != nil {
		columns["pi_code"] = *f.PICode
	}
	if f.IsStereo != nil {
		columns["is_stereo"] = *f.IsStereo
	}
	if f.DisplayText != nil {
		columns["display_text"] = *f.DisplayText
	}
	if f.DisplayTextEn != nil {
		columns["display_text_en"] = *f.DisplayTextEn
	}
	return columns
}

// [自证通过] internal/service/cascade_updater.go
