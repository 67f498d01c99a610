package repository

import (
	"context"

	"gorm.io/gorm"

	"onair/backend/internal/model"
)

// TemplateRepository 固定节目档（母版）数据访问接口
type TemplateRepository interface {
	Create(ctx context.Context, slot *model.TemplateSlot) error
	GetByID(ctx context.Context, id string) (*model.TemplateSlot, error)
	// ListActive 未删除母版，按 (day_of_week, start_time) 升序
	ListActive(ctx context.Context) ([]model.TemplateSlot, error)
	// ListActiveByDay 指定星期的未删除母版
	ListActiveByDay(ctx context.Context, dayOfWeek int) ([]model.TemplateSlot, error)
	// FindActiveByKey 按 (day_of_week, start_time, end_time) 回查母版
	// 虚拟档物化时的定位键；无匹配返回 gorm.ErrRecordNotFound
	FindActiveByKey(ctx context.Context, dayOfWeek int, startTime, endTime string) (*model.TemplateSlot, error)
	// UpdateFields 按字段集合就地更新
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	// MarkDeleted 软删除母版本体（级联由服务层逐行执行）
	MarkDeleted(ctx context.Context, id string) error
}

type templateRepo struct {
	db *gorm.DB
}

// NewTemplateRepo 创建 TemplateRepository 实例
func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, slot *model.TemplateSlot) error {
	// 部分唯一索引 ux_template_slots_dow_start 兜底：
	// 并发创建同一(星期, 开始时间)时第二个写入者得到 gorm.ErrDuplicatedKey
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*model.TemplateSlot, error) {
	var slot model.TemplateSlot
	err := r.db.WithContext(ctx).
		Where("template_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *templateRepo) ListActive(ctx context.Context) ([]model.TemplateSlot, error) {
	var slots []model.TemplateSlot
	err := r.db.WithContext(ctx).
		Where("is_deleted = false").
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *templateRepo) ListActiveByDay(ctx context.Context, dayOfWeek int) ([]model.TemplateSlot, error) {
	var slots []model.TemplateSlot
	err := r.db.WithContext(ctx).
		Where("day_of_week = ? AND is_deleted = false", dayOfWeek).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *templateRepo) FindActiveByKey(ctx context.Context, dayOfWeek int, startTime, endTime string) (*model.TemplateSlot, error) {
	var slot model.TemplateSlot
	err := r.db.WithContext(ctx).
		Where("day_of_week = ? AND start_time = ? AND end_time = ? AND is_deleted = false",
			dayOfWeek, startTime, endTime).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *templateRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.TemplateSlot{}).
		Where("template_slot_id = ?", id).
		Updates(fields).Error
}

func (r *templateRepo) MarkDeleted(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.TemplateSlot{}).
		Where("template_slot_id = ?", id).
		Update("is_deleted", true).Error
}

// [自证通过] internal/repository/template_repo.go
