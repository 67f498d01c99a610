package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"onair/backend/internal/dto"
	"onair/backend/internal/model"
	"onair/backend/pkg/clock"
)

func setupOccurrenceService() (OccurrenceService, *mockTemplateRepo, *mockInstanceRepo) {
	repo, tmplRepo, instRepo := newTestRepo()
	svc := NewOccurrenceService(repo, clock.NewFixed(testNow), nil, zap.NewNop())
	return svc, tmplRepo, instRepo
}

// seedMondayTemplate 周一早间母版 + 下周一(1/12)的自动物化行
func seedMondayTemplate(tmplRepo *mockTemplateRepo, instRepo *mockInstanceRepo) (*model.TemplateSlot, *model.InstanceSlot) {
	tmpl := mondayTemplate()
	tmplRepo.templates[tmpl.TemplateSlotID] = tmpl

	parentID := tmpl.TemplateSlotID
	inst := &model.InstanceSlot{
		InstanceSlotID: "inst-0112", ParentTemplateID: &parentID,
		SlotDate: testDate(12), DayOfWeek: 1,
		StartTime: "09:00", EndTime: "10:00",
		ProgramInfo: tmpl.ProgramInfo,
	}
	instRepo.instances[inst.InstanceSlotID] = inst
	return tmpl, inst
}

// ── 自定义档 ──

func TestOccurrenceService_CreateCustom(t *testing.T) {
	svc, _, instRepo := setupOccurrenceService()

	result, err := svc.CreateCustom(context.Background(), &dto.CreateOccurrenceRequest{
		SlotDate: "2026-01-08", StartTime: "22:00", EndTime: "23:00", ProgramName: "深夜访谈",
	})
	if err != nil {
		t.Fatalf("CreateCustom 应成功: %v", err)
	}
	if result.ParentTemplateID != nil {
		t.Error("自定义档不应有母版血缘")
	}
	if result.DayOfWeek != 4 {
		t.Errorf("2026-01-08 是周四，实际 day_of_week=%d", result.DayOfWeek)
	}
	inst := instRepo.instances[result.ID]
	if inst == nil || !inst.IsCustomized {
		t.Error("自定义档应落库并带单独编辑标记")
	}
}

func TestOccurrenceService_CreateCustom_OverlapConflict(t *testing.T) {
	svc, _, _ := setupOccurrenceService()
	svc.CreateCustom(context.Background(), &dto.CreateOccurrenceRequest{
		SlotDate: "2026-01-08", StartTime: "22:00", EndTime: "23:30", ProgramName: "深夜访谈",
	})

	_, err := svc.CreateCustom(context.Background(), &dto.CreateOccurrenceRequest{
		SlotDate: "2026-01-08", StartTime: "23:00", EndTime: "23:59", ProgramName: "午夜档",
	})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("重叠时段应返回 ConflictError，实际=%v", err)
	}
	if cerr.Kind != ConflictOverlap {
		t.Errorf("冲突子类应为 overlap，实际=%s", cerr.Kind)
	}
}

func TestOccurrenceService_CreateCustom_DuplicateConflict(t *testing.T) {
	svc, _, _ := setupOccurrenceService()
	svc.CreateCustom(context.Background(), &dto.CreateOccurrenceRequest{
		SlotDate: "2026-01-08", StartTime: "22:00", EndTime: "23:00", ProgramName: "深夜访谈",
	})

	_, err := svc.CreateCustom(context.Background(), &dto.CreateOccurrenceRequest{
		SlotDate: "2026-01-08", StartTime: "22:00", EndTime: "23:30", ProgramName: "午夜档",
	})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("同开始时刻应返回 ConflictError，实际=%v", err)
	}
	if cerr.Kind != ConflictDuplicate {
		t.Errorf("冲突子类应为 duplicate，实际=%s", cerr.Kind)
	}
}

// ── 具体行编辑 ──

func TestOccurrenceService_Upsert_ConcreteMarksCustomized(t *testing.T) {
	svc, tmplRepo, instRepo := setupOccurrenceService()
	_, inst := seedMondayTemplate(tmplRepo, instRepo)

	result, err := svc.Upsert(context.Background(), &dto.UpsertOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{InstanceID: inst.InstanceSlotID},
		Fields:     dto.SlotFields{Host: strPtr("王五")},
	})
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if result.Host != "王五" {
		t.Errorf("字段应就地更新，实际=%s", result.Host)
	}
	if !instRepo.instances[inst.InstanceSlotID].IsCustomized {
		t.Error("编辑后应带单独编辑标记")
	}
}

func TestOccurrenceService_Upsert_ConcreteNotFound(t *testing.T) {
	svc, _, _ := setupOccurrenceService()

	_, err := svc.Upsert(context.Background(), &dto.UpsertOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{InstanceID: "ghost"},
		Fields:     dto.SlotFields{Host: strPtr("王五")},
	})
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("应返回 NotFoundError，实际=%v", err)
	}
}

// ── 虚拟档编辑 ──

func TestOccurrenceService_Upsert_VirtualWithExistingRow(t *testing.T) {
	svc, tmplRepo, instRepo := setupOccurrenceService()
	_, inst := seedMondayTemplate(tmplRepo, instRepo)

	// 虚拟标识指向已物化的(母版, 1/12)：应更新既有行而不是再插一行
	result, err := svc.Upsert(context.Background(), &dto.UpsertOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{
			SlotDate: "2026-01-12", DayOfWeek: intPtr(1),
			StartTime: "09:00", EndTime: "10:00",
		},
		Fields: dto.SlotFields{ProgramName: strPtr("特别报道")},
	})
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if result.ID != inst.InstanceSlotID {
		t.Errorf("应复用既有行 %s，实际=%s", inst.InstanceSlotID, result.ID)
	}
	if len(instRepo.instances) != 1 {
		t.Errorf("不应产生新行，实际行数=%d", len(instRepo.instances))
	}
	if instRepo.instances[inst.InstanceSlotID].ProgramName != "特别报道" {
		t.Error("既有行应被更新")
	}
}

func TestOccurrenceService_Upsert_VirtualBeyondHorizon(t *testing.T) {
	svc, tmplRepo, instRepo := setupOccurrenceService()
	tmpl := mondayTemplate()
	tmplRepo.templates[tmpl.TemplateSlotID] = tmpl

	// 视界外的远期周一：按需物化并带上编辑内容
	result, err := svc.Upsert(context.Background(), &dto.UpsertOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{
			SlotDate: "2026-06-01", DayOfWeek: intPtr(1),
			StartTime: "09:00", EndTime: "10:00",
		},
		Fields: dto.SlotFields{Host: strPtr("客座主持")},
	})
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	inst := instRepo.instances[result.ID]
	if inst == nil {
		t.Fatal("应物化新行")
	}
	if inst.ParentTemplateID == nil || *inst.ParentTemplateID != tmpl.TemplateSlotID {
		t.Error("物化行应保留母版血缘")
	}
	if !inst.IsCustomized {
		t.Error("编辑物化的行应带单独编辑标记")
	}
	if inst.Host != "客座主持" || inst.ProgramName != "早间新闻" {
		t.Errorf("应继承母版载荷并套用编辑: %+v", inst.ProgramInfo)
	}
}

func TestOccurrenceService_Upsert_VirtualTemplateNotFound(t *testing.T) {
	svc, _, _ := setupOccurrenceService()

	_, err := svc.Upsert(context.Background(), &dto.UpsertOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{
			SlotDate: "2026-01-12", DayOfWeek: intPtr(1),
			StartTime: "09:00", EndTime: "10:00",
		},
		Fields: dto.SlotFields{Host: strPtr("王五")},
	})
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("无对应母版应返回 NotFoundError，实际=%v", err)
	}
}

func TestOccurrenceService_Upsert_VirtualDateWeekdayMismatch(t *testing.T) {
	svc, tmplRepo, _ := setupOccurrenceService()
	tmpl := mondayTemplate()
	tmplRepo.templates[tmpl.TemplateSlotID] = tmpl

	// 2026-01-13 是周二，与 day_of_week=1 不一致
	_, err := svc.Upsert(context.Background(), &dto.UpsertOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{
			SlotDate: "2026-01-13", DayOfWeek: intPtr(1),
			StartTime: "09:00", EndTime: "10:00",
		},
		Fields: dto.SlotFields{Host: strPtr("王五")},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("日期与星期不一致应返回 ValidationError，实际=%v", err)
	}
}

// ── 删除（墓碑语义） ──

func TestOccurrenceService_Delete_ConcreteBecomesTombstone(t *testing.T) {
	svc, tmplRepo, instRepo := setupOccurrenceService()
	_, inst := seedMondayTemplate(tmplRepo, instRepo)

	err := svc.Delete(context.Background(), &dto.DeleteOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{InstanceID: inst.InstanceSlotID},
	})
	if err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	row := instRepo.instances[inst.InstanceSlotID]
	if !row.IsDeleted {
		t.Error("有母版血缘的行删除后应保留为墓碑")
	}
	if !row.IsTombstone() {
		t.Error("IsTombstone 应为 true")
	}
}

func TestOccurrenceService_Delete_VirtualWithoutRowInsertsTombstone(t *testing.T) {
	svc, tmplRepo, instRepo := setupOccurrenceService()
	tmpl := mondayTemplate()
	tmplRepo.templates[tmpl.TemplateSlotID] = tmpl

	// 视界外日期，尚无落库行：删除直接落一行墓碑
	err := svc.Delete(context.Background(), &dto.DeleteOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{
			SlotDate: "2026-06-01", DayOfWeek: intPtr(1),
			StartTime: "09:00", EndTime: "10:00",
		},
	})
	if err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	tomb, ferr := instRepo.FindByParentAndDate(context.Background(), tmpl.TemplateSlotID,
		testDate(1).AddDate(0, 5, 0))
	if ferr != nil {
		t.Fatal("应存在 2026-06-01 的墓碑行")
	}
	if !tomb.IsDeleted {
		t.Error("落库行应为墓碑")
	}
}

func TestOccurrenceService_Delete_VirtualIdempotent(t *testing.T) {
	svc, tmplRepo, instRepo := setupOccurrenceService()
	_, inst := seedMondayTemplate(tmplRepo, instRepo)
	inst.IsDeleted = true

	// 已是墓碑：再删为空操作
	err := svc.Delete(context.Background(), &dto.DeleteOccurrenceRequest{
		Identifier: dto.OccurrenceIdentifier{
			SlotDate: "2026-01-12", DayOfWeek: intPtr(1),
			StartTime: "09:00", EndTime: "10:00",
		},
	})
	if err != nil {
		t.Fatalf("重复删除应幂等: %v", err)
	}
	if len(instRepo.instances) != 1 {
		t.Errorf("不应产生新行，实际行数=%d", len(instRepo.instances))
	}
}

// [自证通过] internal/service/occurrence_service_test.go
