package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"onair/backend/internal/dto"
	"onair/backend/pkg/clock"
)

func setupTemplateService() (TemplateService, *mockTemplateRepo, *mockInstanceRepo) {
	repo, tmplRepo, instRepo := newTestRepo()
	clk := clock.NewFixed(testNow)
	cascade := NewCascadeUpdater(repo, clk, testHorizonWeeks, zap.NewNop())
	svc := NewTemplateService(repo, cascade, nil, zap.NewNop())
	return svc, tmplRepo, instRepo
}

// ── Create ──

func TestTemplateService_Create_MaterializesHorizon(t *testing.T) {
	svc, _, instRepo := setupTemplateService()

	result, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 5, StartTime: "18:00", EndTime: "20:00", ProgramName: "周末前瞻",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Template.ID == "" {
		t.Fatal("应返回母版 id")
	}
	// 周五未到：本周 + 12 周视界
	if result.Cascade == nil || result.Cascade.Total != testHorizonWeeks+1 {
		t.Fatalf("期望物化 %d 行，实际=%+v", testHorizonWeeks+1, result.Cascade)
	}
	if len(instRepo.instances) != testHorizonWeeks+1 {
		t.Errorf("落库行数应为 %d，实际=%d", testHorizonWeeks+1, len(instRepo.instances))
	}
}

func TestTemplateService_Create_DuplicateStart(t *testing.T) {
	svc, _, _ := setupTemplateService()

	req := &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ProgramName: "早间新闻",
	}
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}

	_, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00", ProgramName: "另一档",
	})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("同(星期, 开始时间)应返回 ConflictError，实际=%v", err)
	}
	if cerr.Kind != ConflictDuplicate {
		t.Errorf("冲突子类应为 duplicate，实际=%s", cerr.Kind)
	}
}

func TestTemplateService_Create_InvalidTimes(t *testing.T) {
	svc, _, _ := setupTemplateService()

	_, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00", ProgramName: "倒置时段",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("结束早于开始应返回 ValidationError，实际=%v", err)
	}
}

// ── Update ──

func TestTemplateService_Update_CascadesToFuture(t *testing.T) {
	svc, _, instRepo := setupTemplateService()

	created, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ProgramName: "早间新闻",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	result, err := svc.Update(context.Background(), created.Template.ID, &dto.SlotFields{
		ProgramName: strPtr("晨间节目"),
		Host:        strPtr("李四"),
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Template.ProgramName != "晨间节目" {
		t.Errorf("母版本体应就地更新，实际=%s", result.Template.ProgramName)
	}
	if result.Cascade.Total != testHorizonWeeks || result.Cascade.Failed != 0 {
		t.Errorf("级联报告异常: %+v", result.Cascade)
	}
	future, _ := instRepo.FindByParentAndDate(context.Background(), created.Template.ID, testDate(12))
	if future.ProgramName != "晨间节目" || future.Host != "李四" {
		t.Errorf("未来行应同步母版变更，实际=%+v", future.ProgramInfo)
	}
}

func TestTemplateService_Update_EmptyFields(t *testing.T) {
	svc, _, _ := setupTemplateService()
	created, _ := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ProgramName: "早间新闻",
	})

	_, err := svc.Update(context.Background(), created.Template.ID, &dto.SlotFields{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("空字段集应返回 ValidationError，实际=%v", err)
	}
}

func TestTemplateService_Update_StartTimeCollision(t *testing.T) {
	svc, _, _ := setupTemplateService()
	svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ProgramName: "早间新闻",
	})
	second, _ := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "11:00", EndTime: "12:00", ProgramName: "午间档",
	})

	_, err := svc.Update(context.Background(), second.Template.ID, &dto.SlotFields{
		StartTime: strPtr("09:00"), EndTime: strPtr("10:00"),
	})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("撞上兄弟母版开始时刻应返回 ConflictError，实际=%v", err)
	}
}

func TestTemplateService_Update_NotFound(t *testing.T) {
	svc, _, _ := setupTemplateService()

	_, err := svc.Update(context.Background(), "ghost", &dto.SlotFields{ProgramName: strPtr("x")})
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("应返回 NotFoundError，实际=%v", err)
	}
}

// ── Delete ──

func TestTemplateService_Delete_FullCascade(t *testing.T) {
	svc, tmplRepo, instRepo := setupTemplateService()
	created, _ := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 5, StartTime: "18:00", EndTime: "20:00", ProgramName: "周末前瞻",
	})

	report, err := svc.Delete(context.Background(), created.Template.ID)
	if err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if report.Total != testHorizonWeeks+1 || report.Failed != 0 {
		t.Errorf("级联报告异常: %+v", report)
	}
	if !tmplRepo.templates[created.Template.ID].IsDeleted {
		t.Error("母版应被软删除")
	}
	for id, inst := range instRepo.instances {
		if !inst.IsDeleted {
			t.Errorf("派生行 %s 应被墓碑化", id)
		}
	}

	// 删除后按 id 不可见
	if _, err := svc.Get(context.Background(), created.Template.ID); err == nil {
		t.Error("删除后的母版不应可见")
	}
}

// ── List ──

func TestTemplateService_List_OrderedAndFiltered(t *testing.T) {
	svc, _, _ := setupTemplateService()
	svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 3, StartTime: "08:00", EndTime: "09:00", ProgramName: "C",
	})
	svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "12:00", EndTime: "13:00", ProgramName: "B",
	})
	a, _ := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ProgramName: "A",
	})
	svc.Delete(context.Background(), a.Template.ID)

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("期望 2 个未删除母版，实际=%d", len(list))
	}
	if list[0].ProgramName != "B" || list[1].ProgramName != "C" {
		t.Errorf("应按(星期, 开始时间)排序，实际=%s, %s", list[0].ProgramName, list[1].ProgramName)
	}
}

// ── 缓存失效 ──

type spyCache struct {
	invalidatedAll   int
	invalidatedWeeks []string
}

func (c *spyCache) GetWeek(_ context.Context, _ string) (string, error)           { return "", nil }
func (c *spyCache) SetWeek(_ context.Context, _, _ string, _ time.Duration) error { return nil }
func (c *spyCache) InvalidateWeek(_ context.Context, key string) error {
	c.invalidatedWeeks = append(c.invalidatedWeeks, key)
	return nil
}
func (c *spyCache) InvalidateAllWeeks(_ context.Context) error {
	c.invalidatedAll++
	return nil
}

func TestTemplateService_MutationsInvalidateCache(t *testing.T) {
	repo, _, _ := newTestRepo()
	clk := clock.NewFixed(testNow)
	cache := &spyCache{}
	cascade := NewCascadeUpdater(repo, clk, testHorizonWeeks, zap.NewNop())
	svc := NewTemplateService(repo, cascade, cache, zap.NewNop())

	created, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ProgramName: "早间新闻",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	svc.Update(context.Background(), created.Template.ID, &dto.SlotFields{Host: strPtr("李四")})
	svc.Delete(context.Background(), created.Template.ID)

	if cache.invalidatedAll != 3 {
		t.Errorf("三次母版写操作应各失效一次全部周缓存，实际=%d", cache.invalidatedAll)
	}
}

// [自证通过] internal/service/template_service_test.go
