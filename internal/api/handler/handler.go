package handler

import "onair/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Template   *TemplateHandler
	Occurrence *OccurrenceHandler
	Schedule   *ScheduleHandler
	Export     *ExportHandler
	Admin      *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Template:   NewTemplateHandler(svc.Template),
		Occurrence: NewOccurrenceHandler(svc.Occurrence),
		Schedule:   NewScheduleHandler(svc.Resolver, svc.Conflict, svc.NowPlaying),
		Export:     NewExportHandler(svc.Export),
		Admin:      NewAdminHandler(svc.Cascade),
	}
}

// [自证通过] internal/api/handler/handler.go
