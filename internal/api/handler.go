package api

import (
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"

	"indecstat/internal/importer"
	"indecstat/internal/store"
)

// Handler API 处理器
type Handler struct {
	store       *store.Store
	coordinator *importer.Coordinator
	indicators  []importer.Indicator
	logger      *slog.Logger

	// 正在采集的指标，同一指标不并发采集
	running   map[string]struct{}
	runningMu sync.Mutex
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, coordinator *importer.Coordinator, indicators []importer.Indicator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:       st,
		coordinator: coordinator,
		indicators:  indicators,
		logger:      logger,
		running:     make(map[string]struct{}),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	// 指标与数据源
	router.GET("/indicators", h.ListIndicators)

	// 手动触发采集
	router.POST("/ingest/:indicator", h.Ingest)

	// 序列查询
	router.GET("/series/emae", h.ListEMAE)
	router.GET("/series/ipc", h.ListIPC)
	router.GET("/series/labor", h.ListLabor)

	// 采集日志
	router.GET("/runs", h.ListRuns)
}

func (h *Handler) indicator(name string) (importer.Indicator, bool) {
	for _, ind := range h.indicators {
		if ind.Name() == name {
			return ind, true
		}
	}
	return nil, false
}

// acquire 标记指标开始采集，已在采集中时返回 false
func (h *Handler) acquire(name string) bool {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()
	if _, busy := h.running[name]; busy {
		return false
	}
	h.running[name] = struct{}{}
	return true
}

func (h *Handler) release(name string) {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()
	delete(h.running, name)
}
